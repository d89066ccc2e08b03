/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package exec

import (
	"testing"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/query/optimizer"
	"github.com/krotik/graphdb/query/parser"
	"github.com/krotik/graphdb/query/planner"
	"github.com/krotik/graphdb/store"
)

/*
socialGraph builds a small fixture: alice -[:FRIEND]-> bob -[:FRIEND]-> carol,
plus a standalone dave with no edges.
*/
func socialGraph(t *testing.T) *Context {
	t.Helper()

	st := store.New()
	ix := index.New()

	people := map[string]*data.Node{
		"alice": data.NewNode("alice", []string{"User"}, map[string]data.Value{
			"name": data.String("alice"), "age": data.Int(30),
		}),
		"bob": data.NewNode("bob", []string{"User"}, map[string]data.Value{
			"name": data.String("bob"), "age": data.Int(25),
		}),
		"carol": data.NewNode("carol", []string{"User"}, map[string]data.Value{
			"name": data.String("carol"), "age": data.Int(40),
		}),
		"dave": data.NewNode("dave", []string{"User"}, map[string]data.Value{
			"name": data.String("dave"), "age": data.Int(50),
		}),
	}
	for _, n := range people {
		st.PutNode(n)
		ix.IndexNode(n)
	}

	edges := []*data.Edge{
		data.NewEdge("e1", "FRIEND", "alice", "bob", nil),
		data.NewEdge("e2", "FRIEND", "bob", "carol", nil),
	}
	for _, e := range edges {
		st.PutEdge(e)
		ix.IndexEdge(e)
	}

	return &Context{Store: st, Indexes: ix}
}

func runQuery(t *testing.T, ctx *Context, q string) []ResultRow {
	t.Helper()

	query, err := parser.Parse(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	plan := optimizer.Optimize(planner.Plan(query))

	rows, err := Run(plan, ctx)
	if err != nil {
		t.Fatalf("exec error: %v", err)
	}
	return rows
}

func TestRunNodeScanReturnsEveryNode(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n) RETURN n.name`)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestRunLabelIndexScanWithWhere(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n:User) WHERE n.age > 30 RETURN n.name`)

	names := map[string]bool{}
	for _, r := range rows {
		names[r["n.name"].(data.Value).Str()] = true
	}
	if len(rows) != 2 || !names["carol"] || !names["dave"] {
		t.Errorf("expected carol and dave, got %v", rows)
	}
}

func TestRunExpandFollowsOutgoingEdges(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (a:User {name: "alice"})-[:FRIEND]->(b) RETURN b.name`)

	if len(rows) != 1 || rows[0]["b.name"].(data.Value).Str() != "bob" {
		t.Errorf("expected [bob], got %v", rows)
	}
}

func TestRunExpandFollowsIncomingEdges(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (a:User {name: "carol"})<-[:FRIEND]-(b) RETURN b.name`)

	if len(rows) != 1 || rows[0]["b.name"].(data.Value).Str() != "bob" {
		t.Errorf("expected [bob], got %v", rows)
	}
}

func TestRunProjectWholeNode(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n:User {name: "alice"}) RETURN n`)

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	node, ok := rows[0]["n"].(*data.Node)
	if !ok || node.ID != "alice" {
		t.Errorf("expected the whole alice node, got %v", rows[0]["n"])
	}
}

func TestRunOrderByAscendingDefault(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n:User) RETURN n.name, n.age ORDER BY n.age`)

	var ages []int64
	for _, r := range rows {
		ages = append(ages, r["n.age"].(data.Value).Int64())
	}
	for i := 1; i < len(ages); i++ {
		if ages[i-1] > ages[i] {
			t.Errorf("expected ascending ages, got %v", ages)
		}
	}
}

func TestRunOrderByDescending(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n:User) RETURN n.age ORDER BY n.age DESC`)

	ages := make([]int64, len(rows))
	for i, r := range rows {
		ages[i] = r["n.age"].(data.Value).Int64()
	}
	for i := 1; i < len(ages); i++ {
		if ages[i-1] < ages[i] {
			t.Errorf("expected descending ages, got %v", ages)
		}
	}
}

func TestRunMultiplePatternsProduceCrossProduct(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (a:User {name: "alice"}), (b:User {name: "bob"}) RETURN a.name, b.name`)

	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 combined row, got %d", len(rows))
	}
	if rows[0]["a.name"].(data.Value).Str() != "alice" || rows[0]["b.name"].(data.Value).Str() != "bob" {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestRunNoMatchesReturnsEmptyResult(t *testing.T) {
	rows := runQuery(t, socialGraph(t), `MATCH (n:User {name: "nobody"}) RETURN n`)
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}
