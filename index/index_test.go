/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package index

import (
	"sort"
	"testing"

	"github.com/krotik/graphdb/graph/data"
)

func TestLabelIndexing(t *testing.T) {
	ix := New()
	n := data.NewNode("n1", []string{"User", "Admin"}, nil)

	ix.IndexNode(n)

	users := ix.NodesByLabel("User")
	admins := ix.NodesByLabel("Admin")

	if len(users) != 1 || users[0] != "n1" {
		t.Errorf("expected n1 under label User, got %v", users)
	}
	if len(admins) != 1 || admins[0] != "n1" {
		t.Errorf("expected n1 under label Admin, got %v", admins)
	}

	ix.DeindexNode(n)

	if len(ix.NodesByLabel("User")) != 0 {
		t.Error("expected deindexing to remove the label entry")
	}
}

func TestPropertyIndexing(t *testing.T) {
	ix := New()
	n := data.NewNode("n1", nil, map[string]data.Value{"age": data.Int(30)})

	ix.IndexNode(n)

	got := ix.NodesByProperty("age", data.Int(30))
	if len(got) != 1 || got[0] != "n1" {
		t.Errorf("expected n1 for age=30, got %v", got)
	}

	if got := ix.NodesByProperty("age", data.Int(31)); len(got) != 0 {
		t.Errorf("expected no match for age=31, got %v", got)
	}
}

func TestEdgeIndexingSelfLoop(t *testing.T) {
	ix := New()
	e := data.NewEdge("e1", "FRIEND", "n1", "n1", nil)

	ix.IndexEdge(e)

	out := ix.OutEdges("n1")
	in := ix.InEdges("n1")

	if len(out) != 1 || len(in) != 1 {
		t.Fatalf("expected a self-loop to be indexed on both sides, got out=%v in=%v", out, in)
	}

	ix.DeindexEdge(e)

	if len(ix.OutEdges("n1")) != 0 || len(ix.InEdges("n1")) != 0 {
		t.Error("expected deindexing to remove both entries")
	}
}

func TestReindexOnUpdate(t *testing.T) {
	ix := New()
	old := data.NewNode("n1", []string{"User"}, map[string]data.Value{"age": data.Int(30)})
	ix.IndexNode(old)

	updated := data.NewNode("n1", []string{"Admin"}, map[string]data.Value{"age": data.Int(31)})

	// The transaction engine always deindexes the pre-image before indexing
	// the post-image (§4.3).
	ix.DeindexNode(old)
	ix.IndexNode(updated)

	if len(ix.NodesByLabel("User")) != 0 {
		t.Error("expected the old label to be gone")
	}
	if got := ix.NodesByLabel("Admin"); len(got) != 1 {
		t.Errorf("expected the new label to be indexed, got %v", got)
	}
	if got := ix.NodesByProperty("age", data.Int(30)); len(got) != 0 {
		t.Error("expected the old property pairing to be gone")
	}
}

func TestClear(t *testing.T) {
	ix := New()
	ix.IndexNode(data.NewNode("n1", []string{"User"}, map[string]data.Value{"age": data.Int(1)}))
	ix.IndexEdge(data.NewEdge("e1", "T", "n1", "n1", nil))

	ix.Clear()

	all := append(append([]string{}, ix.NodesByLabel("User")...), ix.OutEdges("n1")...)
	sort.Strings(all)
	if len(all) != 0 {
		t.Errorf("expected Clear to empty every index, got %v", all)
	}
}
