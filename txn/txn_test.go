/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package txn

import (
	"path/filepath"
	"testing"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/store"
	"github.com/krotik/graphdb/wal"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	dir := t.TempDir()
	w, err := wal.Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return NewCoordinator(store.New(), index.New(), w, 0)
}

func TestCreateNodeCommit(t *testing.T) {
	c := newTestCoordinator(t)

	tx, n, err := CreateNode(New(), []string{"User"}, map[string]data.Value{"name": data.String("alice")})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Commit(tx); err != nil {
		t.Fatal(err)
	}

	if tx.State() != StateCommitted {
		t.Errorf("expected committed state, got %v", tx.State())
	}
	if got, ok := c.st.GetNode(n.ID); !ok || !got.HasLabel("User") {
		t.Errorf("expected the node to be live in the store, got %v %v", got, ok)
	}
	if got := c.ix.NodesByLabel("User"); len(got) != 1 {
		t.Errorf("expected the node to be indexed under its label, got %v", got)
	}
	if c.LastTxID() != 1 {
		t.Errorf("expected last tx id 1, got %d", c.LastTxID())
	}
}

func TestCreateEdgeReferentialIntegrityAtApplyTime(t *testing.T) {
	c := newTestCoordinator(t)

	tx, _, err := CreateEdge(New(), "FRIEND", "missing-from", "missing-to", nil)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic on referential integrity violation at apply time")
		}
	}()

	c.Commit(tx)
}

func TestUpdateNodeMergesProperties(t *testing.T) {
	c := newTestCoordinator(t)

	tx, n, _ := CreateNode(New(), []string{"User"}, map[string]data.Value{
		"name": data.String("alice"),
		"age":  data.Int(30),
	})
	if err := c.Commit(tx); err != nil {
		t.Fatal(err)
	}

	tx2, updated, err := UpdateNode(New(), c.st, n.ID, NodeChanges{
		Properties: map[string]data.Value{"age": data.Int(31)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Commit(tx2); err != nil {
		t.Fatal(err)
	}

	name, ok := updated.Property("name")
	if !ok || name.Str() != "alice" {
		t.Error("expected the untouched property to survive the merge")
	}
	age, ok := updated.Property("age")
	if !ok || age.Int64() != 31 {
		t.Error("expected the changed property to be overwritten")
	}
}

func TestUpdateNodeReplacesLabels(t *testing.T) {
	c := newTestCoordinator(t)

	tx, n, _ := CreateNode(New(), []string{"User"}, nil)
	c.Commit(tx)

	newLabels := []string{"Admin"}
	tx2, updated, err := UpdateNode(New(), c.st, n.ID, NodeChanges{Labels: &newLabels})
	if err != nil {
		t.Fatal(err)
	}
	c.Commit(tx2)

	if updated.HasLabel("User") || !updated.HasLabel("Admin") {
		t.Errorf("expected labels to be fully replaced, got %v", updated.LabelList())
	}
}

func TestDeleteNodeCascadesToIncidentEdges(t *testing.T) {
	c := newTestCoordinator(t)

	tx, n1, _ := CreateNode(New(), nil, nil)
	c.Commit(tx)

	tx, n2, _ := CreateNode(New(), nil, nil)
	c.Commit(tx)

	tx, e, _ := CreateEdge(New(), "FRIEND", n1.ID, n2.ID, nil)
	c.Commit(tx)

	tx, err := DeleteNode(New(), c.st, c.ix, n1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Commit(tx); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.st.GetNode(n1.ID); ok {
		t.Error("expected n1 to be gone")
	}
	if _, ok := c.st.GetEdge(e.ID); ok {
		t.Error("expected the incident edge to be cascaded away")
	}
	if _, ok := c.st.GetNode(n2.ID); !ok {
		t.Error("expected the other endpoint to survive")
	}
}

func TestRollbackRestoresPreImage(t *testing.T) {
	c := newTestCoordinator(t)

	tx, n, _ := CreateNode(New(), []string{"User"}, map[string]data.Value{"age": data.Int(30)})
	c.Commit(tx)

	tx2, _, err := UpdateNode(New(), c.st, n.ID, NodeChanges{Properties: map[string]data.Value{"age": data.Int(99)}})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Rollback(tx2); err != nil {
		t.Fatal(err)
	}

	got, _ := c.st.GetNode(n.ID)
	age, _ := got.Property("age")
	if age.Int64() != 30 {
		t.Errorf("expected rollback to restore the pre-image, got age=%v", age.Int64())
	}
	if c.LastTxID() != 1 {
		t.Errorf("expected rollback to not advance last tx id, got %d", c.LastTxID())
	}
}

func TestCommitOnNonOpenTransactionFails(t *testing.T) {
	c := newTestCoordinator(t)

	tx, _, _ := CreateNode(New(), nil, nil)
	if err := c.Commit(tx); err != nil {
		t.Fatal(err)
	}

	if err := c.Commit(tx); !util.Is(err, util.ErrInvalidTransactionState) {
		t.Errorf("expected InvalidTransactionState on double commit, got %v", err)
	}
}

func TestEventListenerFires(t *testing.T) {
	c := newTestCoordinator(t)

	var events []EventKind
	c.AddListener(func(event EventKind, n *data.Node, e *data.Edge) {
		events = append(events, event)
	})

	tx, n, _ := CreateNode(New(), nil, nil)
	c.Commit(tx)

	tx2, _, _ := UpdateNode(New(), c.st, n.ID, NodeChanges{Properties: map[string]data.Value{"x": data.Int(1)}})
	c.Commit(tx2)

	tx3, err := DeleteNode(New(), c.st, c.ix, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	c.Commit(tx3)

	want := []EventKind{EventNodeCreated, EventNodeUpdated, EventNodeDeleted}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], events[i])
		}
	}
}
