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
	"fmt"
	"sync"
	"time"

	"github.com/krotik/common/errorutil"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/snapshot"
	"github.com/krotik/graphdb/store"
	"github.com/krotik/graphdb/wal"
)

/*
Coordinator is the process-wide Transaction Coordinator (§4.6.2). All
commit, rollback and snapshot calls enter its single mutex; there is
exactly one Coordinator per open data directory.
*/
type Coordinator struct {
	mu sync.Mutex

	st *store.Store
	ix *index.Indexes
	w  *wal.WAL

	lastTxID uint64

	listeners []Listener
}

/*
NewCoordinator creates a Coordinator over an already-populated Store and
Indexes (typically the result of Snapshot.load followed by WAL.replay, see
§2 "Control flow on startup"), starting from lastTxID.
*/
func NewCoordinator(st *store.Store, ix *index.Indexes, w *wal.WAL, lastTxID uint64) *Coordinator {
	return &Coordinator{st: st, ix: ix, w: w, lastTxID: lastTxID}
}

/*
LastTxID returns the id of the most recently committed transaction.
*/
func (c *Coordinator) LastTxID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTxID
}

/*
AddListener registers fn to be notified of every applied op. Not safe to
call concurrently with Commit/Rollback.
*/
func (c *Coordinator) AddListener(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

/*
Snapshot returns the live Store and Indexes for read-only use by the query
engine. Queries never take the coordinator's mutex - Store and Indexes
protect their own maps, and the single-writer discipline of §5 means a
query only ever observes committed data, never an in-flight transaction
(§13 Open Question decision 2).
*/
func (c *Coordinator) Snapshot() (*store.Store, *index.Indexes) {
	return c.st, c.ix
}

/*
Commit runs the commit protocol (§4.6.2): append one WAL record, then
apply every forward op to Store and Indexes. An apply failure after the
WAL append is treated as fatal and panics - see §13's Open Question
decision 1. The Builder does not check edge endpoints, so an edge whose
From or To node does not exist fails apply's referential integrity check
and takes this path.
*/
func (c *Coordinator) Commit(t *Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := t.requireOpen(); err != nil {
		return err
	}

	if t.IsEmpty() {
		t.state = StateCommitted
		return nil
	}

	nextTxID := c.lastTxID + 1

	rec := &wal.Record{
		TxID:      nextTxID,
		Timestamp: time.Now().UnixNano(),
		Ops:       t.opsList(),
	}

	if err := c.w.Append(rec); err != nil {
		return err
	}

	for _, op := range t.opsList() {
		err := c.apply(op)
		errorutil.AssertTrue(err == nil,
			fmt.Sprintf("txn: fatal error applying committed transaction %d: %v", nextTxID, err))
	}

	c.lastTxID = nextTxID
	t.state = StateCommitted

	return nil
}

/*
Rollback runs the rollback protocol (§4.6.2): applies every undo op and
marks the transaction rolled_back. Writes no WAL record - rollback only
ever applies to a transaction that was never committed.
*/
func (c *Coordinator) Rollback(t *Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := t.requireOpen(); err != nil {
		return err
	}

	for _, op := range t.undoList() {
		err := c.apply(op)
		errorutil.AssertTrue(err == nil, fmt.Sprintf("txn: fatal error applying rollback: %v", err))
	}

	t.state = StateRolledBack

	return nil
}

/*
CreateSnapshot runs the snapshot protocol (§4.6.2): captures last_tx_id,
calls Snapshot.create, then truncates the WAL up to that id, all inside
the coordinator's critical section so no commit interleaves.
*/
func (c *Coordinator) CreateSnapshot(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := snapshot.Create(dir, c.st, c.lastTxID); err != nil {
		return err
	}

	return c.w.Truncate(c.lastTxID)
}

/*
ReplayRecord re-applies a single already-committed WAL record read back on
startup (§2 "Control flow on startup": load snapshot, then replay every
record with a greater transaction id). It shares the apply logic Commit
itself uses and advances lastTxID the same way Commit does; pass it
directly as the callback to wal.WAL.Replay. Callers that care about not
re-notifying listeners during startup should call AddListener only after
the replay loop completes.
*/
func (c *Coordinator) ReplayRecord(rec *wal.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.TxID <= c.lastTxID {
		return nil
	}

	for _, op := range rec.Ops {
		if err := c.apply(op); err != nil {
			return err
		}
	}

	if rec.TxID > c.lastTxID {
		c.lastTxID = rec.TxID
	}

	return nil
}

/*
apply applies a single op to Store and Indexes, re-checking referential
integrity for edge inserts (§4.6.1 "referential integrity is checked at
apply time").
*/
func (c *Coordinator) apply(op wal.Op) error {
	switch op.Kind {

	case wal.OpPutNode:
		old, existed := c.st.GetNode(op.Node.ID)
		if existed {
			c.ix.DeindexNode(old)
		}
		c.st.PutNode(op.Node)
		c.ix.IndexNode(op.Node)

		event := EventNodeCreated
		if existed {
			event = EventNodeUpdated
		}
		c.fire(event, op.Node, nil)

	case wal.OpDeleteNode:
		old, existed := c.st.GetNode(op.NodeID)
		if !existed {
			return nil
		}
		c.ix.DeindexNode(old)
		c.st.DeleteNode(op.NodeID)
		c.fire(EventNodeDeleted, old, nil)

	case wal.OpPutEdge:
		if _, ok := c.st.GetNode(op.Edge.From); !ok {
			return util.New(util.ErrReferentialIntegrity,
				fmt.Sprintf("edge %q: from-node %q does not exist", op.Edge.ID, op.Edge.From))
		}
		if _, ok := c.st.GetNode(op.Edge.To); !ok {
			return util.New(util.ErrReferentialIntegrity,
				fmt.Sprintf("edge %q: to-node %q does not exist", op.Edge.ID, op.Edge.To))
		}

		old, existed := c.st.GetEdge(op.Edge.ID)
		if existed {
			c.ix.DeindexEdge(old)
		}
		c.st.PutEdge(op.Edge)
		c.ix.IndexEdge(op.Edge)

		event := EventEdgeCreated
		if existed {
			event = EventEdgeUpdated
		}
		c.fire(event, nil, op.Edge)

	case wal.OpDeleteEdge:
		old, existed := c.st.GetEdge(op.EdgeID)
		if !existed {
			return nil
		}
		c.ix.DeindexEdge(old)
		c.st.DeleteEdge(op.EdgeID)
		c.fire(EventEdgeDeleted, nil, old)
	}

	return nil
}

/*
fire notifies every registered listener of an applied op, in registration
order.
*/
func (c *Coordinator) fire(event EventKind, node *data.Node, edge *data.Edge) {
	for _, l := range c.listeners {
		l(event, node, edge)
	}
}
