/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package engine wires the Store, Indexes, WAL, Snapshot and Transaction
Coordinator into the single embeddable handle described in §6: the
database's public API, opened once per data directory.
*/
package engine

import (
	"path/filepath"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/query/exec"
	"github.com/krotik/graphdb/query/optimizer"
	"github.com/krotik/graphdb/query/parser"
	"github.com/krotik/graphdb/query/planner"
	"github.com/krotik/graphdb/snapshot"
	"github.com/krotik/graphdb/store"
	"github.com/krotik/graphdb/txn"
	"github.com/krotik/graphdb/wal"
)

/*
walFilename is the WAL's path relative to the data directory.
*/
const walFilename = "wal.log"

/*
Engine is an open database: one Store, one Indexes, one WAL and one
Transaction Coordinator, all rooted at a single data directory (§6
"Configuration" - the directory path is the only configuration input).
*/
type Engine struct {
	dir   string
	st    *store.Store
	ix    *index.Indexes
	w     *wal.WAL
	coord *txn.Coordinator

	plans *ristretto.Cache[string, planner.Op]
}

/*
Open loads dir's snapshot (if any), replays the WAL records committed
after it, and returns a ready-to-use Engine. An empty or freshly created
directory starts from an empty Store (§2 "Control flow on startup").
*/
func Open(dir string) (*Engine, error) {
	st, ix, lastTxID, found, err := snapshot.Load(dir)
	if err != nil {
		return nil, err
	}
	if !found {
		st, ix, lastTxID = store.New(), index.New(), 0
	}

	w, err := wal.Open(filepath.Join(dir, walFilename))
	if err != nil {
		return nil, err
	}

	coord := txn.NewCoordinator(st, ix, w, lastTxID)

	if err := w.Replay(coord.ReplayRecord); err != nil {
		return nil, err
	}

	plans, err := ristretto.NewCache(&ristretto.Config[string, planner.Op]{
		NumCounters: 1e4,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, util.New(util.ErrDurability, "failed to start query plan cache: "+err.Error())
	}

	return &Engine{dir: dir, st: st, ix: ix, w: w, coord: coord, plans: plans}, nil
}

/*
Close flushes and closes the WAL and releases the plan cache. It does not
take a snapshot - call CreateSnapshot first if that is wanted.
*/
func (e *Engine) Close() error {
	e.plans.Close()
	return e.w.Close()
}

/*
AddListener registers fn to be notified of every node/edge change applied
by this Engine's Coordinator (§12 "Graph event hooks").
*/
func (e *Engine) AddListener(fn txn.Listener) {
	e.coord.AddListener(fn)
}

/*
CreateSnapshot dumps the current Store under the data directory and
truncates the WAL up to the last committed transaction (§4.6.2).
*/
func (e *Engine) CreateSnapshot() error {
	return e.coord.CreateSnapshot(e.dir)
}

/*
Stats is a diagnostic snapshot of the engine's size.
*/
type Stats struct {
	NodeCount int
	EdgeCount int
	LastTxID  uint64
}

/*
Stats returns the current node/edge counts and last committed transaction
id.
*/
func (e *Engine) Stats() Stats {
	return Stats{
		NodeCount: e.st.NodeCount(),
		EdgeCount: e.st.EdgeCount(),
		LastTxID:  e.coord.LastTxID(),
	}
}

/*
CreateNode builds and commits a single-operation transaction that inserts
a new node (§4.6.1).
*/
func (e *Engine) CreateNode(labels []string, props map[string]data.Value) (*data.Node, error) {
	t, n, err := txn.CreateNode(txn.New(), labels, props)
	if err != nil {
		return nil, err
	}
	if err := e.coord.Commit(t); err != nil {
		return nil, err
	}
	return n, nil
}

/*
CreateEdge builds and commits a single-operation transaction that inserts
a new edge. Referential integrity is enforced by the Coordinator at
commit time (§4.6.1).
*/
func (e *Engine) CreateEdge(edgeType, from, to string, props map[string]data.Value) (*data.Edge, error) {
	t, ed, err := txn.CreateEdge(txn.New(), edgeType, from, to, props)
	if err != nil {
		return nil, err
	}
	if err := e.coord.Commit(t); err != nil {
		return nil, err
	}
	return ed, nil
}

/*
UpdateNode builds and commits a single-operation transaction that merges
changes into the node with the given id (§4.6.1).
*/
func (e *Engine) UpdateNode(nodeID string, changes txn.NodeChanges) (*data.Node, error) {
	t, n, err := txn.UpdateNode(txn.New(), e.st, nodeID, changes)
	if err != nil {
		return nil, err
	}
	if err := e.coord.Commit(t); err != nil {
		return nil, err
	}
	return n, nil
}

/*
DeleteNode builds and commits a single-operation transaction that deletes
a node and every edge incident to it (§3 "Lifecycles").
*/
func (e *Engine) DeleteNode(nodeID string) error {
	t, err := txn.DeleteNode(txn.New(), e.st, e.ix, nodeID)
	if err != nil {
		return err
	}
	return e.coord.Commit(t)
}

/*
DeleteEdge builds and commits a single-operation transaction that deletes
an edge.
*/
func (e *Engine) DeleteEdge(edgeID string) error {
	t, err := txn.DeleteEdge(txn.New(), e.st, edgeID)
	if err != nil {
		return err
	}
	return e.coord.Commit(t)
}

/*
BeginRolling starts a rolling/batched transaction that auto-commits a
sub-batch every threshold operations (§12). Each sub-batch is committed
synchronously by the Extend call that reaches the threshold.
*/
func (e *Engine) BeginRolling(threshold int) *txn.RollingTransaction {
	return txn.NewRollingTransaction(e.coord, threshold)
}

/*
GetNode returns the node with the given id and whether it was found.
*/
func (e *Engine) GetNode(nodeID string) (*data.Node, bool) {
	return e.st.GetNode(nodeID)
}

/*
GetEdge returns the edge with the given id and whether it was found.
*/
func (e *Engine) GetEdge(edgeID string) (*data.Edge, bool) {
	return e.st.GetEdge(edgeID)
}

/*
AllNodes returns every live node.
*/
func (e *Engine) AllNodes() []*data.Node {
	return e.st.AllNodes()
}

/*
AllEdges returns every live edge.
*/
func (e *Engine) AllEdges() []*data.Edge {
	return e.st.AllEdges()
}

/*
NodesByLabel returns every live node carrying the given label.
*/
func (e *Engine) NodesByLabel(label string) []*data.Node {
	return e.resolveNodes(e.ix.NodesByLabel(label))
}

/*
NodesByProperty returns every live node whose properties contain the
exact (key, value) pair.
*/
func (e *Engine) NodesByProperty(key string, v data.Value) []*data.Node {
	return e.resolveNodes(e.ix.NodesByProperty(key, v))
}

/*
OutEdges returns every edge whose From endpoint is nodeID.
*/
func (e *Engine) OutEdges(nodeID string) []*data.Edge {
	return e.resolveEdges(e.ix.OutEdges(nodeID))
}

/*
InEdges returns every edge whose To endpoint is nodeID.
*/
func (e *Engine) InEdges(nodeID string) []*data.Edge {
	return e.resolveEdges(e.ix.InEdges(nodeID))
}

func (e *Engine) resolveNodes(ids []string) []*data.Node {
	out := make([]*data.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := e.st.GetNode(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func (e *Engine) resolveEdges(ids []string) []*data.Edge {
	out := make([]*data.Edge, 0, len(ids))
	for _, id := range ids {
		if ed, ok := e.st.GetEdge(id); ok {
			out = append(out, ed)
		}
	}
	return out
}

/*
Query parses, plans, optimizes and runs a read-only pattern query (§4.7).
Compiled plans are cached by the literal query string (§11 "Query plan
cache") - a cache hit skips straight to execution, a miss falls through to
the full lex/parse/plan/optimize pipeline and populates the cache for next
time. Caching changes nothing observable: the same query string always
produces the same plan, so the cache is a pure speed optimization (§8
"Query determinism").
*/
func (e *Engine) Query(q string) ([]exec.ResultRow, error) {
	plan, err := e.plan(q)
	if err != nil {
		return nil, err
	}

	return exec.Run(plan, &exec.Context{Store: e.st, Indexes: e.ix})
}

func (e *Engine) plan(q string) (planner.Op, error) {
	if cached, ok := e.plans.Get(q); ok {
		return cached, nil
	}

	ast, err := parser.Parse(q)
	if err != nil {
		return nil, err
	}

	plan := optimizer.Optimize(planner.Plan(ast))
	e.plans.Set(q, plan, 1)
	e.plans.Wait()

	return plan, nil
}
