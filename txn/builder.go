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

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/id"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/store"
	"github.com/krotik/graphdb/wal"
)

/*
NodeChanges describes an update_node call. A nil Labels means the node's
existing label set is left untouched; a non-nil Labels (even an empty one)
replaces it entirely. Properties are always merged - existing keys not
present in Properties survive, keys present in Properties overwrite
(§4.6.1 "Merging semantics").
*/
type NodeChanges struct {
	Labels     *[]string
	Properties map[string]data.Value
}

/*
CreateNode builds a transaction that inserts a freshly identified node.
Forward: insert the computed node. Undo: delete that node's id (§4.6.1).
*/
func CreateNode(t *Transaction, labels []string, props map[string]data.Value) (*Transaction, *data.Node, error) {
	if err := t.requireOpen(); err != nil {
		return nil, nil, err
	}

	n := data.NewNode(id.New(), labels, props)

	nt := t.clone()
	nt.add(
		wal.Op{Kind: wal.OpPutNode, Node: n},
		wal.Op{Kind: wal.OpDeleteNode, NodeID: n.ID},
	)

	return nt, n, nil
}

/*
CreateEdge builds a transaction that inserts a freshly identified edge.
Forward: insert the computed edge. Undo: delete that edge's id. Endpoint
existence is not checked here - it is checked at apply time by the
Coordinator (§4.6.1 "does not verify endpoint existence at build time").
*/
func CreateEdge(t *Transaction, edgeType, from, to string, props map[string]data.Value) (*Transaction, *data.Edge, error) {
	if err := t.requireOpen(); err != nil {
		return nil, nil, err
	}

	e := data.NewEdge(id.New(), edgeType, from, to, props)

	nt := t.clone()
	nt.add(
		wal.Op{Kind: wal.OpPutEdge, Edge: e},
		wal.Op{Kind: wal.OpDeleteEdge, EdgeID: e.ID},
	)

	return nt, e, nil
}

/*
UpdateNode builds a transaction that merges changes into the current node
with the given id, read from st at build time. Requires the node to
currently exist. Forward: replace with the merged node. Undo: replace with
the old node (§4.6.1).
*/
func UpdateNode(t *Transaction, st *store.Store, nodeID string, changes NodeChanges) (*Transaction, *data.Node, error) {
	if err := t.requireOpen(); err != nil {
		return nil, nil, err
	}

	old, ok := st.GetNode(nodeID)
	if !ok {
		return nil, nil, util.New(util.ErrNotFound, fmt.Sprintf("node %q does not exist", nodeID))
	}

	merged := old.Clone()
	if changes.Labels != nil {
		merged.Labels = make(map[string]struct{}, len(*changes.Labels))
		for _, l := range *changes.Labels {
			merged.Labels[l] = struct{}{}
		}
	}
	if changes.Properties != nil {
		merged.Properties = data.MergeProperties(merged.Properties, changes.Properties)
	}

	nt := t.clone()
	nt.add(
		wal.Op{Kind: wal.OpPutNode, Node: merged},
		wal.Op{Kind: wal.OpPutNode, Node: old.Clone()},
	)

	return nt, merged, nil
}

/*
DeleteNode builds a transaction that deletes the node with the given id
and every edge incident to it, read from st/ix at build time. Requires the
node to currently exist. Forward: delete each incident edge, then the
node. Undo: restore the node and each edge in reverse (§3 "Lifecycles",
§4.6.1).
*/
func DeleteNode(t *Transaction, st *store.Store, ix *index.Indexes, nodeID string) (*Transaction, error) {
	if err := t.requireOpen(); err != nil {
		return nil, err
	}

	old, ok := st.GetNode(nodeID)
	if !ok {
		return nil, util.New(util.ErrNotFound, fmt.Sprintf("node %q does not exist", nodeID))
	}

	nt := t.clone()

	seen := make(map[string]struct{})
	for _, eid := range ix.OutEdges(nodeID) {
		seen[eid] = struct{}{}
	}
	for _, eid := range ix.InEdges(nodeID) {
		seen[eid] = struct{}{}
	}

	for eid := range seen {
		e, ok := st.GetEdge(eid)
		if !ok {
			continue
		}
		nt.add(
			wal.Op{Kind: wal.OpDeleteEdge, EdgeID: e.ID},
			wal.Op{Kind: wal.OpPutEdge, Edge: e.Clone()},
		)
	}

	nt.add(
		wal.Op{Kind: wal.OpDeleteNode, NodeID: nodeID},
		wal.Op{Kind: wal.OpPutNode, Node: old.Clone()},
	)

	return nt, nil
}

/*
DeleteEdge builds a transaction that deletes the edge with the given id,
read from st at build time. Requires the edge to currently exist. Forward:
delete the edge. Undo: restore the edge (§4.6.1).
*/
func DeleteEdge(t *Transaction, st *store.Store, edgeID string) (*Transaction, error) {
	if err := t.requireOpen(); err != nil {
		return nil, err
	}

	old, ok := st.GetEdge(edgeID)
	if !ok {
		return nil, util.New(util.ErrNotFound, fmt.Sprintf("edge %q does not exist", edgeID))
	}

	nt := t.clone()
	nt.add(
		wal.Op{Kind: wal.OpDeleteEdge, EdgeID: edgeID},
		wal.Op{Kind: wal.OpPutEdge, Edge: old.Clone()},
	)

	return nt, nil
}
