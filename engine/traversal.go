/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package engine

import (
	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
)

/*
Neighbors returns the distinct nodes reachable from nodeID by a single
edge, in either direction, optionally restricted to edgeType ("" means
any type). Grounded on the single-hop traversal helpers of EliasDB's
graph manager, generalized here to work off the out/in-edge Indexes
instead of an on-disk hash tree (§12).
*/
func (e *Engine) Neighbors(nodeID, edgeType string) ([]*data.Node, error) {
	if _, ok := e.st.GetNode(nodeID); !ok {
		return nil, util.New(util.ErrNotFound, "node "+nodeID+" does not exist")
	}

	seen := make(map[string]struct{})
	var out []*data.Node

	add := func(ids []string, endpoint func(id string) (string, bool)) {
		for _, eid := range ids {
			ed, ok := e.st.GetEdge(eid)
			if !ok || (edgeType != "" && ed.Type != edgeType) {
				continue
			}
			other, ok := endpoint(eid)
			if !ok {
				continue
			}
			if _, dup := seen[other]; dup {
				continue
			}
			n, ok := e.st.GetNode(other)
			if !ok {
				continue
			}
			seen[other] = struct{}{}
			out = append(out, n)
		}
	}

	add(e.ix.OutEdges(nodeID), func(eid string) (string, bool) {
		ed, ok := e.st.GetEdge(eid)
		if !ok {
			return "", false
		}
		return ed.To, true
	})
	add(e.ix.InEdges(nodeID), func(eid string) (string, bool) {
		ed, ok := e.st.GetEdge(eid)
		if !ok {
			return "", false
		}
		return ed.From, true
	})

	return out, nil
}

/*
BFS visits every node reachable from fromID within maxDepth hops,
following edges in either direction, and returns them in breadth-first
visitation order (fromID itself excluded). maxDepth <= 0 means unbounded.
*/
func (e *Engine) BFS(fromID string, maxDepth int) ([]*data.Node, error) {
	if _, ok := e.st.GetNode(fromID); !ok {
		return nil, util.New(util.ErrNotFound, "node "+fromID+" does not exist")
	}

	type frontierEntry struct {
		id    string
		depth int
	}

	visited := map[string]struct{}{fromID: {}}
	queue := []frontierEntry{{id: fromID, depth: 0}}
	var out []*data.Node

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if maxDepth > 0 && cur.depth >= maxDepth {
			continue
		}

		for _, id := range adjacentIDs(e, cur.id) {
			if _, dup := visited[id]; dup {
				continue
			}
			visited[id] = struct{}{}

			n, ok := e.st.GetNode(id)
			if !ok {
				continue
			}
			out = append(out, n)
			queue = append(queue, frontierEntry{id: id, depth: cur.depth + 1})
		}
	}

	return out, nil
}

/*
ShortestPath returns the shortest undirected-hop-count path of nodes from
fromID to toID inclusive, using breadth-first search. Returns (nil, nil)
if no path exists.
*/
func (e *Engine) ShortestPath(fromID, toID string) ([]*data.Node, error) {
	if _, ok := e.st.GetNode(fromID); !ok {
		return nil, util.New(util.ErrNotFound, "node "+fromID+" does not exist")
	}
	if _, ok := e.st.GetNode(toID); !ok {
		return nil, util.New(util.ErrNotFound, "node "+toID+" does not exist")
	}

	if fromID == toID {
		n, _ := e.st.GetNode(fromID)
		return []*data.Node{n}, nil
	}

	prev := map[string]string{fromID: ""}
	queue := []string{fromID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == toID {
			return e.reconstructPath(prev, toID), nil
		}

		for _, id := range adjacentIDs(e, cur) {
			if _, seen := prev[id]; seen {
				continue
			}
			prev[id] = cur
			queue = append(queue, id)
		}
	}

	return nil, nil
}

func (e *Engine) reconstructPath(prev map[string]string, toID string) []*data.Node {
	var ids []string
	for id := toID; id != ""; id = prev[id] {
		ids = append(ids, id)
	}

	path := make([]*data.Node, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if n, ok := e.st.GetNode(ids[i]); ok {
			path = append(path, n)
		}
	}
	return path
}

/*
adjacentIDs returns the distinct node ids reachable from id by a single
edge in either direction.
*/
func adjacentIDs(e *Engine, id string) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, eid := range e.ix.OutEdges(id) {
		if ed, ok := e.st.GetEdge(eid); ok {
			if _, dup := seen[ed.To]; !dup {
				seen[ed.To] = struct{}{}
				out = append(out, ed.To)
			}
		}
	}
	for _, eid := range e.ix.InEdges(id) {
		if ed, ok := e.st.GetEdge(eid); ok {
			if _, dup := seen[ed.From]; !dup {
				seen[ed.From] = struct{}{}
				out = append(out, ed.From)
			}
		}
	}

	return out
}
