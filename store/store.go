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
Package store implements the Store component (§4.2): the in-memory primary
tables mapping node/edge id to node/edge. Reads may run concurrently with
each other; writes are serialized by the caller (the transaction
coordinator in package txn) - the Store itself only needs to protect its
maps from concurrent access, not to offer transactional isolation.
*/
package store

import (
	"sync"

	"github.com/krotik/graphdb/graph/data"
)

/*
Store holds the live node and edge tables.
*/
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*data.Node
	edges map[string]*data.Edge
}

/*
New creates an empty Store.
*/
func New() *Store {
	return &Store{
		nodes: make(map[string]*data.Node),
		edges: make(map[string]*data.Edge),
	}
}

/*
PutNode inserts or overwrites a node.
*/
func (s *Store) PutNode(n *data.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
}

/*
GetNode returns the node with the given id and whether it was found.
*/
func (s *Store) GetNode(id string) (*data.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

/*
DeleteNode removes a node by id. A no-op if the node does not exist.
*/
func (s *Store) DeleteNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
}

/*
AllNodes returns every live node. The returned slice is a private snapshot of
the internal map - safe to range over without holding any lock.
*/
func (s *Store) AllNodes() []*data.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*data.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

/*
NodeCount returns the number of live nodes.
*/
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

/*
PutEdge inserts or overwrites an edge.
*/
func (s *Store) PutEdge(e *data.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[e.ID] = e
}

/*
GetEdge returns the edge with the given id and whether it was found.
*/
func (s *Store) GetEdge(id string) (*data.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	return e, ok
}

/*
DeleteEdge removes an edge by id. A no-op if the edge does not exist.
*/
func (s *Store) DeleteEdge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, id)
}

/*
AllEdges returns every live edge. See AllNodes for the snapshot semantics.
*/
func (s *Store) AllEdges() []*data.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*data.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out
}

/*
EdgeCount returns the number of live edges.
*/
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

/*
EdgesFrom returns every edge whose From endpoint is the given node id. Used
by snapshot/diagnostics only - hot query paths go through the out_edges
index instead (§4.2).
*/
func (s *Store) EdgesFrom(nodeID string) []*data.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*data.Edge
	for _, e := range s.edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}

/*
EdgesTo returns every edge whose To endpoint is the given node id.
*/
func (s *Store) EdgesTo(nodeID string) []*data.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*data.Edge
	for _, e := range s.edges {
		if e.To == nodeID {
			out = append(out, e)
		}
	}
	return out
}

/*
Clear erases every node and edge.
*/
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*data.Node)
	s.edges = make(map[string]*data.Edge)
}
