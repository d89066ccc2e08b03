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
Package index implements the Indexes component (§4.3): the four secondary
structures (out_edges, in_edges, labels, props) that the query pipeline
consults instead of scanning the Store. EliasDB keeps the equivalent
structures in on-disk hash trees (hash.HTree, see
src/devt.de/eliasdb/hash/htree.go in the teacher repo); this core holds
everything in memory (§2), so the same key -> id-set shape is implemented
directly as Go maps of sets.
*/
package index

import (
	"sync"

	"github.com/krotik/graphdb/graph/data"
)

/*
idSet is a set of node/edge ids.
*/
type idSet map[string]struct{}

func (s idSet) add(id string)    { s[id] = struct{}{} }
func (s idSet) remove(id string) { delete(s, id) }

func (s idSet) list() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

/*
propKey identifies a (property key, property value) pair in the props index.
Value is kept as its string representation since map keys must be
comparable and Value already normalizes formatting (§4.3 "structural
equality").
*/
type propKey struct {
	key string
	val string
}

/*
Indexes holds the four secondary structures.
*/
type Indexes struct {
	mu sync.RWMutex

	outEdges map[string]idSet    // node id -> edge ids where From == node id
	inEdges  map[string]idSet    // node id -> edge ids where To == node id
	labels   map[string]idSet    // label -> node ids
	props    map[propKey]idSet   // (key,value) -> node ids
}

/*
New creates an empty set of Indexes.
*/
func New() *Indexes {
	return &Indexes{
		outEdges: make(map[string]idSet),
		inEdges:  make(map[string]idSet),
		labels:   make(map[string]idSet),
		props:    make(map[propKey]idSet),
	}
}

func propKeyFor(key string, v data.Value) propKey {
	return propKey{key: key, val: v.Kind.String() + ":" + v.String()}
}

/*
IndexNode adds a node's labels and properties to the indexes (I2).
*/
func (ix *Indexes) IndexNode(n *data.Node) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for label := range n.Labels {
		ix.labelSet(label).add(n.ID)
	}
	for k, v := range n.Properties {
		ix.propSet(propKeyFor(k, v)).add(n.ID)
	}
}

/*
DeindexNode removes a node's labels and properties from the indexes. The
caller must supply the pre-image that was indexed, e.g. before an update is
applied (§4.3 "Tie-breaks and edge cases").
*/
func (ix *Indexes) DeindexNode(n *data.Node) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for label := range n.Labels {
		if s, ok := ix.labels[label]; ok {
			s.remove(n.ID)
			if len(s) == 0 {
				delete(ix.labels, label)
			}
		}
	}
	for k, v := range n.Properties {
		pk := propKeyFor(k, v)
		if s, ok := ix.props[pk]; ok {
			s.remove(n.ID)
			if len(s) == 0 {
				delete(ix.props, pk)
			}
		}
	}
}

/*
IndexEdge adds an edge to the out/in edge indexes.
*/
func (ix *Indexes) IndexEdge(e *data.Edge) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.outSet(e.From).add(e.ID)
	ix.inSet(e.To).add(e.ID)
}

/*
DeindexEdge removes an edge from the out/in edge indexes.
*/
func (ix *Indexes) DeindexEdge(e *data.Edge) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if s, ok := ix.outEdges[e.From]; ok {
		s.remove(e.ID)
		if len(s) == 0 {
			delete(ix.outEdges, e.From)
		}
	}
	if s, ok := ix.inEdges[e.To]; ok {
		s.remove(e.ID)
		if len(s) == 0 {
			delete(ix.inEdges, e.To)
		}
	}
}

/*
OutEdges returns the ids of every edge whose From endpoint is nodeID.
*/
func (ix *Indexes) OutEdges(nodeID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.outEdges[nodeID].list()
}

/*
InEdges returns the ids of every edge whose To endpoint is nodeID.
*/
func (ix *Indexes) InEdges(nodeID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.inEdges[nodeID].list()
}

/*
NodesByLabel returns the ids of every node carrying the given label.
*/
func (ix *Indexes) NodesByLabel(label string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.labels[label].list()
}

/*
NodesByProperty returns the ids of every node whose properties contain the
exact (key, value) pair.
*/
func (ix *Indexes) NodesByProperty(key string, v data.Value) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.props[propKeyFor(key, v)].list()
}

/*
Clear erases every index entry.
*/
func (ix *Indexes) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.outEdges = make(map[string]idSet)
	ix.inEdges = make(map[string]idSet)
	ix.labels = make(map[string]idSet)
	ix.props = make(map[propKey]idSet)
}

func (ix *Indexes) labelSet(label string) idSet {
	s, ok := ix.labels[label]
	if !ok {
		s = make(idSet)
		ix.labels[label] = s
	}
	return s
}

func (ix *Indexes) propSet(pk propKey) idSet {
	s, ok := ix.props[pk]
	if !ok {
		s = make(idSet)
		ix.props[pk] = s
	}
	return s
}

func (ix *Indexes) outSet(nodeID string) idSet {
	s, ok := ix.outEdges[nodeID]
	if !ok {
		s = make(idSet)
		ix.outEdges[nodeID] = s
	}
	return s
}

func (ix *Indexes) inSet(nodeID string) idSet {
	s, ok := ix.inEdges[nodeID]
	if !ok {
		s = make(idSet)
		ix.inEdges[nodeID] = s
	}
	return s
}
