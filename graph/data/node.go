/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"fmt"
	"sort"
	"strings"
)

/*
Node is a graph vertex. It carries a globally unique id, a set of labels and
a map of properties (§3). Node is a plain value - all graph-structural
behavior (indexing, referential integrity, persistence) lives in the store,
index, wal and txn packages.
*/
type Node struct {
	ID         string
	Labels     map[string]struct{}
	Properties map[string]Value
}

/*
NewNode creates a new Node with the given labels and properties.
*/
func NewNode(id string, labels []string, props map[string]Value) *Node {
	n := &Node{
		ID:         id,
		Labels:     make(map[string]struct{}, len(labels)),
		Properties: make(map[string]Value, len(props)),
	}
	for _, l := range labels {
		n.Labels[l] = struct{}{}
	}
	for k, v := range props {
		n.Properties[k] = v
	}
	return n
}

/*
HasLabel returns whether this node carries the given label.
*/
func (n *Node) HasLabel(label string) bool {
	_, ok := n.Labels[label]
	return ok
}

/*
LabelList returns the node's labels as a sorted slice.
*/
func (n *Node) LabelList() []string {
	out := make([]string, 0, len(n.Labels))
	for l := range n.Labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

/*
Property returns a property value and whether it was set.
*/
func (n *Node) Property(key string) (Value, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

/*
Clone returns a deep copy of this node.
*/
func (n *Node) Clone() *Node {
	c := &Node{
		ID:         n.ID,
		Labels:     make(map[string]struct{}, len(n.Labels)),
		Properties: make(map[string]Value, len(n.Properties)),
	}
	for l := range n.Labels {
		c.Labels[l] = struct{}{}
	}
	for k, v := range n.Properties {
		c.Properties[k] = v
	}
	return c
}

/*
MergeProperties merges changes into this node's properties: keys in changes
overwrite, keys not in changes survive (§4.6.1 update_node semantics).
*/
func MergeProperties(base map[string]Value, changes map[string]Value) map[string]Value {
	merged := make(map[string]Value, len(base)+len(changes))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range changes {
		merged[k] = v
	}
	return merged
}

/*
String returns a human-readable representation of this node.
*/
func (n *Node) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node %s [%s]", n.ID, strings.Join(n.LabelList(), ","))
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, n.Properties[k])
	}
	return b.String()
}
