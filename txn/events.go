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

import "github.com/krotik/graphdb/graph/data"

/*
EventKind identifies what happened to a node or edge during a commit, fired
around each apply step so an embedding application can observe commits
without the core depending on anything outside itself (§12 "Graph event
hooks", grounded on graph/rules.go's graphEvent dispatch).
*/
type EventKind int

const (
	EventNodeCreated EventKind = iota
	EventNodeUpdated
	EventNodeDeleted
	EventEdgeCreated
	EventEdgeUpdated
	EventEdgeDeleted
)

/*
String returns a human-readable name for this event kind.
*/
func (e EventKind) String() string {
	switch e {
	case EventNodeCreated:
		return "node_created"
	case EventNodeUpdated:
		return "node_updated"
	case EventNodeDeleted:
		return "node_deleted"
	case EventEdgeCreated:
		return "edge_created"
	case EventEdgeUpdated:
		return "edge_updated"
	case EventEdgeDeleted:
		return "edge_deleted"
	}
	return "unknown"
}

/*
Listener is called synchronously, inside the coordinator's critical
section, for every op the Coordinator applies: during a commit, a rollback
and WAL replay (ReplayRecord). node or edge is the
value that was created, updated or deleted; the other parameter is nil.
A listener must not call back into the Coordinator - it still holds the
lock.
*/
type Listener func(event EventKind, node *data.Node, edge *data.Edge)
