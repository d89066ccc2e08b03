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
Package wal implements the Write-Ahead Log component (§4.4): an append-only
file of length-prefixed self-describing records, replayed on startup to
bring the Store and Indexes up to the last committed transaction.
*/
package wal

import (
	"github.com/krotik/graphdb/graph/data"
)

/*
FormatVersion is written into every record so a future, incompatible wire
layout can be detected on replay instead of silently misread (§6 "must
either succeed or report an explicit version mismatch").
*/
const FormatVersion = 1

/*
OpKind identifies what a single logged operation does to the Store and
Indexes. The same four kinds serve both forward application and undo -
PutNode/PutEdge insert-or-replace, DeleteNode/DeleteEdge remove by id.
*/
type OpKind int

const (
	OpPutNode OpKind = iota
	OpDeleteNode
	OpPutEdge
	OpDeleteEdge
)

/*
Op is a single forward or undo operation against Store and Indexes. Only
the fields relevant to Kind are populated.
*/
type Op struct {
	Kind OpKind

	Node   *data.Node `msgpack:"node,omitempty"`
	NodeID string     `msgpack:"node_id,omitempty"`

	Edge   *data.Edge `msgpack:"edge,omitempty"`
	EdgeID string     `msgpack:"edge_id,omitempty"`
}

/*
Record is one committed transaction as it is written to and read from the
log: the transaction id, a wall-clock timestamp and the ordered forward op
list (§4.4).
*/
type Record struct {
	FormatVersion int
	TxID          uint64
	Timestamp     int64
	Ops           []Op
}
