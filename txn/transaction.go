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
Package txn implements the Transaction Engine (§4.6): a stateless
Transaction Builder that turns mutator calls into forward/undo op pairs,
and a Transaction Coordinator that serializes commit, rollback and
snapshot administration through a single-threaded critical section.
*/
package txn

import (
	"fmt"

	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/wal"
)

/*
State is the lifecycle stage of a Transaction (§3 "Transaction").
*/
type State int

const (
	StateOpen State = iota
	StateCommitted
	StateRolledBack
)

/*
String returns a human-readable name for this state.
*/
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

/*
Transaction is a value carrying the forward ops (in build order) and the
undo ops (in apply-reverse order) accumulated so far. Builder functions
never mutate a Transaction in place - they return a new value, leaving the
original (and anyone else still holding it) untouched (§4.6.1 "returns a
new transaction value"). The only in-place change is the state, which the
Coordinator sets on Commit and Rollback.
*/
type Transaction struct {
	state State
	ops   []wal.Op
	undo  []wal.Op
}

/*
New starts an empty, open transaction.
*/
func New() *Transaction {
	return &Transaction{state: StateOpen}
}

/*
State returns the current lifecycle stage.
*/
func (t *Transaction) State() State {
	return t.state
}

/*
IsEmpty returns whether no operations have been accumulated yet.
*/
func (t *Transaction) IsEmpty() bool {
	return len(t.ops) == 0
}

/*
Counts returns how many forward ops of each kind this transaction carries
(§12 "Transaction statistics", diagnostic-only).
*/
func (t *Transaction) Counts() (putNodes, deleteNodes, putEdges, deleteEdges int) {
	for _, op := range t.ops {
		switch op.Kind {
		case wal.OpPutNode:
			putNodes++
		case wal.OpDeleteNode:
			deleteNodes++
		case wal.OpPutEdge:
			putEdges++
		case wal.OpDeleteEdge:
			deleteEdges++
		}
	}
	return
}

/*
String returns a short diagnostic summary of this transaction.
*/
func (t *Transaction) String() string {
	pn, dn, pe, de := t.Counts()
	return fmt.Sprintf("Transaction (%v) - Nodes: Put:%v Del:%v - Edges: Put:%v Del:%v",
		t.state, pn, dn, pe, de)
}

/*
opsList returns the forward op list in build order.
*/
func (t *Transaction) opsList() []wal.Op {
	return t.ops
}

/*
undoList returns the undo op list in apply-reverse order.
*/
func (t *Transaction) undoList() []wal.Op {
	return t.undo
}

/*
clone returns a new Transaction carrying a private copy of t's op lists,
ready for a builder function to extend (§4.6.1).
*/
func (t *Transaction) clone() *Transaction {
	nt := &Transaction{state: t.state}
	if len(t.ops) > 0 {
		nt.ops = append([]wal.Op(nil), t.ops...)
	}
	if len(t.undo) > 0 {
		nt.undo = append([]wal.Op(nil), t.undo...)
	}
	return nt
}

/*
add appends forward to the forward op list and prepends its paired undo
op. Prepending the undo op as each forward op is appended is what makes
the accumulated undo list come out in apply-reverse order without a
separate reversal pass at commit/rollback time (§4.6.1, §4.6.2).
*/
func (t *Transaction) add(forward, undo wal.Op) {
	t.ops = append(t.ops, forward)
	t.undo = append(append([]wal.Op(nil), undo), t.undo...)
}

/*
requireOpen returns an InvalidTransactionState error if this transaction
is not open.
*/
func (t *Transaction) requireOpen() error {
	if t.state != StateOpen {
		return util.New(util.ErrInvalidTransactionState,
			fmt.Sprintf("transaction is %v, not open", t.state))
	}
	return nil
}
