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
	"sync"
)

/*
RollingTransaction lets a caller stream a very large number of operations
through the Transaction Builder without holding them all in memory at
once: every opThreshold operations, the accumulated sub-transaction is
committed and a fresh one started. Each sub-batch is an ordinary
transaction through the same Coordinator, committed in the order it was
built - this does not change the commit protocol, it only changes how a
caller chunks its own operation stream (§12 "Rolling/batched
transactions", grounded on graph/trans.go's rollingTrans). Sub-batches
commit sequentially rather than concurrently: an edge built into a later
batch may reference a node built into an earlier one, and the Builder
relies on that earlier batch having already applied by the time the
Coordinator re-checks referential integrity.
*/
type RollingTransaction struct {
	mu          sync.Mutex
	coordinator *Coordinator
	threshold   int
	opCount     int
	current     *Transaction
}

/*
NewRollingTransaction creates a RollingTransaction that auto-commits every
threshold operations against coordinator. A threshold below 1 is clamped
to 1.
*/
func NewRollingTransaction(coordinator *Coordinator, threshold int) *RollingTransaction {
	if threshold < 1 {
		threshold = 1
	}
	return &RollingTransaction{
		coordinator: coordinator,
		threshold:   threshold,
		current:     New(),
	}
}

/*
Extend applies build to the rolling transaction's current sub-transaction
and rolls over to a new one if the operation threshold is reached. build
is typically a closure over one of CreateNode/CreateEdge/UpdateNode/
DeleteNode/DeleteEdge. Returns the error from build, or from the roll-over
commit if the threshold was reached on this call.
*/
func (r *RollingTransaction) Extend(build func(*Transaction) (*Transaction, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	nt, err := build(r.current)
	if err != nil {
		return err
	}
	r.current = nt

	r.opCount++
	if r.opCount >= r.threshold {
		r.opCount = 0
		return r.rollOver()
	}

	return nil
}

/*
rollOver commits the current sub-transaction and starts a fresh one. Must
be called with r.mu held.
*/
func (r *RollingTransaction) rollOver() error {
	toCommit := r.current
	r.current = New()

	return r.coordinator.Commit(toCommit)
}

/*
Commit commits whatever remains of the current sub-transaction.
*/
func (r *RollingTransaction) Commit() error {
	r.mu.Lock()
	last := r.current
	r.current = New()
	r.mu.Unlock()

	return r.coordinator.Commit(last)
}
