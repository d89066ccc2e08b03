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
	"testing"
)

func TestRollingTransactionCommitsInBatches(t *testing.T) {
	c := newTestCoordinator(t)
	rt := NewRollingTransaction(c, 3)

	for i := 0; i < 10; i++ {
		labels := []string{fmt.Sprintf("N%d", i)}
		err := rt.Extend(func(t *Transaction) (*Transaction, error) {
			nt, _, err := CreateNode(t, labels, nil)
			return nt, err
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := rt.Commit(); err != nil {
		t.Fatal(err)
	}

	if c.st.NodeCount() != 10 {
		t.Errorf("expected all 10 nodes to end up committed, got %d", c.st.NodeCount())
	}
}
