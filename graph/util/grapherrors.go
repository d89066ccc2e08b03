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
Package util contains the error kinds shared by every core component
(§7 Error Handling Design). Low-level errors (disk I/O, encoding) are always
wrapped in a GraphError with one of the kinds below before they cross a
component boundary.
*/
package util

import (
	"errors"
	"fmt"
)

/*
GraphError is a graph related error. Type is a sentinel which callers can
compare against the ErrXXX variables below; Detail carries the specific
circumstances.
*/
type GraphError struct {
	Type   error  // Error kind (to be used for equality checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (ge *GraphError) Error() string {
	if ge.Detail != "" {
		return fmt.Sprintf("%v: %v", ge.Type, ge.Detail)
	}
	return ge.Type.Error()
}

/*
Unwrap makes GraphError work with errors.Is/errors.As against its Type sentinel.
*/
func (ge *GraphError) Unwrap() error {
	return ge.Type
}

/*
Error kinds, one per §7 table row.
*/
var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrReferentialIntegrity  = errors.New("referential integrity violation")
	ErrInvalidTransactionState = errors.New("invalid transaction state")
	ErrParse                 = errors.New("parse error")
	ErrType                  = errors.New("type error")
	ErrDurability            = errors.New("durability failure")
	ErrCorruptRecord         = errors.New("corrupt record")
	ErrSnapshot              = errors.New("snapshot error")
)

/*
New creates a new GraphError of the given kind.
*/
func New(kind error, detail string) *GraphError {
	return &GraphError{Type: kind, Detail: detail}
}

/*
Is reports whether err is a GraphError of the given kind.
*/
func Is(err error, kind error) bool {
	ge, ok := err.(*GraphError)
	return ok && ge.Type == kind
}
