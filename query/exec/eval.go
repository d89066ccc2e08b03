/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package exec

import (
	"fmt"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/query/parser"
)

/*
Eval evaluates a WHERE expression against a single row. AND/OR
short-circuit: the right operand is not evaluated once the result is
already decided.
*/
func Eval(e parser.Expr, row Row) (bool, error) {
	switch n := e.(type) {

	case *parser.BinaryExpr:
		left, err := Eval(n.Left, row)
		if err != nil {
			return false, err
		}
		if n.Op == parser.And && !left {
			return false, nil
		}
		if n.Op == parser.Or && left {
			return true, nil
		}
		return Eval(n.Right, row)

	case *parser.Comparison:
		return evalComparison(n, row)
	}

	return false, fmt.Errorf("exec: unknown expression node %T", e)
}

func evalComparison(c *parser.Comparison, row Row) (bool, error) {
	node, bound := row[c.Var]
	if !bound {
		return false, fmt.Errorf("exec: variable %q is not bound in this row", c.Var)
	}

	v, ok := node.Property(c.Prop)
	if !ok {
		v = data.Null
	}

	if c.Op == parser.Eq {
		return v.Equal(c.Value), nil
	}
	if c.Op == parser.Neq {
		return !v.Equal(c.Value), nil
	}

	cmp, err := v.Compare(c.Value)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case parser.Lt:
		return cmp < 0, nil
	case parser.Leq:
		return cmp <= 0, nil
	case parser.Gt:
		return cmp > 0, nil
	case parser.Geq:
		return cmp >= 0, nil
	}

	return false, fmt.Errorf("exec: unknown comparison operator %v", c.Op)
}
