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
Package optimizer rewrites an operator tree into an equivalent one that is
cheaper to execute (§4.7.4): filter pushdown and redundant-pipe
elimination. Every rewrite must preserve the result set as a multiset of
rows - neither rule changes which rows come out, only how cheaply.
*/
package optimizer

import (
	"github.com/krotik/graphdb/query/parser"
	"github.com/krotik/graphdb/query/planner"
)

/*
Optimize rewrites an operator tree bottom-up, applying filter pushdown and
redundant-pipe elimination until neither rule fires anywhere in the tree.
*/
func Optimize(op planner.Op) planner.Op {
	for {
		next := rewrite(op)
		if sameShape(next, op) {
			return next
		}
		op = next
	}
}

func rewrite(op planner.Op) planner.Op {
	switch n := op.(type) {
	case *planner.Filter:
		input := rewrite(n.Input)
		return pushFilter(&planner.Filter{Input: input, Expr: n.Expr})

	case *planner.LabelFilter:
		return &planner.LabelFilter{Input: rewrite(n.Input), Var: n.Var, Label: n.Label}

	case *planner.Expand:
		return &planner.Expand{Input: rewrite(n.Input), Type: n.Type, Direction: n.Direction, Into: n.Into}

	case *planner.Project:
		return &planner.Project{Input: rewrite(n.Input), Items: n.Items}

	case *planner.OrderBy:
		return &planner.OrderBy{Input: rewrite(n.Input), Items: n.Items}

	case *planner.Pipe:
		return collapsePipe(&planner.Pipe{Left: rewrite(n.Left), Right: rewrite(n.Right)})

	default:
		return op
	}
}

/*
pushFilter applies rule 1: a Filter directly above a Pipe whose left
subplan already binds every variable the filter expression touches is
pushed down into that left subplan, so the filter runs once per left row
instead of once per joined row.
*/
func pushFilter(f *planner.Filter) planner.Op {
	pipe, ok := f.Input.(*planner.Pipe)
	if !ok {
		return f
	}

	vars := freeVars(f.Expr)
	bound := boundVars(pipe.Left)

	if !subsetOf(vars, bound) {
		return f
	}

	return &planner.Pipe{Left: &planner.Filter{Input: pipe.Left, Expr: f.Expr}, Right: pipe.Right}
}

/*
collapsePipe applies rule 2: a Pipe with a nil side is equivalent to just
running the other side.
*/
func collapsePipe(p *planner.Pipe) planner.Op {
	if p.Left == nil {
		return p.Right
	}
	if p.Right == nil {
		return p.Left
	}
	return p
}

/*
freeVars collects every variable name referenced by a WHERE expression.
*/
func freeVars(e parser.Expr) []string {
	switch n := e.(type) {
	case *parser.Comparison:
		return []string{n.Var}
	case *parser.BinaryExpr:
		return append(freeVars(n.Left), freeVars(n.Right)...)
	}
	return nil
}

/*
boundVars collects every variable a subplan introduces, by walking down to
its scans and expands.
*/
func boundVars(op planner.Op) []string {
	switch n := op.(type) {
	case *planner.NodeScan:
		return []string{n.Var}
	case *planner.LabelIndexScan:
		return []string{n.Var}
	case *planner.Expand:
		return append(boundVars(n.Input), n.Into)
	case *planner.Filter:
		return boundVars(n.Input)
	case *planner.LabelFilter:
		return boundVars(n.Input)
	case *planner.Pipe:
		return append(boundVars(n.Left), boundVars(n.Right)...)
	case *planner.Project:
		return boundVars(n.Input)
	case *planner.OrderBy:
		return boundVars(n.Input)
	}
	return nil
}

func subsetOf(needles, haystack []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, v := range haystack {
		set[v] = true
	}
	for _, v := range needles {
		if !set[v] {
			return false
		}
	}
	return true
}

/*
sameShape is a cheap fixed-point check: since every rewrite either pushes
a Filter one level down or leaves the tree alone, comparing the
serialized shape after one more pass catches the fixed point without a
deep structural equality implementation.
*/
func sameShape(a, b planner.Op) bool {
	return describe(a) == describe(b)
}

func describe(op planner.Op) string {
	if op == nil {
		return "nil"
	}
	switch n := op.(type) {
	case *planner.NodeScan:
		return "scan(" + n.Var + ")"
	case *planner.LabelIndexScan:
		return "labelscan(" + n.Label + "," + n.Var + ")"
	case *planner.Expand:
		return "expand(" + describe(n.Input) + "," + n.Type + "," + n.Into + ")"
	case *planner.Filter:
		return "filter(" + describe(n.Input) + ")"
	case *planner.LabelFilter:
		return "labelfilter(" + describe(n.Input) + "," + n.Label + ")"
	case *planner.Project:
		return "project(" + describe(n.Input) + ")"
	case *planner.OrderBy:
		return "orderby(" + describe(n.Input) + ")"
	case *planner.Pipe:
		return "pipe(" + describe(n.Left) + "," + describe(n.Right) + ")"
	}
	return "?"
}
