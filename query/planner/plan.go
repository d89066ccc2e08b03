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
Package planner translates a parsed query into an operator tree (§4.7.3).
*/
package planner

import (
	"sort"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/query/parser"
)

/*
Op is a node of the operator tree. Every concrete operator embeds no common
base; Op exists purely so the tree can be built out of a single interface
type.
*/
type Op interface {
	opNode()
}

/*
NodeScan emits one row per live node, bound to Var.
*/
type NodeScan struct {
	Var string
}

func (*NodeScan) opNode() {}

/*
LabelIndexScan emits one row per node carrying Label, bound to Var.
*/
type LabelIndexScan struct {
	Label string
	Var   string
}

func (*LabelIndexScan) opNode() {}

/*
Expand consumes the node bound to the most recently introduced variable in
each input row, follows edges of Type in Direction, and emits one row per
reachable endpoint bound under Into.
*/
type Expand struct {
	Input     Op
	Type      string
	Direction parser.Direction
	Into      string
}

func (*Expand) opNode() {}

/*
Filter keeps only the rows for which Expr evaluates true.
*/
type Filter struct {
	Input Op
	Expr  parser.Expr
}

func (*Filter) opNode() {}

/*
Project narrows each row down to the requested Items.
*/
type Project struct {
	Input Op
	Items []*parser.ReturnItem
}

func (*Project) opNode() {}

/*
OrderBy sorts the rows produced by Input according to Items.
*/
type OrderBy struct {
	Input Op
	Items []*parser.OrderItem
}

func (*OrderBy) opNode() {}

/*
Pipe threads every row produced by Left through Right, much like a nested
loop join restricted to a single bound variable.
*/
type Pipe struct {
	Left  Op
	Right Op
}

func (*Pipe) opNode() {}

/*
LabelFilter keeps only the rows where the node bound to Var carries Label.
Used for the right-hand node of a relation pattern, which (unlike a scan
root) is reached by Expand rather than LabelIndexScan.
*/
type LabelFilter struct {
	Input Op
	Var   string
	Label string
}

func (*LabelFilter) opNode() {}

/*
Plan translates a parsed Query into an operator tree.
*/
func Plan(q *parser.Query) Op {
	var root Op

	for _, pat := range q.Patterns {
		patPlan := planPattern(pat)
		if root == nil {
			root = patPlan
		} else {
			root = &Pipe{Left: root, Right: patPlan}
		}
	}

	if q.Where != nil {
		root = &Filter{Input: root, Expr: q.Where}
	}

	root = &Project{Input: root, Items: q.Return}

	if len(q.OrderBy) > 0 {
		root = &OrderBy{Input: root, Items: q.OrderBy}
	}

	return root
}

/*
planPattern translates a single MATCH pattern element into a scan, possibly
piped into an Expand when the pattern names a relation.
*/
func planPattern(pat *parser.Pattern) Op {
	left := planNode(pat.Left)

	if pat.Rel == nil {
		return left
	}

	var right Op = &Expand{
		Input:     left,
		Type:      pat.Rel.Type,
		Direction: pat.Rel.Direction,
		Into:      pat.Right.Var,
	}

	if pat.Right.Label != "" {
		right = &LabelFilter{Input: right, Var: pat.Right.Var, Label: pat.Right.Label}
	}

	if len(pat.Right.Props) > 0 {
		right = &Filter{Input: right, Expr: propMapExpr(pat.Right.Var, pat.Right.Props)}
	}

	return right
}

/*
planNode translates a single node pattern into a scan, wrapped in a Filter
when the pattern carries an inline property map.
*/
func planNode(n *parser.NodePattern) Op {
	var scan Op
	if n.Label != "" {
		scan = &LabelIndexScan{Label: n.Label, Var: n.Var}
	} else {
		scan = &NodeScan{Var: n.Var}
	}

	if len(n.Props) == 0 {
		return scan
	}

	return &Filter{Input: scan, Expr: propMapExpr(n.Var, n.Props)}
}

/*
propMapExpr turns an inline property map into an AND-chain of equality
comparisons. Keys are sorted so the resulting tree shape is deterministic
regardless of Go's randomized map iteration order.
*/
func propMapExpr(v string, props map[string]data.Value) parser.Expr {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var expr parser.Expr
	for _, k := range keys {
		cmp := &parser.Comparison{Var: v, Prop: k, Op: parser.Eq, Value: props[k]}
		if expr == nil {
			expr = cmp
		} else {
			expr = &parser.BinaryExpr{Op: parser.And, Left: expr, Right: cmp}
		}
	}
	return expr
}
