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
Package exec runs an operator tree built by query/planner over a Store and
Indexes (§4.7.5). Every variable this grammar can bind names a node, so a
row is simply a map from variable name to the node currently bound to it,
until Project narrows it down into the result shape the caller asked for.
*/
package exec

import (
	"sort"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/query/parser"
	"github.com/krotik/graphdb/query/planner"
	"github.com/krotik/graphdb/store"
)

/*
Row maps a bound variable to the node it currently holds. It is the
working row shape for every operator below Project.
*/
type Row map[string]*data.Node

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

/*
ResultRow is a single row of a query's final result set, keyed the way
Project built it: a bare variable name maps to the whole node, a
"var.prop" key maps to a single property value.
*/
type ResultRow map[string]interface{}

/*
RowIter is a lazy row sequence. Next returns the next row, or ok=false
once exhausted. Every operator below Project yields a Row; Project and
OrderBy yield a ResultRow - Run type-asserts the final stage's output.
*/
type RowIter interface {
	Next() (row interface{}, ok bool, err error)
}

/*
Context carries the Store and Indexes an execution reads from.
*/
type Context struct {
	Store   *store.Store
	Indexes *index.Indexes
}

/*
Run executes a planned (and optionally optimized) operator tree to
completion and returns its result rows.
*/
func Run(op planner.Op, ctx *Context) ([]ResultRow, error) {
	it, err := build(op, ctx)
	if err != nil {
		return nil, err
	}

	var out []ResultRow
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, row.(ResultRow))
	}
	return out, nil
}

func build(op planner.Op, ctx *Context) (RowIter, error) {
	switch n := op.(type) {

	case *planner.NodeScan:
		return newNodeScan(ctx, n.Var), nil

	case *planner.LabelIndexScan:
		return newLabelIndexScan(ctx, n.Label, n.Var), nil

	case *planner.Expand:
		input, err := build(n.Input, ctx)
		if err != nil {
			return nil, err
		}
		return newExpand(ctx, input, n), nil

	case *planner.LabelFilter:
		input, err := build(n.Input, ctx)
		if err != nil {
			return nil, err
		}
		return newLabelFilter(input, n), nil

	case *planner.Filter:
		input, err := build(n.Input, ctx)
		if err != nil {
			return nil, err
		}
		return newFilter(input, n.Expr), nil

	case *planner.Pipe:
		left, err := build(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		return newPipe(ctx, left, n.Right), nil

	case *planner.Project:
		input, err := build(n.Input, ctx)
		if err != nil {
			return nil, err
		}
		return newProject(input, n.Items), nil

	case *planner.OrderBy:
		input, err := build(n.Input, ctx)
		if err != nil {
			return nil, err
		}
		return newOrderBy(input, n.Items)

	default:
		return nil, util.New(util.ErrParse, "unknown operator in plan")
	}
}

/*
sliceIter replays a pre-materialized slice of rows; used by the two scans,
whose source index lookups already hand back a full list of ids, so there
is nothing to gain from deferring the work further.
*/
type sliceIter struct {
	rows []Row
	pos  int
}

func (it *sliceIter) Next() (interface{}, bool, error) {
	if it.pos >= len(it.rows) {
		return nil, false, nil
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true, nil
}

func newNodeScan(ctx *Context, v string) RowIter {
	nodes := ctx.Store.AllNodes()
	rows := make([]Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, Row{v: n})
	}
	return &sliceIter{rows: rows}
}

func newLabelIndexScan(ctx *Context, label, v string) RowIter {
	ids := ctx.Indexes.NodesByLabel(label)
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		if n, ok := ctx.Store.GetNode(id); ok {
			rows = append(rows, Row{v: n})
		}
	}
	return &sliceIter{rows: rows}
}

/*
expandIter lazily expands one input row at a time into the (possibly many)
rows reachable over the requested relation.
*/
type expandIter struct {
	ctx   *Context
	input RowIter
	op    *planner.Expand

	pending []Row
}

func newExpand(ctx *Context, input RowIter, op *planner.Expand) RowIter {
	return &expandIter{ctx: ctx, input: input, op: op}
}

func (it *expandIter) Next() (interface{}, bool, error) {
	for len(it.pending) == 0 {
		row, ok, err := it.input.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		it.pending = it.stepsFrom(row.(Row))
	}

	next := it.pending[0]
	it.pending = it.pending[1:]
	return next, true, nil
}

func (it *expandIter) stepsFrom(row Row) []Row {
	src, ok := row[lastBoundVar(it.op.Input)]
	if !ok {
		return nil
	}

	var edgeIDs []string
	if it.op.Direction == parser.Out {
		edgeIDs = it.ctx.Indexes.OutEdges(src.ID)
	} else {
		edgeIDs = it.ctx.Indexes.InEdges(src.ID)
	}

	var out []Row
	for _, eid := range edgeIDs {
		e, ok := it.ctx.Store.GetEdge(eid)
		if !ok || e.Type != it.op.Type {
			continue
		}

		var endpointID string
		if it.op.Direction == parser.Out {
			endpointID = e.To
		} else {
			endpointID = e.From
		}

		endpoint, ok := it.ctx.Store.GetNode(endpointID)
		if !ok {
			continue
		}

		next := row.clone()
		next[it.op.Into] = endpoint
		out = append(out, next)
	}

	return out
}

/*
lastBoundVar identifies the variable most recently introduced by a
subplan - the one Expand consumes as its source node.
*/
func lastBoundVar(op planner.Op) string {
	switch n := op.(type) {
	case *planner.NodeScan:
		return n.Var
	case *planner.LabelIndexScan:
		return n.Var
	case *planner.Expand:
		return n.Into
	case *planner.Filter:
		return lastBoundVar(n.Input)
	case *planner.LabelFilter:
		return lastBoundVar(n.Input)
	case *planner.Pipe:
		return lastBoundVar(n.Right)
	}
	return ""
}

type labelFilterIter struct {
	input RowIter
	op    *planner.LabelFilter
}

func newLabelFilter(input RowIter, op *planner.LabelFilter) RowIter {
	return &labelFilterIter{input: input, op: op}
}

func (it *labelFilterIter) Next() (interface{}, bool, error) {
	for {
		r, ok, err := it.input.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		row := r.(Row)
		if n, bound := row[it.op.Var]; bound && n.HasLabel(it.op.Label) {
			return row, true, nil
		}
	}
}

type filterIter struct {
	input RowIter
	expr  parser.Expr
}

func newFilter(input RowIter, expr parser.Expr) RowIter {
	return &filterIter{input: input, expr: expr}
}

func (it *filterIter) Next() (interface{}, bool, error) {
	for {
		r, ok, err := it.input.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		row := r.(Row)
		matched, err := Eval(it.expr, row)
		if err != nil {
			return nil, false, err
		}
		if matched {
			return row, true, nil
		}
	}
}

/*
pipeIter threads every row from the left side through a fresh instance of
the right subplan, as a nested-loop join restricted to propagating the
left row's bindings into the right subplan's scans.
*/
type pipeIter struct {
	ctx   *Context
	left  RowIter
	right planner.Op

	cur RowIter
}

func newPipe(ctx *Context, left RowIter, right planner.Op) RowIter {
	return &pipeIter{ctx: ctx, left: left, right: right}
}

func (it *pipeIter) Next() (interface{}, bool, error) {
	for {
		if it.cur != nil {
			row, ok, err := it.cur.Next()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return row, true, nil
			}
			it.cur = nil
		}

		leftRow, ok, err := it.left.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		rightIter, err := build(it.right, it.ctx)
		if err != nil {
			return nil, false, err
		}
		it.cur = &mergeIter{left: leftRow.(Row), right: rightIter}
	}
}

/*
mergeIter merges one fixed left row's bindings into every row the right
subplan produces.
*/
type mergeIter struct {
	left  Row
	right RowIter
}

func (it *mergeIter) Next() (interface{}, bool, error) {
	r, ok, err := it.right.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	merged := it.left.clone()
	for k, v := range r.(Row) {
		merged[k] = v
	}
	return merged, true, nil
}

type projectIter struct {
	input RowIter
	items []*parser.ReturnItem
}

func newProject(input RowIter, items []*parser.ReturnItem) RowIter {
	return &projectIter{input: input, items: items}
}

func (it *projectIter) Next() (interface{}, bool, error) {
	r, ok, err := it.input.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	row := r.(Row)

	out := make(ResultRow, len(it.items))
	for _, item := range it.items {
		n, bound := row[item.Var]
		if !bound {
			continue
		}
		if item.Prop == "" {
			out[item.Var] = n
			continue
		}
		v, ok := n.Property(item.Prop)
		if !ok {
			v = data.Null
		}
		out[item.Var+"."+item.Prop] = v
	}
	return out, true, nil
}

type orderByIter struct {
	rows []ResultRow
	pos  int
}

func newOrderBy(input RowIter, items []*parser.OrderItem) (RowIter, error) {
	var rows []ResultRow

	for {
		r, ok, err := input.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, r.(ResultRow))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, item := range items {
			key := item.Var
			if item.Prop != "" {
				key = item.Var + "." + item.Prop
			}
			cmp := compareResultValues(rows[i][key], rows[j][key])
			if cmp == 0 {
				continue
			}
			if item.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return &orderByIter{rows: rows}, nil
}

/*
compareResultValues orders two projected result values. Incomparable
values (different kinds, or a value that is not a data.Value at all, e.g.
a whole node) are treated as equal for ordering purposes rather than
raising an error - ORDER BY degrades to a stable no-op on such keys
instead of failing the whole query.
*/
func compareResultValues(a, b interface{}) int {
	av, aok := a.(data.Value)
	bv, bok := b.(data.Value)
	if !aok || !bok {
		return 0
	}
	cmp, err := av.Compare(bv)
	if err != nil {
		return 0
	}
	return cmp
}

func (it *orderByIter) Next() (interface{}, bool, error) {
	if it.pos >= len(it.rows) {
		return nil, false, nil
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true, nil
}
