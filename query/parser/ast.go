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
Package parser builds the abstract syntax tree for the query language of
§4.7 (§4.7.2 Parser).
*/
package parser

import "github.com/krotik/graphdb/graph/data"

/*
Query is the root of a parsed query: the pattern clause, an optional WHERE
expression, the RETURN items and an optional ORDER BY clause.
*/
type Query struct {
	Patterns []*Pattern
	Where    Expr
	Return   []*ReturnItem
	OrderBy  []*OrderItem
}

/*
Direction is which way a relation in a pattern points.
*/
type Direction int

const (
	Out Direction = iota // -[:TYPE]->
	In                    // <-[:TYPE]-
)

/*
Pattern is one comma-separated element of the MATCH clause: a node, or a
node connected to another node through a single relation.
*/
type Pattern struct {
	Left  *NodePattern
	Rel   *RelPattern
	Right *NodePattern
}

/*
NodePattern is a `( [var] [:label] [{prop_map}] )` element.
*/
type NodePattern struct {
	Var   string
	Label string
	Props map[string]data.Value
}

/*
RelPattern is a `-[:type]->` or `<-[:type]-` element.
*/
type RelPattern struct {
	Type      string
	Direction Direction
}

/*
ReturnItem is one element of the RETURN clause: a bound variable, or one
of its properties.
*/
type ReturnItem struct {
	Var  string
	Prop string // empty means "the whole value bound to Var"
}

/*
OrderItem is one element of the ORDER BY clause.
*/
type OrderItem struct {
	Var  string
	Prop string
	Desc bool
}

/*
Expr is a node of the WHERE expression tree: either a BinaryExpr or a
Comparison.
*/
type Expr interface {
	exprNode()
}

/*
LogicalOp identifies and/or combination of two sub-expressions.
*/
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

/*
BinaryExpr combines two sub-expressions with AND or OR.
*/
type BinaryExpr struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

/*
CompareOp identifies a comparison operator.
*/
type CompareOp int

const (
	Eq CompareOp = iota
	Neq
	Lt
	Leq
	Gt
	Geq
)

/*
Comparison is a leaf expression: `var.prop op value`.
*/
type Comparison struct {
	Var   string
	Prop  string
	Op    CompareOp
	Value data.Value
}

func (*Comparison) exprNode() {}
