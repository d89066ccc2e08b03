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
Package lexer tokenizes the query language of §4.7: a Cypher-inspired
read-only pattern query over MATCH/WHERE/RETURN/ORDER BY clauses. Modeled
on eql/parser/lexer.go's channel-fed state machine, trimmed to this
grammar's much smaller token set.
*/
package lexer

import "fmt"

/*
Kind identifies what a Token represents.
*/
type Kind int

const (
	EOF Kind = iota
	Error

	Ident
	Int
	String

	// Keywords
	MATCH
	WHERE
	RETURN
	ORDER
	BY
	ASC
	DESC
	AND
	OR
	TRUE
	FALSE
	NULL

	// Symbols
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Dot
	Minus
	Arrow  // ->
	LArrow // <-

	// Comparison operators
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
)

/*
keywords maps lower-cased identifier text to its keyword Kind.
*/
var keywords = map[string]Kind{
	"match":  MATCH,
	"where":  WHERE,
	"return": RETURN,
	"order":  ORDER,
	"by":     BY,
	"asc":    ASC,
	"desc":   DESC,
	"and":    AND,
	"or":     OR,
	"true":   TRUE,
	"false":  FALSE,
	"null":   NULL,
}

/*
Token is a single lexical unit together with its source position.
*/
type Token struct {
	Kind Kind
	Val  string
	Line int
	Col  int
}

/*
String returns a human-readable form of the token, used in parse error
messages.
*/
func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	if t.Kind == Error {
		return fmt.Sprintf("lex error: %s", t.Val)
	}
	return fmt.Sprintf("%q", t.Val)
}

/*
PosString renders the token's source position for diagnostics.
*/
func (t Token) PosString() string {
	return fmt.Sprintf("line %d, col %d", t.Line, t.Col)
}
