/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package parser

import (
	"fmt"
	"strconv"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/query/lexer"
)

/*
ParseError reports a syntax error together with the offending token's
source position.
*/
type ParseError struct {
	Msg string
	Tok lexer.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s (got %s)", e.Msg, e.Tok.PosString(), e.Tok)
}

/*
parser is a recursive-descent parser over a buffered token list. Buffering
the whole list up front (rather than pulling off the lexer's channel)
keeps lookahead trivial at the cost of a single full tokenization pass,
which is cheap for query strings of the size this grammar targets.
*/
type parser struct {
	toks []lexer.Token
	pos  int
}

/*
Parse tokenizes and parses a query string into a Query AST.
*/
func Parse(input string) (*Query, error) {
	p := &parser{toks: lexer.LexToList(input)}
	return p.parseQuery()
}

func (p *parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) check(k lexer.Kind) bool {
	return p.cur().Kind == k
}

func (p *parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur().Kind == lexer.Error {
		return lexer.Token{}, &ParseError{Msg: p.cur().Val, Tok: p.cur()}
	}
	if !p.check(k) {
		return lexer.Token{}, &ParseError{Msg: "expected " + what, Tok: p.cur()}
	}
	return p.advance(), nil
}

func (p *parser) parseQuery() (*Query, error) {
	if _, err := p.expect(lexer.MATCH, "MATCH"); err != nil {
		return nil, err
	}

	patterns, err := p.parsePatterns()
	if err != nil {
		return nil, err
	}

	q := &Query{Patterns: patterns}

	if p.check(lexer.WHERE) {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = expr
	}

	if _, err := p.expect(lexer.RETURN, "RETURN"); err != nil {
		return nil, err
	}

	items, err := p.parseReturnItems()
	if err != nil {
		return nil, err
	}
	q.Return = items

	if p.check(lexer.ORDER) {
		p.advance()
		if _, err := p.expect(lexer.BY, "BY"); err != nil {
			return nil, err
		}
		orderItems, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		q.OrderBy = orderItems
	}

	if !p.check(lexer.EOF) {
		return nil, &ParseError{Msg: "unexpected trailing input", Tok: p.cur()}
	}

	return q, nil
}

func (p *parser) parsePatterns() ([]*Pattern, error) {
	var patterns []*Pattern

	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)

		if !p.check(lexer.Comma) {
			break
		}
		p.advance()
	}

	return patterns, nil
}

func (p *parser) parsePattern() (*Pattern, error) {
	left, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}

	pat := &Pattern{Left: left}

	if p.check(lexer.Minus) || p.check(lexer.LArrow) {
		rel, err := p.parseRelPattern()
		if err != nil {
			return nil, err
		}
		pat.Rel = rel

		right, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		pat.Right = right
	}

	return pat, nil
}

func (p *parser) parseNodePattern() (*NodePattern, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}

	n := &NodePattern{}

	if p.check(lexer.Ident) {
		n.Var = p.advance().Val
	}

	if p.check(lexer.Colon) {
		p.advance()
		label, err := p.expect(lexer.Ident, "a label")
		if err != nil {
			return nil, err
		}
		n.Label = label.Val
	}

	if p.check(lexer.LBrace) {
		props, err := p.parsePropMap()
		if err != nil {
			return nil, err
		}
		n.Props = props
	}

	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) parsePropMap() (map[string]data.Value, error) {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return nil, err
	}

	props := make(map[string]data.Value)

	if !p.check(lexer.RBrace) {
		for {
			key, err := p.expect(lexer.Ident, "a property name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Colon, "':'"); err != nil {
				return nil, err
			}
			val, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			props[key.Val] = val

			if !p.check(lexer.Comma) {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}

	return props, nil
}

func (p *parser) parseRelPattern() (*RelPattern, error) {
	if p.check(lexer.LArrow) {
		p.advance()
		if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		typ, err := p.expect(lexer.Ident, "a relation type")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Minus, "'-'"); err != nil {
			return nil, err
		}
		return &RelPattern{Type: typ.Val, Direction: In}, nil
	}

	if _, err := p.expect(lexer.Minus, "'-'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon, "':'"); err != nil {
		return nil, err
	}
	typ, err := p.expect(lexer.Ident, "a relation type")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Arrow, "'->'"); err != nil {
		return nil, err
	}
	return &RelPattern{Type: typ.Val, Direction: Out}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.check(lexer.AND) || p.check(lexer.OR) {
		op := And
		if p.cur().Kind == lexer.OR {
			op = Or
		}
		p.advance()

		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	v, err := p.expect(lexer.Ident, "a variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Dot, "'.'"); err != nil {
		return nil, err
	}
	prop, err := p.expect(lexer.Ident, "a property name")
	if err != nil {
		return nil, err
	}

	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}

	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &Comparison{Var: v.Val, Prop: prop.Val, Op: op, Value: val}, nil
}

func (p *parser) parseCompareOp() (CompareOp, error) {
	switch p.cur().Kind {
	case lexer.Eq:
		p.advance()
		return Eq, nil
	case lexer.Neq:
		p.advance()
		return Neq, nil
	case lexer.Lt:
		p.advance()
		return Lt, nil
	case lexer.Leq:
		p.advance()
		return Leq, nil
	case lexer.Gt:
		p.advance()
		return Gt, nil
	case lexer.Geq:
		p.advance()
		return Geq, nil
	}
	return 0, &ParseError{Msg: "expected a comparison operator", Tok: p.cur()}
}

func (p *parser) parseValue() (data.Value, error) {
	switch p.cur().Kind {
	case lexer.Int:
		tok := p.advance()
		n, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return data.Null, &ParseError{Msg: "invalid integer literal", Tok: tok}
		}
		return data.Int(n), nil
	case lexer.String:
		return data.String(p.advance().Val), nil
	case lexer.TRUE:
		p.advance()
		return data.Bool(true), nil
	case lexer.FALSE:
		p.advance()
		return data.Bool(false), nil
	case lexer.NULL:
		p.advance()
		return data.Null, nil
	}
	return data.Null, &ParseError{Msg: "expected a value", Tok: p.cur()}
}

func (p *parser) parseReturnItems() ([]*ReturnItem, error) {
	var items []*ReturnItem

	for {
		v, err := p.expect(lexer.Ident, "a variable")
		if err != nil {
			return nil, err
		}
		item := &ReturnItem{Var: v.Val}

		if p.check(lexer.Dot) {
			p.advance()
			prop, err := p.expect(lexer.Ident, "a property name")
			if err != nil {
				return nil, err
			}
			item.Prop = prop.Val
		}

		items = append(items, item)

		if !p.check(lexer.Comma) {
			break
		}
		p.advance()
	}

	return items, nil
}

func (p *parser) parseOrderItems() ([]*OrderItem, error) {
	var items []*OrderItem

	for {
		v, err := p.expect(lexer.Ident, "a variable")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Dot, "'.'"); err != nil {
			return nil, err
		}
		prop, err := p.expect(lexer.Ident, "a property name")
		if err != nil {
			return nil, err
		}

		item := &OrderItem{Var: v.Val, Prop: prop.Val}

		if p.check(lexer.ASC) {
			p.advance()
		} else if p.check(lexer.DESC) {
			p.advance()
			item.Desc = true
		}

		items = append(items, item)

		if !p.check(lexer.Comma) {
			break
		}
		p.advance()
	}

	return items, nil
}
