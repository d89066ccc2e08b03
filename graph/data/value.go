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
Package data contains the property-graph data model: nodes, edges and the
scalar value universe properties are drawn from.

Values

A Value is a tagged variant over integer, floating point, boolean, string
and null - the small scalar universe node and edge properties may hold.
Comparisons between values of different kinds follow a fixed rule: equality
style comparisons (Equal) return false, ordering style comparisons (Compare)
return a TypeError.
*/
package data

import (
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

/*
Kind identifies which variant of Value is populated.
*/
type Kind int

/*
Available value kinds.
*/
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

/*
String returns a human-readable name for this kind.
*/
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	}
	return "unknown"
}

/*
Value is a tagged scalar property value.
*/
type Value struct {
	Kind Kind

	i float64
	s string
	b bool
}

/*
valueWire is Value's on-the-wire shape. Value keeps its payload in
unexported fields so callers can only reach it through the Kind-checked
accessors below; msgpack's default struct codec only reflects exported
fields (like encoding/json), so wal and snapshot records would otherwise
persist just the Kind tag and silently drop the payload on every
round-trip. MarshalMsgpack/UnmarshalMsgpack below route through this type
instead of letting msgpack reflect over Value directly.
*/
type valueWire struct {
	Kind Kind
	I    float64
	S    string
	B    bool
}

/*
MarshalMsgpack implements msgpack.Marshaler.
*/
func (v Value) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(valueWire{Kind: v.Kind, I: v.i, S: v.s, B: v.b})
}

/*
UnmarshalMsgpack implements msgpack.Unmarshaler.
*/
func (v *Value) UnmarshalMsgpack(b []byte) error {
	var w valueWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return err
	}
	v.Kind, v.i, v.s, v.b = w.Kind, w.I, w.S, w.B
	return nil
}

/*
Null is the null value.
*/
var Null = Value{Kind: KindNull}

/*
Int creates an integer value.
*/
func Int(v int64) Value {
	return Value{Kind: KindInt, i: float64(v)}
}

/*
Float creates a floating point value.
*/
func Float(v float64) Value {
	return Value{Kind: KindFloat, i: v}
}

/*
Bool creates a boolean value.
*/
func Bool(v bool) Value {
	return Value{Kind: KindBool, b: v}
}

/*
String creates a string value.
*/
func String(v string) Value {
	return Value{Kind: KindString, s: v}
}

/*
IsNull returns whether this value is the null value.
*/
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

/*
Int64 returns the integer payload of this value. Only meaningful if Kind is KindInt.
*/
func (v Value) Int64() int64 {
	return int64(v.i)
}

/*
Float64 returns the floating point payload of this value. Only meaningful if
Kind is KindFloat or KindInt.
*/
func (v Value) Float64() float64 {
	return v.i
}

/*
Bool64 returns the boolean payload of this value. Only meaningful if Kind is KindBool.
*/
func (v Value) Bool64() bool {
	return v.b
}

/*
Str returns the string payload of this value. Only meaningful if Kind is KindString.
*/
func (v Value) Str() string {
	return v.s
}

/*
Native converts a Value into a plain Go value (int64, float64, bool, string or nil).
*/
func (v Value) Native() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int64()
	case KindFloat:
		return v.Float64()
	case KindBool:
		return v.b
	case KindString:
		return v.s
	}
	return nil
}

/*
FromNative wraps a plain Go value (as produced by the lexer/parser or a
caller-supplied property map) into a Value. Panics on an unsupported type -
callers are expected to only pass values from the scalar universe in §3.
*/
func FromNative(val interface{}) Value {
	switch v := val.(type) {
	case nil:
		return Null
	case Value:
		return v
	case int:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	default:
		panic(fmt.Sprintf("data: unsupported property value type %T", val))
	}
}

/*
String returns a human-readable representation of this value.
*/
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.i, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	}
	return ""
}

/*
isNumeric returns whether this value's kind participates in numeric comparisons.
*/
func (v Value) isNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

/*
Equal implements the equality-style comparison rule: values of different
kinds (other than the two numeric kinds, which compare by magnitude) are
never equal.
*/
func (v Value) Equal(other Value) bool {
	if v.isNumeric() && other.isNumeric() {
		return v.i == other.i
	}

	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	default:
		return v.i == other.i
	}
}

/*
Compare implements the ordering-style comparison rule. Returns -1, 0 or 1 if
v is respectively less than, equal to or greater than other. Returns an
error if the two values are not comparable (§4.7.5 TypeError policy).
*/
func (v Value) Compare(other Value) (int, error) {
	if v.isNumeric() && other.isNumeric() {
		return compareFloat(v.i, other.i), nil
	}

	if v.Kind != other.Kind {
		return 0, &TypeError{Left: v, Right: other}
	}

	switch v.Kind {
	case KindString:
		return compareString(v.s, other.s), nil
	case KindBool:
		return compareBool(v.b, other.b), nil
	}

	return 0, &TypeError{Left: v, Right: other}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

/*
TypeError is returned when a query expression compares two incomparable values.
*/
type TypeError struct {
	Left  Value
	Right Value
}

/*
Error returns a human-readable string representation of this error.
*/
func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot order %v (%v) against %v (%v)", e.Left, e.Left.Kind, e.Right, e.Right.Kind)
}
