package gm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the dynamic value variant (§3, §4.C).
type Kind uint8

const (
	KindUndefined Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "?"
	}
}

// Value is the dynamically-typed value variant (§3): immutable, freely
// cloneable (it is small and carries no pointers into mutable state).
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float64
	s    string
}

// Undefined is the zero Value.
var Undefined = Value{}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Int(n int32) Value   { return Value{kind: KindInt, i: n} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) debugString() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.ToString())
}

// ToBool implements the truthiness column of §4.C's conversion table. The
// float threshold is pinned at 0.5 per §9's Design Notes (the Iji-targeted
// build, not the `value != 0.0` alternative floated in one source revision).
func (v Value) ToBool() bool {
	switch v.kind {
	case KindUndefined:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return !math.IsNaN(v.f) && v.f > 0.5
	case KindString:
		return v.s != ""
	default:
		return false
	}
}

// ToInt implements the int column of §4.C's conversion table. Always total.
func (v Value) ToInt() int32 {
	switch v.kind {
	case KindUndefined:
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindInt:
		return v.i
	case KindFloat:
		return int32(v.f)
	case KindString:
		return parseIntOrZero(v.s)
	default:
		return 0
	}
}

// ToFloat implements the float column of §4.C's conversion table.
func (v Value) ToFloat() float64 {
	switch v.kind {
	case KindUndefined:
		return 0.0
	case KindBool:
		if v.b {
			return 1.0
		}
		return 0.0
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ToString implements the string column of §4.C's conversion table, using a
// shortest round-trippable representation for floats.
func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

func parseIntOrZero(s string) int32 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int32(f)
	}
	return 0
}

// ToID resolves a Value to an ObjectId. Per original_source/gml/src/eval.rs's
// Error::InvalidObject, only a genuine Int value denotes an id — a Float or
// String operand (even one that would coerce to a sensible integer) is
// rejected, so that `with (some_sprite_index)` and similar mistakes surface
// as InvalidObjectError instead of silently rebinding to the wrong instance.
func (v Value) ToID() (ObjectID, error) {
	if v.kind != KindInt {
		return 0, &InvalidObjectError{Value: v}
	}
	return ObjectID(v.i), nil
}

// Add implements the `+` operator (§4.C): string concatenation if either
// side is a string, otherwise int+int or float+float.
func Add(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return String(a.ToString() + b.ToString()), nil
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(a.i + b.i), nil
	}
	return Float(a.ToFloat() + b.ToFloat()), nil
}

// Sub implements the `-` operator.
func Sub(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Undefined, &InvalidOperandsError{Op: "-", Lhs: a, Rhs: b}
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(a.i - b.i), nil
	}
	return Float(a.ToFloat() - b.ToFloat()), nil
}

// Mul implements the `*` operator, including the string-repeat case.
func Mul(a, b Value) (Value, error) {
	if a.kind == KindString && b.kind == KindString {
		return Undefined, &InvalidOperandsError{Op: "*", Lhs: a, Rhs: b}
	}
	if a.kind == KindString {
		return String(strings.Repeat(a.s, maxInt(0, int(b.ToInt())))), nil
	}
	if b.kind == KindString {
		return String(strings.Repeat(b.s, maxInt(0, int(a.ToInt())))), nil
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(a.i * b.i), nil
	}
	return Float(a.ToFloat() * b.ToFloat()), nil
}

// Div implements the `/` operator: integer division when both operands are
// genuinely Int, float division otherwise.
func Div(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Undefined, &InvalidOperandsError{Op: "/", Lhs: a, Rhs: b}
	}
	if a.kind == KindInt && b.kind == KindInt {
		if b.i == 0 {
			return Undefined, &InvalidOperandsError{Op: "/", Lhs: a, Rhs: b}
		}
		return Int(a.i / b.i), nil
	}
	bf := b.ToFloat()
	return Float(a.ToFloat() / bf), nil
}

// Mod implements the `%` operator (the `mod` keyword at the grammar level).
func Mod(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Undefined, &InvalidOperandsError{Op: "%", Lhs: a, Rhs: b}
	}
	if a.kind == KindInt && b.kind == KindInt {
		if b.i == 0 {
			return Undefined, &InvalidOperandsError{Op: "%", Lhs: a, Rhs: b}
		}
		return Int(a.i % b.i), nil
	}
	bf := b.ToFloat()
	if bf == 0 {
		return Undefined, &InvalidOperandsError{Op: "%", Lhs: a, Rhs: b}
	}
	return Float(math.Mod(a.ToFloat(), bf)), nil
}

// IntDiv implements the `div` keyword operator: always int/int, truncating
// toward zero, after coercing both sides to int (§4.C).
func IntDiv(a, b Value) (Value, error) {
	bi := b.ToInt()
	if bi == 0 {
		return Undefined, &InvalidOperandsError{Op: "div", Lhs: a, Rhs: b}
	}
	return Int(a.ToInt() / bi), nil
}

// Equal implements `==` (§4.C): Int vs Int, Float vs anything (other
// coerced to float), String vs String; otherwise unordered and false.
func Equal(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.i == b.i
	case a.kind == KindFloat || b.kind == KindFloat:
		return a.ToFloat() == b.ToFloat()
	case a.kind == KindString && b.kind == KindString:
		return a.s == b.s
	default:
		return false
	}
}

// NotEqual is always the boolean negation of Equal (§8's testable law).
func NotEqual(a, b Value) bool { return !Equal(a, b) }

// Less implements `<` (§4.C's comparison rule).
func Less(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.i < b.i
	case a.kind == KindFloat || b.kind == KindFloat:
		return a.ToFloat() < b.ToFloat()
	case a.kind == KindString && b.kind == KindString:
		return a.s < b.s
	default:
		return false
	}
}

func LessEqual(a, b Value) bool    { return Less(a, b) || Equal(a, b) }
func Greater(a, b Value) bool      { return Less(b, a) }
func GreaterEqual(a, b Value) bool { return Less(b, a) || Equal(a, b) }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
