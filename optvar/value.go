// Package optvar implements the discriminated option value and the
// options map that the preprocessor driver reads from, modeled after the
// variant described in spec.md §3: exactly one of bool, int32, float64,
// rune, or string is ever live at a time.
package optvar

import "fmt"

// Kind discriminates which field of a Value is live.
type Kind int

const (
	Bool Kind = iota
	Int
	Float
	Char
	String
)

// Value is a tagged union. Only the field matching Kind is meaningful;
// the zero Value is Kind==Bool, false.
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float64
	c    rune
	s    string
}

func OfBool(b bool) Value     { return Value{kind: Bool, b: b} }
func OfInt(i int32) Value     { return Value{kind: Int, i: i} }
func OfFloat(f float64) Value { return Value{kind: Float, f: f} }
func OfChar(c rune) Value     { return Value{kind: Char, c: c} }
func OfString(s string) Value { return Value{kind: String, s: s} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() (bool, bool)     { return v.b, v.kind == Bool }
func (v Value) Int() (int32, bool)     { return v.i, v.kind == Int }
func (v Value) Float() (float64, bool) { return v.f, v.kind == Float }
func (v Value) Char() (rune, bool)     { return v.c, v.kind == Char }
func (v Value) String() (string, bool) { return v.s, v.kind == String }

// Stringify renders the value regardless of kind, for verbose-mode
// diagnostics (spec.md §4.5 step 3: "echo... every option (key +
// stringified value)").
func (v Value) Stringify() string {
	switch v.kind {
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return fmt.Sprintf("%g", v.f)
	case Char:
		return string(v.c)
	case String:
		return v.s
	default:
		return ""
	}
}
