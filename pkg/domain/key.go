package domain

import (
	"fmt"
	"strings"
)

// Display glyphs used inside the expression buffer.
const (
	GlyphMultiply = '×'
	GlyphDivide   = '÷'
	GlyphPi       = 'π'
)

// Canonical scientific function names.
const (
	FuncSin     = "sin"
	FuncCos     = "cos"
	FuncTan     = "tan"
	FuncSqrt    = "sqrt"
	FuncSquare  = "square"
	FuncPercent = "percent"

	// FuncPi is accepted by ApplyFunction but never dispatched: it inserts the constant literal.
	FuncPi = "pi"
)

// KeyKind classifies a key-press.
type KeyKind string

const (
	KeyDigit    KeyKind = "digit"
	KeyDecimal  KeyKind = "decimal"
	KeyOperator KeyKind = "operator"
	KeyParen    KeyKind = "paren"
	KeyFunction KeyKind = "function"
	KeyClear    KeyKind = "clear"
	KeyDelete   KeyKind = "delete"
	KeyEquals   KeyKind = "equals"
)

// Key is a single typed key-press.
// Value holds the buffer token for digits, decimal, operators and parentheses,
// and the canonical function name for functions.
type Key struct {
	Kind  KeyKind `json:"kind"`
	Value string  `json:"value,omitempty"`
}

func (k Key) String() string {
	if k.Value == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Value
}

var namedKeys = map[string]Key{
	"+": {Kind: KeyOperator, Value: "+"},
	"-": {Kind: KeyOperator, Value: "-"},
	"−": {Kind: KeyOperator, Value: "-"},
	"×": {Kind: KeyOperator, Value: string(GlyphMultiply)},
	"*": {Kind: KeyOperator, Value: string(GlyphMultiply)},
	"x": {Kind: KeyOperator, Value: string(GlyphMultiply)},
	"÷": {Kind: KeyOperator, Value: string(GlyphDivide)},
	"/": {Kind: KeyOperator, Value: string(GlyphDivide)},

	".": {Kind: KeyDecimal, Value: "."},
	",": {Kind: KeyDecimal, Value: "."},

	"(": {Kind: KeyParen, Value: "("},
	")": {Kind: KeyParen, Value: ")"},

	"sin":     {Kind: KeyFunction, Value: FuncSin},
	"cos":     {Kind: KeyFunction, Value: FuncCos},
	"tan":     {Kind: KeyFunction, Value: FuncTan},
	"√":       {Kind: KeyFunction, Value: FuncSqrt},
	"sqrt":    {Kind: KeyFunction, Value: FuncSqrt},
	"x²":      {Kind: KeyFunction, Value: FuncSquare},
	"square":  {Kind: KeyFunction, Value: FuncSquare},
	"sq":      {Kind: KeyFunction, Value: FuncSquare},
	"%":       {Kind: KeyFunction, Value: FuncPercent},
	"percent": {Kind: KeyFunction, Value: FuncPercent},
	"π":       {Kind: KeyFunction, Value: FuncPi},
	"pi":      {Kind: KeyFunction, Value: FuncPi},

	"c":     {Kind: KeyClear},
	"ac":    {Kind: KeyClear},
	"clear": {Kind: KeyClear},
	"del":   {Kind: KeyDelete},
	"⌫":     {Kind: KeyDelete},
	"=":     {Kind: KeyEquals},
}

// ParseKey maps a button label to a typed Key.
// Labels are matched case-insensitively; ASCII aliases are accepted for the display glyphs.
func ParseKey(label string) (Key, error) {
	label = strings.TrimSpace(label)
	if len(label) == 1 && label[0] >= '0' && label[0] <= '9' {
		return Key{Kind: KeyDigit, Value: label}, nil
	}
	if k, ok := namedKeys[strings.ToLower(label)]; ok {
		return k, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, label)
}

// MustParseKey is like ParseKey but panics on unknown labels. Intended for tests and static tables.
func MustParseKey(label string) Key {
	k, err := ParseKey(label)
	if err != nil {
		panic(err)
	}
	return k
}

// IsOperatorRune reports whether r is one of the binary operator glyphs held in a buffer.
func IsOperatorRune(r rune) bool {
	switch r {
	case '+', '-', GlyphMultiply, GlyphDivide:
		return true
	}
	return false
}

// IsOperandRune reports whether r can be part of a numeric operand (digit or decimal point).
func IsOperandRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.'
}

// Labels returns every non-digit label ParseKey accepts, in no particular order.
func Labels() []string {
	labels := make([]string, 0, len(namedKeys))
	for l := range namedKeys {
		labels = append(labels, l)
	}
	return labels
}
