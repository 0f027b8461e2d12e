package runtime

import "github.com/aretw0/abacus/pkg/domain"

// buffer is the expression text as a rune sequence, so multi-byte glyphs
// ('×', '÷', 'π') are edited as single characters.
type buffer struct {
	runes []rune
}

func (b *buffer) String() string {
	return string(b.runes)
}

func (b *buffer) Len() int {
	return len(b.runes)
}

func (b *buffer) Empty() bool {
	return len(b.runes) == 0
}

func (b *buffer) Last() (rune, bool) {
	if len(b.runes) == 0 {
		return 0, false
	}
	return b.runes[len(b.runes)-1], true
}

func (b *buffer) Set(s string) {
	b.runes = append(b.runes[:0], []rune(s)...)
}

func (b *buffer) Reset() {
	b.runes = b.runes[:0]
}

func (b *buffer) Append(s string) {
	b.runes = append(b.runes, []rune(s)...)
}

func (b *buffer) DropLast() {
	if len(b.runes) > 0 {
		b.runes = b.runes[:len(b.runes)-1]
	}
}

func (b *buffer) ReplaceLast(s string) {
	b.DropLast()
	b.Append(s)
}

// ReplaceFrom drops everything from start on and appends s.
func (b *buffer) ReplaceFrom(start int, s string) {
	b.runes = append(b.runes[:start], []rune(s)...)
}

// digitRun returns the start of the maximal suffix of digits and decimal points.
// The run is empty when start == Len().
func (b *buffer) digitRun() int {
	i := len(b.runes)
	for i > 0 && domain.IsOperandRune(b.runes[i-1]) {
		i--
	}
	return i
}

// runHasDecimal reports whether the trailing digit run already holds a decimal point.
func (b *buffer) runHasDecimal() bool {
	for _, r := range b.runes[b.digitRun():] {
		if r == '.' {
			return true
		}
	}
	return false
}

// operand returns the span of the trailing operand, the maximal run of digits and
// decimal points. ok is false when the buffer ends with anything else.
func (b *buffer) operand() (start int, text string, ok bool) {
	start = b.digitRun()
	if start == len(b.runes) {
		return start, "", false
	}
	return start, string(b.runes[start:]), true
}

// openParens counts '(' not yet closed.
func (b *buffer) openParens() int {
	depth := 0
	for _, r := range b.runes {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}
