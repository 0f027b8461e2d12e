package runtime

import (
	"fmt"
	"math"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
)

// begin resets the per-operation outcome.
func (m *Machine) begin() {
	m.lastErr = nil
	m.finalized = nil
}

// refresh recomputes the preview from the buffer. Failures are absorbed:
// the preview falls back to the raw buffer text so the user can keep typing.
func (m *Machine) refresh() {
	if m.buf.Empty() {
		m.preview = "0"
		return
	}
	text := m.buf.String()
	v, err := m.evaluator.Evaluate(text)
	if err != nil {
		m.preview = text
		return
	}
	m.preview = m.format(v)
}

// fail surfaces err as the error sentinel and waits for a fresh entry.
func (m *Machine) fail(err error) {
	m.lastErr = err
	m.preview = domain.ErrorSentinel
	m.pending = true
}

// Clear resets the session to idle. History is kept.
func (m *Machine) Clear() {
	m.begin()
	m.buf.Reset()
	m.preview = "0"
	m.pending = false
}

// Delete removes the last character. A pending value or a buffer of at most
// one character is cleared entirely.
func (m *Machine) Delete() {
	if m.pending || m.buf.Len() <= 1 {
		m.Clear()
		return
	}
	m.begin()
	m.buf.DropLast()
	m.refresh()
}

// InputDigitOrDecimal appends a digit or the decimal point.
// A pending value is replaced by the token alone. While editing, a second decimal
// point in the same operand is ignored, and a decimal point that starts an operand
// is written as "0.".
func (m *Machine) InputDigitOrDecimal(token string) error {
	if !isDigitToken(token) && token != "." {
		return fmt.Errorf("%w: %q is not a digit or decimal point", domain.ErrUnknownKey, token)
	}
	m.begin()

	if m.pending {
		m.pending = false
		m.buf.Set(token)
		m.refresh()
		return nil
	}

	if token == "." {
		if m.buf.runHasDecimal() {
			return nil
		}
		if m.buf.digitRun() == m.buf.Len() {
			token = "0."
		}
	}
	m.buf.Append(token)
	m.refresh()
	return nil
}

// InputOperator appends a binary operator, replacing a trailing one.
// On an empty buffer (or right after '(') only a leading minus is accepted.
func (m *Machine) InputOperator(symbol string) error {
	op, ok := canonicalOperator(symbol)
	if !ok {
		return fmt.Errorf("%w: %q is not an operator", domain.ErrUnknownKey, symbol)
	}
	m.begin()

	last, has := m.buf.Last()
	if !has || last == '(' {
		if op == "-" {
			m.buf.Append(op)
			m.refresh()
		}
		return nil
	}

	m.pending = false
	if domain.IsOperatorRune(last) {
		m.buf.ReplaceLast(op)
	} else {
		m.buf.Append(op)
	}
	m.refresh()
	return nil
}

// InputParenthesis appends '(' or ')'. An opening parenthesis starts a fresh
// expression when a value is pending; a closing one is accepted only when it
// closes a group that holds something.
func (m *Machine) InputParenthesis(p string) error {
	m.begin()

	switch p {
	case "(":
		if m.pending {
			m.pending = false
			m.buf.Reset()
		}
		m.buf.Append(p)
	case ")":
		last, _ := m.buf.Last()
		if m.pending || m.buf.openParens() == 0 || last == '(' || domain.IsOperatorRune(last) {
			return nil
		}
		m.buf.Append(p)
	default:
		return fmt.Errorf("%w: %q is not a parenthesis", domain.ErrUnknownKey, p)
	}
	m.refresh()
	return nil
}

// ApplyFunction applies a scientific function, or inserts the circle constant.
//
// With a pending value or an empty buffer the function applies to the preview and
// replaces the whole buffer. Otherwise it applies to the trailing digit run (or the
// preview when there is none) and the result is spliced in its place. A trailing
// circle constant is not an operand.
// Domain and operand failures show the error sentinel and leave the buffer as is.
func (m *Machine) ApplyFunction(name string) error {
	if name == domain.FuncPi || name == string(domain.GlyphPi) {
		m.begin()
		m.insertPi()
		return nil
	}
	if !m.functions.Has(name) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFunction, name)
	}
	m.begin()

	whole := m.pending || m.buf.Empty()

	var (
		operand float64
		err     error
		start   = -1
	)
	if whole {
		operand, err = format.ParseDisplay(m.preview)
	} else if s, text, ok := m.buf.operand(); ok {
		start = s
		operand, err = format.ParseDisplay(text)
	} else {
		operand, err = format.ParseDisplay(m.preview)
	}

	var result float64
	if err == nil {
		result, err = m.functions.Apply(name, operand)
	}
	if err == nil && (math.IsNaN(result) || math.IsInf(result, 0)) {
		err = fmt.Errorf("%w: %s(%v)", domain.ErrInvalidResult, name, operand)
	}
	if err != nil {
		m.logger.Debug("function failed", "func", name, "operand", operand, "err", err)
		m.fail(err)
		return nil
	}

	formatted := m.format(result)
	switch {
	case whole:
		m.buf.Set(formatted)
		m.preview = formatted
		m.pending = true
	case start >= 0:
		m.buf.ReplaceFrom(start, formatted)
		m.refresh()
	default:
		m.buf.Append(formatted)
		m.refresh()
	}
	return nil
}

func (m *Machine) insertPi() {
	pi := string(domain.GlyphPi)
	if m.pending || m.buf.Empty() {
		m.buf.Set(pi)
		m.preview = m.format(math.Pi)
		m.pending = true
		return
	}
	m.buf.Append(pi)
	m.refresh()
}

// Finalize evaluates the buffer. On success the formatted result replaces the
// buffer and, if it differs from the input, the calculation is recorded in history.
// On failure the preview shows the error sentinel and the buffer is kept.
func (m *Machine) Finalize() {
	m.begin()
	if m.buf.Empty() {
		return
	}

	expr := m.buf.String()
	v, err := m.evaluator.Evaluate(expr)
	if err != nil {
		m.logger.Debug("finalize failed", "expression", expr, "err", err)
		m.fail(err)
		return
	}

	result := m.format(v)
	recorded := result != expr
	if recorded {
		m.history.Push(domain.HistoryEntry{Expression: expr, Result: result})
	}

	m.buf.Set(result)
	m.preview = result
	m.pending = true
	m.finalized = &domain.FinalizeEvent{
		Expression: expr,
		Result:     result,
		Recorded:   recorded,
		HistoryLen: m.history.Len(),
	}
}

// SelectHistory loads a history result as the pending value.
func (m *Machine) SelectHistory(entry domain.HistoryEntry) {
	m.begin()
	m.buf.Set(entry.Result)
	m.preview = entry.Result
	m.pending = true
}

// SelectHistoryAt selects the history entry at index i (0 is the newest).
func (m *Machine) SelectHistoryAt(i int) error {
	entry, err := m.history.At(i)
	if err != nil {
		return err
	}
	m.SelectHistory(entry)
	return nil
}

// ClearHistory empties the history log.
func (m *Machine) ClearHistory() {
	m.history.Clear()
}

func isDigitToken(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func canonicalOperator(symbol string) (string, bool) {
	switch symbol {
	case "+", "-":
		return symbol, true
	case "*", "×":
		return string(domain.GlyphMultiply), true
	case "/", "÷":
		return string(domain.GlyphDivide), true
	}
	return "", false
}

