// Package format renders calculator values for a fixed-width display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/abacus/pkg/domain"
)

const (
	// MaxWidth is the display width a fixed-notation result should fit in.
	MaxWidth = 12

	// Significant digits used for the first and the fallback rounding.
	precisionWide   = 12
	precisionNarrow = 8

	// Mantissa digits after the point in scientific notation.
	exponentDigits = 6

	upperFixed = 1e10
	lowerFixed = 1e-6
)

// Format canonicalizes a value into a display string.
//
// Non-finite values yield domain.ErrorSentinel. Magnitudes of at least 1e10, or
// non-zero magnitudes below 1e-6, use scientific notation ("1.000000e+12").
// Everything else is rounded to 12 significant digits without trailing zeros and,
// if that is wider than MaxWidth, to 8 significant digits.
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.ErrorSentinel
	}

	abs := math.Abs(v)
	if abs >= upperFixed || (abs > 0 && abs < lowerFixed) {
		return exponential(v, exponentDigits)
	}

	s := significant(v, precisionWide)
	if len(s) > MaxWidth {
		return significant(v, precisionNarrow)
	}
	return s
}

// exponential renders v with digits mantissa decimals and an unpadded exponent.
func exponential(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	mantissa, exp, _ := strings.Cut(s, "e")

	sign, magnitude := exp[:1], strings.TrimLeft(exp[1:], "0")
	if magnitude == "" {
		magnitude = "0"
	}
	return mantissa + "e" + sign + magnitude
}

// significant rounds v to sig significant digits and prints the shortest fixed form.
func significant(v float64, sig int) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', sig, 64), 64)
	if err != nil {
		return domain.ErrorSentinel
	}
	if rounded == 0 {
		return "0"
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// ParseDisplay reads the numeric value at the start of a display string.
// Like a lenient float reader it stops at the first character that cannot extend
// the number, so "5+" reads as 5. Text without a leading number fails with
// domain.ErrInvalidOperand.
func ParseDisplay(s string) (float64, error) {
	s = strings.TrimSpace(s)
	end := numericPrefix(s)
	if end == 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOperand, s)
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOperand, s)
	}
	return v, nil
}

func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}

	// Exponent only counts when it carries at least one digit.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
