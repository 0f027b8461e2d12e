package format_test

import (
	"math"
	"testing"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"zero", 0, "0"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"integer", 42, "42"},
		{"no trailing zeros", 3.14159, "3.14159"},
		{"binary noise rounded away", 0.1 + 0.2, "0.3"},
		{"negative", -2.5, "-2.5"},
		{"large fixed", 9999999999, "9999999999"},
		{"pi falls back to 8 digits", math.Pi, "3.1415927"},
		{"long fraction falls back", 1.0 / 3, "0.33333333"},
		{"negative long fraction", -2.0 / 3, "-0.66666667"},
		{"smallest fixed", 1e-6, "0.000001"},
		{"large scientific", 1e12, "1.000000e+12"},
		{"threshold scientific", 1e10, "1.000000e+10"},
		{"small scientific", 1e-7, "1.000000e-7"},
		{"negative scientific", -1.23456789e15, "-1.234568e+15"},
		{"small negative scientific", -2.5e-9, "-2.500000e-9"},
		{"huge exponent", 1.5e300, "1.500000e+300"},
		{"positive infinity", math.Inf(1), domain.ErrorSentinel},
		{"negative infinity", math.Inf(-1), domain.ErrorSentinel},
		{"nan", math.NaN(), domain.ErrorSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.Format(tt.value))
		})
	}
}

func TestFormat_FitsDisplay(t *testing.T) {
	for _, v := range []float64{math.Pi, math.E, 1.0 / 7, 123456.789012345, -98765.4321012} {
		got := format.Format(v)
		assert.LessOrEqual(t, len(got), format.MaxWidth, got)
	}
}

func TestParseDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"3.14159", 3.14159},
		{"-2.5", -2.5},
		{"1.000000e+12", 1e12},
		{"1.000000e-7", 1e-7},
		{"5+", 5},
		{".5", 0.5},
		{"12e", 12},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := format.ParseDisplay(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDisplay_Invalid(t *testing.T) {
	for _, in := range []string{"", domain.ErrorSentinel, "-", "π", "×3", "."} {
		_, err := format.ParseDisplay(in)
		assert.ErrorIs(t, err, domain.ErrInvalidOperand, in)
	}
}
