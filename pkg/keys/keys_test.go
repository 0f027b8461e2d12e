package keys_test

import (
	"testing"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		script string
		want   []string
	}{
		{"12+3", []string{"digit:1", "digit:2", "operator:+", "digit:3"}},
		{"2 x ( 3 + 4 ) =", []string{"digit:2", "operator:×", "paren:(", "digit:3", "operator:+", "digit:4", "paren:)", "equals"}},
		{"9×sin=", []string{"digit:9", "operator:×", "function:sin", "equals"}},
		{"cos c", []string{"function:cos", "clear"}},
		{"AC DEL", []string{"clear", "delete"}},
		{"3x²", []string{"digit:3", "function:square"}},
		{"3x2", []string{"digit:3", "operator:×", "digit:2"}},
		{"pi sqrt sq %", []string{"function:pi", "function:sqrt", "function:square", "function:percent"}},
		{"1,5÷2", []string{"digit:1", "decimal:.", "digit:5", "operator:÷", "digit:2"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := keys.Parse(tt.script)
			require.NoError(t, err)

			var labels []string
			for _, k := range got {
				labels = append(labels, k.String())
			}
			assert.Equal(t, tt.want, labels)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := keys.Parse("12 ^ 2")
	assert.ErrorIs(t, err, domain.ErrUnknownKey)
	assert.Contains(t, err.Error(), "offset 3")

	assert.Panics(t, func() { keys.MustParse("log") })
}

func TestFormat_RoundTrip(t *testing.T) {
	in := keys.MustParse("(2+π)×√9 x² % del C 1.5÷3=")
	out, err := keys.Parse(keys.Format(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
