// Package keys turns compact key scripts into calculator key-presses.
//
// A script is the sequence of buttons a user would press, written inline:
//
//	12+3×sin=
//	2 x ( 3 + 4 ) =
//	pi sq del C
//
// Whitespace separates nothing but is allowed anywhere. Words are matched
// greedily and case-insensitively, so "cos" is one key and "c os" is a clear
// followed by an error.
package keys

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/abacus/pkg/domain"
)

var words = func() []string {
	var ws []string
	for _, l := range domain.Labels() {
		if utf8.RuneCountInString(l) > 1 {
			ws = append(ws, l)
		}
	}
	// Longest first; ties broken alphabetically so scanning is deterministic.
	sort.Slice(ws, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(ws[i]), utf8.RuneCountInString(ws[j])
		if li != lj {
			return li > lj
		}
		return ws[i] < ws[j]
	})
	return ws
}()

// Parse tokenizes script into keys.
// It fails with domain.ErrUnknownKey, reporting the byte offset, on the first
// character that does not start a known label.
func Parse(script string) ([]domain.Key, error) {
	var out []domain.Key
	lower := strings.ToLower(script)

	for i := 0; i < len(lower); {
		r, size := utf8.DecodeRuneInString(lower[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		if w := matchWord(lower[i:]); w != "" {
			out = append(out, domain.MustParseKey(w))
			i += len(w)
			continue
		}

		k, err := domain.ParseKey(string(r))
		if err != nil {
			return nil, fmt.Errorf("%w: %q at offset %d", domain.ErrUnknownKey, string(r), i)
		}
		out = append(out, k)
		i += size
	}
	return out, nil
}

// MustParse is like Parse but panics on error.
func MustParse(script string) []domain.Key {
	ks, err := Parse(script)
	if err != nil {
		panic(err)
	}
	return ks
}

// Format renders keys back into a script that Parse accepts.
func Format(ks []domain.Key) string {
	var sb strings.Builder
	for i, k := range ks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(label(k))
	}
	return sb.String()
}

func matchWord(s string) string {
	for _, w := range words {
		if strings.HasPrefix(s, w) {
			return w
		}
	}
	return ""
}

func label(k domain.Key) string {
	switch k.Kind {
	case domain.KeyClear:
		return "C"
	case domain.KeyDelete:
		return "del"
	case domain.KeyEquals:
		return "="
	case domain.KeyFunction:
		switch k.Value {
		case domain.FuncSqrt:
			return "√"
		case domain.FuncSquare:
			return "x²"
		case domain.FuncPercent:
			return "%"
		case domain.FuncPi:
			return "π"
		}
	}
	return k.Value
}
