package compiler

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aretw0/abacus/pkg/domain"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokNumber:
		return "number"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "end of input"
	}
}

type token struct {
	kind  tokenKind
	value float64
	pi    bool // number token produced by the circle constant
	pos   int  // rune offset in the source text
}

// tokenize normalizes display glyphs and splits the text into arithmetic tokens.
// The circle constant becomes a number token carrying math.Pi, so it never merges
// with adjacent digits.
func tokenize(text string) ([]token, error) {
	src := []rune(text)
	tokens := make([]token, 0, len(src)+1)

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case r == ' ':
			i++
		case domain.IsOperandRune(r):
			start := i
			dots := 0
			for i < len(src) && domain.IsOperandRune(src[i]) {
				if src[i] == '.' {
					dots++
				}
				i++
			}
			lit := string(src[start:i])
			if dots > 1 || lit == "." {
				return nil, fmt.Errorf("%w: malformed number %q at offset %d", domain.ErrInvalidExpression, lit, start)
			}
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				// Out-of-range literals still carry ±Inf; the result check reports them.
				var numErr *strconv.NumError
				if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
					return nil, fmt.Errorf("%w: malformed number %q at offset %d", domain.ErrInvalidExpression, lit, start)
				}
			}
			tokens = append(tokens, token{kind: tokNumber, value: v, pos: start})
		case r == domain.GlyphPi:
			tokens = append(tokens, token{kind: tokNumber, value: math.Pi, pi: true, pos: i})
			i++
		default:
			kind, ok := operatorToken(r)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected character %q at offset %d", domain.ErrInvalidExpression, r, i)
			}
			tokens = append(tokens, token{kind: kind, pos: i})
			i++
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func operatorToken(r rune) (tokenKind, bool) {
	switch r {
	case '+':
		return tokPlus, true
	case '-':
		return tokMinus, true
	case '*', domain.GlyphMultiply:
		return tokStar, true
	case '/', domain.GlyphDivide:
		return tokSlash, true
	case '(':
		return tokLParen, true
	case ')':
		return tokRParen, true
	}
	return 0, false
}
