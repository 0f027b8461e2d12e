package compiler

import (
	"fmt"
	"math"

	"github.com/aretw0/abacus/pkg/domain"
)

// Evaluate parses and evaluates an arithmetic expression.
//
// The accepted grammar is:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary | 'π')*
//	unary   := ('-' | '+') unary | primary
//	primary := number | 'π' | '(' expr ')'
//
// Display glyphs '×' and '÷' are read as '*' and '/'. A circle constant written
// right after a number, a closing parenthesis or another constant multiplies it
// ("2π", "(1+1)π", "ππ"). No other juxtaposition is accepted: "2(3)" and "(2)3" fail.
// Malformed input fails with domain.ErrInvalidExpression; a non-finite value fails with
// domain.ErrInvalidResult.
func Evaluate(text string) (float64, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return 0, err
	}

	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return 0, fmt.Errorf("%w: empty expression", domain.ErrInvalidExpression)
	}

	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		if tok.kind == tokRParen {
			return 0, fmt.Errorf("%w: unmatched ')' at offset %d", domain.ErrInvalidExpression, tok.pos)
		}
		return 0, fmt.Errorf("%w: unexpected %s at offset %d", domain.ErrInvalidExpression, tok.kind, tok.pos)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidResult, value)
	}
	return value, nil
}

// Parser evaluates expressions for callers that hold it as a dependency.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Evaluate implements the evaluator contract. See the package-level Evaluate.
func (p *Parser) Evaluate(text string) (float64, error) {
	return Evaluate(text)
}

type parser struct {
	tokens []token
	pos    int
	last   token // last consumed token
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	p.last = tok
	return tok
}

func (p *parser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case tokMinus:
			p.next()
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	value, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		switch tok := p.peek(); {
		case tok.kind == tokStar:
			p.next()
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case tok.kind == tokSlash:
			p.next()
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			value /= rhs
		case p.juxtaposed(tok):
			rhs, err := p.parsePrimary()
			if err != nil {
				return 0, err
			}
			value *= rhs
		default:
			return value, nil
		}
	}
}

// juxtaposed reports whether tok is a circle constant that implicitly multiplies
// the operand just closed.
func (p *parser) juxtaposed(tok token) bool {
	if tok.kind != tokNumber || !tok.pi {
		return false
	}
	return p.last.kind == tokRParen || p.last.kind == tokNumber
}

func (p *parser) parseUnary() (float64, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		v, err := p.parseUnary()
		return -v, err
	case tokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return tok.value, nil
	case tokLParen:
		if p.peek().kind == tokRParen {
			return 0, fmt.Errorf("%w: empty group at offset %d", domain.ErrInvalidExpression, tok.pos)
		}
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return 0, fmt.Errorf("%w: unmatched '(' at offset %d", domain.ErrInvalidExpression, tok.pos)
		}
		return v, nil
	case tokEOF:
		return 0, fmt.Errorf("%w: unexpected end of input", domain.ErrInvalidExpression)
	default:
		return 0, fmt.Errorf("%w: unexpected %s at offset %d", domain.ErrInvalidExpression, tok.kind, tok.pos)
	}
}
