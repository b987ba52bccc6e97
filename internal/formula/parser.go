package formula

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// Parse errors. Each is wrapped in a malformed_conversion_formula error.
var (
	ErrEmptyFormula      = errors.New("empty formula")
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrUnbalancedParens  = errors.New("unbalanced parentheses")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrArity             = errors.New("wrong number of arguments")
)

const (
	VarSourceAmount = "SOURCE_AMOUNT"
	VarPerAmount    = "PER_AMOUNT"

	tokenFlipCoin = "FLIP_COIN"
	tokenDrawCard = "DRAW_CARD"
	rollPrefix    = "ROLL_"
	mathPrefix    = "Math"
)

// rollTokens maps each dice token to its die size
var rollTokens = map[string]int{
	"ROLL_1D4":  4,
	"ROLL_1D6":  6,
	"ROLL_1D8":  8,
	"ROLL_1D10": 10,
	"ROLL_1D12": 12,
	"ROLL_1D20": 20,
}

type function struct {
	minArgs int
	maxArgs int // -1 for variadic
}

var functions = map[string]function{
	"min":   {minArgs: 1, maxArgs: -1},
	"max":   {minArgs: 1, maxArgs: -1},
	"floor": {minArgs: 1, maxArgs: 1},
	"ceil":  {minArgs: 1, maxArgs: 1},
}

// Expr is a parsed conversion formula. The AST is canonical; the source
// text is kept for display and re-serialization.
type Expr struct {
	source string
	root   node
}

// Parse parses a conversion formula such as
// "SOURCE_AMOUNT > 10 ? ROLL_1D6 : Math.floor(SOURCE_AMOUNT / PER_AMOUNT)".
// Variables are not checked here; an unsupplied variable only fails at
// evaluation.
func Parse(text string) (*Expr, error) {
	root, err := parse(text)
	if err != nil {
		return nil, dnderr.MalformedConversionFormula(err, text)
	}
	return &Expr{source: text, root: root}, nil
}

// MustParse parses text and panics on error. Intended for constants.
func MustParse(text string) *Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func parse(text string) (node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFormula
	}
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	switch tok := p.peek(); tok.kind {
	case tokenEOF:
		return root, nil
	case tokenRParen:
		return nil, fmt.Errorf("%w: unmatched %s at position %d", ErrUnbalancedParens, tok, tok.index)
	default:
		return nil, fmt.Errorf("%w: %s at position %d", ErrUnexpectedToken, tok, tok.index)
	}
}

// Source returns the text the expression was parsed from
func (e *Expr) Source() string {
	return e.source
}

// String renders the expression canonically
func (e *Expr) String() string {
	var b strings.Builder
	e.root.write(&b)
	return b.String()
}

// Equivalent reports whether two expressions have the same canonical form
func (e *Expr) Equivalent(other *Expr) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.String() == other.String()
}

// Variables lists the variable names the expression reads, sorted
func (e *Expr) Variables() []string {
	seen := map[string]bool{}
	walk(e.root, func(n node) {
		if v, ok := n.(variableNode); ok {
			seen[v.name] = true
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRandom reports whether evaluation draws from the roller
func (e *Expr) IsRandom() bool {
	random := false
	walk(e.root, func(n node) {
		switch n.(type) {
		case diceNode, coinNode, cardNode:
			random = true
		}
	})
	return random
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenQuestion {
		return cond, nil
	}
	p.next()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok := p.next(); tok.kind != tokenColon {
		return nil, fmt.Errorf("%w: expected \":\" but found %s at position %d", ErrUnexpectedToken, tok, tok.index)
	}
	otherwise, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, otherwise: otherwise}, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.kind != tokenOperator || !isComparison(tok.text) {
		return left, nil
	}
	p.next()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: tok.text, left: left, right: right}, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOperator || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOperator || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.kind == tokenOperator && (tok.text == "-" || tok.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.text == "+" {
			return operand, nil
		}
		return unaryNode{op: "-", operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		return numberNode{value: tok.num}, nil
	case tokenLParen:
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return nil, fmt.Errorf("%w: expected \")\" but found %s at position %d", ErrUnbalancedParens, closing, closing.index)
		}
		return inner, nil
	case tokenRParen:
		return nil, fmt.Errorf("%w: unmatched %s at position %d", ErrUnbalancedParens, tok, tok.index)
	case tokenIdent:
		return p.parseIdent(tok)
	case tokenEOF:
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrUnexpectedToken)
	default:
		return nil, fmt.Errorf("%w: %s at position %d", ErrUnexpectedToken, tok, tok.index)
	}
}

func (p *parser) parseIdent(tok token) (node, error) {
	if tok.text == mathPrefix && p.peek().kind == tokenDot {
		p.next()
		name := p.next()
		if name.kind != tokenIdent {
			return nil, fmt.Errorf("%w: expected function name after Math. at position %d", ErrUnexpectedToken, name.index)
		}
		return p.parseCall(name)
	}
	if p.peek().kind == tokenLParen {
		return p.parseCall(tok)
	}

	switch {
	case tok.text == tokenFlipCoin:
		return coinNode{}, nil
	case tok.text == tokenDrawCard:
		return cardNode{}, nil
	case strings.HasPrefix(strings.ToUpper(tok.text), rollPrefix):
		sides, ok := rollTokens[tok.text]
		if !ok {
			return nil, fmt.Errorf("%w: %s at position %d", ErrUnknownIdentifier, tok, tok.index)
		}
		return diceNode{token: tok.text, sides: sides}, nil
	}
	return variableNode{name: tok.text}, nil
}

func (p *parser) parseCall(name token) (node, error) {
	fnName := strings.ToLower(name.text)
	fn, ok := functions[fnName]
	if !ok {
		return nil, fmt.Errorf("%w: %s at position %d", ErrUnknownFunction, name, name.index)
	}
	if open := p.next(); open.kind != tokenLParen {
		return nil, fmt.Errorf("%w: expected \"(\" after %s", ErrUnexpectedToken, name)
	}

	var args []node
	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.kind != tokenRParen {
		return nil, fmt.Errorf("%w: expected \")\" but found %s at position %d", ErrUnbalancedParens, closing, closing.index)
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("%w: %s takes %s, got %d", ErrArity, fnName, arityText(fn), len(args))
	}
	return callNode{fn: fnName, args: args}, nil
}

func arityText(fn function) string {
	if fn.maxArgs < 0 {
		return fmt.Sprintf("at least %d argument(s)", fn.minArgs)
	}
	return fmt.Sprintf("%d argument(s)", fn.maxArgs)
}

func isComparison(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "!=":
		return true
	}
	return false
}
