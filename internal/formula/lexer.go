package formula

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenOperator
	tokenLParen
	tokenRParen
	tokenComma
	tokenDot
	tokenQuestion
	tokenColon
)

type token struct {
	kind  tokenKind
	text  string
	num   float64
	index int
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of formula"
	}
	return fmt.Sprintf("%q", t.text)
}

// operators longest first so "<=" wins over "<"
var operators = []string{"===", "!==", "==", "!=", "<=", ">=", "<", ">", "+", "-", "*", "/"}

func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			num, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q at position %d", ErrUnexpectedToken, src[start:i], start)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: src[start:i], num: num, index: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: src[start:i], index: start})
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", index: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", index: i})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", index: i})
			i++
		case c == '.':
			tokens = append(tokens, token{kind: tokenDot, text: ".", index: i})
			i++
		case c == '?':
			tokens = append(tokens, token{kind: tokenQuestion, text: "?", index: i})
			i++
		case c == ':':
			tokens = append(tokens, token{kind: tokenColon, text: ":", index: i})
			i++
		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, fmt.Errorf("%w: %q at position %d", ErrUnexpectedToken, string(c), i)
			}
			tokens = append(tokens, token{kind: tokenOperator, text: normalizeOperator(op), index: i})
			i += len(op)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, index: len(src)})
	return tokens, nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func normalizeOperator(op string) string {
	switch op {
	case "===":
		return "=="
	case "!==":
		return "!="
	}
	return op
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
