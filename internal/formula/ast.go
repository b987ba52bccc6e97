package formula

import (
	"strconv"
	"strings"
)

// Operator precedence, loosest first
const (
	precTernary = iota + 1
	precCompare
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

type node interface {
	eval(ev *evaluator) (value, error)
	precedence() int
	write(b *strings.Builder)
}

type numberNode struct {
	value float64
}

type variableNode struct {
	name string
}

// diceNode is one of the ROLL_1DN tokens
type diceNode struct {
	token string
	sides int
}

// coinNode is FLIP_COIN
type coinNode struct{}

// cardNode is DRAW_CARD
type cardNode struct{}

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

type ternaryNode struct {
	cond, then, otherwise node
}

type callNode struct {
	fn   string
	args []node
}

func (numberNode) precedence() int   { return precPrimary }
func (variableNode) precedence() int { return precPrimary }
func (diceNode) precedence() int     { return precPrimary }
func (coinNode) precedence() int     { return precPrimary }
func (cardNode) precedence() int     { return precPrimary }
func (callNode) precedence() int     { return precPrimary }
func (unaryNode) precedence() int    { return precUnary }
func (ternaryNode) precedence() int  { return precTernary }

func (n binaryNode) precedence() int {
	switch n.op {
	case "+", "-":
		return precAdditive
	case "*", "/":
		return precMultiplicative
	default:
		return precCompare
	}
}

func (n numberNode) write(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(n.value, 'f', -1, 64))
}

func (n variableNode) write(b *strings.Builder) { b.WriteString(n.name) }
func (n diceNode) write(b *strings.Builder)     { b.WriteString(n.token) }
func (coinNode) write(b *strings.Builder)       { b.WriteString(tokenFlipCoin) }
func (cardNode) write(b *strings.Builder)       { b.WriteString(tokenDrawCard) }

func (n unaryNode) write(b *strings.Builder) {
	b.WriteString(n.op)
	writeChild(b, n.operand, precUnary, false)
}

func (n binaryNode) write(b *strings.Builder) {
	prec := n.precedence()
	writeChild(b, n.left, prec, false)
	b.WriteString(" " + n.op + " ")
	writeChild(b, n.right, prec, true)
}

func (n ternaryNode) write(b *strings.Builder) {
	if n.cond.precedence() == precTernary {
		b.WriteByte('(')
		n.cond.write(b)
		b.WriteByte(')')
	} else {
		n.cond.write(b)
	}
	b.WriteString(" ? ")
	writeChild(b, n.then, precTernary, false)
	b.WriteString(" : ")
	writeChild(b, n.otherwise, precTernary, false)
}

func (n callNode) write(b *strings.Builder) {
	b.WriteString(n.fn)
	b.WriteByte('(')
	for i, arg := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		arg.write(b)
	}
	b.WriteByte(')')
}

// writeChild parenthesizes a child that binds looser than its parent. The
// right operand of a left-associative operator also needs parentheses at
// equal precedence, and comparisons never chain.
func writeChild(b *strings.Builder, child node, parent int, right bool) {
	prec := child.precedence()
	needs := prec < parent || (right && prec == parent) || (prec == precCompare && parent == precCompare)
	if needs {
		b.WriteByte('(')
	}
	child.write(b)
	if needs {
		b.WriteByte(')')
	}
}

func walk(n node, visit func(node)) {
	visit(n)
	switch v := n.(type) {
	case unaryNode:
		walk(v.operand, visit)
	case binaryNode:
		walk(v.left, visit)
		walk(v.right, visit)
	case ternaryNode:
		walk(v.cond, visit)
		walk(v.then, visit)
		walk(v.otherwise, visit)
	case callNode:
		for _, arg := range v.args {
			walk(arg, visit)
		}
	}
}
