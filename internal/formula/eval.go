package formula

import (
	"errors"
	"fmt"
	"math"

	"github.com/KirkDiggler/spell-effects/internal/dice"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// Evaluation errors. Each is wrapped in an evaluation_error.
var (
	ErrDivisionByZero      = errors.New("division by zero")
	ErrUnknownVariable     = errors.New("unknown variable")
	ErrNonBooleanCondition = errors.New("ternary condition is not a comparison or coin flip")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrNotFinite           = errors.New("result is not a finite number")
	ErrNoRoller            = errors.New("formula needs a dice roller")
)

// Context supplies variables and the random source for one evaluation
type Context struct {
	Variables map[string]float64
	Roller    dice.Roller
}

// NewContext creates a context carrying SOURCE_AMOUNT and PER_AMOUNT
func NewContext(sourceAmount, perAmount float64, roller dice.Roller) *Context {
	return &Context{
		Variables: map[string]float64{
			VarSourceAmount: sourceAmount,
			VarPerAmount:    perAmount,
		},
		Roller: roller,
	}
}

// With returns a copy of the context with an extra variable set
func (c *Context) With(name string, v float64) *Context {
	vars := make(map[string]float64, len(c.Variables)+1)
	for k, val := range c.Variables {
		vars[k] = val
	}
	vars[name] = v
	return &Context{Variables: vars, Roller: c.Roller}
}

// value is either a number or a boolean
type value struct {
	num    float64
	b      bool
	isBool bool
}

func number(n float64) value { return value{num: n} }
func boolean(b bool) value   { return value{b: b, isBool: true} }

func (v value) String() string {
	if v.isBool {
		return fmt.Sprintf("%t", v.b)
	}
	return fmt.Sprintf("%g", v.num)
}

type evaluator struct {
	ctx *Context
}

// Eval resolves the expression to a number. Dice, coin and card tokens draw
// from ctx.Roller in left-to-right order along the branches actually taken.
func (e *Expr) Eval(ctx *Context) (float64, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	v, err := e.root.eval(&evaluator{ctx: ctx})
	if err != nil {
		return 0, dnderr.Evaluation(err, fmt.Sprintf("failed to evaluate %q", e.source))
	}
	if v.isBool {
		return 0, dnderr.Evaluation(fmt.Errorf("%w: formula produced a boolean", ErrTypeMismatch), fmt.Sprintf("failed to evaluate %q", e.source))
	}
	return v.num, nil
}

func (ev *evaluator) draw(sides int) (int, error) {
	if ev.ctx.Roller == nil {
		return 0, ErrNoRoller
	}
	result, err := ev.ctx.Roller.Roll(1, sides, 0)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

func (n numberNode) eval(*evaluator) (value, error) {
	return number(n.value), nil
}

func (n variableNode) eval(ev *evaluator) (value, error) {
	v, ok := ev.ctx.Variables[n.name]
	if !ok {
		return value{}, fmt.Errorf("%w: %s", ErrUnknownVariable, n.name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return value{}, fmt.Errorf("%w: variable %s", ErrNotFinite, n.name)
	}
	return number(v), nil
}

func (n diceNode) eval(ev *evaluator) (value, error) {
	roll, err := ev.draw(n.sides)
	if err != nil {
		return value{}, err
	}
	return number(float64(roll)), nil
}

// FLIP_COIN draws a d2; a 1 is heads and yields true
func (coinNode) eval(ev *evaluator) (value, error) {
	roll, err := ev.draw(2)
	if err != nil {
		return value{}, err
	}
	return boolean(roll == 1), nil
}

// DRAW_CARD draws a card rank from 1 (ace) to 13 (king)
func (cardNode) eval(ev *evaluator) (value, error) {
	roll, err := ev.draw(13)
	if err != nil {
		return value{}, err
	}
	return number(float64(roll)), nil
}

func (n unaryNode) eval(ev *evaluator) (value, error) {
	v, err := n.operand.eval(ev)
	if err != nil {
		return value{}, err
	}
	if v.isBool {
		return value{}, fmt.Errorf("%w: cannot negate %s", ErrTypeMismatch, v)
	}
	return number(-v.num), nil
}

func (n binaryNode) eval(ev *evaluator) (value, error) {
	left, err := n.left.eval(ev)
	if err != nil {
		return value{}, err
	}
	right, err := n.right.eval(ev)
	if err != nil {
		return value{}, err
	}

	if isComparison(n.op) {
		return compare(n.op, left, right)
	}

	if left.isBool || right.isBool {
		return value{}, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, left, n.op, right)
	}

	var result float64
	switch n.op {
	case "+":
		result = left.num + right.num
	case "-":
		result = left.num - right.num
	case "*":
		result = left.num * right.num
	case "/":
		if right.num == 0 {
			return value{}, ErrDivisionByZero
		}
		result = left.num / right.num
	default:
		return value{}, fmt.Errorf("%w: operator %s", ErrUnexpectedToken, n.op)
	}
	return finite(result)
}

func compare(op string, left, right value) (value, error) {
	if left.isBool != right.isBool {
		return value{}, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, left, op, right)
	}
	if left.isBool {
		switch op {
		case "==":
			return boolean(left.b == right.b), nil
		case "!=":
			return boolean(left.b != right.b), nil
		}
		return value{}, fmt.Errorf("%w: cannot order booleans with %s", ErrTypeMismatch, op)
	}

	switch op {
	case "<":
		return boolean(left.num < right.num), nil
	case "<=":
		return boolean(left.num <= right.num), nil
	case ">":
		return boolean(left.num > right.num), nil
	case ">=":
		return boolean(left.num >= right.num), nil
	case "==":
		return boolean(left.num == right.num), nil
	default:
		return boolean(left.num != right.num), nil
	}
}

func (n ternaryNode) eval(ev *evaluator) (value, error) {
	cond, err := n.cond.eval(ev)
	if err != nil {
		return value{}, err
	}
	if !cond.isBool {
		return value{}, fmt.Errorf("%w: got %s", ErrNonBooleanCondition, cond)
	}
	if cond.b {
		return n.then.eval(ev)
	}
	return n.otherwise.eval(ev)
}

func (n callNode) eval(ev *evaluator) (value, error) {
	args := make([]float64, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(ev)
		if err != nil {
			return value{}, err
		}
		if v.isBool {
			return value{}, fmt.Errorf("%w: %s argument %d is %s", ErrTypeMismatch, n.fn, i+1, v)
		}
		args[i] = v.num
	}

	switch n.fn {
	case "min":
		result := args[0]
		for _, a := range args[1:] {
			result = math.Min(result, a)
		}
		return number(result), nil
	case "max":
		result := args[0]
		for _, a := range args[1:] {
			result = math.Max(result, a)
		}
		return number(result), nil
	case "floor":
		return number(math.Floor(args[0])), nil
	case "ceil":
		return number(math.Ceil(args[0])), nil
	}
	return value{}, fmt.Errorf("%w: %s", ErrUnknownFunction, n.fn)
}

func finite(f float64) (value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value{}, ErrNotFinite
	}
	return number(f), nil
}
