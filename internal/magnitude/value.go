// Package magnitude classifies author input into a number, a dice formula
// or a conversion formula and resolves it to an effect size.
package magnitude

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/KirkDiggler/spell-effects/internal/dice"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/formula"
)

// Kind tags the active variant of a Value
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindDice
	KindFormula
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDice:
		return "dice"
	case KindFormula:
		return "formula"
	case KindInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Type is the display hint for a magnitude. For formula magnitudes it is
// advisory only.
type Type string

const (
	TypeFlat       Type = "flat"
	TypePercentage Type = "percentage"
)

// Valid reports whether t is a known magnitude type
func (t Type) Valid() bool {
	return t == TypeFlat || t == TypePercentage
}

// ErrEmpty is returned when classifying blank input
var ErrEmpty = errors.New("magnitude is empty")

// Options controls classification
type Options struct {
	// AllowFormula accepts conversion formulas. Only resource-link fields
	// such as lifelink customFormula set it; stat modifiers never do.
	AllowFormula bool
}

// Value is a tagged magnitude: exactly one of number, dice or formula is
// set. KindInvalid keeps unparseable stored text so it survives a round trip.
type Value struct {
	kind    Kind
	number  float64
	dice    *dice.Notation
	formula *formula.Expr
	raw     string
	percent bool
	err     error
}

// Number creates a literal magnitude
func Number(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// Dice creates a dice magnitude
func Dice(n *dice.Notation) Value {
	return Value{kind: KindDice, dice: n, raw: n.String()}
}

// Formula creates a conversion formula magnitude
func Formula(e *formula.Expr) Value {
	return Value{kind: KindFormula, formula: e, raw: e.Source()}
}

// Classify turns author input into a Value. A number is tried first, then
// dice notation (with d20 read as 1d20), then a conversion formula when
// opts allow it.
func Classify(raw string, opts Options) (Value, error) {
	s := strings.TrimSpace(raw)
	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "++") {
		s = strings.TrimSpace(s[1:])
	}
	if s == "" {
		return Value{}, dnderr.MalformedMagnitude(ErrEmpty, raw)
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Value{kind: KindNumber, number: n, raw: s, percent: percent}, nil
	}

	notation, diceErr := dice.Parse(expandDiceShorthand(s))
	if diceErr == nil {
		return Value{kind: KindDice, dice: notation, raw: s, percent: percent}, nil
	}

	if !opts.AllowFormula {
		return Value{}, dnderr.MalformedMagnitude(diceErr, raw)
	}

	expr, err := formula.Parse(s)
	if err != nil {
		return Value{}, dnderr.MalformedMagnitude(err, raw)
	}
	return Value{kind: KindFormula, formula: expr, raw: s, percent: percent}, nil
}

// expandDiceShorthand rewrites d20 to 1d20 and -d4 to -1d4
func expandDiceShorthand(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "d"):
		return "1" + s
	case strings.HasPrefix(lower, "-d"):
		return "-1" + s[1:]
	}
	return s
}

// FromAny classifies a decoded JSON value
func FromAny(v any, opts Options) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, dnderr.MalformedMagnitude(err, t.String())
		}
		return Number(f), nil
	case string:
		return Classify(t, opts)
	default:
		return Value{}, dnderr.MalformedMagnitude(nil, toString(v))
	}
}

func toString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Kind returns the active variant
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value was never set
func (v Value) IsZero() bool { return v.kind == KindNone }

// Percent reports whether the input carried a trailing percent sign
func (v Value) Percent() bool { return v.percent }

// Raw returns the text the value was classified from
func (v Value) Raw() string { return v.raw }

// Err returns the classification error of an invalid value
func (v Value) Err() error { return v.err }

// AsNumber returns the literal amount
func (v Value) AsNumber() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// AsDice returns the parsed dice notation
func (v Value) AsDice() (*dice.Notation, bool) {
	return v.dice, v.kind == KindDice
}

// AsFormula returns the parsed conversion formula
func (v Value) AsFormula() (*formula.Expr, bool) {
	return v.formula, v.kind == KindFormula
}

// String renders the value for display
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindDice:
		return v.dice.String()
	case KindFormula:
		return v.formula.String()
	default:
		return v.raw
	}
}

// Equivalent compares two values by variant and canonical form
func (v Value) Equivalent(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.number == other.number
	case KindDice:
		return v.dice.Equivalent(other.dice)
	case KindFormula:
		return v.formula.Equivalent(other.formula)
	default:
		return v.raw == other.raw
	}
}

// Resolve computes the effect size. Dice and formulas draw from ctx.Roller.
func (v Value) Resolve(ctx *formula.Context) (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.number, nil
	case KindDice:
		var roller dice.Roller
		if ctx != nil {
			roller = ctx.Roller
		}
		if roller == nil {
			return 0, dnderr.Evaluation(formula.ErrNoRoller, "failed to resolve "+v.dice.String())
		}
		result, err := v.dice.Roll(roller)
		if err != nil {
			return 0, dnderr.Evaluation(err, "failed to resolve "+v.dice.String())
		}
		return float64(result.Total), nil
	case KindFormula:
		return v.formula.Eval(ctx)
	case KindInvalid:
		return 0, v.err
	default:
		return 0, dnderr.Validation("magnitude is not set")
	}
}

// MarshalJSON writes numbers as JSON numbers and formulas as their text
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNone:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.number)
	default:
		return json.Marshal(v.raw)
	}
}

// UnmarshalJSON never rejects stored text; unparseable strings become
// KindInvalid so validation can flag them without losing data.
func (v *Value) UnmarshalJSON(data []byte) error {
	return v.decode(data, Options{})
}

func (v *Value) decode(data []byte, opts Options) error {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if s, ok := decoded.(string); ok {
		parsed, err := Classify(s, opts)
		if err != nil {
			*v = Value{kind: KindInvalid, raw: s, err: err}
			return nil
		}
		*v = parsed
		return nil
	}
	parsed, err := FromAny(decoded, opts)
	if err != nil {
		*v = Value{kind: KindInvalid, raw: string(data), err: err}
		return nil
	}
	*v = parsed
	return nil
}

// Conversion is a Value that accepts conversion formulas when decoded
type Conversion struct {
	Value
}

// ParseConversion classifies raw with formulas allowed
func ParseConversion(raw string) (Conversion, error) {
	v, err := Classify(raw, Options{AllowFormula: true})
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Value: v}, nil
}

// DefaultConversion is the lifelink starting formula
func DefaultConversion() Conversion {
	return Conversion{Value: Formula(formula.MustParse(formula.DefaultConversion))}
}

// UnmarshalJSON decodes with formulas allowed
func (c *Conversion) UnmarshalJSON(data []byte) error {
	return c.Value.decode(data, Options{AllowFormula: true})
}
