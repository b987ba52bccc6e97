package dice

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

const (
	// MaxCount bounds the number of dice in a single term
	MaxCount = 100
	// MaxSides bounds the die size
	MaxSides = 1000
)

var (
	ErrEmpty          = errors.New("empty dice formula")
	ErrMissingD       = errors.New("expected 'd' after dice count")
	ErrInvalidCount   = errors.New("dice count must be between 1 and 100")
	ErrInvalidSides   = errors.New("dice sides must be between 1 and 1000")
	ErrInvalidKeep    = errors.New("keep count must be between 1 and the dice count")
	ErrInvalidBonus   = errors.New("modifier must be an integer")
	ErrRepeatedSuffix = errors.New("modifier or keep suffix given twice")
	ErrTrailing       = errors.New("unexpected trailing input")
)

// Notation is a parsed dice term such as -1d8+2 or 4d6k3
type Notation struct {
	Negative   bool
	Count      int
	Sides      int
	Modifier   int
	Keep       int // 0 keeps every die
	KeepLowest bool
}

// Parse parses dice notation. The count may be omitted (d6 is 1d6) and a
// leading sign applies to the whole term.
func Parse(text string) (*Notation, error) {
	n, err := parse(text)
	if err != nil {
		return nil, dnderr.MalformedDiceFormula(err, text)
	}
	return n, nil
}

// IsNotation reports whether text parses as dice notation
func IsNotation(text string) bool {
	_, err := parse(text)
	return err == nil
}

func parse(text string) (*Notation, error) {
	s := strings.ToLower(strings.Join(strings.Fields(text), ""))
	if s == "" {
		return nil, ErrEmpty
	}

	n := &Notation{}
	p := 0
	switch s[0] {
	case '-':
		n.Negative = true
		p++
	case '+':
		p++
	}

	count, next, ok := readInt(s, p)
	switch {
	case next == p:
		n.Count = 1
	case !ok || count < 1 || count > MaxCount:
		return nil, ErrInvalidCount
	default:
		n.Count = count
	}
	p = next

	if p >= len(s) || s[p] != 'd' {
		return nil, ErrMissingD
	}
	p++

	sides, next, ok := readInt(s, p)
	if next == p || !ok || sides < 1 || sides > MaxSides {
		return nil, ErrInvalidSides
	}
	n.Sides = sides
	p = next

	seenBonus, seenKeep := false, false
	for p < len(s) {
		switch s[p] {
		case '+', '-':
			if seenBonus {
				return nil, ErrRepeatedSuffix
			}
			seenBonus = true
			sign := 1
			if s[p] == '-' {
				sign = -1
			}
			bonus, next, ok := readInt(s, p+1)
			if next == p+1 || !ok {
				return nil, ErrInvalidBonus
			}
			n.Modifier = sign * bonus
			p = next
		case 'k':
			if seenKeep {
				return nil, ErrRepeatedSuffix
			}
			seenKeep = true
			p++
			if p < len(s) && s[p] == 'h' {
				p++
			}
			keep, next, ok := readInt(s, p)
			if next == p || !ok || keep < 1 || keep > n.Count {
				return nil, ErrInvalidKeep
			}
			n.Keep = keep
			p = next
			if p < len(s) && s[p] == 'l' {
				n.KeepLowest = true
				p++
			}
		default:
			return nil, ErrTrailing
		}
	}

	return n, nil
}

// readInt reads a run of digits starting at p. next == p means no digits.
func readInt(s string, p int) (value, next int, ok bool) {
	next = p
	for next < len(s) && s[next] >= '0' && s[next] <= '9' {
		next++
	}
	if next == p {
		return 0, next, false
	}
	value, err := strconv.Atoi(s[p:next])
	return value, next, err == nil
}

// String formats the notation canonically, always writing the count
func (n *Notation) String() string {
	var b strings.Builder
	if n.Negative {
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, "%dd%d", n.Count, n.Sides)
	if n.Keep > 0 {
		fmt.Fprintf(&b, "k%d", n.Keep)
		if n.KeepLowest {
			b.WriteByte('l')
		}
	}
	switch {
	case n.Modifier > 0:
		fmt.Fprintf(&b, "+%d", n.Modifier)
	case n.Modifier < 0:
		fmt.Fprintf(&b, "%d", n.Modifier)
	}
	return b.String()
}

// Equivalent reports whether both notations describe the same roll
func (n *Notation) Equivalent(other *Notation) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Negative == other.Negative &&
		n.Count == other.Count &&
		n.Sides == other.Sides &&
		n.Modifier == other.Modifier &&
		n.kept() == other.kept() &&
		(n.kept() == n.Count || n.KeepLowest == other.KeepLowest)
}

func (n *Notation) kept() int {
	if n.Keep == 0 {
		return n.Count
	}
	return n.Keep
}

// MinTotal is the smallest total the notation can produce
func (n *Notation) MinTotal() int {
	low := n.kept() + n.Modifier
	high := n.kept()*n.Sides + n.Modifier
	if n.Negative {
		return -high
	}
	return low
}

// MaxTotal is the largest total the notation can produce
func (n *Notation) MaxTotal() int {
	low := n.kept() + n.Modifier
	high := n.kept()*n.Sides + n.Modifier
	if n.Negative {
		return -low
	}
	return high
}

// Roll draws the dice from roller, keeps the highest or lowest dice when a
// keep suffix is present, adds the modifier and then applies the sign.
func (n *Notation) Roll(roller Roller) (*RollResult, error) {
	if roller == nil {
		return nil, dnderr.InvalidArgument("roller is required")
	}

	drawn, err := roller.Roll(n.Count, n.Sides, 0)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to roll %s", n.String())
	}
	if len(drawn.Rolls) != n.Count {
		return nil, dnderr.Internalf("roller returned %d dice for %s", len(drawn.Rolls), n.String())
	}

	kept := slices.Clone(drawn.Rolls)
	if n.Keep > 0 && n.Keep < n.Count {
		if n.KeepLowest {
			slices.Sort(kept)
		} else {
			slices.SortFunc(kept, func(a, b int) int { return b - a })
		}
		kept = kept[:n.Keep]
	}

	rawTotal := 0
	for _, roll := range kept {
		rawTotal += roll
	}

	total := rawTotal + n.Modifier
	if n.Negative {
		total = -total
	}

	return &RollResult{
		Expression: n.String(),
		Total:      total,
		Rolls:      drawn.Rolls,
		Kept:       kept,
		Bonus:      n.Modifier,
		Count:      n.Count,
		Sides:      n.Sides,
		RawTotal:   rawTotal,
	}, nil
}

// RollString parses and rolls text in one step
func RollString(text string, roller Roller) (*RollResult, error) {
	n, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return n.Roll(roller)
}
