package formula_test

import (
	"testing"

	"github.com/KirkDiggler/spell-effects/internal/dice"
	mockdice "github.com/KirkDiggler/spell-effects/internal/dice/mock"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/formula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		source  float64
		per     float64
		rolls   []int
		want    float64
	}{
		{name: "quarter of source", input: "SOURCE_AMOUNT * 0.25", source: 30, want: 7.5},
		{name: "rigged die under cap", input: "Math.min(ROLL_1D8, SOURCE_AMOUNT / 2)", source: 30, rolls: []int{8}, want: 8},
		{name: "cap under die", input: "Math.min(ROLL_1D8, SOURCE_AMOUNT / 2)", source: 6, rolls: []int{8}, want: 3},
		{name: "precedence", input: "1 + 2 * 3", want: 7},
		{name: "left associative", input: "10 - 4 - 1", want: 5},
		{name: "unary minus", input: "-SOURCE_AMOUNT / 2", source: 9, want: -4.5},
		{name: "floor", input: "Math.floor(SOURCE_AMOUNT / PER_AMOUNT)", source: 25, per: 10, want: 2},
		{name: "ceil", input: "ceil(SOURCE_AMOUNT / PER_AMOUNT)", source: 25, per: 10, want: 3},
		{name: "max variadic", input: "max(1, ROLL_1D4, 3)", rolls: []int{4}, want: 4},
		{name: "ternary true branch", input: "SOURCE_AMOUNT > 20 ? SOURCE_AMOUNT * 0.5 : SOURCE_AMOUNT * 0.25", source: 40, want: 20},
		{name: "ternary false branch", input: "SOURCE_AMOUNT > 20 ? SOURCE_AMOUNT * 0.5 : SOURCE_AMOUNT * 0.25", source: 8, want: 2},
		{name: "coin heads", input: "FLIP_COIN ? 10 : 1", rolls: []int{1}, want: 10},
		{name: "coin tails", input: "FLIP_COIN ? 10 : 1", rolls: []int{2}, want: 1},
		{name: "face card", input: "DRAW_CARD >= 11 ? ROLL_1D12 + PER_AMOUNT : 0", per: 2, rolls: []int{12, 5}, want: 7},
		{name: "low card skips die", input: "DRAW_CARD >= 11 ? ROLL_1D12 : 0", rolls: []int{3}, want: 0},
		{name: "card as number", input: "DRAW_CARD * 2", rolls: []int{13}, want: 26},
		{name: "dice in arithmetic", input: "ROLL_1D20 + ROLL_1D4", rolls: []int{17, 2}, want: 19},
		{name: "bool equality", input: "FLIP_COIN == FLIP_COIN ? 1 : 0", rolls: []int{1, 2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := formula.Parse(tt.input)
			require.NoError(t, err)

			roller := mockdice.NewManualMockRoller(tt.rolls...)
			got, err := expr.Eval(formula.NewContext(tt.source, tt.per, roller))

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, 0, roller.Remaining(), "every rigged draw should be consumed")
		})
	}
}

func TestEval_Deterministic(t *testing.T) {
	expr, err := formula.Parse("SOURCE_AMOUNT * 0.25")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		got, err := expr.Eval(formula.NewContext(30, 0, nil))
		require.NoError(t, err)
		assert.Equal(t, 7.5, got)
	}

	random, err := formula.Parse("ROLL_1D20 + ROLL_1D6 * DRAW_CARD")
	require.NoError(t, err)

	first, err := random.Eval(formula.NewContext(0, 0, dice.NewSeededRoller(7)))
	require.NoError(t, err)
	second, err := random.Eval(formula.NewContext(0, 0, dice.NewSeededRoller(7)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ctx     *formula.Context
		wantErr error
	}{
		{name: "division by zero", input: "SOURCE_AMOUNT / PER_AMOUNT", ctx: formula.NewContext(10, 0, nil), wantErr: formula.ErrDivisionByZero},
		{name: "unknown variable", input: "CASTER_LEVEL * 2", ctx: formula.NewContext(10, 0, nil), wantErr: formula.ErrUnknownVariable},
		{name: "non boolean condition", input: "SOURCE_AMOUNT ? 1 : 2", ctx: formula.NewContext(10, 0, nil), wantErr: formula.ErrNonBooleanCondition},
		{name: "boolean arithmetic", input: "FLIP_COIN + 1", ctx: formula.NewContext(0, 0, mockdice.NewManualMockRoller(1)), wantErr: formula.ErrTypeMismatch},
		{name: "boolean result", input: "SOURCE_AMOUNT > 1", ctx: formula.NewContext(10, 0, nil), wantErr: formula.ErrTypeMismatch},
		{name: "boolean function argument", input: "floor(FLIP_COIN)", ctx: formula.NewContext(0, 0, mockdice.NewManualMockRoller(1)), wantErr: formula.ErrTypeMismatch},
		{name: "missing roller", input: "ROLL_1D6", ctx: formula.NewContext(0, 0, nil), wantErr: formula.ErrNoRoller},
		{name: "nil context", input: "SOURCE_AMOUNT", ctx: nil, wantErr: formula.ErrUnknownVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := formula.Parse(tt.input)
			require.NoError(t, err)

			_, err = expr.Eval(tt.ctx)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, dnderr.IsEvaluation(err))
		})
	}
}

func TestContext_With(t *testing.T) {
	base := formula.NewContext(10, 5, nil)
	extended := base.With("CASTER_LEVEL", 3)

	expr, err := formula.Parse("CASTER_LEVEL + SOURCE_AMOUNT")
	require.NoError(t, err)

	got, err := expr.Eval(extended)
	require.NoError(t, err)
	assert.Equal(t, float64(13), got)

	_, err = expr.Eval(base)
	assert.ErrorIs(t, err, formula.ErrUnknownVariable)
}
