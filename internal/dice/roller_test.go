package dice_test

import (
	"testing"

	"github.com/KirkDiggler/spell-effects/internal/dice"
	"github.com/KirkDiggler/spell-effects/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRoller_Roll(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		count      int
		sides      int
		bonus      int
		wantTotal  int
		wantRolls  []int
		wantErr    bool
	}{
		{
			name:       "single d20 roll",
			setupRolls: []int{15},
			count:      1,
			sides:      20,
			wantTotal:  15,
			wantRolls:  []int{15},
		},
		{
			name:       "2d6+3",
			setupRolls: []int{4, 5},
			count:      2,
			sides:      6,
			bonus:      3,
			wantTotal:  12, // 4+5+3
			wantRolls:  []int{4, 5},
		},
		{
			name:       "not enough rolls",
			setupRolls: []int{10},
			count:      2,
			sides:      6,
			wantErr:    true,
		},
		{
			name:       "invalid roll for die size",
			setupRolls: []int{7},
			count:      1,
			sides:      6,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller()
			roller.SetRolls(tt.setupRolls)

			result, err := roller.Roll(tt.count, tt.sides, tt.bonus)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
		})
	}
}

func TestMockRoller_SequentialRolls(t *testing.T) {
	roller := mockdice.NewManualMockRoller(20, 1, 8)

	result, err := roller.Roll(1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Total)

	result, err = roller.Roll(1, 20, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Total)
	assert.Equal(t, 1, roller.Remaining())

	result, err = roller.Roll(1, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, result.Total)

	_, err = roller.Roll(1, 20, 0)
	assert.Error(t, err)
}

func TestRandomRoller_BasicFunctionality(t *testing.T) {
	roller := dice.NewRandomRoller()

	result, err := roller.Roll(2, 6, 3)
	require.NoError(t, err)
	assert.Len(t, result.Rolls, 2)
	assert.GreaterOrEqual(t, result.Total, 5) // minimum: 1+1+3
	assert.LessOrEqual(t, result.Total, 15)   // maximum: 6+6+3

	_, err = roller.Roll(0, 6, 0)
	assert.Error(t, err)

	_, err = roller.Roll(1, 0, 0)
	assert.Error(t, err)
}

func TestSeededRoller_Reproducible(t *testing.T) {
	first := dice.NewSeededRoller(42)
	second := dice.NewSeededRoller(42)

	for i := 0; i < 10; i++ {
		a, err := first.Roll(3, 20, 0)
		require.NoError(t, err)
		b, err := second.Roll(3, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, a.Rolls, b.Rolls)
		for _, roll := range a.Rolls {
			assert.GreaterOrEqual(t, roll, 1)
			assert.LessOrEqual(t, roll, 20)
		}
	}
}
