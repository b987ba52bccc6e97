package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/effect"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

func progressive(t *testing.T, triggers ...int) *effect.Instance {
	t.Helper()
	inst := effect.New()
	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	for idx, at := range triggers {
		_, err := inst.AddProgressiveStage()
		require.NoError(t, err)
		require.NoError(t, inst.SetStageTrigger(idx, at))
	}
	return inst
}

func TestOrderedStages(t *testing.T) {
	inst := progressive(t, 3, 1, 3, 2)
	require.NoError(t, inst.SetStageSpellEffect(0, "first-three"))
	require.NoError(t, inst.SetStageSpellEffect(2, "second-three"))

	ordered := effect.OrderedStages(inst)
	require.Len(t, ordered, 4)

	var triggers []int
	for _, s := range ordered {
		triggers = append(triggers, s.TriggerAt)
	}
	assert.Equal(t, []int{1, 2, 3, 3}, triggers)
	assert.Equal(t, "first-three", ordered[2].SpellEffect, "ties keep authoring order")
	assert.Equal(t, "second-three", ordered[3].SpellEffect)

	assert.Equal(t, 3, inst.ProgressiveStages[0].TriggerAt, "authoring order untouched")
}

func TestStagesAt(t *testing.T) {
	inst := progressive(t, 2, 1, 2)

	assert.Len(t, effect.StagesAt(inst, 2), 2)
	assert.Len(t, effect.StagesAt(inst, 1), 1)
	assert.Empty(t, effect.StagesAt(inst, 5))
}

func TestValidateStages(t *testing.T) {
	reg := catalog.MustDefault()

	t.Run("within bounded duration", func(t *testing.T) {
		inst := progressive(t, 1, 3)
		require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationTurns, Value: 3}))
		assert.Empty(t, effect.ValidateStages(inst, reg))
	})

	t.Run("past the end", func(t *testing.T) {
		inst := progressive(t, 1, 5)
		require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationTurns, Value: 3}))

		issues := effect.ValidateStages(inst, reg)
		require.Len(t, issues, 1)
		assert.Equal(t, dnderr.CodeStageOutOfRange, issues[0].Code)
		assert.Equal(t, "progressiveStages[1].triggerAt", issues[0].Path)
	})

	t.Run("unbounded duration", func(t *testing.T) {
		inst := progressive(t, 50)
		require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationPermanent}))
		assert.Empty(t, effect.ValidateStages(inst, reg))
	})

	t.Run("before the start", func(t *testing.T) {
		inst := progressive(t, 1)
		inst.ProgressiveStages[0].TriggerAt = 0
		assert.True(t, dnderr.HasIssue(effect.ValidateStages(inst, reg), dnderr.CodeStageOutOfRange))
	})

	t.Run("unknown stage stat", func(t *testing.T) {
		inst := progressive(t, 1)
		inst.ProgressiveStages[0].StatPenalties = []effect.StatModifier{
			{ID: "luck", Magnitude: magnitude.Number(-1), MagnitudeType: magnitude.TypeFlat},
		}
		issues := effect.ValidateStages(inst, reg)
		require.Len(t, issues, 1)
		assert.Equal(t, dnderr.CodeUnknownCatalogID, issues[0].Code)
	})

	t.Run("not progressive", func(t *testing.T) {
		inst := progressive(t, 9)
		require.NoError(t, inst.SetStacking(effect.StackingReplace, nil))
		assert.Empty(t, effect.ValidateStages(inst, reg))
	})
}
