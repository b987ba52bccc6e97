package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/effect"
)

// LegacyDebuffRecord is a record in the pre-durationType shape with
// shorthand stat names and string status effects
const LegacyDebuffRecord = `{
	"duration": 3,
	"statPenalties": [{"stat": "str", "value": -2}, {"name": "ac", "value": 1, "isPercentage": false}],
	"statusEffects": ["poisoned", {"id": "lifelink", "direction": "target_to_caster"}]
}`

// PermanentLegacyRecord is a legacy record with the permanent marker
const PermanentLegacyRecord = `{"duration": -1, "statPenalties": [], "statusEffects": []}`

// CreateTestInstance builds a configured debuff with one modifier, a
// poisoned status effect and a saving throw
func CreateTestInstance(t *testing.T) *effect.Instance {
	t.Helper()
	reg := catalog.MustDefault()

	inst := effect.New()
	require.NoError(t, inst.AddStatModifier("strength"))
	require.NoError(t, inst.SetMagnitude("strength", "-1d4"))
	_, err := inst.ToggleStatusEffect(reg, "poisoned")
	require.NoError(t, err)
	require.NoError(t, inst.SetStatusEffectOption("poisoned", "weakening"))
	require.NoError(t, inst.SetSavingThrow(13, "constitution"))
	require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationTurns, Value: 3, CanBeDispelled: true}))
	return inst
}

// CreateProgressiveInstance builds a progressive debuff with stages at the
// given offsets
func CreateProgressiveInstance(t *testing.T, duration int, triggers ...int) *effect.Instance {
	t.Helper()

	inst := CreateTestInstance(t)
	require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationTurns, Value: duration}))
	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	for idx, at := range triggers {
		_, err := inst.AddProgressiveStage()
		require.NoError(t, err)
		require.NoError(t, inst.SetStageTrigger(idx, at))
	}
	return inst
}
