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

func intPtr(v int) *int { return &v }

func TestNew_Defaults(t *testing.T) {
	inst := effect.New()

	assert.Equal(t, effect.DurationTurns, inst.Duration.Type)
	assert.Equal(t, 1, inst.Duration.Value)
	assert.Equal(t, effect.RestShort, inst.Duration.RestType)
	assert.True(t, inst.Duration.CanBeDispelled)
	assert.False(t, inst.Duration.ConcentrationRequired)
	assert.Equal(t, effect.StackingReplace, inst.Stacking.Rule)
	assert.Equal(t, 1, inst.Stacking.MaxStacks)
	assert.Equal(t, 15, inst.DifficultyClass)
	assert.Equal(t, "constitution", inst.SavingThrow)
	assert.Equal(t, effect.SaveNegates, inst.SaveOutcome)
	assert.Nil(t, inst.ProgressiveStages)
	assert.Empty(t, inst.StatPenalties)
	assert.Empty(t, inst.StatusEffects)

	n, ok := inst.DefaultMagnitude.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 2.0, n)
	assert.Empty(t, inst.Validate(catalog.MustDefault()))
}

func TestAddStatModifier(t *testing.T) {
	inst := effect.New()

	require.NoError(t, inst.AddStatModifier("strength"))
	err := inst.AddStatModifier("strength")
	require.Error(t, err)
	assert.True(t, dnderr.IsDuplicateModifier(err))
	assert.Len(t, inst.StatPenalties, 1)

	mod, ok := inst.StatModifier("strength")
	require.True(t, ok)
	assert.Equal(t, magnitude.TypeFlat, mod.MagnitudeType)
	assert.True(t, mod.Magnitude.Equivalent(magnitude.Number(2)))

	require.NoError(t, inst.RemoveStatModifier("strength"))
	assert.Empty(t, inst.StatPenalties)
	assert.True(t, dnderr.IsNotFound(inst.RemoveStatModifier("strength")))
}

func TestAddStatModifier_UsesCurrentDefault(t *testing.T) {
	inst := effect.New()
	require.NoError(t, inst.SetDefaultMagnitude("1d6", magnitude.TypePercentage))
	require.NoError(t, inst.AddStatModifier("agility"))

	mod, _ := inst.StatModifier("agility")
	assert.Equal(t, magnitude.KindDice, mod.Magnitude.Kind())
	assert.Equal(t, magnitude.TypePercentage, mod.MagnitudeType)
}

func TestSetMagnitude(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind magnitude.Kind
		wantType magnitude.Type
		wantErr  bool
	}{
		{name: "number", raw: "-3", wantKind: magnitude.KindNumber, wantType: magnitude.TypeFlat},
		{name: "dice", raw: "2d6", wantKind: magnitude.KindDice, wantType: magnitude.TypeFlat},
		{name: "implicit count", raw: "d4", wantKind: magnitude.KindDice, wantType: magnitude.TypeFlat},
		{name: "percent", raw: "25%", wantKind: magnitude.KindNumber, wantType: magnitude.TypePercentage},
		{name: "formula rejected", raw: "SOURCE_AMOUNT * 2", wantErr: true},
		{name: "garbage", raw: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := effect.New()
			require.NoError(t, inst.AddStatModifier("strength"))

			err := inst.SetMagnitude("strength", tt.raw)
			mod, _ := inst.StatModifier("strength")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dnderr.IsMalformedMagnitude(err))
				assert.True(t, mod.Magnitude.Equivalent(magnitude.Number(2)), "prior value kept")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, mod.Magnitude.Kind())
			assert.Equal(t, tt.wantType, mod.MagnitudeType)
		})
	}
}

func TestSetStacking(t *testing.T) {
	inst := effect.New()

	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	assert.True(t, inst.Stacking.IsProgressive)
	require.NotNil(t, inst.ProgressiveStages)
	assert.Empty(t, inst.ProgressiveStages)

	_, err := inst.AddProgressiveStage()
	require.NoError(t, err)

	require.NoError(t, inst.SetStacking(effect.StackingCumulative, intPtr(3)))
	assert.False(t, inst.Stacking.IsProgressive)
	assert.Equal(t, 3, inst.Stacking.MaxStacks)
	assert.Len(t, inst.ProgressiveStages, 1, "stages survive leaving progressive")

	assert.True(t, dnderr.IsInvalidArgument(inst.SetStacking(effect.StackingCumulative, intPtr(0))))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetStacking("sometimes", nil)))
}

func TestAddProgressiveStage(t *testing.T) {
	inst := effect.New()
	_, err := inst.AddProgressiveStage()
	assert.True(t, dnderr.IsInvalidArgument(err), "requires progressive stacking")

	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	require.NoError(t, inst.AddStatModifier("strength"))
	require.NoError(t, inst.SetSavingThrow(12, "spirit"))

	idx, err := inst.AddProgressiveStage()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	stage := inst.ProgressiveStages[0]
	assert.Equal(t, 1, stage.TriggerAt)
	require.NotNil(t, stage.DifficultyClass)
	assert.Equal(t, 12, *stage.DifficultyClass)
	assert.Equal(t, "spirit", stage.SavingThrow)
	require.Len(t, stage.StatPenalties, 1)

	// stage modifiers are independent of the base list
	require.NoError(t, inst.SetStageMagnitude(0, "strength", "-4"))
	base, _ := inst.StatModifier("strength")
	assert.True(t, base.Magnitude.Equivalent(magnitude.Number(2)))

	idx, err = inst.AddProgressiveStage()
	require.NoError(t, err)
	assert.Equal(t, 2, inst.ProgressiveStages[idx].TriggerAt)
}

func TestRemoveProgressiveStage_KeepsOffsets(t *testing.T) {
	inst := effect.New()
	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	for range 3 {
		_, err := inst.AddProgressiveStage()
		require.NoError(t, err)
	}

	require.NoError(t, inst.RemoveProgressiveStage(0))
	require.Len(t, inst.ProgressiveStages, 2)
	assert.Equal(t, 2, inst.ProgressiveStages[0].TriggerAt)
	assert.Equal(t, 3, inst.ProgressiveStages[1].TriggerAt)

	assert.True(t, dnderr.IsInvalidArgument(inst.RemoveProgressiveStage(5)))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetStageTrigger(0, 0)))
}

func TestStageModifiers(t *testing.T) {
	inst := effect.New()
	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	_, err := inst.AddProgressiveStage()
	require.NoError(t, err)

	require.NoError(t, inst.AddStageStatModifier(0, "armor"))
	assert.True(t, dnderr.IsDuplicateModifier(inst.AddStageStatModifier(0, "armor")))
	require.NoError(t, inst.SetStageSpellEffect(0, "spell-42"))
	require.NoError(t, inst.SetStageSavingThrow(0, 18, "agility"))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetStageSavingThrow(0, 31, "agility")))

	stage := inst.ProgressiveStages[0]
	assert.Equal(t, "spell-42", stage.SpellEffect)
	assert.Equal(t, 18, *stage.DifficultyClass)

	require.NoError(t, inst.RemoveStageStatModifier(0, "armor"))
	assert.True(t, dnderr.IsNotFound(inst.RemoveStageStatModifier(0, "armor")))
}

func TestToggleStatusEffect(t *testing.T) {
	reg := catalog.MustDefault()
	inst := effect.New()

	on, err := inst.ToggleStatusEffect(reg, "poisoned")
	require.NoError(t, err)
	assert.True(t, on)

	s, ok := inst.StatusEffect("poisoned")
	require.True(t, ok)
	assert.Equal(t, "Poisoned", s.Name)
	assert.NotEmpty(t, s.Description)
	_, isSave := s.Save()
	assert.True(t, isSave)

	on, err = inst.ToggleStatusEffect(reg, "poisoned")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, inst.StatusEffects)

	on, err = inst.ToggleStatusEffect(reg, "time_stop")
	require.NoError(t, err)
	assert.True(t, on)
	s, _ = inst.StatusEffect("time_stop")
	_, isOpaque := s.Config.(*effect.OpaqueConfig)
	assert.True(t, isOpaque)
	assert.True(t, dnderr.HasIssue(inst.Validate(reg), dnderr.CodeUnknownCatalogID))

	_, err = inst.ToggleStatusEffect(reg, "")
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestStatusEffectOptionAndLevel(t *testing.T) {
	reg := catalog.MustDefault()
	inst := effect.New()
	_, err := inst.ToggleStatusEffect(reg, "poisoned")
	require.NoError(t, err)

	require.NoError(t, inst.SetStatusEffectOption("poisoned", "weakening"))
	require.NoError(t, inst.SetStatusEffectLevel("poisoned", catalog.LevelMajor))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetStatusEffectLevel("poisoned", "extreme")))
	assert.True(t, dnderr.IsNotFound(inst.SetStatusEffectOption("blinded", "partial")))
	assert.Empty(t, inst.Validate(reg))

	require.NoError(t, inst.SetStatusEffectOption("poisoned", "ticklish"))
	issues := inst.Validate(reg)
	require.Len(t, issues, 1)
	assert.Equal(t, "statusEffects[0].option", issues[0].Path)
}

func TestConfigureLifelink(t *testing.T) {
	reg := catalog.MustDefault()
	inst := effect.New()

	err := inst.ConfigureLifelink(effect.LinkCasterToTarget, effect.ResourceHealth, effect.ResourceMana, "SOURCE_AMOUNT * 0.5", 10)
	assert.True(t, dnderr.IsNotFound(err))

	_, err = inst.ToggleStatusEffect(reg, effect.LifelinkID)
	require.NoError(t, err)

	// freshly toggled lifelink has no formula yet
	issues := inst.Validate(reg)
	require.Len(t, issues, 1)
	assert.Equal(t, "statusEffects[0].customFormula", issues[0].Path)

	err = inst.ConfigureLifelink(effect.LinkCasterToTarget, effect.ResourceHealth, effect.ResourceMana, "SOURCE_AMOUNT *", 10)
	require.Error(t, err)
	assert.True(t, dnderr.IsMalformedMagnitude(err))

	require.NoError(t, inst.ConfigureLifelink(effect.LinkCasterToTarget, effect.ResourceHealth, effect.ResourceMana, "SOURCE_AMOUNT * 0.5", 10))
	s, _ := inst.StatusEffect(effect.LifelinkID)
	cfg, ok := s.Lifelink()
	require.True(t, ok)
	assert.Equal(t, magnitude.KindFormula, cfg.CustomFormula.Kind())
	assert.Equal(t, effect.ResourceMana, cfg.TargetResource)
	assert.Empty(t, inst.Validate(reg))
}

func TestSetDurationAndSavingThrow(t *testing.T) {
	inst := effect.New()

	require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationTime, Value: 10, Unit: effect.UnitMinutes}))
	require.NoError(t, inst.SetDuration(effect.Duration{Type: effect.DurationPermanent, CanBeDispelled: true}))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetDuration(effect.Duration{Type: effect.DurationTurns})))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetDuration(effect.Duration{Type: "forever"})))

	assert.True(t, dnderr.IsInvalidArgument(inst.SetSavingThrow(0, "strength")))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetSavingThrow(31, "strength")))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetSavingThrow(10, "")))
	require.NoError(t, inst.SetSavingThrow(30, "intelligence"))
	assert.Equal(t, 30, inst.DifficultyClass)

	require.NoError(t, inst.SetSaveOutcome(effect.SaveHalves))
	assert.True(t, dnderr.IsInvalidArgument(inst.SetSaveOutcome("maybe")))
}

func TestClone_IsDeep(t *testing.T) {
	reg := catalog.MustDefault()
	inst := effect.New()
	require.NoError(t, inst.AddStatModifier("strength"))
	require.NoError(t, inst.SetStacking(effect.StackingProgressive, nil))
	_, err := inst.AddProgressiveStage()
	require.NoError(t, err)
	_, err = inst.ToggleStatusEffect(reg, "poisoned")
	require.NoError(t, err)
	require.NoError(t, inst.SetSaveConfig("poisoned", effect.SaveConfig{Duration: intPtr(3)}))

	cp := inst.Clone()
	require.NoError(t, cp.SetMagnitude("strength", "9"))
	require.NoError(t, cp.SetStageTrigger(0, 4))
	*cp.ProgressiveStages[0].DifficultyClass = 1
	save, _ := cp.StatusEffects[0].Save()
	*save.Duration = 7

	orig, _ := inst.StatModifier("strength")
	assert.True(t, orig.Magnitude.Equivalent(magnitude.Number(2)))
	assert.Equal(t, 1, inst.ProgressiveStages[0].TriggerAt)
	assert.Equal(t, 15, *inst.ProgressiveStages[0].DifficultyClass)
	origSave, _ := inst.StatusEffects[0].Save()
	assert.Equal(t, 3, *origSave.Duration)
}

func TestValidate(t *testing.T) {
	reg := catalog.MustDefault()

	tests := []struct {
		name     string
		mutate   func(inst *effect.Instance)
		wantCode dnderr.Code
		wantPath string
	}{
		{
			name: "unknown stat",
			mutate: func(inst *effect.Instance) {
				inst.StatPenalties = append(inst.StatPenalties, effect.StatModifier{ID: "luck", Magnitude: magnitude.Number(1), MagnitudeType: magnitude.TypeFlat})
			},
			wantCode: dnderr.CodeUnknownCatalogID,
			wantPath: "statPenalties[0].id",
		},
		{
			name: "duplicate stat",
			mutate: func(inst *effect.Instance) {
				mod := effect.StatModifier{ID: "armor", Magnitude: magnitude.Number(1), MagnitudeType: magnitude.TypeFlat}
				inst.StatPenalties = append(inst.StatPenalties, mod, mod)
			},
			wantCode: dnderr.CodeDuplicateModifier,
			wantPath: "statPenalties[1].id",
		},
		{
			name: "missing magnitude",
			mutate: func(inst *effect.Instance) {
				inst.StatPenalties = append(inst.StatPenalties, effect.StatModifier{ID: "armor", MagnitudeType: magnitude.TypeFlat})
			},
			wantCode: dnderr.CodeMalformedMagnitude,
			wantPath: "statPenalties[0].magnitude",
		},
		{
			name:     "difficulty class",
			mutate:   func(inst *effect.Instance) { inst.DifficultyClass = 40 },
			wantCode: dnderr.CodeValidation,
			wantPath: "difficultyClass",
		},
		{
			name:     "unknown save stat",
			mutate:   func(inst *effect.Instance) { inst.SavingThrow = "luck" },
			wantCode: dnderr.CodeUnknownCatalogID,
			wantPath: "savingThrow",
		},
		{
			name: "stacking without max",
			mutate: func(inst *effect.Instance) {
				inst.Stacking = effect.Stacking{Rule: effect.StackingSelfStacking}
			},
			wantCode: dnderr.CodeValidation,
			wantPath: "maxStacks",
		},
		{
			name:     "turns without value",
			mutate:   func(inst *effect.Instance) { inst.Duration.Value = 0 },
			wantCode: dnderr.CodeValidation,
			wantPath: "durationValue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := effect.New()
			tt.mutate(inst)

			issues := inst.Validate(reg)
			require.NotEmpty(t, issues)
			assert.Equal(t, tt.wantCode, issues[0].Code)
			assert.Equal(t, tt.wantPath, issues[0].Path)
		})
	}
}

func TestValidate_IgnoresIrrelevantDurationFields(t *testing.T) {
	inst := effect.New()
	require.NoError(t, inst.SetDuration(effect.Duration{
		Type:     effect.DurationRest,
		RestType: effect.RestLong,
		Unit:     effect.UnitHours,
	}))
	assert.Empty(t, inst.Validate(catalog.MustDefault()))
}

func linkCatalog(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.New(
		[]catalog.StatDescriptor{{ID: "strength", Name: "Strength", Category: catalog.CategoryPrimary}},
		[]catalog.StatusEffectDescriptor{
			{ID: "soul_link", Name: "Soul Link", Polarity: catalog.PolarityBuff, HasAdvancedConfig: true},
			{ID: "lifelink", Name: "Lifelink", Polarity: catalog.PolarityBuff},
		},
	)
	require.NoError(t, err)
	return reg
}

func TestAdvancedConfigFollowsCatalog(t *testing.T) {
	reg := linkCatalog(t)
	inst := effect.New()
	require.NoError(t, inst.SetSavingThrow(12, "strength"))

	_, err := inst.ToggleStatusEffect(reg, "soul_link")
	require.NoError(t, err)
	_, err = inst.ToggleStatusEffect(reg, effect.LifelinkID)
	require.NoError(t, err)

	soul, _ := inst.StatusEffect("soul_link")
	_, ok := soul.Lifelink()
	assert.True(t, ok, "advanced entries get a link configuration")

	plain, _ := inst.StatusEffect(effect.LifelinkID)
	_, ok = plain.Save()
	assert.True(t, ok, "the catalog does not mark this lifelink as advanced")

	issues := inst.Validate(reg)
	require.Len(t, issues, 1)
	assert.Equal(t, "statusEffects[0].customFormula", issues[0].Path)

	require.NoError(t, inst.ConfigureLink("soul_link", effect.LinkBidirectional, effect.ResourceMana, effect.ResourceHealth, "SOURCE_AMOUNT / 2", 5))
	assert.Empty(t, inst.Validate(reg))

	err = inst.ConfigureLink(effect.LifelinkID, effect.LinkBidirectional, effect.ResourceMana, effect.ResourceHealth, "SOURCE_AMOUNT / 2", 5)
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestDecode_AdvancedConfigFollowsCatalog(t *testing.T) {
	reg := linkCatalog(t)
	data := []byte(`{"statPenalties": [], "statusEffects": [{"id": "soul_link", "customFormula": "SOURCE_AMOUNT / 2", "perAmount": 4}], "durationType": "turns", "durationValue": 2, "stackingRule": "replace", "difficultyClass": 12, "savingThrow": "strength"}`)

	inst, err := effect.Decode(data, reg)
	require.NoError(t, err)

	s, _ := inst.StatusEffect("soul_link")
	cfg, ok := s.Lifelink()
	require.True(t, ok)
	assert.Equal(t, magnitude.KindFormula, cfg.CustomFormula.Kind())
	assert.Equal(t, 4.0, cfg.PerAmount)
	assert.Empty(t, inst.Validate(reg))
}
