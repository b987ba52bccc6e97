// Package effect holds the author-edited specification of a spell's buff or
// debuff and enforces its cross-field rules on every edit.
package effect

import (
	"github.com/KirkDiggler/spell-effects/internal/catalog"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

// Stage is one escalation step of a progressive effect
type Stage struct {
	TriggerAt       int
	StatPenalties   []StatModifier
	SpellEffect     string
	DifficultyClass *int
	SavingThrow     string
}

func (s Stage) clone() Stage {
	out := s
	out.StatPenalties = cloneModifiers(s.StatPenalties)
	if s.DifficultyClass != nil {
		dc := *s.DifficultyClass
		out.DifficultyClass = &dc
	}
	return out
}

// Instance is the complete effect configuration owned by one spell
type Instance struct {
	StatPenalties     []StatModifier
	StatusEffects     []StatusEffect
	Duration          Duration
	Stacking          Stacking
	ProgressiveStages []Stage // nil until the rule first becomes progressive
	DifficultyClass   int
	SavingThrow       string
	SaveOutcome       SaveOutcome

	// DefaultMagnitude seeds newly added stat modifiers
	DefaultMagnitude     magnitude.Value
	DefaultMagnitudeType magnitude.Type
}

// New creates an instance with the defaults an author starts from
func New() *Instance {
	return &Instance{
		StatPenalties: []StatModifier{},
		StatusEffects: []StatusEffect{},
		Duration: Duration{
			Type:           DurationTurns,
			Value:          DefaultDurationValue,
			RestType:       RestShort,
			CanBeDispelled: true,
		},
		Stacking: Stacking{
			Rule:      StackingReplace,
			MaxStacks: DefaultMaxStacks,
		},
		DifficultyClass:      DefaultDifficultyClass,
		SavingThrow:          DefaultSavingThrow,
		SaveOutcome:          SaveNegates,
		DefaultMagnitude:     magnitude.Number(DefaultMagnitude),
		DefaultMagnitudeType: magnitude.TypeFlat,
	}
}

// Clone returns a deep copy
func (i *Instance) Clone() *Instance {
	out := *i
	out.StatPenalties = cloneModifiers(i.StatPenalties)
	out.StatusEffects = make([]StatusEffect, len(i.StatusEffects))
	for idx, s := range i.StatusEffects {
		out.StatusEffects[idx] = s.clone()
	}
	if i.ProgressiveStages != nil {
		out.ProgressiveStages = make([]Stage, len(i.ProgressiveStages))
		for idx, s := range i.ProgressiveStages {
			out.ProgressiveStages[idx] = s.clone()
		}
	}
	return &out
}

// SetStacking changes the stacking rule. Switching to progressive creates an
// empty stage list if there is none; switching away keeps the stages so the
// author can switch back.
func (i *Instance) SetStacking(rule StackingRule, maxStacks *int) error {
	if !rule.Valid() {
		return dnderr.InvalidArgumentf("unknown stacking rule %q", rule)
	}
	if maxStacks != nil && *maxStacks < 1 {
		return dnderr.InvalidArgumentf("max stacks must be at least 1, got %d", *maxStacks)
	}

	i.Stacking.Rule = rule
	i.Stacking.IsProgressive = rule == StackingProgressive
	if maxStacks != nil {
		i.Stacking.MaxStacks = *maxStacks
	}
	if rule == StackingProgressive && i.ProgressiveStages == nil {
		i.ProgressiveStages = []Stage{}
	}
	return nil
}

// StatModifier finds a base stat modifier by id
func (i *Instance) StatModifier(id string) (*StatModifier, bool) {
	idx := indexOfModifier(i.StatPenalties, id)
	if idx < 0 {
		return nil, false
	}
	return &i.StatPenalties[idx], true
}

// AddStatModifier appends a modifier for id using the default magnitude.
// Adding an id twice is a duplicate_modifier error.
func (i *Instance) AddStatModifier(id string) error {
	mods, err := addModifier(i.StatPenalties, id, i.DefaultMagnitude, i.DefaultMagnitudeType)
	if err != nil {
		return err
	}
	i.StatPenalties = mods
	return nil
}

// RemoveStatModifier removes the modifier for id
func (i *Instance) RemoveStatModifier(id string) error {
	idx := indexOfModifier(i.StatPenalties, id)
	if idx < 0 {
		return dnderr.NotFoundf("stat modifier %q not found", id)
	}
	i.StatPenalties = append(i.StatPenalties[:idx:idx], i.StatPenalties[idx+1:]...)
	return nil
}

// SetMagnitude classifies raw author input and stores it on the modifier.
// Stat modifiers accept numbers and dice only. On error the prior value is
// kept.
func (i *Instance) SetMagnitude(id, raw string) error {
	return setModifierMagnitude(i.StatPenalties, id, raw)
}

// SetMagnitudeType changes the display hint of a modifier
func (i *Instance) SetMagnitudeType(id string, t magnitude.Type) error {
	if !t.Valid() {
		return dnderr.InvalidArgumentf("unknown magnitude type %q", t)
	}
	mod, ok := i.StatModifier(id)
	if !ok {
		return dnderr.NotFoundf("stat modifier %q not found", id)
	}
	mod.MagnitudeType = t
	return nil
}

// SetDefaultMagnitude changes the value new modifiers start with
func (i *Instance) SetDefaultMagnitude(raw string, t magnitude.Type) error {
	if !t.Valid() {
		return dnderr.InvalidArgumentf("unknown magnitude type %q", t)
	}
	v, err := magnitude.Classify(raw, magnitude.Options{})
	if err != nil {
		return err
	}
	i.DefaultMagnitude = v
	i.DefaultMagnitudeType = t
	return nil
}

// AddProgressiveStage appends a stage triggering at len(stages)+1 that starts
// from the current stat modifiers and saving throw. Stages are not sorted;
// use OrderedStages to consume them.
func (i *Instance) AddProgressiveStage() (int, error) {
	if i.Stacking.Rule != StackingProgressive {
		return -1, dnderr.InvalidArgumentf("stacking rule %q is not progressive", i.Stacking.Rule)
	}
	dc := i.DifficultyClass
	i.ProgressiveStages = append(i.ProgressiveStages, Stage{
		TriggerAt:       len(i.ProgressiveStages) + 1,
		StatPenalties:   cloneModifiers(i.StatPenalties),
		DifficultyClass: &dc,
		SavingThrow:     i.SavingThrow,
	})
	return len(i.ProgressiveStages) - 1, nil
}

// RemoveProgressiveStage removes a stage by position. Remaining stages keep
// their trigger offsets.
func (i *Instance) RemoveProgressiveStage(index int) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	i.ProgressiveStages = append(i.ProgressiveStages[:index:index], i.ProgressiveStages[index+1:]...)
	return nil
}

// SetStageTrigger moves a stage to another offset
func (i *Instance) SetStageTrigger(index, triggerAt int) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	if triggerAt < 1 {
		return dnderr.InvalidArgumentf("trigger offset must be at least 1, got %d", triggerAt)
	}
	i.ProgressiveStages[index].TriggerAt = triggerAt
	return nil
}

// SetStageSpellEffect links a stage to another spell by id. An empty id
// clears the link.
func (i *Instance) SetStageSpellEffect(index int, spellID string) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	i.ProgressiveStages[index].SpellEffect = spellID
	return nil
}

// SetStageSavingThrow overrides the saving throw for one stage
func (i *Instance) SetStageSavingThrow(index, dc int, stat string) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	if err := checkSavingThrow(dc, stat); err != nil {
		return err
	}
	i.ProgressiveStages[index].DifficultyClass = &dc
	i.ProgressiveStages[index].SavingThrow = stat
	return nil
}

// AddStageStatModifier adds a modifier to one stage
func (i *Instance) AddStageStatModifier(index int, id string) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	stage := &i.ProgressiveStages[index]
	mods, err := addModifier(stage.StatPenalties, id, i.DefaultMagnitude, i.DefaultMagnitudeType)
	if err != nil {
		return err
	}
	stage.StatPenalties = mods
	return nil
}

// RemoveStageStatModifier removes a modifier from one stage
func (i *Instance) RemoveStageStatModifier(index int, id string) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	stage := &i.ProgressiveStages[index]
	idx := indexOfModifier(stage.StatPenalties, id)
	if idx < 0 {
		return dnderr.NotFoundf("stat modifier %q not found in stage %d", id, index)
	}
	stage.StatPenalties = append(stage.StatPenalties[:idx:idx], stage.StatPenalties[idx+1:]...)
	return nil
}

// SetStageMagnitude sets a stage modifier's magnitude, keeping the prior
// value on error
func (i *Instance) SetStageMagnitude(index int, id, raw string) error {
	if err := i.checkStage(index); err != nil {
		return err
	}
	return setModifierMagnitude(i.ProgressiveStages[index].StatPenalties, id, raw)
}

func (i *Instance) checkStage(index int) error {
	if index < 0 || index >= len(i.ProgressiveStages) {
		return dnderr.InvalidArgumentf("stage index %d out of range (have %d)", index, len(i.ProgressiveStages))
	}
	return nil
}

// StatusEffect finds a selected status effect by id
func (i *Instance) StatusEffect(id string) (*StatusEffect, bool) {
	for idx := range i.StatusEffects {
		if i.StatusEffects[idx].ID == id {
			return &i.StatusEffects[idx], true
		}
	}
	return nil, false
}

// ToggleStatusEffect removes the status effect if selected, otherwise adds it
// with only its catalog name and description. The added effect is left
// unconfigured. Ids missing from the catalog are kept as opaque entries.
// It reports whether the effect is now selected.
func (i *Instance) ToggleStatusEffect(reg *catalog.Registry, id string) (bool, error) {
	if id == "" {
		return false, dnderr.InvalidArgument("status effect id is required")
	}
	for idx := range i.StatusEffects {
		if i.StatusEffects[idx].ID == id {
			i.StatusEffects = append(i.StatusEffects[:idx:idx], i.StatusEffects[idx+1:]...)
			return false, nil
		}
	}

	added := StatusEffect{ID: id, Name: id}
	known := false
	if reg != nil {
		if desc, err := reg.LookupStatusEffect(id); err == nil {
			added.Name = desc.Name
			added.Description = desc.Description
			known = true
		}
	}
	added.Config = newConfig(UsesLinkConfig(reg, id), known)
	i.StatusEffects = append(i.StatusEffects, added)
	return true, nil
}

// SetStatusEffectOption selects a variant of a status effect
func (i *Instance) SetStatusEffectOption(id, option string) error {
	s, ok := i.StatusEffect(id)
	if !ok {
		return dnderr.NotFoundf("status effect %q is not selected", id)
	}
	s.Option = option
	return nil
}

// SetStatusEffectLevel selects the severity tier of a status effect
func (i *Instance) SetStatusEffectLevel(id string, level catalog.Level) error {
	if level != "" && !level.Valid() {
		return dnderr.InvalidArgumentf("unknown severity level %q", level)
	}
	s, ok := i.StatusEffect(id)
	if !ok {
		return dnderr.NotFoundf("status effect %q is not selected", id)
	}
	s.Level = level
	return nil
}

// SetSaveConfig replaces the save configuration of a status effect
func (i *Instance) SetSaveConfig(id string, cfg SaveConfig) error {
	s, ok := i.StatusEffect(id)
	if !ok {
		return dnderr.NotFoundf("status effect %q is not selected", id)
	}
	if _, ok := s.Save(); !ok {
		return dnderr.InvalidArgumentf("status effect %q does not use a save configuration", id)
	}
	s.Config = cfg.clone()
	return nil
}

// ConfigureLifelink sets the resource link of the lifelink effect
func (i *Instance) ConfigureLifelink(direction LinkDirection, source, target Resource, rawFormula string, perAmount float64) error {
	return i.ConfigureLink(LifelinkID, direction, source, target, rawFormula, perAmount)
}

// ConfigureLink sets the resource link of any status effect with an
// advanced configuration. The formula is parsed before anything changes.
func (i *Instance) ConfigureLink(id string, direction LinkDirection, source, target Resource, rawFormula string, perAmount float64) error {
	s, ok := i.StatusEffect(id)
	if !ok {
		return dnderr.NotFoundf("status effect %q is not selected", id)
	}
	cfg, ok := s.Lifelink()
	if !ok {
		return dnderr.InvalidArgumentf("status effect %q has no resource link configuration", id)
	}

	formula, err := magnitude.ParseConversion(rawFormula)
	if err != nil {
		return err
	}
	if perAmount <= 0 {
		return dnderr.InvalidArgumentf("per amount must be positive, got %g", perAmount)
	}

	cfg.Direction = direction
	cfg.SourceResource = source
	cfg.TargetResource = target
	cfg.CustomFormula = formula
	cfg.PerAmount = perAmount
	return nil
}

// SetDuration replaces the duration
func (i *Instance) SetDuration(d Duration) error {
	if !d.Type.Valid() {
		return dnderr.InvalidArgumentf("unknown duration type %q", d.Type)
	}
	if d.Value < 0 {
		return dnderr.InvalidArgumentf("duration value must not be negative, got %d", d.Value)
	}
	if (d.Type == DurationTurns || d.Type == DurationTime) && d.Value < 1 {
		return dnderr.InvalidArgumentf("%s duration needs a value of at least 1", d.Type)
	}
	i.Duration = d
	return nil
}

// SetSavingThrow sets the base difficulty class and save stat
func (i *Instance) SetSavingThrow(dc int, stat string) error {
	if err := checkSavingThrow(dc, stat); err != nil {
		return err
	}
	i.DifficultyClass = dc
	i.SavingThrow = stat
	return nil
}

// SetSaveOutcome sets what a successful save does
func (i *Instance) SetSaveOutcome(outcome SaveOutcome) error {
	switch outcome {
	case SaveNegates, SaveHalves, SavePartial:
		i.SaveOutcome = outcome
		return nil
	}
	return dnderr.InvalidArgumentf("unknown save outcome %q", outcome)
}

func checkSavingThrow(dc int, stat string) error {
	if dc < MinDifficultyClass || dc > MaxDifficultyClass {
		return dnderr.InvalidArgumentf("difficulty class must be between %d and %d, got %d", MinDifficultyClass, MaxDifficultyClass, dc)
	}
	if stat == "" {
		return dnderr.InvalidArgument("saving throw stat is required")
	}
	return nil
}

func addModifier(mods []StatModifier, id string, def magnitude.Value, defType magnitude.Type) ([]StatModifier, error) {
	if id == "" {
		return mods, dnderr.InvalidArgument("stat id is required")
	}
	if indexOfModifier(mods, id) >= 0 {
		return mods, dnderr.DuplicateModifierf("stat %q already has a modifier", id).WithMeta("id", id)
	}
	return append(mods, StatModifier{ID: id, Magnitude: def, MagnitudeType: defType}), nil
}

func setModifierMagnitude(mods []StatModifier, id, raw string) error {
	idx := indexOfModifier(mods, id)
	if idx < 0 {
		return dnderr.NotFoundf("stat modifier %q not found", id)
	}
	v, err := magnitude.Classify(raw, magnitude.Options{})
	if err != nil {
		return err
	}
	mods[idx].Magnitude = v
	if v.Percent() {
		mods[idx].MagnitudeType = magnitude.TypePercentage
	}
	return nil
}
