package effect

import (
	"encoding/json"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

type stageJSON struct {
	TriggerAt       int            `json:"triggerAt"`
	StatPenalties   []StatModifier `json:"statPenalties"`
	SpellEffect     string         `json:"spellEffect,omitempty"`
	DifficultyClass *int           `json:"difficultyClass,omitempty"`
	SavingThrow     string         `json:"savingThrow,omitempty"`
}

// MarshalJSON writes the stage in record form
func (s Stage) MarshalJSON() ([]byte, error) {
	mods := s.StatPenalties
	if mods == nil {
		mods = []StatModifier{}
	}
	return json.Marshal(stageJSON{
		TriggerAt:       s.TriggerAt,
		StatPenalties:   mods,
		SpellEffect:     s.SpellEffect,
		DifficultyClass: s.DifficultyClass,
		SavingThrow:     s.SavingThrow,
	})
}

// UnmarshalJSON reads the record form of a stage
func (s *Stage) UnmarshalJSON(data []byte) error {
	var aux stageJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Stage{
		TriggerAt:       aux.TriggerAt,
		StatPenalties:   aux.StatPenalties,
		SpellEffect:     aux.SpellEffect,
		DifficultyClass: aux.DifficultyClass,
		SavingThrow:     aux.SavingThrow,
	}
	if s.StatPenalties == nil {
		s.StatPenalties = []StatModifier{}
	}
	return nil
}

// recordJSON is the stored shape of an instance
type recordJSON struct {
	StatPenalties         []StatModifier  `json:"statPenalties"`
	StatusEffects         json.RawMessage `json:"statusEffects"`
	DurationType          DurationType    `json:"durationType"`
	DurationValue         int             `json:"durationValue,omitempty"`
	DurationUnit          TimeUnit        `json:"durationUnit,omitempty"`
	RestType              RestType        `json:"restType,omitempty"`
	CanBeDispelled        bool            `json:"canBeDispelled"`
	ConcentrationRequired bool            `json:"concentrationRequired"`
	StackingRule          StackingRule    `json:"stackingRule"`
	MaxStacks             int             `json:"maxStacks,omitempty"`
	IsProgressive         bool            `json:"isProgressive"`
	ProgressiveStages     *[]Stage        `json:"progressiveStages,omitempty"`
	DifficultyClass       int             `json:"difficultyClass"`
	SavingThrow           string          `json:"savingThrow"`
	SaveOutcome           SaveOutcome     `json:"saveOutcome,omitempty"`
	Magnitude             magnitude.Value `json:"magnitude"`
	MagnitudeType         magnitude.Type  `json:"magnitudeType,omitempty"`
}

// MarshalJSON writes the instance as a plain record for persistence
func (i *Instance) MarshalJSON() ([]byte, error) {
	mods := i.StatPenalties
	if mods == nil {
		mods = []StatModifier{}
	}
	statuses := i.StatusEffects
	if statuses == nil {
		statuses = []StatusEffect{}
	}
	encodedStatuses, err := json.Marshal(statuses)
	if err != nil {
		return nil, err
	}

	rec := recordJSON{
		StatPenalties:         mods,
		StatusEffects:         encodedStatuses,
		DurationType:          i.Duration.Type,
		DurationValue:         i.Duration.Value,
		DurationUnit:          i.Duration.Unit,
		RestType:              i.Duration.RestType,
		CanBeDispelled:        i.Duration.CanBeDispelled,
		ConcentrationRequired: i.Duration.ConcentrationRequired,
		StackingRule:          i.Stacking.Rule,
		MaxStacks:             i.Stacking.MaxStacks,
		IsProgressive:         i.Stacking.IsProgressive,
		DifficultyClass:       i.DifficultyClass,
		SavingThrow:           i.SavingThrow,
		SaveOutcome:           i.SaveOutcome,
		Magnitude:             i.DefaultMagnitude,
		MagnitudeType:         i.DefaultMagnitudeType,
	}
	if i.ProgressiveStages != nil {
		stages := i.ProgressiveStages
		rec.ProgressiveStages = &stages
	}
	return json.Marshal(rec)
}

// Decode reads a canonical record. Fields missing from the record keep the
// defaults of New. Status effects are typed against reg; ids it does not
// know are kept as opaque entries. Legacy records must be normalized first.
func Decode(data []byte, reg *catalog.Registry) (*Instance, error) {
	def := New()
	rec := recordJSON{
		StatPenalties:   def.StatPenalties,
		DurationType:    def.Duration.Type,
		DurationValue:   def.Duration.Value,
		RestType:        def.Duration.RestType,
		CanBeDispelled:  def.Duration.CanBeDispelled,
		StackingRule:    def.Stacking.Rule,
		MaxStacks:       def.Stacking.MaxStacks,
		DifficultyClass: def.DifficultyClass,
		SavingThrow:     def.SavingThrow,
		SaveOutcome:     def.SaveOutcome,
		Magnitude:       def.DefaultMagnitude,
		MagnitudeType:   def.DefaultMagnitudeType,
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "failed to decode effect record")
	}

	var rawStatuses []map[string]any
	if len(rec.StatusEffects) > 0 && string(rec.StatusEffects) != "null" {
		if err := json.Unmarshal(rec.StatusEffects, &rawStatuses); err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "failed to decode status effects")
		}
	}

	inst := &Instance{
		StatPenalties: rec.StatPenalties,
		StatusEffects: make([]StatusEffect, 0, len(rawStatuses)),
		Duration: Duration{
			Type:                  rec.DurationType,
			Value:                 rec.DurationValue,
			Unit:                  rec.DurationUnit,
			RestType:              rec.RestType,
			CanBeDispelled:        rec.CanBeDispelled,
			ConcentrationRequired: rec.ConcentrationRequired,
		},
		Stacking: Stacking{
			Rule:          rec.StackingRule,
			MaxStacks:     rec.MaxStacks,
			IsProgressive: rec.IsProgressive,
		},
		DifficultyClass:      rec.DifficultyClass,
		SavingThrow:          rec.SavingThrow,
		SaveOutcome:          rec.SaveOutcome,
		DefaultMagnitude:     rec.Magnitude,
		DefaultMagnitudeType: rec.MagnitudeType,
	}
	if inst.StatPenalties == nil {
		inst.StatPenalties = []StatModifier{}
	}
	for _, raw := range rawStatuses {
		if raw == nil {
			continue
		}
		inst.StatusEffects = append(inst.StatusEffects, decodeStatusEffect(raw, reg))
	}
	if rec.ProgressiveStages != nil {
		inst.ProgressiveStages = *rec.ProgressiveStages
		if inst.ProgressiveStages == nil {
			inst.ProgressiveStages = []Stage{}
		}
	} else if inst.Stacking.Rule == StackingProgressive {
		inst.ProgressiveStages = []Stage{}
	}
	if inst.DefaultMagnitude.Kind() != magnitude.KindNumber && inst.DefaultMagnitude.Kind() != magnitude.KindDice {
		inst.DefaultMagnitude = def.DefaultMagnitude
	}
	return inst, nil
}
