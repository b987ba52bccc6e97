// Package schema describes the stored effect record as a JSON Schema so
// editors and external tools can check records before they reach the
// normalizer.
package schema

import (
	"github.com/invopop/jsonschema"
)

// Record is the stored shape of an effect instance
type Record struct {
	StatPenalties         []StatModifier `json:"statPenalties" jsonschema:"required"`
	StatusEffects         []StatusEffect `json:"statusEffects" jsonschema:"required"`
	DurationType          string         `json:"durationType" jsonschema:"required,enum=turns,enum=time,enum=rest,enum=permanent"`
	DurationValue         int            `json:"durationValue,omitempty" jsonschema:"minimum=0"`
	DurationUnit          string         `json:"durationUnit,omitempty" jsonschema:"enum=rounds,enum=minutes,enum=hours,enum=days"`
	RestType              string         `json:"restType,omitempty" jsonschema:"enum=short,enum=long"`
	CanBeDispelled        bool           `json:"canBeDispelled,omitempty"`
	ConcentrationRequired bool           `json:"concentrationRequired,omitempty"`
	StackingRule          string         `json:"stackingRule" jsonschema:"required,enum=replace,enum=highest,enum=cumulative,enum=selfStacking,enum=progressive"`
	MaxStacks             int            `json:"maxStacks,omitempty" jsonschema:"minimum=1"`
	IsProgressive         bool           `json:"isProgressive,omitempty"`
	ProgressiveStages     []Stage        `json:"progressiveStages,omitempty"`
	DifficultyClass       int            `json:"difficultyClass" jsonschema:"required,minimum=1,maximum=30"`
	SavingThrow           string         `json:"savingThrow" jsonschema:"required"`
	SaveOutcome           string         `json:"saveOutcome,omitempty" jsonschema:"enum=negates,enum=halves,enum=partial"`
	Magnitude             any            `json:"magnitude,omitempty" jsonschema:"oneof_type=number;string;null"`
	MagnitudeType         string         `json:"magnitudeType,omitempty" jsonschema:"enum=flat,enum=percentage"`
}

// StatModifier is one stat change. Magnitude is a number or dice text.
type StatModifier struct {
	ID            string `json:"id" jsonschema:"required"`
	Magnitude     any    `json:"magnitude" jsonschema:"required,oneof_type=number;string"`
	MagnitudeType string `json:"magnitudeType" jsonschema:"required,enum=flat,enum=percentage"`
	Name          string `json:"name,omitempty"`
	Stat          string `json:"stat,omitempty"`
	Value         any    `json:"value,omitempty" jsonschema:"oneof_type=number;string"`
	IsPercentage  bool   `json:"isPercentage,omitempty"`
}

// StatusEffect is a selected status effect. Effect specific keys such as
// direction or saveType are allowed alongside these.
type StatusEffect struct {
	ID             string  `json:"id" jsonschema:"required"`
	Name           string  `json:"name,omitempty"`
	Description    string  `json:"description,omitempty"`
	Option         string  `json:"option,omitempty"`
	Level          string  `json:"level,omitempty" jsonschema:"enum=minor,enum=moderate,enum=major"`
	CustomFormula  any     `json:"customFormula,omitempty" jsonschema:"oneof_type=number;string"`
	PerAmount      float64 `json:"perAmount,omitempty"`
	Direction      string  `json:"direction,omitempty"`
	SourceResource string  `json:"sourceResource,omitempty"`
	TargetResource string  `json:"targetResource,omitempty"`
	Duration       int     `json:"duration,omitempty"`
	SaveType       string  `json:"saveType,omitempty"`
	SaveFrequency  string  `json:"saveFrequency,omitempty"`
}

// Stage is one escalation step of a progressive effect
type Stage struct {
	TriggerAt       int            `json:"triggerAt" jsonschema:"required,minimum=1"`
	StatPenalties   []StatModifier `json:"statPenalties" jsonschema:"required"`
	SpellEffect     string         `json:"spellEffect,omitempty"`
	DifficultyClass int            `json:"difficultyClass,omitempty" jsonschema:"minimum=1,maximum=30"`
	SavingThrow     string         `json:"savingThrow,omitempty"`
}

// RecordSchema reflects the JSON Schema of Record
func RecordSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
	}

	schema := reflector.Reflect(&Record{})
	schema.Title = "Spell Effect Record"
	schema.Description = "Buff or debuff specification stored with a spell."
	return schema
}
