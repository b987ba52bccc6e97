package catalog

// Category groups stat modifiers for display
type Category string

const (
	CategoryPrimary      Category = "primary"
	CategorySecondary    Category = "secondary"
	CategoryCombat       Category = "combat"
	CategorySpellPower   Category = "spell_power"
	CategoryResistance   Category = "resistance"
	CategoryUtility      Category = "utility"
	CategoryWeaponDamage Category = "weapon_damage"
)

// Polarity tells buffs from debuffs
type Polarity string

const (
	PolarityBuff   Polarity = "buff"
	PolarityDebuff Polarity = "debuff"
)

// Level is a severity tier used to pick canned intensity text
type Level string

const (
	LevelMinor    Level = "minor"
	LevelModerate Level = "moderate"
	LevelMajor    Level = "major"
)

// Valid reports whether l is a known severity tier
func (l Level) Valid() bool {
	switch l {
	case LevelMinor, LevelModerate, LevelMajor:
		return true
	}
	return false
}

// DefaultSaveType is used when a status effect names no save
const DefaultSaveType = "constitution"

// StatDescriptor describes a numeric attribute a modifier can target
type StatDescriptor struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    Category `yaml:"category" json:"category"`
}

// Option is a named variant of a status effect
type Option struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// StatusEffectDescriptor describes a status effect kind
type StatusEffectDescriptor struct {
	ID                string                      `yaml:"id" json:"id"`
	Name              string                      `yaml:"name" json:"name"`
	Description       string                      `yaml:"description" json:"description"`
	Polarity          Polarity                    `yaml:"polarity" json:"polarity"`
	SaveType          string                      `yaml:"saveType,omitempty" json:"saveType,omitempty"`
	HasAdvancedConfig bool                        `yaml:"hasAdvancedConfig,omitempty" json:"hasAdvancedConfig,omitempty"`
	Options           []Option                    `yaml:"options,omitempty" json:"options,omitempty"`
	Intensity         map[Level]map[string]string `yaml:"intensity,omitempty" json:"intensity,omitempty"`
}

// Option finds a variant by id
func (d *StatusEffectDescriptor) Option(id string) (*Option, bool) {
	for i := range d.Options {
		if d.Options[i].ID == id {
			opt := d.Options[i]
			return &opt, true
		}
	}
	return nil, false
}

func (d StatusEffectDescriptor) clone() StatusEffectDescriptor {
	out := d
	out.Options = append([]Option(nil), d.Options...)
	if d.Intensity != nil {
		out.Intensity = make(map[Level]map[string]string, len(d.Intensity))
		for level, texts := range d.Intensity {
			copied := make(map[string]string, len(texts))
			for k, v := range texts {
				copied[k] = v
			}
			out.Intensity[level] = copied
		}
	}
	return out
}
