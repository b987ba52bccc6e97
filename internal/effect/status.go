package effect

import (
	"encoding/json"
	"maps"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

// LifelinkID is the status effect carrying a resource conversion
const LifelinkID = "lifelink"

// Reserved status effect keys shared by every variant
const (
	keyID          = "id"
	keyName        = "name"
	keyDescription = "description"
	keyOption      = "option"
	keyLevel       = "level"
)

// Config is the effect-specific configuration of a status effect. The set of
// variants is closed: LifelinkConfig, SaveConfig and OpaqueConfig.
type Config interface {
	fields() map[string]any
	clone() Config
}

// LinkDirection is which way a lifelink moves resources
type LinkDirection string

const (
	LinkCasterToTarget LinkDirection = "caster_to_target"
	LinkTargetToCaster LinkDirection = "target_to_caster"
	LinkBidirectional  LinkDirection = "bidirectional"
)

// Resource is a pool a lifelink draws from or feeds
type Resource string

const (
	ResourceHealth  Resource = "health"
	ResourceMana    Resource = "mana"
	ResourceStamina Resource = "stamina"
	ResourceRage    Resource = "rage"
	ResourceEnergy  Resource = "energy"
)

// LifelinkConfig converts an amount of one resource into another using a
// conversion formula
type LifelinkConfig struct {
	Direction      LinkDirection
	SourceResource Resource
	TargetResource Resource
	CustomFormula  magnitude.Conversion
	PerAmount      float64
}

// SaveConfig is the configuration shared by most status effects
type SaveConfig struct {
	Duration      *int
	SaveType      string
	SaveFrequency string
}

// OpaqueConfig holds the configuration of a status effect the catalog does
// not know. Its keys are kept verbatim.
type OpaqueConfig struct {
	Fields map[string]any
}

func (c *LifelinkConfig) fields() map[string]any {
	out := map[string]any{}
	if c.Direction != "" {
		out["direction"] = c.Direction
	}
	if c.SourceResource != "" {
		out["sourceResource"] = c.SourceResource
	}
	if c.TargetResource != "" {
		out["targetResource"] = c.TargetResource
	}
	if !c.CustomFormula.IsZero() {
		out["customFormula"] = c.CustomFormula
	}
	if c.PerAmount != 0 {
		out["perAmount"] = c.PerAmount
	}
	return out
}

func (c *LifelinkConfig) clone() Config {
	copied := *c
	return &copied
}

func (c *SaveConfig) fields() map[string]any {
	out := map[string]any{}
	if c.Duration != nil {
		out["duration"] = *c.Duration
	}
	if c.SaveType != "" {
		out["saveType"] = c.SaveType
	}
	if c.SaveFrequency != "" {
		out["saveFrequency"] = c.SaveFrequency
	}
	return out
}

func (c *SaveConfig) clone() Config {
	copied := *c
	if c.Duration != nil {
		d := *c.Duration
		copied.Duration = &d
	}
	return &copied
}

func (c *OpaqueConfig) fields() map[string]any {
	return maps.Clone(c.Fields)
}

func (c *OpaqueConfig) clone() Config {
	return &OpaqueConfig{Fields: deepCopyMap(c.Fields)}
}

// StatusEffect is a selected status effect with its configuration. Extra
// holds keys no variant models; they are preserved but not validated.
type StatusEffect struct {
	ID          string
	Name        string
	Description string
	Option      string
	Level       catalog.Level
	Config      Config
	Extra       map[string]any
}

// Lifelink returns the lifelink configuration when this is a lifelink
func (s *StatusEffect) Lifelink() (*LifelinkConfig, bool) {
	cfg, ok := s.Config.(*LifelinkConfig)
	return cfg, ok
}

// Save returns the save configuration when the effect uses one
func (s *StatusEffect) Save() (*SaveConfig, bool) {
	cfg, ok := s.Config.(*SaveConfig)
	return cfg, ok
}

func (s StatusEffect) clone() StatusEffect {
	out := s
	if s.Config != nil {
		out.Config = s.Config.clone()
	}
	out.Extra = deepCopyMap(s.Extra)
	return out
}

// MarshalJSON flattens the configuration into the status effect object
func (s StatusEffect) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+8)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Config != nil {
		for k, v := range s.Config.fields() {
			out[k] = v
		}
	}
	out[keyID] = s.ID
	setIfNotEmpty(out, keyName, s.Name)
	setIfNotEmpty(out, keyDescription, s.Description)
	setIfNotEmpty(out, keyOption, s.Option)
	setIfNotEmpty(out, keyLevel, string(s.Level))
	return json.Marshal(out)
}

// UsesLinkConfig reports whether a status effect carries a resource link
// configuration. The catalog decides through HasAdvancedConfig; without a
// catalog only lifelink does.
func UsesLinkConfig(reg *catalog.Registry, id string) bool {
	if reg == nil {
		return id == LifelinkID
	}
	desc, err := reg.LookupStatusEffect(id)
	if err != nil {
		return false
	}
	return desc.HasAdvancedConfig
}

// newConfig returns an unconfigured variant for a status effect
func newConfig(link, known bool) Config {
	switch {
	case link:
		return &LifelinkConfig{}
	case known:
		return &SaveConfig{}
	default:
		return &OpaqueConfig{Fields: map[string]any{}}
	}
}

// decodeStatusEffect builds a status effect from a decoded record object.
// The variant is picked from the catalog; keys the variant does not model go
// to Extra.
func decodeStatusEffect(raw map[string]any, reg *catalog.Registry) StatusEffect {
	rest := maps.Clone(raw)
	s := StatusEffect{
		ID:          takeString(rest, keyID),
		Name:        takeString(rest, keyName),
		Description: takeString(rest, keyDescription),
		Option:      takeString(rest, keyOption),
		Level:       catalog.Level(takeString(rest, keyLevel)),
	}

	switch {
	case UsesLinkConfig(reg, s.ID):
		cfg := &LifelinkConfig{
			Direction:      LinkDirection(takeString(rest, "direction")),
			SourceResource: Resource(takeString(rest, "sourceResource")),
			TargetResource: Resource(takeString(rest, "targetResource")),
			PerAmount:      DefaultPerAmount,
		}
		if v, ok := rest["perAmount"]; ok {
			if f, ok := toFloat(v); ok {
				cfg.PerAmount = f
				delete(rest, "perAmount")
			}
		}
		if v, ok := rest["customFormula"]; ok {
			delete(rest, "customFormula")
			cfg.CustomFormula = decodeConversion(v)
		}
		if cfg.CustomFormula.IsZero() {
			cfg.CustomFormula = magnitude.DefaultConversion()
		}
		s.Config = cfg
	case reg != nil && reg.HasStatusEffect(s.ID):
		cfg := &SaveConfig{
			SaveType:      takeString(rest, "saveType"),
			SaveFrequency: takeString(rest, "saveFrequency"),
		}
		if v, ok := rest["duration"]; ok {
			if f, ok := toFloat(v); ok {
				d := int(f)
				cfg.Duration = &d
				delete(rest, "duration")
			}
		}
		s.Config = cfg
	default:
		s.Config = &OpaqueConfig{Fields: rest}
		rest = nil
	}

	if len(rest) > 0 {
		s.Extra = rest
	}
	return s
}

func decodeConversion(v any) magnitude.Conversion {
	var c magnitude.Conversion
	data, err := json.Marshal(v)
	if err != nil {
		return c
	}
	// Conversion decoding keeps malformed text as an invalid value
	_ = c.UnmarshalJSON(data)
	return c
}

func takeString(m map[string]any, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	delete(m, key)
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
