// Package normalize repairs legacy or externally authored effect records so
// they decode into the canonical effect model. Every function works on a
// deep copy and is idempotent.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/effect"
	"github.com/KirkDiggler/spell-effects/internal/formula"
)

// Spell keys holding effect records
const (
	KeyDebuffConfig = "debuffConfig"
	KeyBuffConfig   = "buffConfig"
	KeyDamageTypes  = "damageTypes"
)

// Normalizer repairs records against a catalog
type Normalizer struct {
	catalog *catalog.Registry
}

// New creates a normalizer. A nil catalog skips description backfill.
func New(reg *catalog.Registry) *Normalizer {
	return &Normalizer{catalog: reg}
}

// FixStatModifier upgrades a legacy stat modifier. Entries that already
// carry name and magnitude pass through unchanged. Otherwise the stat is
// resolved through the alias table and magnitude comes from the absolute
// legacy value. A legacy value keeps its sign; it is only written when
// missing.
func (n *Normalizer) FixStatModifier(raw map[string]any) map[string]any {
	out := deepCopyMap(raw)
	if out == nil {
		return nil
	}

	_, hasName := out["name"]
	_, hasMagnitude := out["magnitude"]
	if hasName && hasMagnitude {
		return out
	}

	name := resolveStat(firstString(out, "name", "stat", "id"))

	mag, hasMagnitude := out["magnitude"]
	if !hasMagnitude {
		if v, ok := out["value"]; ok {
			mag = absMagnitude(v)
			hasMagnitude = true
		}
	}

	magType, _ := out["magnitudeType"].(string)
	if magType == "" {
		magType = magnitudeTypeFor(out["isPercentage"])
	}

	if name != "" {
		out["name"] = name
		out["stat"] = name
		if id, _ := out["id"].(string); id == "" {
			out["id"] = name
		}
	}
	if hasMagnitude {
		out["magnitude"] = mag
		if _, ok := out["value"]; !ok {
			out["value"] = mag
		}
	}
	out["magnitudeType"] = magType
	out["isPercentage"] = magType == "percentage"
	return out
}

// FixStatusEffect upgrades a legacy status effect. A bare string becomes an
// object with a snake_case id, a title-cased name and a description. An
// object with an id only gets a missing description backfilled. Values that
// are neither return nil.
func (n *Normalizer) FixStatusEffect(raw any) map[string]any {
	switch v := raw.(type) {
	case string:
		id := snakeCase(v)
		if id == "" {
			return nil
		}
		name := titleCase(id)
		return map[string]any{
			"id":          id,
			"name":        name,
			"description": n.describe(id, name),
		}
	case map[string]any:
		out := deepCopyMap(v)
		id, _ := out["id"].(string)
		if id == "" {
			name, _ := out["name"].(string)
			id = snakeCase(name)
			if id == "" {
				return out
			}
			out["id"] = id
		}
		if desc, _ := out["description"].(string); desc == "" {
			name, _ := out["name"].(string)
			if name == "" {
				name = titleCase(id)
			}
			out["description"] = n.describe(id, name)
		}
		return out
	default:
		return nil
	}
}

// InferDamageTypes matches spell text against damage type keywords. The
// element hint is appended when not already found. It returns nil when
// nothing can be inferred.
func InferDamageTypes(text, hint string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, entry := range damageTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				found = append(found, entry.damageType)
				break
			}
		}
	}

	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint != "" && !contains(found, hint) {
		found = append(found, hint)
	}
	return found
}

// MigrateDuration upgrades a bare legacy duration. -1 means permanent and
// dispellable, anything else is a whole number of turns with any fraction
// dropped. Records that already have a durationType are returned unchanged.
func MigrateDuration(record map[string]any) map[string]any {
	out := deepCopyMap(record)
	if out == nil {
		return nil
	}
	if _, ok := out["durationType"]; ok {
		return out
	}
	legacy, ok := out["duration"]
	if !ok {
		return out
	}
	d, ok := number(legacy)
	if !ok {
		return out
	}

	delete(out, "duration")
	if d == -1 {
		out["durationType"] = string(effect.DurationPermanent)
		out["canBeDispelled"] = true
		return out
	}
	out["durationType"] = string(effect.DurationTurns)
	out["durationValue"] = math.Trunc(d)
	return out
}

// NormalizeRecord applies every repair to an effect record
func (n *Normalizer) NormalizeRecord(record map[string]any) map[string]any {
	out := MigrateDuration(record)
	if out == nil {
		out = map[string]any{}
	}

	out["statPenalties"] = n.fixModifierList(out["statPenalties"])
	for _, key := range []string{"durationValue", "maxStacks", "difficultyClass"} {
		integerField(out, key)
	}

	var statuses []any
	if list, ok := out["statusEffects"].([]any); ok {
		for _, item := range list {
			fixed := n.FixStatusEffect(item)
			if fixed == nil {
				continue
			}
			if id, _ := fixed["id"].(string); effect.UsesLinkConfig(n.catalog, id) && blank(fixed["customFormula"]) {
				fixed["customFormula"] = formula.DefaultConversion
			}
			statuses = append(statuses, fixed)
		}
	}
	if statuses == nil {
		statuses = []any{}
	}
	out["statusEffects"] = statuses

	if rule, _ := out["stackingRule"].(string); rule == "" {
		out["stackingRule"] = string(effect.StackingReplace)
	}

	if stages, ok := out["progressiveStages"].([]any); ok {
		fixed := make([]any, 0, len(stages))
		for _, item := range stages {
			stage, ok := item.(map[string]any)
			if !ok {
				continue
			}
			stage["statPenalties"] = n.fixModifierList(stage["statPenalties"])
			integerField(stage, "triggerAt")
			integerField(stage, "difficultyClass")
			fixed = append(fixed, stage)
		}
		out["progressiveStages"] = fixed
	} else if out["stackingRule"] == string(effect.StackingProgressive) {
		out["progressiveStages"] = []any{}
	}

	return out
}

// NormalizeSpell repairs the buff and debuff records of a spell and infers
// damage types when the spell has none
func (n *Normalizer) NormalizeSpell(spell map[string]any) map[string]any {
	out := deepCopyMap(spell)
	if out == nil {
		return nil
	}

	for _, key := range []string{KeyDebuffConfig, KeyBuffConfig} {
		if rec, ok := out[key].(map[string]any); ok {
			out[key] = n.NormalizeRecord(rec)
		}
	}

	if _, ok := out[KeyDamageTypes]; !ok {
		name, _ := out["name"].(string)
		desc, _ := out["description"].(string)
		if types := InferDamageTypes(name+" "+desc, elementHint(out)); types != nil {
			list := make([]any, len(types))
			for i, t := range types {
				list[i] = t
			}
			out[KeyDamageTypes] = list
		}
	}
	return out
}

func (n *Normalizer) fixModifierList(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fixed := n.FixStatModifier(m)
		if id, _ := fixed["id"].(string); id == "" {
			if name, _ := fixed["name"].(string); name != "" {
				fixed["id"] = name
			}
		}
		out = append(out, fixed)
	}
	return out
}

func (n *Normalizer) describe(id, name string) string {
	if n.catalog != nil {
		if desc, err := n.catalog.LookupStatusEffect(id); err == nil && desc.Description != "" {
			return desc.Description
		}
	}
	return "Affected by " + name
}

func elementHint(spell map[string]any) string {
	if dmg, ok := spell["damageConfig"].(map[string]any); ok {
		if hint, _ := dmg["elementType"].(string); hint != "" {
			return hint
		}
	}
	return ""
}

func resolveStat(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := statAliases[key]; ok {
		return alias
	}
	return name
}

func magnitudeTypeFor(isPercentage any) string {
	if b, _ := isPercentage.(bool); b {
		return "percentage"
	}
	return "flat"
}

// absMagnitude drops the sign of a legacy value; legacy records kept the
// sign in the list the modifier was stored under
func absMagnitude(v any) any {
	if f, ok := number(v); ok {
		return math.Abs(f)
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return math.Abs(f)
		}
	}
	return v
}

func snakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

func titleCase(id string) string {
	caser := cases.Title(language.English)
	words := strings.Split(id, "_")
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, _ := m[k].(string); s != "" {
			return s
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// integerField coerces a numeric record field to a whole number. Numeric
// text is parsed; values that are not numbers at all are removed so the
// decoder falls back to its default.
func integerField(m map[string]any, key string) {
	v, ok := m[key]
	if !ok || v == nil {
		return
	}
	if text, isText := v.(string); isText {
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			delete(m, key)
			return
		}
		m[key] = math.Trunc(f)
		return
	}
	f, ok := number(v)
	if !ok {
		delete(m, key)
		return
	}
	if f != math.Trunc(f) {
		m[key] = math.Trunc(f)
	}
}

// blank reports whether a formula value is absent or empty text
func blank(v any) bool {
	if v == nil {
		return true
	}
	text, ok := v.(string)
	return ok && strings.TrimSpace(text) == ""
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
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
