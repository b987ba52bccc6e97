package effect

import (
	"encoding/json"

	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

// StatModifier changes one numeric attribute. A negative magnitude is a
// penalty.
type StatModifier struct {
	ID            string
	Magnitude     magnitude.Value
	MagnitudeType magnitude.Type
}

type statModifierJSON struct {
	ID            string          `json:"id"`
	Magnitude     magnitude.Value `json:"magnitude"`
	MagnitudeType magnitude.Type  `json:"magnitudeType"`
}

// legacyStatModifierJSON carries the keys older readers expect
type legacyStatModifierJSON struct {
	statModifierJSON
	Name         string          `json:"name"`
	Stat         string          `json:"stat"`
	Value        magnitude.Value `json:"value"`
	IsPercentage bool            `json:"isPercentage"`
}

// MarshalJSON writes the canonical {id, magnitude, magnitudeType} shape
// along with the legacy name, stat, value and isPercentage keys
func (m StatModifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(legacyStatModifierJSON{
		statModifierJSON: statModifierJSON{
			ID:            m.ID,
			Magnitude:     m.Magnitude,
			MagnitudeType: m.MagnitudeType,
		},
		Name:         m.ID,
		Stat:         m.ID,
		Value:        m.Magnitude,
		IsPercentage: m.MagnitudeType == magnitude.TypePercentage,
	})
}

// UnmarshalJSON reads the canonical shape, taking the id from the legacy
// name or stat keys when id is missing
func (m *StatModifier) UnmarshalJSON(data []byte) error {
	var aux struct {
		statModifierJSON
		Name string `json:"name"`
		Stat string `json:"stat"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m.ID = firstNonEmpty(aux.ID, aux.Name, aux.Stat)
	m.Magnitude = aux.Magnitude
	m.MagnitudeType = aux.MagnitudeType
	if m.MagnitudeType == "" {
		m.MagnitudeType = magnitude.TypeFlat
	}
	return nil
}

func cloneModifiers(mods []StatModifier) []StatModifier {
	out := make([]StatModifier, len(mods))
	copy(out, mods)
	return out
}

func indexOfModifier(mods []StatModifier, id string) int {
	for i := range mods {
		if mods[i].ID == id {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
