package effects

import (
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

func checkSpellID(spellID string) error {
	if spellID == "" {
		return dnderr.InvalidArgument("spell id is required")
	}
	return nil
}

func notFound(spellID string) error {
	return dnderr.NotFoundf("effect record for spell %s not found", spellID).
		WithMeta("spell_id", spellID)
}
