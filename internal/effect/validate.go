package effect

import (
	"fmt"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
)

// Validate reports every problem with the instance. Unknown catalog ids are
// reported but the instance is left untouched so it can still be stored.
func (i *Instance) Validate(reg *catalog.Registry) []dnderr.Issue {
	var issues []dnderr.Issue

	issues = append(issues, validateModifiers(i.StatPenalties, reg, "statPenalties")...)
	issues = append(issues, i.validateStatusEffects(reg)...)
	issues = append(issues, i.validateDuration()...)
	issues = append(issues, i.validateStacking()...)

	if i.DifficultyClass < MinDifficultyClass || i.DifficultyClass > MaxDifficultyClass {
		issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, "difficultyClass",
			"difficulty class must be between %d and %d, got %d", MinDifficultyClass, MaxDifficultyClass, i.DifficultyClass))
	}
	if i.SavingThrow == "" {
		issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, "savingThrow", "saving throw stat is required"))
	} else if reg != nil && !reg.HasStat(i.SavingThrow) {
		issues = append(issues, dnderr.NewIssue(dnderr.CodeUnknownCatalogID, "savingThrow",
			"unknown saving throw stat %q", i.SavingThrow))
	}

	issues = append(issues, ValidateStages(i, reg)...)
	return issues
}

func validateModifiers(mods []StatModifier, reg *catalog.Registry, path string) []dnderr.Issue {
	var issues []dnderr.Issue
	seen := make(map[string]bool, len(mods))

	for idx, mod := range mods {
		at := fmt.Sprintf("%s[%d]", path, idx)

		switch {
		case mod.ID == "":
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".id", "stat id is required"))
		case seen[mod.ID]:
			issues = append(issues, dnderr.NewIssue(dnderr.CodeDuplicateModifier, at+".id",
				"stat %q is modified more than once", mod.ID))
		case reg != nil && !reg.HasStat(mod.ID):
			issues = append(issues, dnderr.NewIssue(dnderr.CodeUnknownCatalogID, at+".id",
				"unknown stat %q", mod.ID))
		}
		seen[mod.ID] = true

		switch mod.Magnitude.Kind() {
		case magnitude.KindNone:
			issues = append(issues, dnderr.NewIssue(dnderr.CodeMalformedMagnitude, at+".magnitude", "magnitude is missing"))
		case magnitude.KindInvalid:
			issues = append(issues, dnderr.IssueFromError(at+".magnitude", mod.Magnitude.Err()))
		case magnitude.KindFormula:
			issues = append(issues, dnderr.NewIssue(dnderr.CodeMalformedMagnitude, at+".magnitude",
				"stat modifiers take a number or dice, not a conversion formula"))
		}

		if !mod.MagnitudeType.Valid() {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".magnitudeType",
				"unknown magnitude type %q", mod.MagnitudeType))
		}
	}
	return issues
}

func (i *Instance) validateStatusEffects(reg *catalog.Registry) []dnderr.Issue {
	var issues []dnderr.Issue
	seen := make(map[string]bool, len(i.StatusEffects))

	for idx, s := range i.StatusEffects {
		at := fmt.Sprintf("statusEffects[%d]", idx)

		if seen[s.ID] {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".id",
				"status effect %q is selected more than once", s.ID))
		}
		seen[s.ID] = true

		if s.Level != "" && !s.Level.Valid() {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".level",
				"unknown severity level %q", s.Level))
		}

		if reg == nil {
			continue
		}
		desc, err := reg.LookupStatusEffect(s.ID)
		if err != nil {
			issues = append(issues, dnderr.IssueFromError(at+".id", err))
			continue
		}

		if s.Option != "" {
			if _, ok := desc.Option(s.Option); !ok {
				issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".option",
					"%s has no option %q", s.ID, s.Option))
			}
		}

		if desc.HasAdvancedConfig {
			issues = append(issues, validateAdvancedConfig(s, at)...)
		}
	}
	return issues
}

func validateAdvancedConfig(s StatusEffect, at string) []dnderr.Issue {
	cfg, ok := s.Lifelink()
	if !ok {
		return []dnderr.Issue{dnderr.NewIssue(dnderr.CodeValidation, at+".customFormula",
			"%s needs a conversion formula", s.ID)}
	}

	var issues []dnderr.Issue
	switch cfg.CustomFormula.Kind() {
	case magnitude.KindNone:
		issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".customFormula",
			"%s needs a conversion formula", s.ID))
	case magnitude.KindInvalid:
		issues = append(issues, dnderr.IssueFromError(at+".customFormula", cfg.CustomFormula.Err()))
	}
	if cfg.PerAmount < 0 {
		issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, at+".perAmount",
			"per amount must not be negative, got %g", cfg.PerAmount))
	}
	return issues
}

func (i *Instance) validateDuration() []dnderr.Issue {
	d := i.Duration
	if !d.Type.Valid() {
		return []dnderr.Issue{dnderr.NewIssue(dnderr.CodeValidation, "durationType", "unknown duration type %q", d.Type)}
	}

	var issues []dnderr.Issue
	switch d.Type {
	case DurationTurns, DurationTime:
		if d.Value < 1 {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, "durationValue",
				"%s duration needs a value of at least 1, got %d", d.Type, d.Value))
		}
	}
	return issues
}

func (i *Instance) validateStacking() []dnderr.Issue {
	s := i.Stacking
	if !s.Rule.Valid() {
		return []dnderr.Issue{dnderr.NewIssue(dnderr.CodeValidation, "stackingRule", "unknown stacking rule %q", s.Rule)}
	}
	if s.Rule.UsesMaxStacks() && s.MaxStacks < 1 {
		return []dnderr.Issue{dnderr.NewIssue(dnderr.CodeValidation, "maxStacks",
			"%s stacking needs max stacks of at least 1, got %d", s.Rule, s.MaxStacks)}
	}
	return nil
}
