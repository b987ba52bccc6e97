package effect

import (
	"fmt"
	"sort"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// OrderedStages returns the stages in the order a consumer applies them:
// ascending trigger offset, ties kept in authoring order. The instance's
// own slice is left in authoring order.
func OrderedStages(inst *Instance) []Stage {
	out := make([]Stage, len(inst.ProgressiveStages))
	for idx, s := range inst.ProgressiveStages {
		out[idx] = s.clone()
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].TriggerAt < out[b].TriggerAt
	})
	return out
}

// StagesAt returns the stages that fire at offset, in application order
func StagesAt(inst *Instance, offset int) []Stage {
	var out []Stage
	for _, s := range OrderedStages(inst) {
		if s.TriggerAt == offset {
			out = append(out, s)
		}
	}
	return out
}

// ValidateStages checks the stage list of a progressive effect. Offsets
// outside a bounded turns or time duration are stage_out_of_range; stat ids
// missing from the catalog are unknown_catalog_id. It never fails.
func ValidateStages(inst *Instance, reg *catalog.Registry) []dnderr.Issue {
	if inst.Stacking.Rule != StackingProgressive {
		return nil
	}

	var issues []dnderr.Issue
	for idx, stage := range inst.ProgressiveStages {
		path := fmt.Sprintf("progressiveStages[%d]", idx)

		if stage.TriggerAt < 1 {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeStageOutOfRange, path+".triggerAt",
				"stage triggers at %d, before the effect starts", stage.TriggerAt))
		} else if inst.Duration.Bounded() && stage.TriggerAt > inst.Duration.Value {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeStageOutOfRange, path+".triggerAt",
				"stage triggers at %d but the effect lasts %d %s", stage.TriggerAt, inst.Duration.Value, inst.Duration.Type))
		}

		issues = append(issues, validateModifiers(stage.StatPenalties, reg, path+".statPenalties")...)

		if stage.DifficultyClass != nil && (*stage.DifficultyClass < MinDifficultyClass || *stage.DifficultyClass > MaxDifficultyClass) {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeValidation, path+".difficultyClass",
				"difficulty class must be between %d and %d, got %d", MinDifficultyClass, MaxDifficultyClass, *stage.DifficultyClass))
		}
		if stage.SavingThrow != "" && reg != nil && !reg.HasStat(stage.SavingThrow) {
			issues = append(issues, dnderr.NewIssue(dnderr.CodeUnknownCatalogID, path+".savingThrow",
				"unknown saving throw stat %q", stage.SavingThrow))
		}
	}
	return issues
}
