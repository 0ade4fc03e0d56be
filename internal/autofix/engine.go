package autofix

import (
	"context"
	"fmt"

	"github.com/n8nctl/n8nctl/internal/registry"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Result is the outcome of a Run.
type Result struct {
	Workflow     *workflow.Workflow   `json:"workflow,omitempty"`
	Fixes        []FixOperation       `json:"fixes"`
	Stats        Stats                `json:"stats"`
	Summary      string               `json:"summary"`
	AppliedCount int                  `json:"appliedCount"`
	SkippedCount int                  `json:"skippedCount"`
	Guidance     []PostUpdateGuidance `json:"guidance,omitempty"`
}

type generator func(ctx context.Context, wf *workflow.Workflow, issues []validator.ValidationIssue, cat CatalogReader, opts Options) ([]FixOperation, error)

// Run generates (and optionally applies) fixes in the fixed generator
// order. wf is never mutated when opts.Apply is false.
func Run(ctx context.Context, wf *workflow.Workflow, result validator.Result, cat CatalogReader, opts Options) (Result, error) {
	working := wf
	if opts.Apply {
		working = wf.Clone()
	}

	var all []FixOperation
	// keep filters one generator's batch by threshold and fix type and trims
	// it to the room MaxFixes leaves, so only surviving fixes are applied.
	keep := func(fixes []FixOperation) []FixOperation {
		fixes = filterFixes(fixes, Options{FixTypes: opts.FixTypes, ConfidenceThreshold: opts.ConfidenceThreshold})
		if opts.MaxFixes > 0 && len(all)+len(fixes) > opts.MaxFixes {
			fixes = fixes[:max(0, opts.MaxFixes-len(all))]
		}
		return fixes
	}
	generators := []generator{
		genExpressionFormat,
		genSwitchOptions,
		genWebhookMissingPath,
		genNodeTypeCorrection,
		genTypeVersionCorrection,
		genErrorOutputConfig,
	}
	for _, gen := range generators {
		fixes, err := gen(ctx, working, result.Issues, cat, opts)
		if err != nil {
			return Result{}, err
		}
		fixes = keep(fixes)
		all = append(all, fixes...)
		if opts.Apply {
			applyBatch(working, fixes)
			working.Reindex()
		}
	}

	upgradeFixes, err := genTypeVersionUpgrade(ctx, working, result.Issues, cat, opts)
	if err != nil {
		return Result{}, err
	}
	upgradeFixes = keep(upgradeFixes)
	all = append(all, upgradeFixes...)
	if opts.Apply {
		applyBatch(working, upgradeFixes)
		working.Reindex()
	}

	migrationFixes, err := genVersionMigration(ctx, working, result.Issues, cat, upgradeFixes)
	if err != nil {
		return Result{}, err
	}
	all = append(all, keep(migrationFixes)...) // informational only, never applied

	filtered := filterFixes(all, opts)

	res := Result{Fixes: filtered, Stats: computeStats(filtered)}
	if opts.Apply {
		res.Workflow = working
		res.Guidance = buildGuidance(working, upgradeFixes)
	}
	for _, f := range filtered {
		if f.FixType == FixVersionMigration {
			res.SkippedCount++
			continue
		}
		if opts.Apply {
			res.AppliedCount++
		} else {
			res.SkippedCount++
		}
	}
	res.Summary = fmt.Sprintf("%d fixes proposed, %d applied, %d skipped", len(filtered), res.AppliedCount, res.SkippedCount)
	return res, nil
}

// filterFixes discards fixes below the confidence threshold, restricts to
// requested fix types, and caps the total at maxFixes.
func filterFixes(fixes []FixOperation, opts Options) []FixOperation {
	threshold := opts.ConfidenceThreshold
	if threshold == "" {
		threshold = ConfidenceLow
	}
	var out []FixOperation
	for _, f := range fixes {
		if f.Confidence.rank() < threshold.rank() {
			continue
		}
		if len(opts.FixTypes) > 0 && !containsFixType(opts.FixTypes, f.FixType) {
			continue
		}
		out = append(out, f)
	}
	if opts.MaxFixes > 0 && len(out) > opts.MaxFixes {
		out = out[:opts.MaxFixes]
	}
	return out
}

func computeStats(fixes []FixOperation) Stats {
	stats := Stats{ByConfidence: map[Confidence]int{}, ByType: map[FixType]int{}}
	for _, f := range fixes {
		stats.ByConfidence[f.Confidence]++
		stats.ByType[f.FixType]++
	}
	return stats
}

// buildGuidance assembles PostUpdateGuidance from applied typeversion
// upgrades, listing the registry's hints for each upgraded range.
func buildGuidance(wf *workflow.Workflow, upgrades []FixOperation) []PostUpdateGuidance {
	var out []PostUpdateGuidance
	for _, up := range upgrades {
		var actions []string
		if n := wf.NodeByName(up.NodeName); n != nil {
			for _, c := range registry.ChangesFor(n.Type, fmt.Sprintf("%v", up.Before), fmt.Sprintf("%v", up.After)) {
				actions = append(actions, fmt.Sprintf("%s: %s", c.PropertyName, c.MigrationHint))
			}
		}
		if len(actions) == 0 {
			actions = []string{"review registry migration hints for this node before relying on new behavior"}
		}
		out = append(out, PostUpdateGuidance{
			NodeName:        up.NodeName,
			MigrationStatus: MigrationStatusRequiresReview,
			Confidence:      0.8,
			RequiredActions: actions,
			EstimatedTime:   "5m",
		})
	}
	return out
}
