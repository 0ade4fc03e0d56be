package validator

import (
	"context"
	"sort"

	"github.com/n8nctl/n8nctl/internal/locator"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Validate runs the structural (C5) and node-config (C6) validators over
// wf and returns a stable-ordered Result. src/index come from the parser
// and may be empty, in which case issues omit source locations.
func Validate(ctx context.Context, wf *workflow.Workflow, cat CatalogReader, profile Profile, src string, index workflow.PathIndex) (Result, error) {
	wf.Reindex()
	loc := newLocatorAdapter(locator.New(src, index))

	issues := validateStructural(wf, loc)

	configIssues, err := validateNodeConfig(ctx, wf, cat, profile, loc)
	if err != nil {
		return Result{}, err
	}
	issues = append(issues, configIssues...)

	issues = applyProfile(issues, profile)
	sortIssues(issues)

	valid := true
	for _, i := range issues {
		if i.Severity == SeverityError {
			valid = false
			break
		}
	}
	return Result{Issues: issues, Valid: valid}, nil
}

// sortIssues orders by nodeIndex, then path, then code.
func sortIssues(issues []ValidationIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Location.NodeIndex != b.Location.NodeIndex {
			return a.Location.NodeIndex < b.Location.NodeIndex
		}
		if a.Location.Path != b.Location.Path {
			return a.Location.Path < b.Location.Path
		}
		return a.Code < b.Code
	})
}
