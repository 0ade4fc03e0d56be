package registry

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// sortVersions orders typeVersion strings ascending using semver
// comparison, coercing bare integers like "2" into "2.0.0".
func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
}

func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		// Registry data is fixed at compile time; a malformed entry is a
		// programmer error, not a runtime condition to recover from.
		panic(fmt.Sprintf("registry: invalid version %q or %q", a, b))
	}
	return va.Compare(vb)
}

// LatestVersion returns the highest typeVersion tracked for nodeType, or
// "" if the node type is not tracked at all. nodeType is normalized
// before lookup, so callers may pass legacy, scoped, or short form.
func LatestVersion(nodeType string) string {
	return latest[workflow.NormalizeNodeType(nodeType)]
}

// TrackedVersions returns every typeVersion tracked for nodeType, in
// ascending order. nodeType is normalized before lookup.
func TrackedVersions(nodeType string) []string {
	versions := tracked[workflow.NormalizeNodeType(nodeType)]
	out := make([]string, len(versions))
	copy(out, versions)
	return out
}

// AnalyzeUpgrade collects every breaking change recorded for nodeType in
// the half-open interval (from, to], in registry order, and summarizes
// them. nodeType is normalized before matching against the registry, so
// callers may pass legacy, scoped, or short form.
func AnalyzeUpgrade(nodeType, from, to string) (UpgradeAnalysis, error) {
	if _, err := semver.NewVersion(from); err != nil {
		return UpgradeAnalysis{}, fmt.Errorf("registry: invalid from-version %q: %w", from, err)
	}
	if _, err := semver.NewVersion(to); err != nil {
		return UpgradeAnalysis{}, fmt.Errorf("registry: invalid to-version %q: %w", to, err)
	}
	nodeType = workflow.NormalizeNodeType(nodeType)

	analysis := UpgradeAnalysis{NodeType: nodeType, FromVersion: from, ToVersion: to}
	for _, c := range changes {
		if c.NodeType != nodeType {
			continue
		}
		if !inHalfOpenInterval(c.FromVersion, from, to) {
			continue
		}
		analysis.Changes = append(analysis.Changes, c)
		if c.IsBreaking {
			analysis.HasBreaking = true
		}
		if c.Severity > analysis.OverallSeverity {
			analysis.OverallSeverity = c.Severity
		}
		if c.AutoMigratable {
			analysis.AutoMigratableCount++
		} else {
			analysis.ManualRequiredCount++
		}
	}
	analysis.Recommendations = buildRecommendations(analysis.Changes)
	return analysis, nil
}

// inHalfOpenInterval reports whether a change whose FromVersion is
// changeFrom falls within (from, to]: its starting version must be at
// least `from` and strictly less than `to`, i.e. the change's own
// ToVersion lands at or before the target.
func inHalfOpenInterval(changeFrom, from, to string) bool {
	return compareVersions(changeFrom, from) >= 0 && compareVersions(changeFrom, to) < 0
}

func buildRecommendations(cs []BreakingChange) []string {
	var recs []string
	for _, c := range cs {
		if c.MigrationHint == "" {
			continue
		}
		if c.AutoMigratable {
			recs = append(recs, fmt.Sprintf("%s (auto): %s", c.PropertyName, c.MigrationHint))
		} else {
			recs = append(recs, fmt.Sprintf("%s (manual): %s", c.PropertyName, c.MigrationHint))
		}
	}
	return recs
}

// ChangesFor returns the raw breaking-change records for nodeType whose
// FromVersion falls within (from, to], in registry order. Used by the
// Auto-Fix and Migration engines, which need the records themselves
// rather than the summarized analysis. nodeType is normalized before
// matching against the registry.
func ChangesFor(nodeType, from, to string) []BreakingChange {
	nodeType = workflow.NormalizeNodeType(nodeType)
	var out []BreakingChange
	for _, c := range changes {
		if c.NodeType == nodeType && inHalfOpenInterval(c.FromVersion, from, to) {
			out = append(out, c)
		}
	}
	return out
}
