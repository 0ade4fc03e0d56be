package migration

import (
	"fmt"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

// formatVersion renders a node's numeric typeVersion as the string form
// the registry keys its data on.
func formatVersion(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseVersion converts a registry version string back to the numeric
// typeVersion n8n stores on the node.
func parseVersion(s string) (float64, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return 0, fmt.Errorf("migration: invalid version %q: %w", s, err)
	}
	if v.Minor() == 0 && v.Patch() == 0 {
		return float64(v.Major()), nil
	}
	whole := float64(v.Major())
	frac, _ := strconv.ParseFloat(fmt.Sprintf("0.%d", v.Minor()), 64)
	return whole + frac, nil
}
