package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
)

// isRunningInCI mirrors common CI detection so color/interactive output
// never gets enabled in automated pipelines even when stdout happens to
// be a pty (as some CI runners provide).
func isRunningInCI() bool {
	if os.Getenv("CI") != "" {
		return true
	}
	for _, v := range []string{
		"GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "BUILDKITE",
		"DRONE", "TF_BUILD", "APPVEYOR", "TEAMCITY_VERSION", "JENKINS_URL",
		"CONTINUOUS_INTEGRATION",
	} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ShouldUseColor decides whether human-mode output may use ANSI color,
// honoring --no-color, NO_COLOR, CI detection, and a non-tty stdout.
func ShouldUseColor(noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" || isRunningInCI() {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	if term := os.Getenv("TERM"); term == "" || term == "dumb" {
		return false
	}
	return true
}
