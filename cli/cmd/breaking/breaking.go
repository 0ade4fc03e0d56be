// Package breaking implements `n8nctl breaking`.
package breaking

import (
	"fmt"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/registry"
	"github.com/spf13/cobra"
)

type change struct {
	PropertyName   string `json:"propertyName"`
	ChangeType     string `json:"changeType"`
	Severity       string `json:"severity"`
	IsBreaking     bool   `json:"isBreaking"`
	AutoMigratable bool   `json:"autoMigratable"`
	MigrationHint  string `json:"migrationHint,omitempty"`
}

type output struct {
	NodeType            string   `json:"nodeType"`
	FromVersion         string   `json:"fromVersion"`
	ToVersion           string   `json:"toVersion"`
	HasBreakingChanges  bool     `json:"hasBreakingChanges"`
	OverallSeverity     string   `json:"overallSeverity"`
	Changes             []change `json:"changes"`
	AutoMigratableCount int      `json:"autoMigratableCount"`
	ManualRequiredCount int      `json:"manualRequiredCount"`
	Recommendations     []string `json:"recommendations"`
}

func NewCommand() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "breaking <nodeType>",
		Short: "Report breaking changes recorded between two node typeVersions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source typeVersion (required)")
	cmd.Flags().StringVar(&to, "to", "", "target typeVersion (required)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func run(cmd *cobra.Command, nodeType, from, to string) error {
	analysis, err := registry.AnalyzeUpgrade(nodeType, from, to)
	if err != nil {
		return lifecycle.NewCLIError("INVALID_VERSION", lifecycle.ExitUsageError,
			"could not analyze upgrade", "check --from/--to are valid semver-like versions", err)
	}

	out := output{
		NodeType:            analysis.NodeType,
		FromVersion:         analysis.FromVersion,
		ToVersion:           analysis.ToVersion,
		HasBreakingChanges:  analysis.HasBreaking,
		OverallSeverity:     analysis.OverallSeverity.String(),
		Changes:             toChanges(analysis.Changes),
		AutoMigratableCount: analysis.AutoMigratableCount,
		ManualRequiredCount: analysis.ManualRequiredCount,
		Recommendations:     orEmptyStrings(analysis.Recommendations),
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s -> %s (%s, %d auto / %d manual)\n",
		out.NodeType, out.FromVersion, out.ToVersion, out.OverallSeverity,
		out.AutoMigratableCount, out.ManualRequiredCount)
	for _, c := range out.Changes {
		fmt.Fprintf(w, "  [%s] %s: %s\n", c.Severity, c.PropertyName, c.ChangeType)
	}
	return nil
}

func toChanges(cs []registry.BreakingChange) []change {
	out := make([]change, 0, len(cs))
	for _, c := range cs {
		out = append(out, change{
			PropertyName:   c.PropertyName,
			ChangeType:     string(c.ChangeType),
			Severity:       c.Severity.String(),
			IsBreaking:     c.IsBreaking,
			AutoMigratable: c.AutoMigratable,
			MigrationHint:  c.MigrationHint,
		})
	}
	return out
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
