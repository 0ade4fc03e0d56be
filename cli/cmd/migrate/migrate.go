// Package migrate implements `n8nctl migrate`.
package migrate

import (
	"fmt"
	"os"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/migration"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

type output struct {
	Node            string `json:"node"`
	FromVersion     string `json:"fromVersion"`
	ToVersion       string `json:"toVersion"`
	Applied         int    `json:"appliedCount"`
	RemainingIssues int    `json:"remainingIssueCount"`
	RequiresReview  bool   `json:"requiresReview"`
	SavedTo         string `json:"savedTo,omitempty"`
}

func NewCommand() *cobra.Command {
	var node, to string
	var apply bool

	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Migrate a node's typeVersion, applying every auto-migratable breaking change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], node, to, apply)
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "target node name (required)")
	cmd.Flags().StringVar(&to, "to", "", "target typeVersion (required)")
	cmd.Flags().BoolVar(&apply, "apply", true, "write the migrated node back to the file")
	cmd.MarkFlagRequired("node")
	cmd.MarkFlagRequired("to")
	return cmd
}

func run(cmd *cobra.Command, path, nodeName, to string, apply bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lifecycle.NewCLIError("MISSING_INPUT", lifecycle.ExitMissingInput,
				fmt.Sprintf("no such file: %s", path), "check the path and try again", err)
		}
		return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to read input file", "", err)
	}

	parsed, err := workflow.Parse(string(raw), workflow.ParseOptions{Repair: true})
	if err != nil {
		return lifecycle.NewCLIError("PARSE_ERROR", lifecycle.ExitDataError,
			"failed to parse workflow document", "check the file is valid JSON", err)
	}

	var target *workflow.Node
	for _, n := range parsed.Workflow.Nodes {
		if n.Name == nodeName {
			target = n
			break
		}
	}
	if target == nil {
		return lifecycle.NewCLIError("TARGET_NODE_MISSING", lifecycle.ExitDataError,
			fmt.Sprintf("no node named %q", nodeName), "check the node name in the workflow file", nil)
	}

	result, err := migration.MigrateNode(target, to)
	if err != nil {
		return lifecycle.NewCLIError("MIGRATION_ERROR", lifecycle.ExitDataError, "migration failed", "", err)
	}

	out := output{
		Node:            nodeName,
		FromVersion:     result.FromVersion,
		ToVersion:       result.ToVersion,
		Applied:         len(result.AppliedMigrations),
		RemainingIssues: len(result.RemainingIssues),
		RequiresReview:  len(result.RemainingIssues) > 0,
	}

	if apply {
		serialized, err := workflow.Serialize(parsed.Workflow)
		if err != nil {
			return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to serialize migrated workflow", "", err)
		}
		if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
			return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to write migrated workflow", "", err)
		}
		out.SavedTo = path
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s -> %s (%d applied, %d requiring manual review)\n",
		out.Node, out.FromVersion, out.ToVersion, out.Applied, out.RemainingIssues)
	if out.SavedTo != "" {
		fmt.Fprintf(w, "saved to %s\n", out.SavedTo)
	}
	return nil
}
