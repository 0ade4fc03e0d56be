// Package autofix implements `n8nctl autofix`.
package autofix

import (
	"fmt"
	"os"
	"strings"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/autofix"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

type fixSummary struct {
	Total        int                         `json:"total"`
	Applied      int                         `json:"applied"`
	Skipped      int                         `json:"skipped"`
	ByConfidence map[autofix.Confidence]int  `json:"byConfidence"`
	ByType       map[autofix.FixType]int     `json:"byType"`
}

type output struct {
	Success            bool                         `json:"success"`
	Fixes              fixSummary                   `json:"fixes"`
	Operations         []autofix.FixOperation        `json:"operations"`
	PostUpdateGuidance []autofix.PostUpdateGuidance   `json:"postUpdateGuidance,omitempty"`
	SavedTo            string                         `json:"savedTo,omitempty"`
}

func NewCommand() *cobra.Command {
	var apply bool
	var confidence string
	var maxFixes int
	var types string
	var upgradeVersions bool
	var profile string

	cmd := &cobra.Command{
		Use:   "autofix <file>",
		Short: "Preview or apply automatic fixes to a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts{
				apply:           apply,
				confidence:      confidence,
				maxFixes:        maxFixes,
				types:           types,
				upgradeVersions: upgradeVersions,
				profile:         profile,
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "write fixes back to the file instead of previewing them")
	cmd.Flags().StringVar(&confidence, "confidence", "medium", "minimum confidence to include (high|medium|low)")
	cmd.Flags().IntVar(&maxFixes, "max-fixes", 0, "cap the number of fixes applied (0 = unlimited)")
	cmd.Flags().StringVar(&types, "types", "", "comma-separated fix types to restrict to")
	cmd.Flags().BoolVar(&upgradeVersions, "upgrade-versions", false, "also propose typeVersion upgrades")
	cmd.Flags().StringVar(&profile, "profile", "", "validation profile used to gather issues (minimal|runtime|ai-friendly|strict)")
	return cmd
}

type opts struct {
	apply           bool
	confidence      string
	maxFixes        int
	types           string
	upgradeVersions bool
	profile         string
}

func run(cmd *cobra.Command, path string, o opts) error {
	ctx := cmd.Context()
	app, err := appctx.Open(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	if err := app.RequireCatalog(); err != nil {
		return err
	}

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

	profile := validator.Profile(o.profile)
	if profile == "" {
		profile = validator.Profile(app.Config.Validation.Profile)
	}
	valResult, err := validator.Validate(ctx, parsed.Workflow, app.Catalog, profile, parsed.Source, parsed.Index)
	if err != nil {
		return lifecycle.NewCLIError("VALIDATION_ERROR", lifecycle.ExitDataError, "validation could not run", "", err)
	}

	fixOpts := autofix.Options{
		ConfidenceThreshold: autofix.Confidence(o.confidence),
		MaxFixes:            o.maxFixes,
		Apply:               o.apply,
		UpgradeVersions:      o.upgradeVersions,
	}
	if o.types != "" {
		for _, t := range strings.Split(o.types, ",") {
			fixOpts.FixTypes = append(fixOpts.FixTypes, autofix.FixType(strings.TrimSpace(t)))
		}
	}

	result, err := autofix.Run(ctx, parsed.Workflow, valResult, app.Catalog, fixOpts)
	if err != nil {
		return lifecycle.NewCLIError("AUTOFIX_ERROR", lifecycle.ExitDataError, "autofix could not run", "", err)
	}

	out := output{
		Success: true,
		Fixes: fixSummary{
			Total:        len(result.Fixes),
			Applied:      result.AppliedCount,
			Skipped:      result.SkippedCount,
			ByConfidence: result.Stats.ByConfidence,
			ByType:       result.Stats.ByType,
		},
		Operations:         result.Fixes,
		PostUpdateGuidance: result.Guidance,
	}

	if o.apply && result.Workflow != nil {
		serialized, err := workflow.Serialize(result.Workflow)
		if err != nil {
			return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to serialize fixed workflow", "", err)
		}
		if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
			return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to write fixed workflow", "", err)
		}
		out.SavedTo = path
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}
	printHuman(cmd, out)
	return nil
}

func printHuman(cmd *cobra.Command, out output) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d fix(es) found, %d applied, %d skipped\n", out.Fixes.Total, out.Fixes.Applied, out.Fixes.Skipped)
	for _, op := range out.Operations {
		fmt.Fprintf(w, "  [%s/%s] %s: %s\n", op.Confidence, op.FixType, op.NodeName, op.Description)
	}
	if out.SavedTo != "" {
		fmt.Fprintf(w, "saved to %s\n", out.SavedTo)
	}
}
