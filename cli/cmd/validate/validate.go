// Package validate implements `n8nctl validate`.
package validate

import (
	"fmt"
	"os"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

// output is validate's stable JSON shape: {valid, source, errors,
// warnings, issues, fixed}.
type output struct {
	Valid    bool                        `json:"valid"`
	Source   string                      `json:"source"`
	Errors   []validator.ValidationIssue `json:"errors"`
	Warnings []validator.ValidationIssue `json:"warnings"`
	Issues   []validator.ValidationIssue `json:"issues"`
	Fixed    bool                        `json:"fixed"`
}

func NewCommand() *cobra.Command {
	var profile string
	var mode string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an n8n workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], profile, mode)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "validation profile (minimal|runtime|ai-friendly|strict)")
	// mode is accepted for parity with the diff/autofix re-validation
	// passes but validate always runs the full C5+C6 pass today.
	cmd.Flags().StringVar(&mode, "mode", "full", "check mode (full|operation|minimal)")
	return cmd
}

func run(cmd *cobra.Command, path, profileFlag, _ string) error {
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
		return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError,
			"failed to read input file", "", err)
	}

	parsed, err := workflow.Parse(string(raw), workflow.ParseOptions{Repair: true})
	if err != nil {
		return parseErrorToCLIError(err)
	}

	profile := validator.Profile(profileFlag)
	if profile == "" {
		profile = validator.Profile(app.Config.Validation.Profile)
	}

	result, err := validator.Validate(ctx, parsed.Workflow, app.Catalog, profile, parsed.Source, parsed.Index)
	if err != nil {
		return lifecycle.NewCLIError("VALIDATION_ERROR", lifecycle.ExitDataError,
			"validation could not run", "", err)
	}

	out := output{
		Valid:    result.Valid,
		Source:   parsed.Stage,
		Errors:   orEmpty(result.Errors()),
		Warnings: orEmpty(result.Warnings()),
		Issues:   orEmpty(result.Issues),
		Fixed:    parsed.Repaired,
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		if err := f.Write(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		printHuman(cmd, out)
	}

	if !result.Valid {
		return lifecycle.NewCLIError("VALIDATION_FAILED", lifecycle.ExitDataError,
			fmt.Sprintf("%d validation error(s)", len(out.Errors)),
			"run with --json to see the full issue list", nil)
	}
	return nil
}

func orEmpty(issues []validator.ValidationIssue) []validator.ValidationIssue {
	if issues == nil {
		return []validator.ValidationIssue{}
	}
	return issues
}

func printHuman(cmd *cobra.Command, out output) {
	w := cmd.OutOrStdout()
	if out.Valid {
		fmt.Fprintln(w, "valid")
		return
	}
	fmt.Fprintf(w, "invalid: %d error(s), %d warning(s)\n", len(out.Errors), len(out.Warnings))
	for i, issue := range out.Errors {
		if i >= 10 {
			fmt.Fprintf(w, "  ... %d more errors (use --json for the full list)\n", len(out.Errors)-10)
			break
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Code, issue.Location.NodeName, issue.Message)
	}
	for i, issue := range out.Warnings {
		if i >= 10 {
			fmt.Fprintf(w, "  ... %d more warnings (use --json for the full list)\n", len(out.Warnings)-10)
			break
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Code, issue.Location.NodeName, issue.Message)
	}
}

func parseErrorToCLIError(err error) error {
	if pf, ok := err.(*workflow.ParseFailure); ok {
		return lifecycle.NewCLIError(string(pf.Code), lifecycle.ExitDataError,
			"failed to parse workflow document", "check the file is valid JSON", pf)
	}
	return lifecycle.NewCLIError(string(workflow.ErrParseError), lifecycle.ExitDataError,
		"failed to parse workflow document", "", err)
}
