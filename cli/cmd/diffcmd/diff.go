// Package diffcmd implements `n8nctl diff`.
package diffcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/diff"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

type data struct {
	WorkflowID        string             `json:"workflowId"`
	OperationsApplied int                `json:"operationsApplied"`
	OperationsFailed  int                `json:"operationsFailed"`
	Workflow          *workflow.Workflow `json:"workflow,omitempty"`
	Activated         *bool              `json:"activated,omitempty"`
	Deactivated       *bool              `json:"deactivated,omitempty"`
}

type output struct {
	Success bool              `json:"success"`
	Data    *data             `json:"data,omitempty"`
	Error   *helpers.JSONError `json:"error,omitempty"`
}

func NewCommand() *cobra.Command {
	var opsPath string
	var validateOnly bool
	var continueOnError bool

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Apply a batch of typed operations to a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opsPath, validateOnly, continueOnError)
		},
	}
	cmd.Flags().StringVar(&opsPath, "ops", "", "path to a JSON file of diff operations (required)")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "report per-operation validity without mutating the workflow")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "apply every valid operation instead of aborting on the first failure")
	cmd.MarkFlagRequired("ops")
	return cmd
}

func run(cmd *cobra.Command, path, opsPath string, validateOnly, continueOnError bool) error {
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

	req, err := loadRequest(opsPath)
	if err != nil {
		return lifecycle.NewCLIError("INVALID_OPERATION_TYPE", lifecycle.ExitDataError,
			"failed to read operations file", "", err)
	}
	req.ValidateOnly = validateOnly
	req.ContinueOnError = continueOnError

	validate := func(ctx context.Context, wf *workflow.Workflow) (validator.Result, error) {
		return validator.Validate(ctx, wf, app.Catalog, validator.Profile(app.Config.Validation.Profile), "", workflow.PathIndex{})
	}

	result, err := diff.Apply(ctx, parsed.Workflow, req, validate)
	if err != nil {
		return lifecycle.NewCLIError("DIFF_ERROR", lifecycle.ExitDataError, "diff could not run", "", err)
	}

	if validateOnly {
		return reportValidateOnly(cmd, result)
	}

	if !result.Success {
		out := output{Success: false}
		if result.Error != nil {
			out.Error = &helpers.JSONError{Code: result.Error.Code, Message: result.Error.Message}
		}
		if appctx.JSONMode(cmd) {
			f := helpers.NewJSONFormatter(true)
			_ = f.Write(cmd.OutOrStdout(), out)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "diff failed: %s\n", errMessage(result.Error))
		}
		exit := lifecycle.ExitDataError
		code := "VALIDATION_REJECTED"
		if result.Error != nil {
			code = result.Error.Code
		}
		return lifecycle.NewCLIError(code, exit, "diff operations failed", "run with --continue-on-error to apply the valid subset", nil)
	}

	if !validateOnly {
		if err := pushToControlPlane(ctx, app, req.WorkflowID, result); err != nil {
			return err
		}
		if err := writeBack(path, result.Workflow); err != nil {
			return err
		}
	}

	out := output{
		Success: true,
		Data: &data{
			WorkflowID:        req.WorkflowID,
			OperationsApplied: result.OperationsApplied,
			OperationsFailed:  len(result.Failed),
			Workflow:          result.Workflow,
			Activated:         optionalTrue(result.ShouldActivate),
			Deactivated:       optionalTrue(result.ShouldDeactivate),
		},
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d operation(s) applied, %d failed\n", out.Data.OperationsApplied, out.Data.OperationsFailed)
	return nil
}

// pushToControlPlane only runs when the diff targets a workflow already
// known to the collaborator (req.WorkflowID set); a bare local file edit
// has nothing to push.
func pushToControlPlane(ctx context.Context, app *appctx.App, workflowID string, result diff.Result) error {
	if workflowID == "" {
		return nil
	}
	cp, err := app.ControlPlane()
	if err != nil {
		return err
	}
	if err := lifecycle.Retry(ctx, lifecycle.DefaultRetryPolicy(), func(ctx context.Context) error {
		_, err := cp.UpdateWorkflow(ctx, workflowID, result.Workflow)
		return err
	}); err != nil {
		return lifecycle.NewCLIError("CONNECTION_ERROR", lifecycle.ExitProtocolError,
			"failed to push updated workflow", "check connectivity to the control plane", err)
	}
	if result.ShouldActivate {
		if err := cp.Activate(ctx, workflowID); err != nil {
			return lifecycle.NewCLIError("CONNECTION_ERROR", lifecycle.ExitProtocolError, "failed to activate workflow", "", err)
		}
	}
	if result.ShouldDeactivate {
		if err := cp.Deactivate(ctx, workflowID); err != nil {
			return lifecycle.NewCLIError("CONNECTION_ERROR", lifecycle.ExitProtocolError, "failed to deactivate workflow", "", err)
		}
	}
	return nil
}

func writeBack(path string, wf *workflow.Workflow) error {
	serialized, err := workflow.Serialize(wf)
	if err != nil {
		return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to serialize updated workflow", "", err)
	}
	if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
		return lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to write updated workflow", "", err)
	}
	return nil
}

func loadRequest(path string) (diff.DiffRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return diff.DiffRequest{}, err
	}
	var req diff.DiffRequest
	if err := json.Unmarshal(raw, &req); err == nil {
		return req, nil
	}
	// The object form {operations:[...]} failed; fall back to a bare [...] array.
	var ops []diff.DiffOperation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return diff.DiffRequest{}, fmt.Errorf("diffcmd: decode operations: %w", err)
	}
	return diff.DiffRequest{Operations: ops}, nil
}

func optionalTrue(b bool) *bool {
	if !b {
		return nil
	}
	return &b
}

type validateOnlyOutput struct {
	Success    bool               `json:"success"`
	Validities []diff.OpValidity `json:"validities"`
}

func reportValidateOnly(cmd *cobra.Command, result diff.Result) error {
	out := validateOnlyOutput{Success: result.Success, Validities: result.Validities}
	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	for _, v := range out.Validities {
		status := "valid"
		if !v.Valid {
			status = "invalid: " + v.Error
		}
		fmt.Fprintf(w, "  [%d] %s\n", v.Index, status)
	}
	return nil
}

func errMessage(e *diff.ResultError) string {
	if e == nil {
		return "unknown error"
	}
	return e.Message
}
