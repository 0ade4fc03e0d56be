// Package workflowcmd implements `n8nctl workflow`, the thin CRUD/activation
// surface over the control-plane collaborator.
package workflowcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Drive the remote control plane's workflow CRUD and activation surface",
	}
	cmd.AddCommand(
		newGetCommand(),
		newListCommand(),
		newActivateCommand(true),
		newActivateCommand(false),
		newCreateCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
		newExecutionsCommand(),
	)
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a workflow from the control plane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := appctx.Open(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			cp, err := app.ControlPlane()
			if err != nil {
				return err
			}
			wf, err := cp.GetWorkflow(ctx, args[0])
			if err != nil {
				return cpErr(err, "failed to fetch workflow")
			}
			return writeWorkflow(cmd, wf)
		},
	}
}

func newListCommand() *cobra.Command {
	var activeOnly, inactiveOnly bool
	var tags string
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows known to the control plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := appctx.Open(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			cp, err := app.ControlPlane()
			if err != nil {
				return err
			}

			filter := controlplane.ListFilter{Limit: limit, Cursor: cursor}
			if tags != "" {
				filter.Tags = strings.Split(tags, ",")
			}
			switch {
			case activeOnly:
				t := true
				filter.Active = &t
			case inactiveOnly:
				f := false
				filter.Active = &f
			}

			result, err := cp.ListWorkflows(ctx, filter)
			if err != nil {
				return cpErr(err, "failed to list workflows")
			}
			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), result)
			}
			w := cmd.OutOrStdout()
			for _, wf := range result.Workflows {
				fmt.Fprintf(w, "  %-36s %s\n", wf.ID, wf.Name)
			}
			if result.NextCursor != "" {
				fmt.Fprintf(w, "next cursor: %s\n", result.NextCursor)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only list active workflows")
	cmd.Flags().BoolVar(&inactiveOnly, "inactive", false, "only list inactive workflows")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags to filter by")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 = collaborator default)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "pagination cursor from a previous list call")
	return cmd
}

// newActivateCommand builds either `workflow activate` or `workflow
// deactivate`; both share the same bulk `--ids` fan-out shape
// (DefaultBulkConcurrency), differing only in which collaborator method
// they call per id.
func newActivateCommand(activate bool) *cobra.Command {
	use, short := "activate", "Activate one or more workflows"
	if !activate {
		use, short = "deactivate", "Deactivate one or more workflows"
	}
	var ids []string

	cmd := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := ids
			if len(args) == 1 {
				targets = append([]string{args[0]}, targets...)
			}
			if len(targets) == 0 {
				return lifecycle.NewCLIError("USAGE_ERROR", lifecycle.ExitUsageError,
					"no workflow id given", "pass an id argument or --ids id1,id2,...", nil)
			}
			return runBulkToggle(cmd, targets, activate)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma-separated workflow ids to process in bulk")
	return cmd
}

type toggleResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func runBulkToggle(cmd *cobra.Command, ids []string, activate bool) error {
	ctx := cmd.Context()
	app, err := appctx.Open(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	cp, err := app.ControlPlane()
	if err != nil {
		return err
	}

	results := lifecycle.BoundedRun(ctx, ids, lifecycle.DefaultBulkConcurrency, func(ctx context.Context, id string) toggleResult {
		var opErr error
		if activate {
			opErr = cp.Activate(ctx, id)
		} else {
			opErr = cp.Deactivate(ctx, id)
		}
		if opErr != nil {
			return toggleResult{ID: id, Success: false, Error: opErr.Error()}
		}
		return toggleResult{ID: id, Success: true}
	})

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		if err := f.Write(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(w, "  %s: ok\n", r.ID)
			} else {
				fmt.Fprintf(w, "  %s: failed: %s\n", r.ID, r.Error)
			}
		}
	}
	if failed > 0 {
		return lifecycle.NewCLIError("BULK_OPERATION_FAILED", lifecycle.ExitProtocolError,
			fmt.Sprintf("%d of %d operation(s) failed", failed, len(results)),
			"re-run with --json to see the per-id error detail", nil)
	}
	return nil
}

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <file>",
		Short: "Create a new workflow on the control plane from a local document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := appctx.Open(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			wf, err := readWorkflowFile(args[0])
			if err != nil {
				return err
			}
			cp, err := app.ControlPlane()
			if err != nil {
				return err
			}
			created, err := cp.CreateWorkflow(ctx, wf)
			if err != nil {
				return cpErr(err, "failed to create workflow")
			}
			return writeWorkflow(cmd, created)
		},
	}
}

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <file>",
		Short: "Push a local document to replace a workflow on the control plane",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := appctx.Open(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			wf, err := readWorkflowFile(args[1])
			if err != nil {
				return err
			}
			cp, err := app.ControlPlane()
			if err != nil {
				return err
			}
			var updated *workflow.Workflow
			err = lifecycle.Retry(ctx, lifecycle.DefaultRetryPolicy(), func(ctx context.Context) error {
				var innerErr error
				updated, innerErr = cp.UpdateWorkflow(ctx, args[0], wf)
				return innerErr
			})
			if err != nil {
				return cpErr(err, "failed to update workflow")
			}
			return writeWorkflow(cmd, updated)
		},
	}
}

func newDeleteCommand() *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one or more workflows from the control plane",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := ids
			if len(args) == 1 {
				targets = append([]string{args[0]}, targets...)
			}
			if len(targets) == 0 {
				return lifecycle.NewCLIError("USAGE_ERROR", lifecycle.ExitUsageError,
					"no workflow id given", "pass an id argument or --ids id1,id2,...", nil)
			}
			return runBulkDelete(cmd, targets)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma-separated workflow ids to delete in bulk")
	return cmd
}

func runBulkDelete(cmd *cobra.Command, ids []string) error {
	ctx := cmd.Context()
	app, err := appctx.Open(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	cp, err := app.ControlPlane()
	if err != nil {
		return err
	}

	results := lifecycle.BoundedRun(ctx, ids, lifecycle.DefaultBulkConcurrency, func(ctx context.Context, id string) toggleResult {
		if err := cp.DeleteWorkflow(ctx, id); err != nil {
			return toggleResult{ID: id, Success: false, Error: err.Error()}
		}
		return toggleResult{ID: id, Success: true}
	})

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		if err := f.Write(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(w, "  %s: deleted\n", r.ID)
			} else {
				fmt.Fprintf(w, "  %s: failed: %s\n", r.ID, r.Error)
			}
		}
	}
	if failed > 0 {
		return lifecycle.NewCLIError("BULK_OPERATION_FAILED", lifecycle.ExitProtocolError,
			fmt.Sprintf("%d of %d delete(s) failed", failed, len(results)), "", nil)
	}
	return nil
}

func newExecutionsCommand() *cobra.Command {
	var limit int
	return &cobra.Command{
		Use:   "executions <id>",
		Short: "List past executions of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := appctx.Open(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			cp, err := app.ControlPlane()
			if err != nil {
				return err
			}
			executions, err := cp.GetExecutions(ctx, args[0], limit)
			if err != nil {
				return cpErr(err, "failed to list executions")
			}
			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), executions)
			}
			w := cmd.OutOrStdout()
			for _, e := range executions {
				fmt.Fprintf(w, "  %s  %-10s %s\n", e.ID, e.Status, e.StartedAt)
			}
			return nil
		},
	}
}

func readWorkflowFile(path string) (*workflow.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lifecycle.NewCLIError("MISSING_INPUT", lifecycle.ExitMissingInput,
				fmt.Sprintf("no such file: %s", path), "check the path and try again", err)
		}
		return nil, lifecycle.NewCLIError("IO_ERROR", lifecycle.ExitIOError, "failed to read input file", "", err)
	}
	var wf workflow.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, lifecycle.NewCLIError("PARSE_ERROR", lifecycle.ExitDataError,
			"failed to parse workflow document", "check the file is valid JSON", err)
	}
	wf.Reindex()
	return &wf, nil
}

func writeWorkflow(cmd *cobra.Command, wf *workflow.Workflow) error {
	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), wf)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d node(s), active=%v\n", wf.Name, wf.ID, len(wf.Nodes), wf.Active)
	return nil
}

func cpErr(err error, message string) error {
	if cpe, ok := err.(*controlplane.Error); ok {
		exit := lifecycle.ExitProtocolError
		switch cpe.Class {
		case controlplane.ErrClassAuth:
			exit = lifecycle.ExitAuthError
		case controlplane.ErrClassValidation:
			exit = lifecycle.ExitDataError
		}
		return lifecycle.NewCLIError(cpe.Code, exit, message, "", cpe)
	}
	return lifecycle.NewCLIError("CONNECTION_ERROR", lifecycle.ExitProtocolError, message,
		"check connectivity to the control plane", err)
}
