// Package versionscmd implements `n8nctl versions`.
package versionscmd

import (
	"context"
	"fmt"

	"github.com/n8nctl/n8nctl/cli/cmd/appctx"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/versionstore"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect and manage the local version store",
	}
	cmd.AddCommand(
		newListCommand(),
		newGetCommand(),
		newCompareCommand(),
		newPruneCommand(),
		newStatsCommand(),
		newRestoreCommand(),
		newRmCommand(),
	)
	return cmd
}

func openApp(cmd *cobra.Command) (*appctx.App, error) {
	return appctx.Open(cmd)
}

func newListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <workflowId>",
		Short: "List recorded versions for a workflow, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			records, err := app.Versions.ListVersions(ctx, args[0], limit)
			if err != nil {
				return lifecycle.NewCLIError("VERSION_STORE_ERROR", lifecycle.ExitDataError, "failed to list versions", "", err)
			}
			out := struct {
				WorkflowID string               `json:"workflowId"`
				Versions   []versionstore.Record `json:"versions"`
			}{WorkflowID: args[0], Versions: orEmptyRecords(records)}

			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			for _, r := range out.Versions {
				fmt.Fprintf(w, "  v%d  %s  %s\n", r.VersionNumber, r.Trigger, r.CreatedAt)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum versions to return (0 = unbounded)")
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <versionId>",
		Short: "Fetch a single version record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			rec, err := app.Versions.Get(ctx, args[0])
			if err != nil {
				return versionStoreErr(err, "failed to fetch version")
			}
			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "v%d (%s) for %s, created %s\n",
				rec.VersionNumber, rec.Trigger, rec.WorkflowID, rec.CreatedAt)
			return nil
		},
	}
}

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <versionId1> <versionId2>",
		Short: "Diff the node/connection/setting contents of two version records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			v1, err := app.Versions.Get(ctx, args[0])
			if err != nil {
				return versionStoreErr(err, "failed to fetch first version")
			}
			v2, err := app.Versions.Get(ctx, args[1])
			if err != nil {
				return versionStoreErr(err, "failed to fetch second version")
			}
			result := versionstore.Compare(v1, v2)

			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), result)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "added: %v\n", result.AddedNodes)
			fmt.Fprintf(w, "removed: %v\n", result.RemovedNodes)
			fmt.Fprintf(w, "modified: %v\n", result.ModifiedNodes)
			fmt.Fprintf(w, "connection changes: %d\n", result.ConnectionChanges)
			return nil
		},
	}
}

func newPruneCommand() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune <workflowId>",
		Short: "Keep only the newest N versions for a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			deleted, err := app.Versions.Prune(ctx, args[0], keep)
			if err != nil {
				return lifecycle.NewCLIError("VERSION_STORE_ERROR", lifecycle.ExitDataError, "prune failed", "", err)
			}
			out := struct {
				WorkflowID string `json:"workflowId"`
				Deleted    int    `json:"deleted"`
				Kept       int    `json:"kept"`
			}{WorkflowID: args[0], Deleted: deleted, Kept: keep}
			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d version(s), kept %d\n", deleted, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "number of newest versions to retain")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the whole version store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			stats, err := app.Versions.Stats(ctx)
			if err != nil {
				return lifecycle.NewCLIError("VERSION_STORE_ERROR", lifecycle.ExitDataError, "failed to gather stats", "", err)
			}
			if appctx.JSONMode(cmd) {
				f := helpers.NewJSONFormatter(true)
				return f.Write(cmd.OutOrStdout(), stats)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d version(s) across %d workflow(s), %d bytes total\n",
				stats.TotalVersions, len(stats.PerWorkflow), stats.TotalSize)
			return nil
		},
	}
}

func newRmCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm <versionId|workflowId>",
		Short: "Delete a single version, or every version for a workflow with --all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if all {
				if err := app.Versions.DeleteAllVersions(ctx, args[0]); err != nil {
					return lifecycle.NewCLIError("VERSION_STORE_ERROR", lifecycle.ExitDataError, "failed to delete versions", "", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted every version for %s\n", args[0])
				return nil
			}
			if err := app.Versions.DeleteVersion(ctx, args[0]); err != nil {
				return versionStoreErr(err, "failed to delete version")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "treat the argument as a workflowId and delete every version")
	return cmd
}

func newRestoreCommand() *cobra.Command {
	var versionNumber int
	var skipValidate bool
	cmd := &cobra.Command{
		Use:   "restore <workflowId>",
		Short: "Push a recorded version back to the control plane, snapshotting the current state first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, args[0], versionNumber, !skipValidate)
		},
	}
	cmd.Flags().IntVar(&versionNumber, "version", 0, "version number to restore (0 = latest recorded)")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "push the target snapshot without re-validating it first")
	return cmd
}

func runRestore(cmd *cobra.Command, workflowID string, versionNumber int, doValidate bool) error {
	ctx := cmd.Context()
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	if err := app.RequireCatalog(); err != nil {
		return err
	}

	cp, err := app.ControlPlane()
	if err != nil {
		return err
	}

	validate := func(ctx context.Context, wf *workflow.Workflow) (validator.Result, error) {
		return validator.Validate(ctx, wf, app.Catalog, validator.ProfileRuntime, "", workflow.PathIndex{})
	}

	var result versionstore.RestoreResult
	err = lifecycle.Retry(ctx, lifecycle.DefaultRetryPolicy(), func(ctx context.Context) error {
		var innerErr error
		result, innerErr = app.Versions.Restore(ctx, cp, validate, workflowID, versionNumber, doValidate)
		return innerErr
	})
	if err != nil {
		return lifecycle.NewCLIError("RESTORE_FAILED", lifecycle.ExitProtocolError,
			"restore failed", "the pre-restore backup was still recorded; inspect it with `versions list`", err)
	}

	if appctx.JSONMode(cmd) {
		f := helpers.NewJSONFormatter(true)
		return f.Write(cmd.OutOrStdout(), result)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "restored %s to v%d (pre-restore backup v%d saved)\n",
		workflowID, result.RestoredVersion.VersionNumber, result.PreRestoreBackup.VersionNumber)
	return nil
}

func versionStoreErr(err error, message string) error {
	if err == versionstore.ErrNotFound {
		return lifecycle.NewCLIError("NOT_FOUND", lifecycle.ExitDataError, message, "check the id and try again", err)
	}
	return lifecycle.NewCLIError("VERSION_STORE_ERROR", lifecycle.ExitDataError, message, "", err)
}

func orEmptyRecords(r []versionstore.Record) []versionstore.Record {
	if r == nil {
		return []versionstore.Record{}
	}
	return r
}
