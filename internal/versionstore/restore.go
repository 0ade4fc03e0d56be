package versionstore

import (
	"context"
	"fmt"

	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Validator is the subset of validator.Validate the restore protocol
// needs to check a target snapshot before pushing it.
type Validator func(ctx context.Context, wf *workflow.Workflow) (validator.Result, error)

// Restore implements the restore protocol:
//  1. Fetch the current workflow from the collaborator.
//  2. Create a pre-restore backup (trigger=manual, metadata notes
//     "pre-rollback"). This record is the recovery point; it is never
//     silently discarded, even if a later step fails.
//  3. Validate the target snapshot at the runtime profile, unless
//     validate is false.
//  4. Push the snapshot via the collaborator's UpdateWorkflow.
//
// versionNumber of 0 restores the latest recorded version.
func (s *Store) Restore(
	ctx context.Context,
	cp controlplane.ControlPlane,
	validate Validator,
	workflowID string,
	versionNumber int,
	doValidate bool,
) (RestoreResult, error) {
	current, err := cp.GetWorkflow(ctx, workflowID)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("versionstore: restore: fetch current workflow: %w", err)
	}

	preRestore, err := s.CreateBackup(ctx, workflowID, current, TriggerManual,
		map[string]string{"note": "pre-rollback"})
	if err != nil {
		return RestoreResult{}, fmt.Errorf("versionstore: restore: pre-restore backup: %w", err)
	}

	target, err := s.getByNumber(ctx, workflowID, versionNumber)
	if err != nil {
		// The recovery point already exists even though the restore
		// itself never proceeded past lookup; surface it to the caller
		// instead of returning a bare error.
		return RestoreResult{PreRestoreBackup: &preRestore}, fmt.Errorf(
			"versionstore: restore: locate target version: %w", err)
	}

	if doValidate && validate != nil {
		result, err := validate(ctx, target.Snapshot)
		if err != nil {
			return RestoreResult{PreRestoreBackup: &preRestore}, fmt.Errorf(
				"versionstore: restore: validate target snapshot: %w", err)
		}
		if !result.Valid {
			return RestoreResult{PreRestoreBackup: &preRestore}, fmt.Errorf(
				"versionstore: restore: target snapshot fails validation: %d error(s)", len(result.Errors()))
		}
	}

	updated, err := cp.UpdateWorkflow(ctx, workflowID, target.Snapshot)
	if err != nil {
		return RestoreResult{PreRestoreBackup: &preRestore}, fmt.Errorf(
			"versionstore: restore: push snapshot: %w", err)
	}

	return RestoreResult{
		PreRestoreBackup: &preRestore,
		RestoredVersion:  &target,
		Workflow:         updated,
	}, nil
}
