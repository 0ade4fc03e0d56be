package versionstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/versionstore"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *versionstore.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := versionstore.Open(t.Context(), filepath.Join(dir, "versions.db"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close(t.Context())) })
	return store
}

func sampleWorkflow(name string) *workflow.Workflow {
	wf := &workflow.Workflow{
		Name: name,
		Nodes: []*workflow.Node{
			{ID: "1", Name: "Start", Type: "nodes-base.manualTrigger", TypeVersion: 1},
		},
		Connections: map[string]workflow.ConnectionGroup{},
	}
	wf.Reindex()
	return wf
}

func TestCreateBackup(t *testing.T) {
	t.Run("Should assign strictly increasing version numbers per workflow", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		first, err := store.CreateBackup(ctx, "wf-1", sampleWorkflow("a"), versionstore.TriggerManual, nil)
		require.NoError(t, err)
		second, err := store.CreateBackup(ctx, "wf-1", sampleWorkflow("b"), versionstore.TriggerAutofix, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, first.VersionNumber)
		assert.Equal(t, 2, second.VersionNumber)
	})

	t.Run("Should snapshot independently of later mutation of the source workflow", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		wf := sampleWorkflow("original")
		rec, err := store.CreateBackup(ctx, "wf-2", wf, versionstore.TriggerManual, nil)
		require.NoError(t, err)
		wf.Name = "mutated-after-backup"
		fetched, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", fetched.Snapshot.Name)
	})
}

func TestListAndGetVersions(t *testing.T) {
	t.Run("Should list newest first and respect a limit", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		for i := 0; i < 3; i++ {
			_, err := store.CreateBackup(ctx, "wf-3", sampleWorkflow("x"), versionstore.TriggerManual, nil)
			require.NoError(t, err)
		}
		list, err := store.ListVersions(ctx, "wf-3", 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 3, list[0].VersionNumber)
		assert.Equal(t, 2, list[1].VersionNumber)
	})

	t.Run("Should return ErrNotFound for an unknown version id", func(t *testing.T) {
		store := openTestStore(t)
		_, err := store.Get(t.Context(), "does-not-exist")
		assert.ErrorIs(t, err, versionstore.ErrNotFound)
	})
}

func TestPrune(t *testing.T) {
	t.Run("Should keep only the newest N versions", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		for i := 0; i < 5; i++ {
			_, err := store.CreateBackup(ctx, "wf-4", sampleWorkflow("x"), versionstore.TriggerManual, nil)
			require.NoError(t, err)
		}
		deleted, err := store.Prune(ctx, "wf-4", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
		remaining, err := store.ListVersions(ctx, "wf-4", 0)
		require.NoError(t, err)
		require.Len(t, remaining, 2)
		assert.Equal(t, 5, remaining[0].VersionNumber)
		assert.Equal(t, 4, remaining[1].VersionNumber)
	})
}

func TestCompare(t *testing.T) {
	t.Run("Should report added, removed, and modified nodes", func(t *testing.T) {
		before := sampleWorkflow("a")
		after := sampleWorkflow("a")
		after.Nodes = append(after.Nodes, &workflow.Node{ID: "2", Name: "New", Type: "nodes-base.set", TypeVersion: 1})
		after.Nodes[0].Disabled = true
		result := versionstore.Compare(versionstore.Record{Snapshot: before}, versionstore.Record{Snapshot: after})
		assert.Equal(t, []string{"New"}, result.AddedNodes)
		assert.Equal(t, []string{"Start"}, result.ModifiedNodes)
		assert.Empty(t, result.RemovedNodes)
	})
}

func TestStats(t *testing.T) {
	t.Run("Should aggregate totals across workflows", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		_, err := store.CreateBackup(ctx, "wf-5", sampleWorkflow("a"), versionstore.TriggerManual, nil)
		require.NoError(t, err)
		_, err = store.CreateBackup(ctx, "wf-6", sampleWorkflow("b"), versionstore.TriggerManual, nil)
		require.NoError(t, err)
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalVersions)
		assert.Len(t, stats.PerWorkflow, 2)
	})
}

type fakeControlPlane struct {
	controlplane.ControlPlane
	current *workflow.Workflow
	updated *workflow.Workflow
}

func (f *fakeControlPlane) GetWorkflow(_ context.Context, _ string) (*workflow.Workflow, error) {
	return f.current, nil
}

func (f *fakeControlPlane) UpdateWorkflow(_ context.Context, _ string, wf *workflow.Workflow) (*workflow.Workflow, error) {
	f.updated = wf
	return wf, nil
}

func TestRestore(t *testing.T) {
	t.Run("Should create a pre-restore backup before pushing the target snapshot", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		target, err := store.CreateBackup(ctx, "wf-7", sampleWorkflow("v1"), versionstore.TriggerManual, nil)
		require.NoError(t, err)

		cp := &fakeControlPlane{current: sampleWorkflow("current-live-state")}
		alwaysValid := func(_ context.Context, _ *workflow.Workflow) (validator.Result, error) {
			return validator.Result{Valid: true}, nil
		}

		result, err := store.Restore(ctx, cp, alwaysValid, "wf-7", target.VersionNumber, true)
		require.NoError(t, err)
		require.NotNil(t, result.PreRestoreBackup)
		assert.Equal(t, versionstore.TriggerManual, result.PreRestoreBackup.Trigger)
		assert.Equal(t, "pre-rollback", result.PreRestoreBackup.Metadata["note"])

		versions, err := store.ListVersions(ctx, "wf-7", 0)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
		assert.Equal(t, "v1", cp.updated.Name)
	})

	t.Run("Should keep the pre-restore backup even if the target fails validation", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		target, err := store.CreateBackup(ctx, "wf-8", sampleWorkflow("broken"), versionstore.TriggerManual, nil)
		require.NoError(t, err)

		cp := &fakeControlPlane{current: sampleWorkflow("current")}
		rejecting := func(_ context.Context, _ *workflow.Workflow) (validator.Result, error) {
			return validator.Result{Valid: false, Issues: []validator.ValidationIssue{{Code: "X", Severity: validator.SeverityError}}}, nil
		}

		result, err := store.Restore(ctx, cp, rejecting, "wf-8", target.VersionNumber, true)
		require.Error(t, err)
		require.NotNil(t, result.PreRestoreBackup)

		versions, err := store.ListVersions(ctx, "wf-8", 0)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
		assert.Nil(t, cp.updated)
	})
}
