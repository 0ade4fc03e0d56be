package diff_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/n8nctl/n8nctl/internal/diff"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseWorkflow() *workflow.Workflow {
	wf := &workflow.Workflow{
		Name: "demo",
		Nodes: []*workflow.Node{
			{ID: "1", Name: "Start", Type: "nodes-base.manualTrigger", TypeVersion: 1},
			{ID: "2", Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4},
		},
		Connections: map[string]workflow.ConnectionGroup{
			"Start": {"main": []workflow.ConnectionSlot{{Targets: []workflow.ConnectionTarget{{Node: "HTTP", Type: "main", Index: 0}}}}},
		},
	}
	wf.Reindex()
	return wf
}

func alwaysValid(_ context.Context, _ *workflow.Workflow) (validator.Result, error) {
	return validator.Result{Valid: true}, nil
}

func TestApply_AtomicAbortsOnFailure(t *testing.T) {
	t.Run("Should leave workflow unchanged when an op fails without continueOnError", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{
			Operations: []diff.DiffOperation{
				{Type: diff.OpUpdateName, Name: "renamed"},
				{Type: diff.OpAddConnection, Connection: &diff.ConnectionRef{Source: "Missing", Target: "HTTP"}},
			},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "demo", wf.Name)
		assert.NotNil(t, res.Error)
		assert.Equal(t, diff.CodeTargetNodeMissing, res.Error.Code)
	})
}

func TestApply_ContinueOnError(t *testing.T) {
	t.Run("Should apply valid ops and report failures for invalid ones", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{
			ContinueOnError: true,
			Operations: []diff.DiffOperation{
				{Type: diff.OpUpdateName, Name: "renamed"},
				{Type: diff.OpAddConnection, Connection: &diff.ConnectionRef{Source: "Missing", Target: "HTTP"}},
			},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.NotNil(t, res.Workflow)
		assert.Equal(t, "renamed", res.Workflow.Name)
		assert.Equal(t, 1, res.OperationsApplied)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, 1, res.Failed[0].Index)
	})
}

func TestApply_ValidateOnly(t *testing.T) {
	t.Run("Should not mutate the original and report per-op validity", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{
			ValidateOnly: true,
			Operations: []diff.DiffOperation{
				{Type: diff.OpDisableNode, NodeName: "HTTP"},
				{Type: diff.OpRemoveNode, NodeName: "Nope"},
			},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.Len(t, res.Validities, 2)
		assert.True(t, res.Validities[0].Valid)
		assert.False(t, res.Validities[1].Valid)
		assert.False(t, wf.NodeByName("HTTP").Disabled)
	})
}

func TestApply_AddNode(t *testing.T) {
	t.Run("Should append a new node with a generated id", func(t *testing.T) {
		wf := baseWorkflow()
		node, err := json.Marshal(map[string]any{"name": "Set", "type": "nodes-base.set", "typeVersion": 3})
		require.NoError(t, err)
		req := diff.DiffRequest{Operations: []diff.DiffOperation{{Type: diff.OpAddNode, Node: node}}}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		require.True(t, res.Success)
		added := res.Workflow.NodeByName("Set")
		require.NotNil(t, added)
		assert.NotEmpty(t, added.ID)
	})

	t.Run("Should reject a name collision without allowOverwrite", func(t *testing.T) {
		wf := baseWorkflow()
		node, err := json.Marshal(map[string]any{"name": "HTTP", "type": "nodes-base.set"})
		require.NoError(t, err)
		req := diff.DiffRequest{Operations: []diff.DiffOperation{{Type: diff.OpAddNode, Node: node}}}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, diff.CodeNameCollision, res.Error.Code)
	})
}

func TestApply_RemoveNodeClearsConnections(t *testing.T) {
	t.Run("Should drop connections touching the removed node", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{Operations: []diff.DiffOperation{{Type: diff.OpRemoveNode, NodeName: "HTTP"}}}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Nil(t, res.Workflow.NodeByName("HTTP"))
		assert.Empty(t, res.Workflow.Connections["Start"]["main"][0].Targets)
	})
}

func TestApply_RewireConnectionRollsBackOnFailure(t *testing.T) {
	t.Run("Should leave the original connection intact if the new target is missing", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{
			Operations: []diff.DiffOperation{{
				Type:       diff.OpRewireConnection,
				Connection: &diff.ConnectionRef{Source: "Start", Target: "HTTP"},
				NewTarget:  &diff.ConnectionRef{Source: "Start", Target: "Missing"},
			}},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		assert.False(t, res.Success)
	})
}

func TestApply_ActivationFlags(t *testing.T) {
	t.Run("Should surface shouldActivate without mutating active directly", func(t *testing.T) {
		wf := baseWorkflow()
		req := diff.DiffRequest{Operations: []diff.DiffOperation{{Type: diff.OpActivateWorkflow}}}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.True(t, res.ShouldActivate)
		assert.False(t, res.Workflow.Active)
	})
}

func TestApply_RevalidationBlocksSubmission(t *testing.T) {
	t.Run("Should mark the result unsuccessful when re-validation fails", func(t *testing.T) {
		wf := baseWorkflow()
		rejecting := func(_ context.Context, _ *workflow.Workflow) (validator.Result, error) {
			return validator.Result{Valid: false, Issues: []validator.ValidationIssue{{Code: "NO_TRIGGER_WHEN_ACTIVE", Severity: validator.SeverityError}}}, nil
		}
		req := diff.DiffRequest{Operations: []diff.DiffOperation{{Type: diff.OpUpdateName, Name: "x"}}}
		res, err := diff.Apply(t.Context(), wf, req, rejecting)
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, "VALIDATION_REJECTED", res.Error.Code)
	})
}

func TestApply_SkipValidation(t *testing.T) {
	t.Run("Should not call the validator when SkipValidation is set", func(t *testing.T) {
		wf := baseWorkflow()
		called := false
		tracking := func(ctx context.Context, w *workflow.Workflow) (validator.Result, error) {
			called = true
			return alwaysValid(ctx, w)
		}
		req := diff.DiffRequest{SkipValidation: true, Operations: []diff.DiffOperation{{Type: diff.OpUpdateName, Name: "x"}}}
		_, err := diff.Apply(t.Context(), wf, req, tracking)
		require.NoError(t, err)
		assert.False(t, called)
	})
}

func TestApply_UpdateSettingsDeepMerge(t *testing.T) {
	t.Run("Should merge nested settings keys without dropping siblings", func(t *testing.T) {
		wf := baseWorkflow()
		wf.Settings = map[string]workflow.Value{
			"errorWorkflow": workflow.NewValue(map[string]any{
				"id":   "123",
				"name": "old-name",
			}),
		}
		patch, err := json.Marshal(map[string]any{
			"errorWorkflow": map[string]any{"name": "new-name"},
		})
		require.NoError(t, err)
		req := diff.DiffRequest{
			Operations: []diff.DiffOperation{{Type: diff.OpUpdateSettings, Settings: patch}},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		require.True(t, res.Success)

		errorWorkflow, ok := res.Workflow.Settings["errorWorkflow"].Object()
		require.True(t, ok)
		name, _ := errorWorkflow["name"].String()
		assert.Equal(t, "new-name", name)
		id, _ := errorWorkflow["id"].String()
		assert.Equal(t, "123", id, "sibling key must survive a nested-key update")
	})

	t.Run("Should replace a top-level key wholesale when it is not an object merge", func(t *testing.T) {
		wf := baseWorkflow()
		wf.Settings = map[string]workflow.Value{
			"timezone": workflow.NewValue("UTC"),
		}
		patch, err := json.Marshal(map[string]any{"timezone": "America/New_York"})
		require.NoError(t, err)
		req := diff.DiffRequest{
			Operations: []diff.DiffOperation{{Type: diff.OpUpdateSettings, Settings: patch}},
		}
		res, err := diff.Apply(t.Context(), wf, req, alwaysValid)
		require.NoError(t, err)
		require.True(t, res.Success)
		tz, _ := res.Workflow.Settings["timezone"].String()
		assert.Equal(t, "America/New_York", tz)
	})
}
