package autofix_test

import (
	"context"
	"testing"

	"github.com/n8nctl/n8nctl/internal/autofix"
	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	defs map[string]catalog.NodeDefinition
}

func newFakeCatalog(defs ...catalog.NodeDefinition) *fakeCatalog {
	m := make(map[string]catalog.NodeDefinition, len(defs))
	for _, d := range defs {
		m[d.NodeType] = d
	}
	return &fakeCatalog{defs: m}
}

func (f *fakeCatalog) Get(_ context.Context, nodeType string) (*catalog.NodeDefinition, error) {
	d, ok := f.defs[workflow.NormalizeNodeType(nodeType)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func httpRequestDef(version float64) catalog.NodeDefinition {
	return catalog.NodeDefinition{NodeType: "nodes-base.httpRequest", DisplayName: "HTTP Request", Version: version, IsVersioned: true}
}

func TestRun_ExpressionFormatFix(t *testing.T) {
	t.Run("Should propose prepending '=' and apply it when Apply is set", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{
				Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4,
				Parameters: map[string]workflow.Value{"url": workflow.NewValue("{{ $json.url }}")},
			}},
		}
		result := validator.Result{Issues: []validator.ValidationIssue{{
			Code:     validator.CodeExpressionMissingPrefix,
			Severity: validator.SeverityError,
			Location: validator.Location{NodeName: "HTTP", Path: "nodes[0].parameters.url"},
			Context:  map[string]any{"value": "{{ $json.url }}", "expected": "={{ $json.url }}"},
		}}}

		res, err := autofix.Run(t.Context(), wf, result, newFakeCatalog(httpRequestDef(4)), autofix.Options{Apply: true})
		require.NoError(t, err)
		require.Len(t, res.Fixes, 1)
		assert.Equal(t, autofix.FixExpressionFormat, res.Fixes[0].FixType)
		assert.Equal(t, 1, res.AppliedCount)

		got := res.Workflow.NodeByName("HTTP").Parameters["url"]
		s, _ := got.String()
		assert.Equal(t, "={{ $json.url }}", s)
	})

	t.Run("Should not mutate the original workflow when Apply is false", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{
				Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4,
				Parameters: map[string]workflow.Value{"url": workflow.NewValue("{{ $json.url }}")},
			}},
		}
		result := validator.Result{Issues: []validator.ValidationIssue{{
			Code:     validator.CodeExpressionMissingPrefix,
			Location: validator.Location{NodeName: "HTTP", Path: "nodes[0].parameters.url"},
			Context:  map[string]any{"value": "{{ $json.url }}", "expected": "={{ $json.url }}"},
		}}}

		res, err := autofix.Run(t.Context(), wf, result, newFakeCatalog(httpRequestDef(4)), autofix.Options{Apply: false})
		require.NoError(t, err)
		require.Len(t, res.Fixes, 1)
		assert.Nil(t, res.Workflow)
		assert.Equal(t, 0, res.AppliedCount)

		s, _ := wf.Nodes[0].Parameters["url"].String()
		assert.Equal(t, "{{ $json.url }}", s, "original workflow must be untouched")
	})
}

func TestRun_TypeVersionCorrection(t *testing.T) {
	t.Run("Should clamp a typeVersion above the catalog max at medium confidence", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 99}},
		}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(httpRequestDef(4.2)), autofix.Options{Apply: true})
		require.NoError(t, err)
		require.Len(t, res.Fixes, 1)
		assert.Equal(t, autofix.FixTypeVersionCorrect, res.Fixes[0].FixType)
		assert.Equal(t, autofix.ConfidenceMedium, res.Fixes[0].Confidence)
		assert.Equal(t, 4.2, res.Workflow.Nodes[0].TypeVersion)
	})
}

func TestRun_VersionMigrationNeverApplied(t *testing.T) {
	t.Run("Should surface version-migration fixes but never apply them", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "HTTP", Type: "n8n-nodes-base.httpRequest", TypeVersion: 1}},
		}
		opts := autofix.Options{Apply: true, UpgradeVersions: true}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(httpRequestDef(4.2)), opts)
		require.NoError(t, err)

		var sawMigration bool
		for _, f := range res.Fixes {
			if f.FixType == autofix.FixVersionMigration {
				sawMigration = true
				assert.Equal(t, autofix.ConfidenceLow, f.Confidence)
			}
		}
		require.True(t, sawMigration, "registry has breaking changes between 1 and 4.2")
		assert.Equal(t, 4.2, res.Workflow.NodeByName("HTTP").TypeVersion)
	})
}

func TestRun_NodeTypeCorrection(t *testing.T) {
	t.Run("Should correct the node type from an auto-fixable suggestion", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "Hook", Type: "nodes-base.webhok", TypeVersion: 1}},
		}
		result := validator.Result{Issues: []validator.ValidationIssue{{
			Code:     validator.CodeUnknownNodeType,
			Location: validator.Location{NodeName: "Hook", NodeType: "nodes-base.webhok"},
			Suggestions: []validator.Suggestion{
				{Value: "nodes-base.webhook", Confidence: 0.95, AutoFixable: true},
			},
		}}}
		res, err := autofix.Run(t.Context(), wf, result, newFakeCatalog(), autofix.Options{Apply: true})
		require.NoError(t, err)
		require.Len(t, res.Fixes, 1)
		assert.Equal(t, autofix.FixNodeTypeCorrection, res.Fixes[0].FixType)
		assert.Equal(t, "nodes-base.webhook", res.Workflow.NodeByName("Hook").Type)
	})

	t.Run("Should ignore suggestions that are not auto-fixable", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "Hook", Type: "nodes-base.whatever", TypeVersion: 1}},
		}
		result := validator.Result{Issues: []validator.ValidationIssue{{
			Code:     validator.CodeUnknownNodeType,
			Location: validator.Location{NodeName: "Hook", NodeType: "nodes-base.whatever"},
			Suggestions: []validator.Suggestion{
				{Value: "nodes-base.maybe", Confidence: 0.4, AutoFixable: false},
			},
		}}}
		res, err := autofix.Run(t.Context(), wf, result, newFakeCatalog(), autofix.Options{Apply: true})
		require.NoError(t, err)
		assert.Empty(t, res.Fixes)
	})
}

func TestFilterFixes_ConfidenceThresholdAndMaxFixes(t *testing.T) {
	t.Run("Should drop fixes below the confidence threshold", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 99}},
		}
		opts := autofix.Options{ConfidenceThreshold: autofix.ConfidenceHigh}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(httpRequestDef(4.2)), opts)
		require.NoError(t, err)
		assert.Empty(t, res.Fixes, "medium-confidence typeversion-correction should be filtered out by a high threshold")
	})

	t.Run("Should cap the result set at MaxFixes", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{
				{Name: "A", Type: "nodes-base.httpRequest", TypeVersion: 99},
				{Name: "B", Type: "nodes-base.httpRequest", TypeVersion: 99},
			},
		}
		opts := autofix.Options{MaxFixes: 1}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(httpRequestDef(4.2)), opts)
		require.NoError(t, err)
		assert.Len(t, res.Fixes, 1)
	})
}

func TestRun_WebhookFixes(t *testing.T) {
	t.Run("Should fill a missing path from the webhookId", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{
				Name: "Hook", Type: "nodes-base.webhook", TypeVersion: 1, WebhookID: "wh-abc",
			}},
		}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(), autofix.Options{Apply: true})
		require.NoError(t, err)
		require.Len(t, res.Fixes, 1)
		assert.Equal(t, autofix.FixWebhookMissingPath, res.Fixes[0].FixType)
		assert.Equal(t, "parameters.path", res.Fixes[0].Field)

		path, _ := res.Workflow.NodeByName("Hook").Parameters["path"].String()
		assert.Equal(t, "wh-abc", path)
	})

	t.Run("Should regenerate a colliding webhookId and update the path to match", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{
				{
					Name: "First", Type: "nodes-base.webhook", TypeVersion: 1, WebhookID: "dup-id",
					Parameters: map[string]workflow.Value{"path": workflow.NewValue("dup-id")},
				},
				{
					Name: "Second", Type: "nodes-base.webhook", TypeVersion: 1, WebhookID: "dup-id",
					Parameters: map[string]workflow.Value{"path": workflow.NewValue("dup-id")},
				},
			},
		}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(), autofix.Options{Apply: true})
		require.NoError(t, err)

		byType := map[autofix.FixType]int{}
		for _, f := range res.Fixes {
			byType[f.FixType]++
		}
		assert.Equal(t, 2, byType[autofix.FixWebhookMissingPath], "one fix for the regenerated id, one for the matching path")

		first := res.Workflow.NodeByName("First")
		second := res.Workflow.NodeByName("Second")
		assert.Equal(t, "dup-id", first.WebhookID, "the first occurrence keeps its original id")
		assert.NotEqual(t, "dup-id", second.WebhookID, "the duplicate occurrence gets a regenerated id")
		assert.NotEmpty(t, second.WebhookID)

		path, _ := second.Parameters["path"].String()
		assert.Equal(t, second.WebhookID, path, "the path parameter is updated to match the regenerated id")
	})
}

func TestRun_VersionMigrationMatchesNormalizedType(t *testing.T) {
	t.Run("Should surface registry-backed fixes for a node.Type already in short form", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 1}},
		}
		opts := autofix.Options{Apply: true, UpgradeVersions: true}
		res, err := autofix.Run(t.Context(), wf, validator.Result{}, newFakeCatalog(httpRequestDef(4.2)), opts)
		require.NoError(t, err)

		var sawMigration, sawUpgrade bool
		for _, f := range res.Fixes {
			switch f.FixType {
			case autofix.FixVersionMigration:
				sawMigration = true
			case autofix.FixTypeVersionUpgrade:
				sawUpgrade = true
			}
		}
		assert.True(t, sawUpgrade, "a short-form node.Type must still match the registry's normalized keys")
		assert.True(t, sawMigration, "a short-form node.Type must still match the registry's normalized keys")
	})
}
