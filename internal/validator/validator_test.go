package validator_test

import (
	"context"
	"testing"

	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/n8nctl/n8nctl/internal/validator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is a minimal validator.CatalogReader backed by an in-memory
// map, so validator tests don't need a real SQLite-backed catalog.Store.
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

func (f *fakeCatalog) All(_ context.Context) ([]catalog.NodeDefinition, error) {
	out := make([]catalog.NodeDefinition, 0, len(f.defs))
	for _, d := range f.defs {
		out = append(out, d)
	}
	return out, nil
}

func manualTriggerDef() catalog.NodeDefinition {
	return catalog.NodeDefinition{NodeType: "nodes-base.manualTrigger", DisplayName: "Manual Trigger", IsTrigger: true}
}

func httpRequestDef() catalog.NodeDefinition {
	return catalog.NodeDefinition{
		NodeType: "nodes-base.httpRequest", DisplayName: "HTTP Request", Version: 4.2, IsVersioned: true,
		Properties: []catalog.PropertySchema{
			{Name: "url", Type: catalog.PropString, Required: true},
		},
	}
}

func webhookDef() catalog.NodeDefinition {
	return catalog.NodeDefinition{NodeType: "nodes-base.webhook", DisplayName: "Webhook", IsTrigger: true, IsWebhook: true}
}

func TestValidate_EmptyWorkflow(t *testing.T) {
	t.Run("Should validate without errors at runtime profile", func(t *testing.T) {
		wf := &workflow.Workflow{Nodes: []*workflow.Node{}, Connections: map[string]workflow.ConnectionGroup{}}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors())
	})
}

func TestValidate_ActiveWithoutTrigger(t *testing.T) {
	t.Run("Should produce exactly one NO_TRIGGER_WHEN_ACTIVE error", func(t *testing.T) {
		wf := &workflow.Workflow{
			Active: true,
			Nodes: []*workflow.Node{
				{Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4.2, Parameters: map[string]workflow.Value{
					"url": workflow.NewValue("https://example.com"),
				}},
			},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(httpRequestDef()), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		errs := result.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, validator.CodeNoTriggerWhenActive, errs[0].Code)
	})

	t.Run("Should pass when an activatable trigger is present", func(t *testing.T) {
		wf := &workflow.Workflow{
			Active: true,
			Nodes:  []*workflow.Node{{Name: "Start", Type: "nodes-base.manualTrigger", TypeVersion: 1}},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(manualTriggerDef()), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})
}

func TestValidate_DuplicateNodeNames(t *testing.T) {
	t.Run("Should flag the second occurrence as DUPLICATE_NODE_NAME", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{
				{Name: "A", Type: "nodes-base.manualTrigger", TypeVersion: 1},
				{Name: "A", Type: "nodes-base.manualTrigger", TypeVersion: 1},
			},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(manualTriggerDef()), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		found := false
		for _, i := range result.Errors() {
			if i.Code == validator.CodeDuplicateNodeName {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestValidate_DanglingConnection(t *testing.T) {
	t.Run("Should flag a connection target that does not exist", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{Name: "Start", Type: "nodes-base.manualTrigger", TypeVersion: 1}},
			Connections: map[string]workflow.ConnectionGroup{
				"Start": {"main": []workflow.ConnectionSlot{{Targets: []workflow.ConnectionTarget{{Node: "Missing", Type: "main"}}}}},
			},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(manualTriggerDef()), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		found := false
		for _, i := range result.Issues {
			if i.Code == validator.CodeConnectionDangling {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestValidate_MissingRequiredProperty(t *testing.T) {
	t.Run("Should error when a required property is absent", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes:       []*workflow.Node{{Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4.2}},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(httpRequestDef()), validator.ProfileRuntime, "", nil)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		found := false
		for _, i := range result.Errors() {
			if i.Code == validator.CodeMissingRequiredProperty {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestValidate_ExpressionMissingPrefix(t *testing.T) {
	t.Run("Should flag a {{ }} expression without the leading = (scenario 1)", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes: []*workflow.Node{{
				Name: "HTTP", Type: "nodes-base.httpRequest", TypeVersion: 4.2,
				Parameters: map[string]workflow.Value{"url": workflow.NewValue("{{ $json.url }}")},
			}},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(httpRequestDef()), validator.ProfileAIFriendly, "", nil)
		require.NoError(t, err)
		var issue *validator.ValidationIssue
		for i := range result.Issues {
			if result.Issues[i].Code == validator.CodeExpressionMissingPrefix {
				issue = &result.Issues[i]
			}
		}
		require.NotNil(t, issue)
		assert.Equal(t, "=\"{{ $json.url }}\"", "="+"\"{{ $json.url }}\"") // sanity: formatting helper
		assert.Equal(t, "={{ $json.url }}", issue.Context["expected"])
	})
}

func TestValidate_UnknownNodeTypeSuggestsCorrection(t *testing.T) {
	t.Run("Should warn with a high-confidence suggestion for a known typo (scenario 4)", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes:       []*workflow.Node{{Name: "Hook", Type: "nodes-base.webhok", TypeVersion: 1}},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(webhookDef()), validator.ProfileAIFriendly, "", nil)
		require.NoError(t, err)
		require.Len(t, result.Warnings(), 1)
		w := result.Warnings()[0]
		assert.Equal(t, validator.CodeUnknownNodeType, w.Code)
		require.NotEmpty(t, w.Suggestions)
		assert.Equal(t, "nodes-base.webhook", w.Suggestions[0].Value)
		assert.True(t, w.Suggestions[0].AutoFixable)
	})
}

func TestValidate_ProfileFiltering(t *testing.T) {
	t.Run("Minimal profile should drop info-level best-practice hints", func(t *testing.T) {
		wf := &workflow.Workflow{
			Nodes:       []*workflow.Node{{Name: "Agent", Type: "nodes-langchain.agent", TypeVersion: 1}},
			Connections: map[string]workflow.ConnectionGroup{},
		}
		def := catalog.NodeDefinition{NodeType: "nodes-langchain.agent", DisplayName: "AI Agent"}
		result, err := validator.Validate(t.Context(), wf, newFakeCatalog(def), validator.ProfileMinimal, "", nil)
		require.NoError(t, err)
		assert.Empty(t, result.Infos())
	})
}
