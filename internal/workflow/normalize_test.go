package workflow_test

import (
	"testing"

	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeNodeType(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"legacy base prefix", "n8n-nodes-base.httpRequest", "nodes-base.httpRequest"},
		{"scoped langchain prefix", "@n8n/n8n-nodes-langchain.openAi", "nodes-langchain.openAi"},
		{"already short base", "nodes-base.webhook", "nodes-base.webhook"},
		{"already short langchain", "nodes-langchain.agent", "nodes-langchain.agent"},
		{"unrecognized prefix passes through", "some-other.thing", "some-other.thing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, workflow.NormalizeNodeType(tc.in))
		})
	}
}

func TestNormalizeNodeType_Idempotent(t *testing.T) {
	t.Run("Should return the same value when normalized twice", func(t *testing.T) {
		inputs := []string{
			"n8n-nodes-base.webhook",
			"@n8n/n8n-nodes-langchain.agent",
			"nodes-base.if",
			"totally-unknown.type",
		}
		for _, in := range inputs {
			once := workflow.NormalizeNodeType(in)
			twice := workflow.NormalizeNodeType(once)
			assert.Equal(t, once, twice, "input %q", in)
		}
	})
}

func TestDisplayNodeType(t *testing.T) {
	t.Run("Should restore the legacy prefix for nodes-base types", func(t *testing.T) {
		assert.Equal(t, "n8n-nodes-base.webhook", workflow.DisplayNodeType("nodes-base.webhook"))
	})
	t.Run("Should pass through langchain types unchanged", func(t *testing.T) {
		assert.Equal(t, "nodes-langchain.agent", workflow.DisplayNodeType("nodes-langchain.agent"))
	})
}

func TestIsTrigger(t *testing.T) {
	cases := []struct {
		nodeType string
		want     bool
	}{
		{"nodes-base.manualTrigger", true},
		{"nodes-base.webhook", true},
		{"nodes-base.respondToWebhook", false},
		{"nodes-base.start", true},
		{"nodes-base.formTrigger", true},
		{"nodes-base.httpRequest", false},
	}
	for _, tc := range cases {
		t.Run(tc.nodeType, func(t *testing.T) {
			assert.Equal(t, tc.want, workflow.IsTrigger(tc.nodeType))
		})
	}
}

func TestIsActivatableTrigger(t *testing.T) {
	t.Run("Should exclude sub-workflow triggers", func(t *testing.T) {
		assert.True(t, workflow.IsActivatableTrigger("nodes-base.webhook"))
		assert.False(t, workflow.IsActivatableTrigger("nodes-base.executeWorkflowTrigger"))
	})
}
