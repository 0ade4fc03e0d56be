package workflow_test

import (
	"encoding/json"
	"testing"

	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkflow = `{
  "name": "demo",
  "nodes": [
    {"id": "1", "name": "Start", "type": "n8n-nodes-base.manualTrigger", "typeVersion": 1, "position": [0,0], "parameters": {}},
    {"id": "2", "name": "HTTP", "type": "n8n-nodes-base.httpRequest", "typeVersion": 4, "position": [200,0], "parameters": {"url": "https://example.com"}}
  ],
  "connections": {
    "Start": {"main": [[{"node": "HTTP", "type": "main", "index": 0}]]}
  },
  "active": false
}`

func TestParse_Strict(t *testing.T) {
	t.Run("Should parse well-formed JSON on the first stage", func(t *testing.T) {
		res, err := workflow.Parse(sampleWorkflow, workflow.ParseOptions{})
		require.NoError(t, err)
		assert.Equal(t, "strict", res.Stage)
		assert.False(t, res.Repaired)
		assert.Equal(t, "demo", res.Workflow.Name)
		require.Len(t, res.Workflow.Nodes, 2)
	})

	t.Run("Should normalize node types to short form", func(t *testing.T) {
		res, err := workflow.Parse(sampleWorkflow, workflow.ParseOptions{})
		require.NoError(t, err)
		assert.Equal(t, "nodes-base.manualTrigger", res.Workflow.Nodes[0].Type)
		assert.Equal(t, "nodes-base.httpRequest", res.Workflow.Nodes[1].Type)
	})
}

func TestParse_RepairFallback(t *testing.T) {
	t.Run("Should repair trailing commas and bare keys when Repair is set", func(t *testing.T) {
		broken := `{name: "demo", "nodes": [],"connections": {},}`
		res, err := workflow.Parse(broken, workflow.ParseOptions{Repair: true})
		require.NoError(t, err)
		assert.Equal(t, "repaired", res.Stage)
		assert.True(t, res.Repaired)
		assert.Equal(t, "demo", res.Workflow.Name)
	})

	t.Run("Should fail with PARSE_ERROR when repair is disabled", func(t *testing.T) {
		broken := `{name: "demo", "nodes": [],"connections": {},}`
		_, err := workflow.Parse(broken, workflow.ParseOptions{})
		require.Error(t, err)
		var pf *workflow.ParseFailure
		require.ErrorAs(t, err, &pf)
	})
}

func TestParse_RoundTrip(t *testing.T) {
	t.Run("Should satisfy parse(serialize(w)) == w", func(t *testing.T) {
		res, err := workflow.Parse(sampleWorkflow, workflow.ParseOptions{})
		require.NoError(t, err)

		serialized, err := workflow.Serialize(res.Workflow)
		require.NoError(t, err)

		res2, err := workflow.Parse(serialized, workflow.ParseOptions{})
		require.NoError(t, err)

		a, err := json.Marshal(res.Workflow)
		require.NoError(t, err)
		b, err := json.Marshal(res2.Workflow)
		require.NoError(t, err)
		assert.JSONEq(t, string(a), string(b))
	})
}

func TestParse_EmptyWorkflow(t *testing.T) {
	t.Run("Should parse an empty workflow without error", func(t *testing.T) {
		res, err := workflow.Parse(`{"name":"","nodes":[],"connections":{}}`, workflow.ParseOptions{})
		require.NoError(t, err)
		assert.Empty(t, res.Workflow.Nodes)
		assert.Empty(t, res.Workflow.Connections)
	})
}
