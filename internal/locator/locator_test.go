package locator_test

import (
	"testing"

	"github.com/n8nctl/n8nctl/internal/locator"
	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `{
  "name": "demo",
  "nodes": [
    {"id": "1", "name": "Start", "type": "n8n-nodes-base.manualTrigger", "typeVersion": 1, "position": [0,0], "parameters": {}},
    {"id": "2", "name": "HTTP", "type": "n8n-nodes-base.httpRequest", "typeVersion": 4, "position": [200,0], "parameters": {"url": "https://example.com"}}
  ],
  "connections": {}
}`

func TestLocator_Locate(t *testing.T) {
	res, err := workflow.Parse(sampleSource, workflow.ParseOptions{})
	require.NoError(t, err)
	loc := locator.New(res.Source, res.Index)

	t.Run("Should resolve a path the scanner visited directly", func(t *testing.T) {
		sourceLoc, snippet, ok := loc.Locate("nodes[1].parameters.url")
		require.True(t, ok)
		require.NotNil(t, sourceLoc)
		require.NotNil(t, snippet)
		assert.GreaterOrEqual(t, sourceLoc.Line, 1)
		assert.Contains(t, snippet.Lines[snippet.HighlightLine-snippet.StartLine], "example.com")
	})

	t.Run("Should fall back to the nearest indexed ancestor for an unvisited path", func(t *testing.T) {
		sourceLoc, _, ok := loc.Locate("nodes[1].parameters.url.nested.unused")
		require.True(t, ok)
		require.NotNil(t, sourceLoc)
	})

	t.Run("Should report not-found for a path with no matching ancestor", func(t *testing.T) {
		_, _, ok := loc.Locate("totallyUnrelated")
		assert.False(t, ok)
	})
}

func TestLocator_DegradesWithoutSource(t *testing.T) {
	t.Run("Should always report ok=false when built with empty source/index", func(t *testing.T) {
		loc := locator.New("", nil)
		sourceLoc, snippet, ok := loc.Locate("nodes[0].type")
		assert.False(t, ok)
		assert.Nil(t, sourceLoc)
		assert.Nil(t, snippet)
	})

	t.Run("Should be nil-safe when the Locator itself is nil", func(t *testing.T) {
		var loc *locator.Locator
		_, _, ok := loc.Locate("nodes[0].type")
		assert.False(t, ok)
	})
}
