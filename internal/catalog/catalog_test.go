package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/n8nctl/n8nctl/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := catalog.Open(t.Context(), filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close(t.Context())) })
	return store
}

func TestOpen_SeedsFromEmbeddedSnapshot(t *testing.T) {
	t.Run("Should load every embedded node definition exactly once, even across reopen", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalog.db")

		store, err := catalog.Open(t.Context(), path)
		require.NoError(t, err)
		all, err := store.All(t.Context())
		require.NoError(t, err)
		assert.NotEmpty(t, all)
		require.NoError(t, store.Close(t.Context()))

		// Reopening the same database file must not duplicate rows (seed
		// is idempotent and never leaves a partially-initialized store).
		store2, err := catalog.Open(t.Context(), path)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, store2.Close(t.Context())) })
		all2, err := store2.All(t.Context())
		require.NoError(t, err)
		assert.Equal(t, len(all), len(all2))
	})
}

func TestGet_NormalizesAndFallsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	t.Run("Should resolve a legacy-prefixed node type via normalization", func(t *testing.T) {
		def, err := store.Get(ctx, "n8n-nodes-base.httpRequest")
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "nodes-base.httpRequest", def.NodeType)
	})

	t.Run("Should resolve an already-short node type directly", func(t *testing.T) {
		def, err := store.Get(ctx, "nodes-base.webhook")
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.True(t, def.IsTrigger)
	})

	t.Run("Should return nil, nil for a genuinely unknown type", func(t *testing.T) {
		def, err := store.Get(ctx, "nodes-base.totallyMadeUp")
		require.NoError(t, err)
		assert.Nil(t, def)
	})
}

func TestSearch_ORAndAND(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	t.Run("OR mode should match on any token", func(t *testing.T) {
		results, err := store.Search(ctx, "webhook nonexistentword", catalog.SearchOR, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("AND mode should require every token to match", func(t *testing.T) {
		results, err := store.Search(ctx, "http request", catalog.SearchAND, 10)
		require.NoError(t, err)
		for _, r := range results {
			assert.Contains(t, []string{"nodes-base.httpRequest"}, r.Definition.NodeType)
		}
	})

	t.Run("AND mode should return nothing when tokens never co-occur", func(t *testing.T) {
		results, err := store.Search(ctx, "webhook zzzznevermatches", catalog.SearchAND, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearch_Fuzzy(t *testing.T) {
	t.Run("Should suggest the canonical type for a near-miss typo", func(t *testing.T) {
		store := openTestStore(t)
		results, err := store.Search(t.Context(), "webhok", catalog.SearchFuzzy, 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "nodes-base.webhook", results[0].Definition.NodeType)
	})
}

func TestGetTriggerNodesAndAITools(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	t.Run("Should only return nodes flagged as triggers", func(t *testing.T) {
		triggers, err := store.GetTriggerNodes(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, triggers)
		for _, def := range triggers {
			assert.True(t, def.IsTrigger)
		}
	})

	t.Run("Should only return nodes flagged as AI tools", func(t *testing.T) {
		tools, err := store.GetAITools(ctx)
		require.NoError(t, err)
		for _, def := range tools {
			assert.True(t, def.IsAITool)
		}
	})
}

func TestGetCategoryStats(t *testing.T) {
	t.Run("Should sum to the total node count across categories", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		all, err := store.All(ctx)
		require.NoError(t, err)

		stats, err := store.GetCategoryStats(ctx)
		require.NoError(t, err)

		total := 0
		for _, s := range stats {
			total += s.Count
		}
		assert.Equal(t, len(all), total)
	})
}
