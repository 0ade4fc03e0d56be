package similarity_test

import (
	"testing"

	"github.com/n8nctl/n8nctl/internal/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []similarity.Candidate {
	return []similarity.Candidate{
		{NodeType: "nodes-base.webhook", DisplayName: "Webhook"},
		{NodeType: "nodes-base.httpRequest", DisplayName: "HTTP Request"},
		{NodeType: "nodes-base.if", DisplayName: "If"},
		{NodeType: "nodes-base.switch", DisplayName: "Switch"},
	}
}

func TestSuggest_CommonMistakeBoost(t *testing.T) {
	t.Run("Should rank the known typo correction first and mark it auto-fixable", func(t *testing.T) {
		suggestions := similarity.Suggest("nodes-base.webhok", candidates(), 3)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "nodes-base.webhook", suggestions[0].NodeType)
		assert.True(t, similarity.IsAutoFixable(suggestions[0]))
	})
}

func TestSuggest_ConfidenceBounds(t *testing.T) {
	t.Run("Should keep confidence within [0,1] for every suggestion", func(t *testing.T) {
		suggestions := similarity.Suggest("nodes-base.httprequst", candidates(), 10)
		for _, s := range suggestions {
			assert.GreaterOrEqual(t, s.Confidence, 0.0)
			assert.LessOrEqual(t, s.Confidence, 1.0)
		}
	})

	t.Run("Should be deterministic for identical inputs", func(t *testing.T) {
		a := similarity.Suggest("nodes-base.webhok", candidates(), 3)
		b := similarity.Suggest("nodes-base.webhok", candidates(), 3)
		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.Equal(t, a[i], b[i])
		}
	})
}

func TestSuggest_TopKLimitsResults(t *testing.T) {
	t.Run("Should cap the result set at topK", func(t *testing.T) {
		suggestions := similarity.Suggest("nodes-base.w", candidates(), 1)
		assert.LessOrEqual(t, len(suggestions), 1)
	})
}

func TestIsAutoFixable(t *testing.T) {
	t.Run("Should require confidence >= 0.90", func(t *testing.T) {
		assert.True(t, similarity.IsAutoFixable(similarity.Suggestion{Confidence: 0.90}))
		assert.False(t, similarity.IsAutoFixable(similarity.Suggestion{Confidence: 0.89}))
	})
}
