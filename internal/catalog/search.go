package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ftsSpecialChars are the characters the FTS5 query grammar treats
// specially; user tokens containing any of them are quoted as a literal
// phrase before being embedded in a MATCH expression.
const ftsSpecialChars = `"'(){}[]*+-:^~`

func escapeFTSToken(token string) string {
	if strings.ContainsAny(token, ftsSpecialChars) {
		return `"` + strings.ReplaceAll(token, `"`, `""`) + `"`
	}
	return token
}

// Search implements the catalog search operation for OR/AND/FUZZY modes
//.
func (s *Store) Search(ctx context.Context, query string, mode SearchMode, limit int) ([]SearchResult, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	if mode == SearchFuzzy {
		return s.searchFuzzy(ctx, query, limit)
	}
	candidates, err := s.candidatesFTS(ctx, tokens, mode)
	if err != nil {
		candidates, err = s.allDefinitions(ctx)
		if err != nil {
			return nil, err
		}
	}
	results := scoreCandidates(candidates, tokens, mode)
	sortResultsByScore(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// candidatesFTS retrieves a candidate set using the FTS5 virtual table when
// available, falling back to LIKE scanning on any query-syntax error; the
// returned error signals "use allDefinitions instead" to the caller.
func (s *Store) candidatesFTS(ctx context.Context, tokens []string, mode SearchMode) ([]NodeDefinition, error) {
	if !s.supportsFTS(ctx) {
		return s.likeCandidates(ctx, tokens, mode)
	}
	joiner := " OR "
	if mode == SearchAND {
		joiner = " AND "
	}
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		escaped[i] = escapeFTSToken(t)
	}
	matchExpr := strings.Join(escaped, joiner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.definition FROM nodes n
		JOIN nodes_fts f ON f.rowid = n.rowid
		WHERE nodes_fts MATCH ?
		ORDER BY bm25(nodes_fts)`, matchExpr)
	if err != nil {
		// FTS syntax error for this query only: fall back to LIKE.
		return s.likeCandidates(ctx, tokens, mode)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (s *Store) likeCandidates(ctx context.Context, tokens []string, mode SearchMode) ([]NodeDefinition, error) {
	clauses := make([]string, len(tokens))
	args := make([]any, 0, len(tokens)*3)
	for i, t := range tokens {
		like := "%" + t + "%"
		clauses[i] = "(node_type LIKE ? OR display_name LIKE ? OR description LIKE ?)"
		args = append(args, like, like, like)
	}
	joiner := " OR "
	if mode == SearchAND {
		joiner = " AND "
	}
	query := fmt.Sprintf("SELECT definition FROM nodes WHERE %s", strings.Join(clauses, joiner))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: like search: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (s *Store) allDefinitions(ctx context.Context) ([]NodeDefinition, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT definition FROM nodes")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

// scoreCandidates applies the relevance formula.
func scoreCandidates(defs []NodeDefinition, tokens []string, mode SearchMode) []SearchResult {
	query := strings.Join(tokens, " ")
	lowerQuery := strings.ToLower(query)
	results := make([]SearchResult, 0, len(defs))
	for _, def := range defs {
		if !matchesTokens(def, tokens, mode) {
			continue
		}
		score := relevanceScore(def, lowerQuery)
		results = append(results, SearchResult{Definition: def, Score: score})
	}
	return results
}

func matchesTokens(def NodeDefinition, tokens []string, mode SearchMode) bool {
	haystacks := []string{def.NodeType, def.DisplayName, def.Description}
	matchOne := func(tok string) bool {
		for _, h := range haystacks {
			if containsFold(h, strings.ToLower(tok)) {
				return true
			}
		}
		return false
	}
	if mode == SearchAND {
		for _, tok := range tokens {
			if !matchOne(tok) {
				return false
			}
		}
		return true
	}
	for _, tok := range tokens {
		if matchOne(tok) {
			return true
		}
	}
	return false
}

func relevanceScore(def NodeDefinition, lowerQuery string) float64 {
	score := 0.0
	lowerType := strings.ToLower(def.NodeType)
	lowerDisplay := strings.ToLower(def.DisplayName)
	lowerDesc := strings.ToLower(def.Description)
	switch {
	case lowerType == lowerQuery:
		score += 150
	case strings.Contains(lowerType, lowerQuery):
		score += 100
	}
	switch {
	case lowerDisplay == lowerQuery:
		score += 100
	case strings.Contains(lowerDisplay, lowerQuery):
		score += 75
	}
	if strings.Contains(lowerDesc, lowerQuery) {
		score += 25
	}
	return score
}

// searchFuzzy computes Levenshtein distance against nodeType, displayName,
// and each word of displayName.
func (s *Store) searchFuzzy(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	defs, err := s.allDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	threshold := maxInt(2, int(0.4*float64(len(query))))
	lowerQuery := strings.ToLower(query)
	var results []SearchResult
	for _, def := range defs {
		minDist, substr := fuzzyMatch(def, lowerQuery)
		if minDist > threshold && !substr {
			continue
		}
		maxLen := maxInt(len(lowerQuery), len(def.NodeType))
		conf := 1.0
		if maxLen > 0 {
			conf = 1.0 - float64(minDist)/float64(maxLen)
		}
		if conf < 0 {
			conf = 0
		}
		results = append(results, SearchResult{Definition: def, Score: conf * 100})
	}
	sortResultsByScore(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func fuzzyMatch(def NodeDefinition, lowerQuery string) (minDist int, substr bool) {
	candidates := []string{strings.ToLower(def.NodeType), strings.ToLower(def.DisplayName)}
	candidates = append(candidates, strings.Fields(strings.ToLower(def.DisplayName))...)
	minDist = -1
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(c, lowerQuery) || strings.Contains(lowerQuery, c) {
			substr = true
		}
		d := levenshtein.ComputeDistance(c, lowerQuery)
		if minDist < 0 || d < minDist {
			minDist = d
		}
	}
	if minDist < 0 {
		minDist = len(lowerQuery)
	}
	return minDist, substr
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
