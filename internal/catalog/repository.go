package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Get resolves a node definition by type, normalizing the input first and
// falling back to the original (un-normalized) input once before reporting
// a miss.
func (s *Store) Get(ctx context.Context, nodeType string) (*NodeDefinition, error) {
	normalized := workflow.NormalizeNodeType(nodeType)
	def, err := s.getExact(ctx, normalized)
	if err == nil {
		return def, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if normalized == nodeType {
		return nil, nil
	}
	def, err = s.getExact(ctx, nodeType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return def, nil
}

func (s *Store) getExact(ctx context.Context, nodeType string) (*NodeDefinition, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT definition FROM nodes WHERE node_type = ?", nodeType).Scan(&raw)
	if err != nil {
		return nil, err
	}
	def, err := rowToDefinition(raw)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// GetCategoryStats returns the number of node types per category.
func (s *Store) GetCategoryStats(ctx context.Context) ([]CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM nodes GROUP BY category ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("catalog: category stats: %w", err)
	}
	defer rows.Close()
	var stats []CategoryStat
	for rows.Next() {
		var st CategoryStat
		if err := rows.Scan(&st.Category, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// GetTriggerNodes returns every node definition flagged as a trigger.
func (s *Store) GetTriggerNodes(ctx context.Context) ([]NodeDefinition, error) {
	return s.queryFlag(ctx, "is_trigger")
}

// GetAITools returns every node definition flagged as an AI tool.
func (s *Store) GetAITools(ctx context.Context) ([]NodeDefinition, error) {
	return s.queryFlag(ctx, "is_ai_tool")
}

func (s *Store) queryFlag(ctx context.Context, column string) ([]NodeDefinition, error) {
	// column is always one of a fixed internal set, never user input.
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT definition FROM nodes WHERE %s = 1 ORDER BY node_type", column))
	if err != nil {
		return nil, fmt.Errorf("catalog: query %s: %w", column, err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

// All returns every node definition in the catalog. Used by the Similarity
// Engine (C7) to build its candidate set.
func (s *Store) All(ctx context.Context) ([]NodeDefinition, error) {
	return s.allDefinitions(ctx)
}

// GetByCategory returns every node definition in the given category.
func (s *Store) GetByCategory(ctx context.Context, category string) ([]NodeDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT definition FROM nodes WHERE category = ? ORDER BY node_type", category)
	if err != nil {
		return nil, fmt.Errorf("catalog: query by category: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func scanDefinitions(rows *sql.Rows) ([]NodeDefinition, error) {
	var out []NodeDefinition
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		def, err := rowToDefinition(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// SearchProperties returns the properties of a node whose name, display
// name or description contain query, ranked by where the match is (name
// 1.0, display name 0.7, description 0.4), capped at max results.
func (s *Store) SearchProperties(ctx context.Context, nodeType, query string, max int) ([]PropertyMatch, error) {
	def, err := s.Get(ctx, nodeType)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("catalog: unknown node type %q", nodeType)
	}
	var matches []PropertyMatch
	lowerQuery := toLower(query)
	for _, prop := range def.Properties {
		score := 0.0
		if containsFold(prop.Name, lowerQuery) {
			score = 1.0
		} else if containsFold(prop.DisplayName, lowerQuery) {
			score = 0.7
		} else if containsFold(prop.Description, lowerQuery) {
			score = 0.4
		} else {
			continue
		}
		matches = append(matches, PropertyMatch{Property: prop, Score: score})
	}
	sortMatchesByScore(matches)
	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}
	return matches, nil
}
