package validator

import (
	"context"

	"github.com/n8nctl/n8nctl/internal/catalog"
)

// CatalogReader is the subset of *catalog.Store the validator depends on.
// Declared locally so tests can substitute an in-memory fake.
type CatalogReader interface {
	Get(ctx context.Context, nodeType string) (*catalog.NodeDefinition, error)
	All(ctx context.Context) ([]catalog.NodeDefinition, error)
}
