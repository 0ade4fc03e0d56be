package autofix

import (
	"context"

	"github.com/n8nctl/n8nctl/internal/catalog"
)

// CatalogReader is the subset of *catalog.Store the auto-fix engine needs.
type CatalogReader interface {
	Get(ctx context.Context, nodeType string) (*catalog.NodeDefinition, error)
}
