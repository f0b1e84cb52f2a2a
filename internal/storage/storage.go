// Package storage persists catalog snapshots so a deployment can ship one database
// file instead of a directory of curated YAML.
package storage

import (
	"context"

	"github.com/hyperjump/tsunagu/internal/catalog"
)

// Storage defines catalog snapshot persistence.
type Storage interface {
	// SaveCatalog replaces the stored snapshot with data.
	SaveCatalog(ctx context.Context, data catalog.Data) error
	// LoadCatalog returns the stored snapshot in its original order.
	LoadCatalog(ctx context.Context) (catalog.Data, error)

	// Stats
	CountChapters(ctx context.Context) (int64, error)
	CountVerses(ctx context.Context) (int64, error)

	Close() error
}
