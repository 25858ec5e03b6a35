package store

import (
	"context"

	"imagegallery/models"
)

// MetadataRepository is the append-only metadata collection. Records never
// carry payload bytes.
type MetadataRepository interface {
	// Append adds rec. It returns ErrDuplicateID if rec.ID is already present.
	Append(ctx context.Context, rec models.ImageRecord) error
	// Get returns the record with the exact id, or ErrNotFound.
	Get(ctx context.Context, id string) (models.ImageRecord, error)
	// List returns every record in insertion order.
	List(ctx context.Context) ([]models.ImageRecord, error)
}

// Searcher is implemented by repositories that can evaluate a search
// natively. params is already normalized (Limit > 0, Offset >= 0) and the
// results must follow the same matching and ordering rules as AssetStore.
type Searcher interface {
	Search(ctx context.Context, params models.SearchParams) ([]models.ImageRecord, error)
}

// TagLister is implemented by repositories that can list distinct tags
// natively. The result must be sorted ascending.
type TagLister interface {
	Tags(ctx context.Context) ([]string, error)
}
