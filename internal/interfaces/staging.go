package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/notion"
)

// StagingStore holds pre-fetched raw block children keyed by parent id.
// When a parent is present the builder uses it instead of the network.
type StagingStore interface {
	// Load returns the staged children of parentID. ok is false when nothing is staged.
	Load(ctx context.Context, parentID string) (blocks []notion.BlockObject, ok bool, err error)
}

// StagingWriter records freshly fetched children so a later run can replay them
type StagingWriter interface {
	Save(ctx context.Context, parentID string, blocks []notion.BlockObject) error
}

// Staging is a store that can both replay and record
type Staging interface {
	StagingStore
	StagingWriter
	Close() error
}
