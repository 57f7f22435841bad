package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/notion"
)

// NotionAPI is the upstream surface the services depend on.
// Implemented by *notion.Client; every call is paced and retried there.
type NotionAPI interface {
	// QueryAllPages drains a database query across every result page
	QueryAllPages(ctx context.Context, databaseID string, req notion.QueryDatabaseRequest) ([]notion.PageObject, error)

	// RetrieveDatabase fetches the database descriptor
	RetrieveDatabase(ctx context.Context, databaseID string) (*notion.DatabaseObject, error)

	// RetrieveBlock fetches one block without its children
	RetrieveBlock(ctx context.Context, blockID string) (*notion.BlockObject, error)

	// ListAllBlockChildren drains the direct children of a block
	ListAllBlockChildren(ctx context.Context, blockID string) ([]notion.BlockObject, error)

	// RetrievePage fetches one database row
	RetrievePage(ctx context.Context, pageID string) (*notion.PageObject, error)

	// UpdatePageProperties patches the properties of one database row
	UpdatePageProperties(ctx context.Context, pageID string, properties map[string]interface{}) (*notion.PageObject, error)
}
