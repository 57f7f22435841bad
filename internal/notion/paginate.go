package notion

import (
	"context"
	"fmt"
)

// Page is one page of a cursor-paginated listing
type Page[T any] struct {
	Results    []T
	HasMore    bool
	NextCursor string
}

// PageFunc fetches the page starting at cursor ("" for the first page)
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// DrainAll consumes a paginated listing into one slice, preserving page order
// and record order within each page. Only individual page fetches are retried
// (by the Fetcher behind fetch); a failed page aborts the whole drain.
func DrainAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var results []T
	cursor := ""

	for pageNum := 1; ; pageNum++ {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", pageNum, err)
		}

		results = append(results, page.Results...)

		// An empty cursor with has_more set would loop on the first page forever
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return results, nil
}
