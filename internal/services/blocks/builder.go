// Package blocks rebuilds page content trees from the flat, paginated
// children listings of the Notion API.
package blocks

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/cache"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency is the number of sibling subtrees resolved at once
const DefaultMaxConcurrency = 3

// Builder resolves block trees. Finished subtrees are stored in the session
// cache, so each parent id is fetched at most once per run.
type Builder struct {
	api            interfaces.NotionAPI
	cache          *cache.Store
	staging        interfaces.StagingStore
	recorder       interfaces.StagingWriter
	maxConcurrency int
	logger         arbor.ILogger
}

// Option configures a Builder
type Option func(*Builder)

// WithStaging replays staged children instead of fetching them
func WithStaging(store interfaces.StagingStore) Option {
	return func(b *Builder) {
		b.staging = store
	}
}

// WithRecorder records every fetched children list
func WithRecorder(w interfaces.StagingWriter) Option {
	return func(b *Builder) {
		b.recorder = w
	}
}

// WithMaxConcurrency sets the batch size for sibling resolution
func WithMaxConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxConcurrency = n
		}
	}
}

// NewBuilder creates a block-tree builder
func NewBuilder(api interfaces.NotionAPI, store *cache.Store, logger arbor.ILogger, opts ...Option) *Builder {
	b := &Builder{
		api:            api,
		cache:          store,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildChildren returns the fully resolved children of parentID in upstream order
func (b *Builder) BuildChildren(ctx context.Context, parentID string) ([]models.Block, error) {
	if blocks, ok := b.cache.Blocks(parentID); ok {
		return blocks, nil
	}

	raw, err := b.fetchRaw(ctx, parentID)
	if err != nil {
		return nil, err
	}

	blocks := make([]models.Block, len(raw))
	for i := range raw {
		blocks[i] = MapBlock(&raw[i])
	}

	if err := b.forEachBatch(ctx, len(blocks), func(ctx context.Context, i int) error {
		return b.resolve(ctx, &blocks[i])
	}); err != nil {
		return nil, err
	}

	b.cache.SetBlocks(parentID, blocks)
	return blocks, nil
}

// GetBlock retrieves and maps one block. Nested content is not resolved.
func (b *Builder) GetBlock(ctx context.Context, id string) (models.Block, error) {
	raw, err := b.api.RetrieveBlock(ctx, id)
	if err != nil {
		return models.Block{}, fmt.Errorf("failed to retrieve block %s: %w", id, err)
	}
	return MapBlock(raw), nil
}

// fetchRaw returns the raw children of parentID from staging or the API
func (b *Builder) fetchRaw(ctx context.Context, parentID string) ([]notion.BlockObject, error) {
	if b.staging != nil {
		raw, ok, err := b.staging.Load(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load staged children of %s: %w", parentID, err)
		}
		if ok {
			b.logger.Debug().
				Str("parent_id", parentID).
				Int("count", len(raw)).
				Msg("Using staged block children")
			return raw, nil
		}
	}

	raw, err := b.api.ListAllBlockChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", parentID, err)
	}

	b.logger.Debug().
		Str("parent_id", parentID).
		Int("count", len(raw)).
		Msg("Fetched block children")

	if b.recorder != nil {
		if err := b.recorder.Save(ctx, parentID, raw); err != nil {
			b.logger.Warn().
				Err(err).
				Str("parent_id", parentID).
				Msg("Failed to record block children")
		}
	}

	return raw, nil
}

// resolve fills the nested content of one block in place
func (b *Builder) resolve(ctx context.Context, block *models.Block) error {
	switch block.Type {
	case models.BlockTypeTable:
		if block.Table == nil {
			return nil
		}
		rows, err := b.tableRows(ctx, block.ID)
		if err != nil {
			return err
		}
		block.Table.Rows = rows

	case models.BlockTypeColumnList:
		if block.ColumnList == nil {
			return nil
		}
		columns, err := b.columns(ctx, block.ID)
		if err != nil {
			return err
		}
		block.ColumnList.Columns = columns

	case models.BlockTypeSyncedBlock:
		children, err := b.syncedChildren(ctx, block)
		if err != nil {
			return err
		}
		block.SetChildren(children)

	default:
		if !block.HasChildren || !block.CanHoldChildren() {
			return nil
		}
		children, err := b.BuildChildren(ctx, block.ID)
		if err != nil {
			return err
		}
		block.SetChildren(children)
	}
	return nil
}

// tableRows drains the rows of a table. Rows are not cached on their own.
func (b *Builder) tableRows(ctx context.Context, tableID string) ([]models.TableRow, error) {
	raw, err := b.fetchRaw(ctx, tableID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.TableRow, 0, len(raw))
	for _, r := range raw {
		row := models.TableRow{
			ID:          r.ID,
			Type:        r.Type,
			HasChildren: r.HasChildren,
			Cells:       []models.TableCell{},
		}
		if r.Type == "table_row" && r.TableRow != nil {
			for _, cell := range r.TableRow.Cells {
				row.Cells = append(row.Cells, models.TableCell{RichTexts: MapRichTexts(cell)})
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columns drains the columns of a column list and builds each column's children
func (b *Builder) columns(ctx context.Context, listID string) ([]models.Column, error) {
	raw, err := b.fetchRaw(ctx, listID)
	if err != nil {
		return nil, err
	}

	columns := make([]models.Column, len(raw))
	for i, r := range raw {
		columns[i] = models.Column{ID: r.ID, Type: r.Type, HasChildren: r.HasChildren}
	}

	err = b.forEachBatch(ctx, len(columns), func(ctx context.Context, i int) error {
		children, err := b.BuildChildren(ctx, columns[i].ID)
		if err != nil {
			return err
		}
		columns[i].Children = children
		return nil
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// forEachBatch runs fn for 0..n-1 in sequential batches of maxConcurrency.
// The first error cancels the rest of its batch and stops later batches.
func (b *Builder) forEachBatch(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for start := 0; start < n; start += b.maxConcurrency {
		end := min(start+b.maxConcurrency, n)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				return fn(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
