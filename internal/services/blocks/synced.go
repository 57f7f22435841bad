package blocks

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

type visitedKey struct{}

// visitedSet is the chain of synced-block sources being resolved on the
// current path. It is copied on extension so sibling branches never share it.
type visitedSet map[string]struct{}

func visited(ctx context.Context, id string) bool {
	set, _ := ctx.Value(visitedKey{}).(visitedSet)
	_, ok := set[id]
	return ok
}

func withVisited(ctx context.Context, id string) context.Context {
	prev, _ := ctx.Value(visitedKey{}).(visitedSet)
	next := make(visitedSet, len(prev)+1)
	for k := range prev {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return context.WithValue(ctx, visitedKey{}, next)
}

// syncedChildren resolves the content of a synced block. An original owns
// its children; a reference borrows them from its source. A failed reference
// degrades to an empty list rather than failing the page.
func (b *Builder) syncedChildren(ctx context.Context, block *models.Block) ([]models.Block, error) {
	if block.SyncedBlock == nil {
		return []models.Block{}, nil
	}

	from := block.SyncedBlock.SyncedFrom
	if from == nil {
		if visited(ctx, block.ID) {
			b.warnCycle(block.ID, block.ID)
			return []models.Block{}, nil
		}
		return b.BuildChildren(withVisited(ctx, block.ID), block.ID)
	}

	if visited(ctx, from.BlockID) {
		b.warnCycle(block.ID, from.BlockID)
		return []models.Block{}, nil
	}

	source, err := b.api.RetrieveBlock(ctx, from.BlockID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn().
			Err(err).
			Str("block_id", block.ID).
			Str("synced_from", from.BlockID).
			Msg("Could not retrieve original synced block, using empty children")
		return []models.Block{}, nil
	}

	sourceCtx := withVisited(ctx, from.BlockID)
	if source.ID != from.BlockID {
		sourceCtx = withVisited(sourceCtx, source.ID)
	}

	children, err := b.BuildChildren(sourceCtx, source.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn().
			Err(err).
			Str("block_id", block.ID).
			Str("synced_from", source.ID).
			Msg("Could not resolve original synced block children, using empty children")
		return []models.Block{}, nil
	}
	return children, nil
}

func (b *Builder) warnCycle(blockID, sourceID string) {
	b.logger.Warn().
		Str("block_id", blockID).
		Str("synced_from", sourceID).
		Msg("Synced block cycle detected, using empty children")
}
