package posts

import (
	"context"
	"fmt"

	"github.com/ternarybob/folio/internal/interfaces"
)

// GetLikes returns the Likes number of a page, 0 when unset
func (s *Service) GetLikes(ctx context.Context, pageID string) (int, error) {
	page, err := s.api.RetrievePage(ctx, pageID)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}
	return int(numberOrZero(page.Properties.Likes)), nil
}

// UpdateLikes applies action to the current count. The count never drops below zero.
func (s *Service) UpdateLikes(ctx context.Context, pageID string, action interfaces.LikeAction) (int, error) {
	var delta int
	switch action {
	case interfaces.LikeActionLike:
		delta = 1
	case interfaces.LikeActionUnlike:
		delta = -1
	default:
		return 0, fmt.Errorf("unknown like action: %q", action)
	}

	current, err := s.GetLikes(ctx, pageID)
	if err != nil {
		return 0, err
	}
	next := max(0, current+delta)

	updated, err := s.api.UpdatePageProperties(ctx, pageID, map[string]interface{}{
		propertyLikes: map[string]interface{}{"number": next},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update likes of %s: %w", pageID, err)
	}
	if updated != nil && updated.Properties.Likes.Number != nil {
		next = int(*updated.Properties.Likes.Number)
	}

	// Cached posts are shared with readers, so swap in a copy
	if post, ok := s.cache.Page(pageID); ok {
		updatedPost := *post
		updatedPost.Likes = next
		s.cache.SetPage(&updatedPost)
	}

	s.logger.Debug().
		Str("page_id", pageID).
		Str("action", string(action)).
		Int("likes", next).
		Msg("Likes updated")

	return next, nil
}
