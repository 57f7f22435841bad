package interfaces

import (
	"context"

	"github.com/ternarybob/folio/internal/models"
)

// LikeAction is the direction of a like counter update
type LikeAction string

const (
	LikeActionLike   LikeAction = "like"
	LikeActionUnlike LikeAction = "unlike"
)

// PostService is the downstream API over the content database.
// Every listing is served from the run's cache once the first call succeeds.
type PostService interface {
	// ListAll returns every valid published post, newest first
	ListAll(ctx context.Context) ([]*models.Post, error)

	// ListRecent returns the first n posts of ListAll
	ListRecent(ctx context.Context, n int) ([]*models.Post, error)

	// ListRanked returns up to n posts with a non-zero rank, highest first
	ListRanked(ctx context.Context, n int) ([]*models.Post, error)

	// GetBySlug returns the post with the slug, nil when absent
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)

	// GetByID returns the post with the page id, nil when absent
	GetByID(ctx context.Context, pageID string) (*models.Post, error)

	// ListByTag returns up to n posts carrying the tag
	ListByTag(ctx context.Context, tag string, n int) ([]*models.Post, error)

	// ListByPage returns the 1-based page of posts
	ListByPage(ctx context.Context, page int) ([]*models.Post, error)

	// ListByTagAndPage returns the 1-based page of posts carrying the tag
	ListByTagAndPage(ctx context.Context, tag string, page int) ([]*models.Post, error)

	// CountPages returns the number of pages; an empty tag counts every post
	CountPages(ctx context.Context, tag string) (int, error)

	// ListTags returns the distinct tags of all posts sorted by name
	ListTags(ctx context.Context) ([]models.Tag, error)

	// GetDatabase returns the database descriptor
	GetDatabase(ctx context.Context) (*models.Database, error)

	// GetBlockChildren returns the fully resolved block tree under id
	GetBlockChildren(ctx context.Context, id string) ([]models.Block, error)

	// GetBlock returns a single block without children
	GetBlock(ctx context.Context, id string) (models.Block, error)

	// ResolveFirstImage finds the first image in the post's content
	ResolveFirstImage(ctx context.Context, post *models.Post) (*models.FileObject, error)

	// GetLikes returns the current like count of a page
	GetLikes(ctx context.Context, pageID string) (int, error)

	// UpdateLikes increments or decrements the like count and returns the new value
	UpdateLikes(ctx context.Context, pageID string, action LikeAction) (int, error)
}
