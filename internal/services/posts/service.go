// Package posts serves the published posts of the content database,
// backed by the run's cache.
package posts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gslug "github.com/gosimple/slug"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/blocks"
	"github.com/ternarybob/folio/internal/services/cache"
	"github.com/ternarybob/folio/internal/services/extract"
	"github.com/ternarybob/folio/internal/services/slug"
)

// DefaultPostsPerPage is the listing page size
const DefaultPostsPerPage = 12

// Service implements interfaces.PostService
type Service struct {
	api          interfaces.NotionAPI
	builder      *blocks.Builder
	resolver     *slug.Resolver
	cache        *cache.Store
	databaseID   string
	postsPerPage int
	pageSize     int
	logger       arbor.ILogger
	now          func() time.Time

	imageMu sync.Mutex
}

var _ interfaces.PostService = (*Service)(nil)

// NewService creates the post service
func NewService(
	api interfaces.NotionAPI,
	builder *blocks.Builder,
	resolver *slug.Resolver,
	store *cache.Store,
	databaseID string,
	postsPerPage int,
	logger arbor.ILogger,
) *Service {
	if postsPerPage <= 0 {
		postsPerPage = DefaultPostsPerPage
	}
	return &Service{
		api:          api,
		builder:      builder,
		resolver:     resolver,
		cache:        store,
		databaseID:   databaseID,
		postsPerPage: postsPerPage,
		pageSize:     notion.DefaultPageSize,
		logger:       logger,
		now:          time.Now,
	}
}

// ListAll returns every valid published post, newest first.
// A failed listing leaves the cache unset.
func (s *Service) ListAll(ctx context.Context) ([]*models.Post, error) {
	if posts, ok := s.cache.Posts(); ok {
		return posts, nil
	}

	start := time.Now()

	pages, err := s.api.QueryAllPages(ctx, s.databaseID, publishedQuery(s.now(), s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	posts := make([]*models.Post, 0, len(pages))
	for i := range pages {
		if err := validatePage(&pages[i]); err != nil {
			s.logger.Warn().
				Str("page_id", pages[i].ID).
				Str("reason", err.Error()).
				Msg("Skipping invalid post record")
			continue
		}
		posts = append(posts, buildPost(&pages[i]))
	}

	if err := s.assignSlugs(ctx, posts); err != nil {
		return nil, err
	}

	s.cache.SetPosts(posts)

	s.logger.Info().
		Int("records", len(pages)).
		Int("posts", len(posts)).
		Dur("duration", time.Since(start)).
		Str("session_id", s.cache.SessionID()).
		Msg("Posts listed")

	return posts, nil
}

// assignSlugs keeps explicit slugs and derives the rest, disambiguating
// derived slugs that collide with one already handed out
func (s *Service) assignSlugs(ctx context.Context, posts []*models.Post) error {
	dedupe := slug.NewDedupe()
	for _, post := range posts {
		if post.Slug == "" {
			continue
		}
		if !gslug.IsSlug(post.Slug) {
			s.logger.Debug().
				Str("page_id", post.PageID).
				Str("slug", post.Slug).
				Msg("Explicit slug is not URL-safe, keeping as given")
		}
		dedupe.Reserve(post.Slug)
	}

	for _, post := range posts {
		if post.Slug != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		post.Slug = dedupe.Assign(s.resolver.Resolve(ctx, post.Title, ""))
	}
	return nil
}

// ListRecent returns the first n posts
func (s *Service) ListRecent(ctx context.Context, n int) ([]*models.Post, error) {
	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return limit(posts, n), nil
}

// ListRanked returns up to n posts with a non-zero rank, highest first
func (s *Service) ListRanked(ctx context.Context, n int) ([]*models.Post, error) {
	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]*models.Post, 0)
	for _, post := range posts {
		if post.Rank != 0 {
			ranked = append(ranked, post)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})
	return limit(ranked, n), nil
}

// GetBySlug returns the post with the slug, nil when absent or empty
func (s *Service) GetBySlug(ctx context.Context, slugValue string) (*models.Post, error) {
	if slugValue == "" {
		return nil, nil
	}
	if post, ok := s.cache.PageBySlug(slugValue); ok {
		return post, nil
	}
	return s.find(ctx, func(p *models.Post) bool { return p.Slug == slugValue })
}

// GetByID returns the post with the page id, nil when absent
func (s *Service) GetByID(ctx context.Context, pageID string) (*models.Post, error) {
	if post, ok := s.cache.Page(pageID); ok {
		return post, nil
	}
	return s.find(ctx, func(p *models.Post) bool { return p.PageID == pageID })
}

func (s *Service) find(ctx context.Context, match func(*models.Post) bool) (*models.Post, error) {
	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		if match(post) {
			s.cache.SetPage(post)
			return post, nil
		}
	}
	return nil, nil
}

// ListByTag returns up to n posts carrying the tag. An empty tag matches nothing.
func (s *Service) ListByTag(ctx context.Context, tag string, n int) ([]*models.Post, error) {
	tagged, err := s.tagged(ctx, tag)
	if err != nil {
		return nil, err
	}
	return limit(tagged, n), nil
}

// ListByPage returns the 1-based page of posts
func (s *Service) ListByPage(ctx context.Context, page int) ([]*models.Post, error) {
	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.paginate(posts, page), nil
}

// ListByTagAndPage returns the 1-based page of posts carrying the tag
func (s *Service) ListByTagAndPage(ctx context.Context, tag string, page int) ([]*models.Post, error) {
	tagged, err := s.tagged(ctx, tag)
	if err != nil {
		return nil, err
	}
	return s.paginate(tagged, page), nil
}

// CountPages returns the page count. A tag always yields at least one page.
func (s *Service) CountPages(ctx context.Context, tag string) (int, error) {
	if tag == "" {
		posts, err := s.ListAll(ctx)
		if err != nil {
			return 0, err
		}
		return s.pageCount(len(posts)), nil
	}

	tagged, err := s.tagged(ctx, tag)
	if err != nil {
		return 0, err
	}
	return max(1, s.pageCount(len(tagged))), nil
}

// ListTags returns the distinct tags (first occurrence wins) sorted by name
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	if tags, ok := s.cache.Tags(); ok {
		return tags, nil
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	tags := make([]models.Tag, 0)
	for _, post := range posts {
		for _, tag := range post.Tags {
			if seen[tag.Name] {
				continue
			}
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	s.cache.SetTags(tags)
	return tags, nil
}

// GetDatabase returns the cached database descriptor
func (s *Service) GetDatabase(ctx context.Context) (*models.Database, error) {
	if db, ok := s.cache.Database(); ok {
		return db, nil
	}

	raw, err := s.api.RetrieveDatabase(ctx, s.databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve database: %w", err)
	}

	db := buildDatabase(raw)
	s.cache.SetDatabase(db)
	return db, nil
}

// GetBlockChildren returns the resolved block tree under id
func (s *Service) GetBlockChildren(ctx context.Context, id string) ([]models.Block, error) {
	return s.builder.BuildChildren(ctx, id)
}

// GetBlock returns one block without children
func (s *Service) GetBlock(ctx context.Context, id string) (models.Block, error) {
	return s.builder.GetBlock(ctx, id)
}

// ResolveFirstImage finds the first image in the post's content and
// remembers it on the post. Returns nil when the content has no image.
func (s *Service) ResolveFirstImage(ctx context.Context, post *models.Post) (*models.FileObject, error) {
	s.imageMu.Lock()
	if post.FirstImage != nil {
		img := post.FirstImage
		s.imageMu.Unlock()
		return img, nil
	}
	s.imageMu.Unlock()

	children, err := s.builder.BuildChildren(ctx, post.PageID)
	if err != nil {
		return nil, fmt.Errorf("failed to build content of %s: %w", post.PageID, err)
	}

	img, ok := extract.FirstImage(children)
	if !ok {
		return nil, nil
	}

	s.imageMu.Lock()
	post.FirstImage = img
	s.imageMu.Unlock()
	return img, nil
}

func (s *Service) tagged(ctx context.Context, tag string) ([]*models.Post, error) {
	if tag == "" {
		return []*models.Post{}, nil
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tagged := make([]*models.Post, 0)
	for _, post := range posts {
		if post.HasTag(tag) {
			tagged = append(tagged, post)
		}
	}
	return tagged, nil
}

func (s *Service) paginate(posts []*models.Post, page int) []*models.Post {
	if page < 1 {
		return []*models.Post{}
	}
	start := (page - 1) * s.postsPerPage
	if start >= len(posts) {
		return []*models.Post{}
	}
	end := min(start+s.postsPerPage, len(posts))
	return posts[start:end]
}

func (s *Service) pageCount(n int) int {
	return (n + s.postsPerPage - 1) / s.postsPerPage
}

// limit returns the first n posts; n <= 0 keeps them all
func limit(posts []*models.Post, n int) []*models.Post {
	if n <= 0 || n >= len(posts) {
		return posts
	}
	return posts[:n]
}
