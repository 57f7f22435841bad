// Package cache holds the per-run entity caches of a generation run.
// A Store is created once by the app and handed to every service, so two
// runs in one process never share state.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
)

// Store names used in Stats
const (
	StorePosts    = "posts"
	StoreDatabase = "database"
	StoreBlocks   = "blocks"
	StorePages    = "pages"
	StoreTags     = "tags"
)

type counter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counter) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

// StoreStats is a snapshot of hit/miss counts for one store
type StoreStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Store is the session cache. Populated keys are served from memory for the
// rest of the run. Concurrent population of the same key is last-writer-wins;
// writers always produce the same value for a key within one run.
type Store struct {
	mu        sync.RWMutex
	sessionID string
	logger    arbor.ILogger

	posts    []*models.Post
	postsSet bool
	database *models.Database
	blocks   map[string][]models.Block
	pages    map[string]*models.Post
	tags     []models.Tag
	tagsSet  bool

	counters map[string]*counter
}

// NewStore creates an empty session cache
func NewStore(logger arbor.ILogger) *Store {
	return &Store{
		sessionID: uuid.New().String(),
		logger:    logger,
		blocks:    make(map[string][]models.Block),
		pages:     make(map[string]*models.Post),
		counters: map[string]*counter{
			StorePosts:    {},
			StoreDatabase: {},
			StoreBlocks:   {},
			StorePages:    {},
			StoreTags:     {},
		},
	}
}

// SessionID identifies this run in logs
func (s *Store) SessionID() string {
	return s.sessionID
}

// Posts returns the cached post list. ok is false until SetPosts succeeds.
func (s *Store) Posts() ([]*models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.counters[StorePosts].record(s.postsSet)
	return s.posts, s.postsSet
}

// SetPosts stores the complete post list. The list is only ever set whole.
func (s *Store) SetPosts(posts []*models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = posts
	s.postsSet = true
}

// Database returns the cached database descriptor
func (s *Store) Database() (*models.Database, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ok := s.database != nil
	s.counters[StoreDatabase].record(ok)
	return s.database, ok
}

// SetDatabase stores the database descriptor
func (s *Store) SetDatabase(db *models.Database) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.database = db
}

// Blocks returns the resolved children of parentID
func (s *Store) Blocks(parentID string) ([]models.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks, ok := s.blocks[parentID]
	s.counters[StoreBlocks].record(ok)
	return blocks, ok
}

// SetBlocks stores the resolved children of parentID.
// An empty list is a valid entry and is served as a hit.
func (s *Store) SetBlocks(parentID string, blocks []models.Block) {
	if blocks == nil {
		blocks = []models.Block{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks[parentID] = blocks
}

// Page returns a cached post by page id
func (s *Store) Page(pageID string) (*models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.pages[pageID]
	s.counters[StorePages].record(ok)
	return post, ok
}

// PageBySlug scans the page cache for a slug
func (s *Store) PageBySlug(slug string) (*models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, post := range s.pages {
		if post.Slug == slug {
			s.counters[StorePages].record(true)
			return post, true
		}
	}
	s.counters[StorePages].record(false)
	return nil, false
}

// SetPage caches a post under its page id
func (s *Store) SetPage(post *models.Post) {
	if post == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[post.PageID] = post
}

// Tags returns the cached tag list
func (s *Store) Tags() ([]models.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.counters[StoreTags].record(s.tagsSet)
	return s.tags, s.tagsSet
}

// SetTags stores the tag list
func (s *Store) SetTags(tags []models.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tags = tags
	s.tagsSet = true
}

// Stats returns a snapshot of per-store counters
func (s *Store) Stats() map[string]StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := map[string]int{
		StorePosts:    len(s.posts),
		StoreDatabase: 0,
		StoreBlocks:   len(s.blocks),
		StorePages:    len(s.pages),
		StoreTags:     len(s.tags),
	}
	if s.database != nil {
		entries[StoreDatabase] = 1
	}

	stats := make(map[string]StoreStats, len(s.counters))
	for name, c := range s.counters {
		stats[name] = StoreStats{
			Hits:    c.hits.Load(),
			Misses:  c.misses.Load(),
			Entries: entries[name],
		}
	}
	return stats
}

// LogStats writes the counters at info level
func (s *Store) LogStats() {
	for name, st := range s.Stats() {
		s.logger.Info().
			Str("session_id", s.sessionID).
			Str("store", name).
			Int64("hits", st.Hits).
			Int64("misses", st.Misses).
			Int("entries", st.Entries).
			Msg("Cache stats")
	}
}
