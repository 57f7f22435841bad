package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
)

func TestStore_PostsUnsetUntilStored(t *testing.T) {
	store := NewStore(arbor.NewLogger())

	posts, ok := store.Posts()
	assert.False(t, ok)
	assert.Nil(t, posts)

	// An empty listing is still a populated cache
	store.SetPosts([]*models.Post{})
	posts, ok = store.Posts()
	assert.True(t, ok)
	assert.Empty(t, posts)
}

func TestStore_BlocksAreServedVerbatim(t *testing.T) {
	store := NewStore(arbor.NewLogger())

	_, ok := store.Blocks("parent")
	assert.False(t, ok)

	blocks := []models.Block{{ID: "a", Type: models.BlockTypeParagraph}}
	store.SetBlocks("parent", blocks)

	got, ok := store.Blocks("parent")
	require.True(t, ok)
	assert.Equal(t, blocks, got)

	store.SetBlocks("empty", nil)
	got, ok = store.Blocks("empty")
	assert.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_PageBySlug(t *testing.T) {
	store := NewStore(arbor.NewLogger())
	store.SetPage(&models.Post{PageID: "p1", Slug: "hello"})
	store.SetPage(&models.Post{PageID: "p2", Slug: "world"})
	store.SetPage(nil)

	post, ok := store.PageBySlug("world")
	require.True(t, ok)
	assert.Equal(t, "p2", post.PageID)

	_, ok = store.PageBySlug("missing")
	assert.False(t, ok)

	post, ok = store.Page("p1")
	require.True(t, ok)
	assert.Equal(t, "hello", post.Slug)
}

func TestStore_StatsCountHitsAndMisses(t *testing.T) {
	store := NewStore(arbor.NewLogger())

	store.Database()
	store.SetDatabase(&models.Database{Title: "Blog"})
	store.Database()
	store.Database()
	store.Tags()

	stats := store.Stats()
	assert.Equal(t, StoreStats{Hits: 2, Misses: 1, Entries: 1}, stats[StoreDatabase])
	assert.Equal(t, StoreStats{Hits: 0, Misses: 1, Entries: 0}, stats[StoreTags])
	assert.Len(t, stats, 5)
}

func TestStore_SessionIDIsUniquePerStore(t *testing.T) {
	a := NewStore(arbor.NewLogger())
	b := NewStore(arbor.NewLogger())

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(arbor.NewLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("block-%d", i%5)
			store.SetBlocks(id, []models.Block{{ID: id}})
			store.Blocks(id)
			store.SetPage(&models.Post{PageID: id})
			store.PageBySlug("none")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Stats()[StoreBlocks].Entries)
}
