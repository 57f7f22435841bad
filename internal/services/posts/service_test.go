package posts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/blocks"
	"github.com/ternarybob/folio/internal/services/cache"
	"github.com/ternarybob/folio/internal/services/slug"
)

// MockNotionAPI mocks the upstream API
type MockNotionAPI struct {
	mock.Mock
}

func (m *MockNotionAPI) QueryAllPages(ctx context.Context, databaseID string, req notion.QueryDatabaseRequest) ([]notion.PageObject, error) {
	args := m.Called(ctx, databaseID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notion.PageObject), args.Error(1)
}

func (m *MockNotionAPI) RetrieveDatabase(ctx context.Context, databaseID string) (*notion.DatabaseObject, error) {
	args := m.Called(ctx, databaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.DatabaseObject), args.Error(1)
}

func (m *MockNotionAPI) RetrieveBlock(ctx context.Context, blockID string) (*notion.BlockObject, error) {
	args := m.Called(ctx, blockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.BlockObject), args.Error(1)
}

func (m *MockNotionAPI) ListAllBlockChildren(ctx context.Context, blockID string) ([]notion.BlockObject, error) {
	args := m.Called(ctx, blockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notion.BlockObject), args.Error(1)
}

func (m *MockNotionAPI) RetrievePage(ctx context.Context, pageID string) (*notion.PageObject, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.PageObject), args.Error(1)
}

func (m *MockNotionAPI) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]interface{}) (*notion.PageObject, error) {
	args := m.Called(ctx, pageID, properties)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.PageObject), args.Error(1)
}

func richText(s string) []notion.RichTextObject {
	if s == "" {
		return nil
	}
	return []notion.RichTextObject{{Type: "text", PlainText: s, Text: &notion.TextObject{Content: s}}}
}

func number(n float64) *float64 { return &n }

type pageFields struct {
	id    string
	title string
	date  string
	slug  string
	tags  []string
	rank  float64
	likes *float64
}

func page(f pageFields) notion.PageObject {
	p := notion.PageObject{Object: "page", ID: f.id}
	p.Properties.Page.Title = richText(f.title)
	p.Properties.Slug.RichText = richText(f.slug)
	if f.date != "" {
		p.Properties.Date.Date = &notion.DateValue{Start: f.date}
	}
	for _, tag := range f.tags {
		p.Properties.Tags.MultiSelect = append(p.Properties.Tags.MultiSelect, notion.SelectOption{Name: tag, Color: "blue"})
	}
	if f.rank != 0 {
		p.Properties.Rank.Number = number(f.rank)
	}
	p.Properties.Likes.Number = f.likes
	p.Properties.Published.Checkbox = true
	return p
}

func newTestService(api *MockNotionAPI, postsPerPage int) (*Service, *cache.Store) {
	logger := arbor.NewLogger()
	store := cache.NewStore(logger)
	builder := blocks.NewBuilder(api, store, logger)
	resolver := slug.NewResolver(nil, slug.DefaultMaxLength, logger)
	svc := NewService(api, builder, resolver, store, "db-1", postsPerPage, logger)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestListAll_QueriesPublishedPostsNewestFirst(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("QueryAllPages", mock.Anything, "db-1", mock.MatchedBy(func(req notion.QueryDatabaseRequest) bool {
		return req.PageSize == 100 &&
			len(req.Filter.And) == 2 &&
			req.Filter.And[0].Property == "Published" && req.Filter.And[0].Checkbox.Equals &&
			req.Filter.And[1].Property == "Date" && req.Filter.And[1].Date.OnOrBefore == "2024-06-01T12:00:00Z" &&
			len(req.Sorts) == 1 && req.Sorts[0].Property == "Date" && req.Sorts[0].Direction == "descending"
	})).Return([]notion.PageObject{
		page(pageFields{id: "p1", title: "Newest", date: "2024-05-01"}),
		page(pageFields{id: "p2", title: "", date: "2024-04-01"}),
		page(pageFields{id: "p3", title: "Undated"}),
		page(pageFields{id: "p4", title: "Oldest", date: "2024-01-01"}),
	}, nil).Once()

	posts, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].PageID)
	assert.Equal(t, "p4", posts[1].PageID)
	assert.True(t, posts[0].PublishedAt.After(posts[1].PublishedAt))
	assert.Equal(t, "newest", posts[0].Slug)

	// Served from cache
	again, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, posts, again)
	api.AssertExpectations(t)
}

func TestListAll_FailureLeavesCacheUnset(t *testing.T) {
	api := new(MockNotionAPI)
	svc, store := newTestService(api, 0)

	api.On("QueryAllPages", mock.Anything, "db-1", mock.Anything).
		Return(nil, errors.New("upstream down")).Once()

	_, err := svc.ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query posts")

	_, ok := store.Posts()
	assert.False(t, ok)
}

func TestListAll_SlugsKeepExplicitAndDedupeDerived(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("QueryAllPages", mock.Anything, "db-1", mock.Anything).Return([]notion.PageObject{
		page(pageFields{id: "p1", title: "Hello World", date: "2024-05-03"}),
		page(pageFields{id: "p2", title: "Something else", date: "2024-05-02", slug: "hello-world"}),
		page(pageFields{id: "p3", title: "Hello, World!", date: "2024-05-01"}),
	}, nil)

	posts, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "hello-world-2", posts[0].Slug)
	assert.Equal(t, "hello-world", posts[1].Slug)
	assert.Equal(t, "hello-world-3", posts[2].Slug)
}

func TestPostBuilding(t *testing.T) {
	raw := page(pageFields{id: "p1", title: "Built", date: "2024-05-01T10:30:00Z", tags: []string{"Go"}, rank: 4, likes: number(7)})
	raw.Properties.Excerpt.RichText = richText("Short summary")
	raw.Properties.FeaturedImage.Files = []notion.FileObject{
		{Type: "file", File: &notion.FileRef{URL: "https://files.notion.so/f.png", ExpiryTime: "2024-06-01T00:00:00Z"}},
	}
	raw.Cover = &notion.FileObject{Type: "external", External: &notion.FileRef{URL: "https://example.com/cover.jpg"}}
	raw.Icon = &notion.IconObject{Type: "emoji", Emoji: "📝"}

	post := buildPost(&raw)

	assert.Equal(t, "Built", post.Title)
	assert.Equal(t, "Short summary", post.Excerpt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), post.PublishedAt)
	assert.Equal(t, 4.0, post.Rank)
	assert.Equal(t, 7, post.Likes)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "Go", post.Tags[0].Name)
	require.NotNil(t, post.FeaturedImage)
	assert.Equal(t, models.FileTypeFile, post.FeaturedImage.Type)
	assert.Equal(t, "2024-06-01T00:00:00Z", post.FeaturedImage.ExpiryTime)
	assert.Equal(t, "https://example.com/cover.jpg", post.Cover.URL)
	assert.Equal(t, "📝", post.Icon.Emoji)

	empty := page(pageFields{id: "p2", title: "Bare", date: "2024-05-01"})
	bare := buildPost(&empty)
	assert.Zero(t, bare.Rank)
	assert.Zero(t, bare.Likes)
	assert.Nil(t, bare.FeaturedImage)
	assert.NotNil(t, bare.Tags)
}

func listFixture(api *MockNotionAPI) {
	api.On("QueryAllPages", mock.Anything, "db-1", mock.Anything).Return([]notion.PageObject{
		page(pageFields{id: "p1", title: "One", date: "2024-05-05", tags: []string{"C", "A"}, rank: 1}),
		page(pageFields{id: "p2", title: "Two", date: "2024-05-04", tags: []string{"B"}}),
		page(pageFields{id: "p3", title: "Three", date: "2024-05-03", tags: []string{"A"}, rank: 5}),
		page(pageFields{id: "p4", title: "Four", date: "2024-05-02"}),
		page(pageFields{id: "p5", title: "Five", date: "2024-05-01", tags: []string{"A"}, rank: 3}),
	}, nil).Once()
}

func ids(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.PageID
	}
	return out
}

func TestListTags_DistinctSortedByName(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)
	listFixture(api)

	tags, err := svc.ListTags(context.Background())
	require.NoError(t, err)

	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestListings(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 2)
	listFixture(api)
	ctx := context.Background()

	recent, err := svc.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(recent))

	ranked, err := svc.ListRanked(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p5"}, ids(ranked))

	ranked, err = svc.ListRanked(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p5", "p1"}, ids(ranked))

	byTag, err := svc.ListByTag(ctx, "A", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "p5"}, ids(byTag))

	none, err := svc.ListByTag(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	page2, err := svc.ListByPage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p4"}, ids(page2))

	page3, err := svc.ListByPage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, ids(page3))

	for _, p := range []int{0, -1, 4} {
		out, err := svc.ListByPage(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, out, "page %d", p)
	}

	tagPage, err := svc.ListByTagAndPage(ctx, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, ids(tagPage))

	pages, err := svc.CountPages(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	pages, err = svc.CountPages(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	pages, err = svc.CountPages(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	api.AssertNumberOfCalls(t, "QueryAllPages", 1)
}

func TestGetBySlugAndID(t *testing.T) {
	api := new(MockNotionAPI)
	svc, store := newTestService(api, 0)
	listFixture(api)
	ctx := context.Background()

	post, err := svc.GetBySlug(ctx, "three")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "p3", post.PageID)

	cached, ok := store.Page("p3")
	assert.True(t, ok)
	assert.Same(t, post, cached)

	byID, err := svc.GetByID(ctx, "p2")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "two", byID.Slug)

	missing, err := svc.GetBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetBySlug_EmptyMatchesNothing(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	post, err := svc.GetBySlug(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, post)
	api.AssertNotCalled(t, "QueryAllPages", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAll_TitlesWithoutSlugCharactersNeverGetEmptySlugs(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("QueryAllPages", mock.Anything, "db-1", mock.Anything).Return([]notion.PageObject{
		page(pageFields{id: "p1", title: "!!!", date: "2024-05-03"}),
		page(pageFields{id: "p2", title: "???", date: "2024-05-02"}),
		page(pageFields{id: "p3", title: strings.Repeat("x", 60), date: "2024-05-01"}),
	}, nil)

	posts, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "!!!", posts[0].Slug)
	assert.Equal(t, "???", posts[1].Slug)
	assert.Equal(t, strings.Repeat("x", 50), posts[2].Slug)
	for _, post := range posts {
		assert.NotEmpty(t, post.Slug)
		assert.False(t, strings.HasPrefix(post.Slug, "-"))
	}
}

func TestGetDatabase_Cached(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("RetrieveDatabase", mock.Anything, "db-1").Return(&notion.DatabaseObject{
		ID:          "db-1",
		Title:       append(richText("My "), richText("Blog")...),
		Description: richText("Notes"),
		Icon:        &notion.IconObject{Type: "external", External: &notion.FileRef{URL: "https://example.com/i.png"}},
		Cover:       &notion.FileObject{Type: "file", File: &notion.FileRef{URL: "https://files.notion.so/c.png"}},
	}, nil).Once()

	db, err := svc.GetDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "My Blog", db.Title)
	assert.Equal(t, "Notes", db.Description)
	assert.Equal(t, "https://example.com/i.png", db.Icon.URL)
	assert.Equal(t, models.FileTypeFile, db.Cover.Type)

	_, err = svc.GetDatabase(context.Background())
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestResolveFirstImage_Memoized(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("ListAllBlockChildren", mock.Anything, "p1").Return([]notion.BlockObject{
		{ID: "b1", Type: "paragraph", Paragraph: &notion.TextBlockObject{RichText: richText("intro")}},
		{ID: "b2", Type: "image", Image: &notion.MediaObject{Type: "external", External: &notion.FileRef{URL: "https://example.com/first.png"}}},
	}, nil).Once()

	post := &models.Post{PageID: "p1"}
	img, err := svc.ResolveFirstImage(context.Background(), post)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "https://example.com/first.png", img.URL)
	assert.Same(t, img, post.FirstImage)

	again, err := svc.ResolveFirstImage(context.Background(), post)
	require.NoError(t, err)
	assert.Same(t, img, again)
	api.AssertExpectations(t)
}

func TestUpdateLikes(t *testing.T) {
	tests := []struct {
		name    string
		current *float64
		action  interfaces.LikeAction
		want    int
	}{
		{"like from unset", nil, interfaces.LikeActionLike, 1},
		{"like", number(4), interfaces.LikeActionLike, 5},
		{"unlike", number(4), interfaces.LikeActionUnlike, 3},
		{"unlike never below zero", number(0), interfaces.LikeActionUnlike, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockNotionAPI)
			svc, _ := newTestService(api, 0)

			api.On("RetrievePage", mock.Anything, "p1").
				Return(&notion.PageObject{ID: "p1", Properties: notion.PageProperties{Likes: notion.NumberProperty{Number: tt.current}}}, nil)
			api.On("UpdatePageProperties", mock.Anything, "p1", map[string]interface{}{
				"Likes": map[string]interface{}{"number": tt.want},
			}).Return(&notion.PageObject{ID: "p1"}, nil).Once()

			got, err := svc.UpdateLikes(context.Background(), "p1", tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			api.AssertExpectations(t)
		})
	}
}

func TestUpdateLikes_ReplacesCachedPostWithoutMutatingIt(t *testing.T) {
	api := new(MockNotionAPI)
	svc, store := newTestService(api, 0)

	original := &models.Post{PageID: "p1", Slug: "one", Likes: 4}
	store.SetPage(original)

	api.On("RetrievePage", mock.Anything, "p1").
		Return(&notion.PageObject{ID: "p1", Properties: notion.PageProperties{Likes: notion.NumberProperty{Number: number(4)}}}, nil)
	api.On("UpdatePageProperties", mock.Anything, "p1", mock.Anything).
		Return(&notion.PageObject{ID: "p1"}, nil).Once()

	got, err := svc.UpdateLikes(context.Background(), "p1", interfaces.LikeActionLike)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	// Readers holding the earlier pointer see an unchanged post
	assert.Equal(t, 4, original.Likes)

	cached, ok := store.Page("p1")
	require.True(t, ok)
	assert.NotSame(t, original, cached)
	assert.Equal(t, 5, cached.Likes)
	assert.Equal(t, "one", cached.Slug)
}

func TestUpdateLikes_UnknownAction(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	_, err := svc.UpdateLikes(context.Background(), "p1", interfaces.LikeAction("love"))
	assert.Error(t, err)
	api.AssertNotCalled(t, "RetrievePage", mock.Anything, mock.Anything)
}

func TestGetLikes(t *testing.T) {
	api := new(MockNotionAPI)
	svc, _ := newTestService(api, 0)

	api.On("RetrievePage", mock.Anything, "p1").
		Return(&notion.PageObject{Properties: notion.PageProperties{Likes: notion.NumberProperty{Number: number(9)}}}, nil).Once()
	api.On("RetrievePage", mock.Anything, "missing").
		Return(nil, &notion.APIError{StatusCode: 404, Code: "object_not_found"}).Once()

	likes, err := svc.GetLikes(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, likes)

	_, err = svc.GetLikes(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, notion.IsClientError(err))
}
