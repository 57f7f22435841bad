package blocks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/cache"
)

// MockNotionAPI is a mock implementation of interfaces.NotionAPI
type MockNotionAPI struct {
	mock.Mock
}

func (m *MockNotionAPI) QueryAllPages(ctx context.Context, databaseID string, req notion.QueryDatabaseRequest) ([]notion.PageObject, error) {
	args := m.Called(ctx, databaseID, req)
	if pages, ok := args.Get(0).([]notion.PageObject); ok {
		return pages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotionAPI) RetrieveDatabase(ctx context.Context, databaseID string) (*notion.DatabaseObject, error) {
	args := m.Called(ctx, databaseID)
	if db, ok := args.Get(0).(*notion.DatabaseObject); ok {
		return db, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotionAPI) RetrieveBlock(ctx context.Context, blockID string) (*notion.BlockObject, error) {
	args := m.Called(ctx, blockID)
	if block, ok := args.Get(0).(*notion.BlockObject); ok {
		return block, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotionAPI) ListAllBlockChildren(ctx context.Context, blockID string) ([]notion.BlockObject, error) {
	args := m.Called(ctx, blockID)
	if blocks, ok := args.Get(0).([]notion.BlockObject); ok {
		return blocks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotionAPI) RetrievePage(ctx context.Context, pageID string) (*notion.PageObject, error) {
	args := m.Called(ctx, pageID)
	if page, ok := args.Get(0).(*notion.PageObject); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotionAPI) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]interface{}) (*notion.PageObject, error) {
	args := m.Called(ctx, pageID, properties)
	if page, ok := args.Get(0).(*notion.PageObject); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeStaging is an in-memory staging store
type fakeStaging struct {
	mu    sync.Mutex
	data  map[string][]notion.BlockObject
	saved []string
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{data: make(map[string][]notion.BlockObject)}
}

func (f *fakeStaging) Load(ctx context.Context, parentID string) ([]notion.BlockObject, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blocks, ok := f.data[parentID]
	return blocks, ok, nil
}

func (f *fakeStaging) Save(ctx context.Context, parentID string, blocks []notion.BlockObject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, parentID)
	return nil
}

func text(s string) []notion.RichTextObject {
	return []notion.RichTextObject{{
		Type:      "text",
		PlainText: s,
		Text:      &notion.TextObject{Content: s},
	}}
}

func paragraph(id, content string, hasChildren bool) notion.BlockObject {
	return notion.BlockObject{
		ID:          id,
		Type:        "paragraph",
		HasChildren: hasChildren,
		Paragraph:   &notion.TextBlockObject{RichText: text(content)},
	}
}

func externalImage(id, url string) notion.BlockObject {
	return notion.BlockObject{
		ID:    id,
		Type:  "image",
		Image: &notion.MediaObject{Type: "external", External: &notion.FileRef{URL: url}},
	}
}

func newTestBuilder(api *MockNotionAPI, opts ...Option) (*Builder, *cache.Store) {
	store := cache.NewStore(arbor.NewLogger())
	return NewBuilder(api, store, arbor.NewLogger(), opts...), store
}

func TestBuildChildren_SecondCallServedFromCache(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").
		Return([]notion.BlockObject{paragraph("a", "one", false), paragraph("b", "two", false)}, nil).
		Once()

	builder, _ := newTestBuilder(api)

	first, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	second, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "one", first[0].Paragraph.RichTexts[0].PlainText)
	api.AssertNumberOfCalls(t, "ListAllBlockChildren", 1)
}

func TestBuildChildren_ResolvesNestedContentInOrder(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{
		paragraph("p", "parent", true),
		{ID: "t", Type: "toggle", HasChildren: true, Toggle: &notion.TextBlockObject{RichText: text("toggle")}},
		{ID: "tb", Type: "table", HasChildren: true, Table: &notion.TableObject{TableWidth: 2, HasColumnHeader: true}},
		{ID: "cl", Type: "column_list", HasChildren: true, ColumnList: &notion.EmptyObject{}},
		{ID: "li", Type: "bulleted_list_item", BulletedListItem: &notion.TextBlockObject{RichText: text("leaf")}},
	}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "p").Return([]notion.BlockObject{paragraph("p1", "child", false)}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "t").Return([]notion.BlockObject{paragraph("t1", "hidden", false)}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "tb").Return([]notion.BlockObject{
		{ID: "r1", Type: "table_row", TableRow: &notion.TableRowObject{Cells: [][]notion.RichTextObject{text("a"), text("b")}}},
		{ID: "r2", Type: "table_row", TableRow: &notion.TableRowObject{Cells: [][]notion.RichTextObject{text("c"), text("d")}}},
	}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "cl").Return([]notion.BlockObject{
		{ID: "c1", Type: "column", HasChildren: true, Column: &notion.EmptyObject{}},
		{ID: "c2", Type: "column", HasChildren: true, Column: &notion.EmptyObject{}},
	}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "c1").Return([]notion.BlockObject{paragraph("c1p", "left", false)}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "c2").Return([]notion.BlockObject{externalImage("c2i", "https://example.com/a.png")}, nil)

	builder, store := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"p", "t", "tb", "cl", "li"}, ids)

	require.Len(t, blocks[0].Paragraph.Children, 1)
	assert.Equal(t, "p1", blocks[0].Paragraph.Children[0].ID)

	require.Len(t, blocks[1].Toggle.Children, 1)
	assert.Equal(t, "t1", blocks[1].Toggle.Children[0].ID)

	require.Len(t, blocks[2].Table.Rows, 2)
	assert.Equal(t, "d", blocks[2].Table.Rows[1].Cells[1].RichTexts[0].PlainText)

	require.Len(t, blocks[3].ColumnList.Columns, 2)
	assert.Equal(t, "c1p", blocks[3].ColumnList.Columns[0].Children[0].ID)
	assert.Equal(t, "https://example.com/a.png", blocks[3].ColumnList.Columns[1].Children[0].Image.URL())

	assert.Nil(t, blocks[4].BulletedListItem.Children)

	// Nested parents are cached on their own
	_, ok := store.Blocks("p")
	assert.True(t, ok)
	_, ok = store.Blocks("c2")
	assert.True(t, ok)

	api.AssertNotCalled(t, "ListAllBlockChildren", mock.Anything, "li")
}

func TestBuildChildren_SyncedReferenceFollowsSource(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{{
		ID:          "ref",
		Type:        "synced_block",
		HasChildren: true,
		SyncedBlock: &notion.SyncedBlockObject{SyncedFrom: &notion.SyncedFromObject{Type: "block_id", BlockID: "src"}},
	}}, nil)
	api.On("RetrieveBlock", mock.Anything, "src").Return(&notion.BlockObject{
		ID:          "src",
		Type:        "synced_block",
		HasChildren: true,
		SyncedBlock: &notion.SyncedBlockObject{},
	}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "src").Return([]notion.BlockObject{paragraph("shared", "shared text", false)}, nil)

	builder, _ := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].SyncedBlock.SyncedFrom)
	assert.Equal(t, "src", blocks[0].SyncedBlock.SyncedFrom.BlockID)
	require.Len(t, blocks[0].SyncedBlock.Children, 1)
	assert.Equal(t, "shared", blocks[0].SyncedBlock.Children[0].ID)

	api.AssertNotCalled(t, "ListAllBlockChildren", mock.Anything, "ref")
}

func TestBuildChildren_SyncedReferenceFailureDegradesToEmpty(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{
		{
			ID:          "ref",
			Type:        "synced_block",
			SyncedBlock: &notion.SyncedBlockObject{SyncedFrom: &notion.SyncedFromObject{BlockID: "gone"}},
		},
		paragraph("after", "still here", false),
	}, nil)
	api.On("RetrieveBlock", mock.Anything, "gone").
		Return(nil, &notion.APIError{StatusCode: 404, Code: "object_not_found"})

	builder, _ := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.NotNil(t, blocks[0].SyncedBlock.Children)
	assert.Empty(t, blocks[0].SyncedBlock.Children)
	assert.Equal(t, "after", blocks[1].ID)
}

func TestBuildChildren_SyncedCycleIsCut(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{{
		ID:          "x",
		Type:        "synced_block",
		HasChildren: true,
		SyncedBlock: &notion.SyncedBlockObject{},
	}}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "x").Return([]notion.BlockObject{{
		ID:          "loop",
		Type:        "synced_block",
		SyncedBlock: &notion.SyncedBlockObject{SyncedFrom: &notion.SyncedFromObject{BlockID: "x"}},
	}}, nil)

	builder, _ := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, blocks[0].SyncedBlock.Children, 1)

	loop := blocks[0].SyncedBlock.Children[0]
	assert.Equal(t, "loop", loop.ID)
	assert.Empty(t, loop.SyncedBlock.Children)
	api.AssertNotCalled(t, "RetrieveBlock", mock.Anything, "x")
}

func TestBuildChildren_ClientErrorAbortsSubtree(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{paragraph("p", "parent", true)}, nil)
	api.On("ListAllBlockChildren", mock.Anything, "p").
		Return(nil, &notion.APIError{StatusCode: 403, Code: "restricted_resource"})

	builder, store := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.Error(t, err)
	assert.Nil(t, blocks)
	assert.True(t, notion.IsClientError(err))

	_, ok := store.Blocks("page")
	assert.False(t, ok, "a failed tree must not be cached")
}

func TestBuildChildren_BoundsConcurrentSubtrees(t *testing.T) {
	var children []notion.BlockObject
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		children = append(children, paragraph(id, id, true))
	}

	var inFlight, peak int32
	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return(children, nil)
	api.On("ListAllBlockChildren", mock.Anything, mock.MatchedBy(func(id string) bool { return id != "page" })).
		Run(func(args mock.Arguments) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}).
		Return([]notion.BlockObject{}, nil)

	builder, _ := newTestBuilder(api)

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	assert.Len(t, blocks, 7)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(DefaultMaxConcurrency))
	assert.Equal(t, "g", blocks[6].ID)
}

func TestBuildChildren_StagingReplacesNetwork(t *testing.T) {
	staging := newFakeStaging()
	staging.data["page"] = []notion.BlockObject{paragraph("staged", "offline", false)}

	api := new(MockNotionAPI)
	builder, _ := newTestBuilder(api, WithStaging(staging))

	blocks, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "staged", blocks[0].ID)
	api.AssertNotCalled(t, "ListAllBlockChildren", mock.Anything, mock.Anything)
}

func TestBuildChildren_RecordsFetchedChildren(t *testing.T) {
	recorder := newFakeStaging()

	api := new(MockNotionAPI)
	api.On("ListAllBlockChildren", mock.Anything, "page").Return([]notion.BlockObject{paragraph("a", "x", false)}, nil)

	builder, _ := newTestBuilder(api, WithRecorder(recorder))

	_, err := builder.BuildChildren(context.Background(), "page")
	require.NoError(t, err)
	assert.Equal(t, []string{"page"}, recorder.saved)
}

func TestGetBlock_MapsWithoutChildren(t *testing.T) {
	api := new(MockNotionAPI)
	api.On("RetrieveBlock", mock.Anything, "h").Return(&notion.BlockObject{
		ID:          "h",
		Type:        "heading_2",
		HasChildren: true,
		Heading2:    &notion.TextBlockObject{RichText: text("Title"), IsToggleable: true},
	}, nil)

	builder, _ := newTestBuilder(api)

	block, err := builder.GetBlock(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, models.BlockTypeHeading2, block.Type)
	assert.True(t, block.Heading2.IsToggleable)
	assert.Nil(t, block.Heading2.Children)
	api.AssertNotCalled(t, "ListAllBlockChildren", mock.Anything, mock.Anything)
}
