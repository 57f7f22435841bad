// Package notion provides a rate-limited client for the Notion REST API.
// It covers only the endpoints needed to read a content database and
// rebuild page block trees.
package notion

import (
	"errors"
	"fmt"
)

// ErrClient classifies 4xx responses: the request itself is wrong
// (bad token, unknown id, invalid filter) and retrying cannot help.
var ErrClient = errors.New("notion client error")

// ErrTransient classifies failures that were retried and still failed
// (network errors, timeouts, 5xx).
var ErrTransient = errors.New("notion transient error")

// APIError is an error response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string // Notion error code, e.g. object_not_found
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error: %s (status: %d, code: %s, endpoint: %s)", e.Message, e.StatusCode, e.Code, e.Endpoint)
}

// IsClientError reports whether the status is in the 4xx range
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Is lets errors.Is(err, ErrClient) match 4xx API errors
func (e *APIError) Is(target error) bool {
	return target == ErrClient && e.IsClientError()
}

// IsClientError reports whether err is (or wraps) a non-retryable 4xx error
func IsClientError(err error) bool {
	return errors.Is(err, ErrClient)
}

// IsTransientError reports whether err is a retry-exhausted transient failure
func IsTransientError(err error) bool {
	return errors.Is(err, ErrTransient)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorBody is the JSON shape of Notion error responses
type errorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ---- rich text ----

type AnnotationsObject struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type LinkObject struct {
	URL string `json:"url"`
}

type TextObject struct {
	Content string      `json:"content"`
	Link    *LinkObject `json:"link,omitempty"`
}

type EquationObject struct {
	Expression string `json:"expression"`
}

type PageReference struct {
	ID string `json:"id"`
}

type MentionObject struct {
	Type string         `json:"type"`
	Page *PageReference `json:"page,omitempty"`
}

type RichTextObject struct {
	Type        string            `json:"type"`
	PlainText   string            `json:"plain_text"`
	Href        *string           `json:"href"`
	Annotations AnnotationsObject `json:"annotations"`
	Text        *TextObject       `json:"text,omitempty"`
	Equation    *EquationObject   `json:"equation,omitempty"`
	Mention     *MentionObject    `json:"mention,omitempty"`
}

// ---- files and icons ----

type FileRef struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

type FileObject struct {
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	File     *FileRef `json:"file,omitempty"`
	External *FileRef `json:"external,omitempty"`
}

type IconObject struct {
	Type     string   `json:"type"`
	Emoji    string   `json:"emoji,omitempty"`
	File     *FileRef `json:"file,omitempty"`
	External *FileRef `json:"external,omitempty"`
}

// ---- blocks ----

// TextBlockObject covers every text-carrying block payload
// (paragraph, headings, list items, to_do, quote, toggle).
type TextBlockObject struct {
	RichText     []RichTextObject `json:"rich_text"`
	Color        string           `json:"color"`
	IsToggleable bool             `json:"is_toggleable,omitempty"`
	Checked      bool             `json:"checked,omitempty"`
}

type MediaObject struct {
	Type     string           `json:"type"`
	Caption  []RichTextObject `json:"caption,omitempty"`
	File     *FileRef         `json:"file,omitempty"`
	External *FileRef         `json:"external,omitempty"`
}

type CodeObject struct {
	Caption  []RichTextObject `json:"caption,omitempty"`
	RichText []RichTextObject `json:"rich_text"`
	Language string           `json:"language"`
}

type CalloutObject struct {
	RichText []RichTextObject `json:"rich_text"`
	Icon     *IconObject      `json:"icon,omitempty"`
	Color    string           `json:"color"`
}

type SyncedFromObject struct {
	Type    string `json:"type"`
	BlockID string `json:"block_id"`
}

type SyncedBlockObject struct {
	SyncedFrom *SyncedFromObject `json:"synced_from"`
}

type URLObject struct {
	URL     string           `json:"url"`
	Caption []RichTextObject `json:"caption,omitempty"`
}

type TableObject struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

type TableRowObject struct {
	Cells [][]RichTextObject `json:"cells"`
}

type EmptyObject struct{}

type TableOfContentsObject struct {
	Color string `json:"color"`
}

type LinkToPageObject struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

// BlockObject is one raw block record as returned by the blocks endpoints
type BlockObject struct {
	Object      string `json:"object"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`

	Paragraph        *TextBlockObject       `json:"paragraph,omitempty"`
	Heading1         *TextBlockObject       `json:"heading_1,omitempty"`
	Heading2         *TextBlockObject       `json:"heading_2,omitempty"`
	Heading3         *TextBlockObject       `json:"heading_3,omitempty"`
	BulletedListItem *TextBlockObject       `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlockObject       `json:"numbered_list_item,omitempty"`
	ToDo             *TextBlockObject       `json:"to_do,omitempty"`
	Quote            *TextBlockObject       `json:"quote,omitempty"`
	Toggle           *TextBlockObject       `json:"toggle,omitempty"`
	Image            *MediaObject           `json:"image,omitempty"`
	File             *MediaObject           `json:"file,omitempty"`
	Video            *MediaObject           `json:"video,omitempty"`
	Code             *CodeObject            `json:"code,omitempty"`
	Equation         *EquationObject        `json:"equation,omitempty"`
	Callout          *CalloutObject         `json:"callout,omitempty"`
	SyncedBlock      *SyncedBlockObject     `json:"synced_block,omitempty"`
	Embed            *URLObject             `json:"embed,omitempty"`
	Bookmark         *URLObject             `json:"bookmark,omitempty"`
	LinkPreview      *URLObject             `json:"link_preview,omitempty"`
	Table            *TableObject           `json:"table,omitempty"`
	TableRow         *TableRowObject        `json:"table_row,omitempty"`
	ColumnList       *EmptyObject           `json:"column_list,omitempty"`
	Column           *EmptyObject           `json:"column,omitempty"`
	TableOfContents  *TableOfContentsObject `json:"table_of_contents,omitempty"`
	LinkToPage       *LinkToPageObject      `json:"link_to_page,omitempty"`
}

// BlockChildrenResponse is one page of GET /v1/blocks/{id}/children
type BlockChildrenResponse struct {
	Object     string        `json:"object"`
	Results    []BlockObject `json:"results"`
	HasMore    bool          `json:"has_more"`
	NextCursor *string       `json:"next_cursor"`
}

// ---- pages and databases ----

type TitleProperty struct {
	Type  string           `json:"type"`
	Title []RichTextObject `json:"title"`
}

type RichTextProperty struct {
	Type     string           `json:"type"`
	RichText []RichTextObject `json:"rich_text"`
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type DateProperty struct {
	Type string     `json:"type"`
	Date *DateValue `json:"date"`
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type MultiSelectProperty struct {
	Type        string         `json:"type"`
	MultiSelect []SelectOption `json:"multi_select"`
}

type FilesProperty struct {
	Type  string       `json:"type"`
	Files []FileObject `json:"files"`
}

type NumberProperty struct {
	Type   string   `json:"type"`
	Number *float64 `json:"number"`
}

type CheckboxProperty struct {
	Type     string `json:"type"`
	Checkbox bool   `json:"checkbox"`
}

// PageProperties are the columns of the content database
type PageProperties struct {
	Page          TitleProperty       `json:"Page"`
	Slug          RichTextProperty    `json:"Slug"`
	Date          DateProperty        `json:"Date"`
	Tags          MultiSelectProperty `json:"Tags"`
	Excerpt       RichTextProperty    `json:"Excerpt"`
	FeaturedImage FilesProperty       `json:"FeaturedImage"`
	Rank          NumberProperty      `json:"Rank"`
	Likes         NumberProperty      `json:"Likes"`
	Published     CheckboxProperty    `json:"Published"`
}

// PageObject is one raw page record (a database row)
type PageObject struct {
	Object     string         `json:"object"`
	ID         string         `json:"id"`
	URL        string         `json:"url,omitempty"`
	Icon       *IconObject    `json:"icon"`
	Cover      *FileObject    `json:"cover"`
	Properties PageProperties `json:"properties"`
}

// DatabaseObject is the response of GET /v1/databases/{id}
type DatabaseObject struct {
	Object      string           `json:"object"`
	ID          string           `json:"id"`
	Title       []RichTextObject `json:"title"`
	Description []RichTextObject `json:"description"`
	Icon        *IconObject      `json:"icon"`
	Cover       *FileObject      `json:"cover"`
}

// ---- query ----

type CheckboxFilter struct {
	Equals bool `json:"equals"`
}

type DateFilter struct {
	OnOrBefore string `json:"on_or_before,omitempty"`
}

// Filter is a (compound) database query filter
type Filter struct {
	And      []Filter        `json:"and,omitempty"`
	Property string          `json:"property,omitempty"`
	Checkbox *CheckboxFilter `json:"checkbox,omitempty"`
	Date     *DateFilter     `json:"date,omitempty"`
}

type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"` // ascending or descending
}

// QueryDatabaseRequest is the body of POST /v1/databases/{id}/query
type QueryDatabaseRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// QueryDatabaseResponse is one page of database query results
type QueryDatabaseResponse struct {
	Object     string       `json:"object"`
	Results    []PageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

// UpdatePageRequest is the body of PATCH /v1/pages/{id}
type UpdatePageRequest struct {
	Properties map[string]interface{} `json:"properties"`
}

// PlainText concatenates the plain text of a rich text array
func PlainText(richTexts []RichTextObject) string {
	var out string
	for _, rt := range richTexts {
		out += rt.PlainText
	}
	return out
}

func cursorValue(cursor *string) string {
	if cursor == nil {
		return ""
	}
	return *cursor
}
