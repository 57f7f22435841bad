package models

// BlockType is the discriminant of a Block. The set is closed: anything the
// upstream sends that is not listed here maps to BlockTypeUnsupported.
type BlockType string

const (
	BlockTypeParagraph        BlockType = "paragraph"
	BlockTypeHeading1         BlockType = "heading_1"
	BlockTypeHeading2         BlockType = "heading_2"
	BlockTypeHeading3         BlockType = "heading_3"
	BlockTypeBulletedListItem BlockType = "bulleted_list_item"
	BlockTypeNumberedListItem BlockType = "numbered_list_item"
	BlockTypeToDo             BlockType = "to_do"
	BlockTypeImage            BlockType = "image"
	BlockTypeFile             BlockType = "file"
	BlockTypeVideo            BlockType = "video"
	BlockTypeCode             BlockType = "code"
	BlockTypeQuote            BlockType = "quote"
	BlockTypeEquation         BlockType = "equation"
	BlockTypeCallout          BlockType = "callout"
	BlockTypeSyncedBlock      BlockType = "synced_block"
	BlockTypeToggle           BlockType = "toggle"
	BlockTypeEmbed            BlockType = "embed"
	BlockTypeBookmark         BlockType = "bookmark"
	BlockTypeLinkPreview      BlockType = "link_preview"
	BlockTypeTable            BlockType = "table"
	BlockTypeColumnList       BlockType = "column_list"
	BlockTypeTableOfContents  BlockType = "table_of_contents"
	BlockTypeLinkToPage       BlockType = "link_to_page"
	BlockTypeUnsupported      BlockType = "unsupported"
)

// Block is one node of a page's content tree. Exactly one payload pointer
// matching Type is non-nil (none for BlockTypeUnsupported).
type Block struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	HasChildren bool      `json:"has_children"`

	Paragraph        *Paragraph        `json:"paragraph,omitempty"`
	Heading1         *Heading          `json:"heading_1,omitempty"`
	Heading2         *Heading          `json:"heading_2,omitempty"`
	Heading3         *Heading          `json:"heading_3,omitempty"`
	BulletedListItem *ListItem         `json:"bulleted_list_item,omitempty"`
	NumberedListItem *ListItem         `json:"numbered_list_item,omitempty"`
	ToDo             *ToDo             `json:"to_do,omitempty"`
	Image            *Media            `json:"image,omitempty"`
	File             *Media            `json:"file,omitempty"`
	Video            *Media            `json:"video,omitempty"`
	Code             *Code             `json:"code,omitempty"`
	Quote            *Quote            `json:"quote,omitempty"`
	Equation         *Equation         `json:"equation,omitempty"`
	Callout          *Callout          `json:"callout,omitempty"`
	SyncedBlock      *SyncedBlock      `json:"synced_block,omitempty"`
	Toggle           *Toggle           `json:"toggle,omitempty"`
	Embed            *URLBlock         `json:"embed,omitempty"`
	Bookmark         *URLBlock         `json:"bookmark,omitempty"`
	LinkPreview      *URLBlock         `json:"link_preview,omitempty"`
	Table            *Table            `json:"table,omitempty"`
	ColumnList       *ColumnList       `json:"column_list,omitempty"`
	TableOfContents  *TableOfContents  `json:"table_of_contents,omitempty"`
	LinkToPage       *LinkToPage       `json:"link_to_page,omitempty"`
}

type Paragraph struct {
	RichTexts []RichText `json:"rich_texts"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

type Heading struct {
	RichTexts    []RichText `json:"rich_texts"`
	Color        string     `json:"color"`
	IsToggleable bool       `json:"is_toggleable"`
	Children     []Block    `json:"children,omitempty"`
}

// ListItem is the payload of both bulleted and numbered list items
type ListItem struct {
	RichTexts []RichText `json:"rich_texts"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

type ToDo struct {
	RichTexts []RichText `json:"rich_texts"`
	Checked   bool       `json:"checked"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

// Media is the payload of image, file and video blocks.
// File is set for Notion-hosted content, External otherwise.
type Media struct {
	Type     string      `json:"type"`
	Caption  []RichText  `json:"caption"`
	File     *FileObject `json:"file,omitempty"`
	External *FileObject `json:"external,omitempty"`
}

// URL returns the hosted or external URL, whichever is set
func (m *Media) URL() string {
	if m == nil {
		return ""
	}
	if m.File != nil && m.File.URL != "" {
		return m.File.URL
	}
	if m.External != nil {
		return m.External.URL
	}
	return ""
}

type Code struct {
	Caption   []RichText `json:"caption"`
	RichTexts []RichText `json:"rich_texts"`
	Language  string     `json:"language"`
}

type Quote struct {
	RichTexts []RichText `json:"rich_texts"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

type Callout struct {
	RichTexts []RichText `json:"rich_texts"`
	Icon      *Icon      `json:"icon,omitempty"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

// SyncedFrom references the original of a synced block
type SyncedFrom struct {
	BlockID string `json:"block_id"`
}

// SyncedBlock is either an original (SyncedFrom nil) or a reference whose
// children live under SyncedFrom.BlockID.
type SyncedBlock struct {
	SyncedFrom *SyncedFrom `json:"synced_from,omitempty"`
	Children   []Block     `json:"children,omitempty"`
}

type Toggle struct {
	RichTexts []RichText `json:"rich_texts"`
	Color     string     `json:"color"`
	Children  []Block    `json:"children,omitempty"`
}

// URLBlock is the payload of embed, bookmark and link_preview blocks
type URLBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

type TableCell struct {
	RichTexts []RichText `json:"rich_texts"`
}

type TableRow struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	HasChildren bool        `json:"has_children"`
	Cells       []TableCell `json:"cells"`
}

type Table struct {
	TableWidth      int        `json:"table_width"`
	HasColumnHeader bool       `json:"has_column_header"`
	HasRowHeader    bool       `json:"has_row_header"`
	Rows            []TableRow `json:"rows,omitempty"`
}

type Column struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	HasChildren bool    `json:"has_children"`
	Children    []Block `json:"children,omitempty"`
}

type ColumnList struct {
	Columns []Column `json:"columns,omitempty"`
}

type TableOfContents struct {
	Color string `json:"color"`
}

type LinkToPage struct {
	Type   string `json:"type"`
	PageID string `json:"page_id"`
}

// Children returns the nested blocks owned by the payload. Column lists are
// flattened column by column. Tables have rows, not blocks, and return nil.
func (b *Block) Children() []Block {
	switch b.Type {
	case BlockTypeParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.Children
		}
	case BlockTypeHeading1:
		if b.Heading1 != nil {
			return b.Heading1.Children
		}
	case BlockTypeHeading2:
		if b.Heading2 != nil {
			return b.Heading2.Children
		}
	case BlockTypeHeading3:
		if b.Heading3 != nil {
			return b.Heading3.Children
		}
	case BlockTypeBulletedListItem:
		if b.BulletedListItem != nil {
			return b.BulletedListItem.Children
		}
	case BlockTypeNumberedListItem:
		if b.NumberedListItem != nil {
			return b.NumberedListItem.Children
		}
	case BlockTypeToDo:
		if b.ToDo != nil {
			return b.ToDo.Children
		}
	case BlockTypeQuote:
		if b.Quote != nil {
			return b.Quote.Children
		}
	case BlockTypeCallout:
		if b.Callout != nil {
			return b.Callout.Children
		}
	case BlockTypeSyncedBlock:
		if b.SyncedBlock != nil {
			return b.SyncedBlock.Children
		}
	case BlockTypeToggle:
		if b.Toggle != nil {
			return b.Toggle.Children
		}
	case BlockTypeColumnList:
		if b.ColumnList != nil {
			var all []Block
			for _, column := range b.ColumnList.Columns {
				all = append(all, column.Children...)
			}
			return all
		}
	}
	return nil
}

// SetChildren stores children on a payload that can own them.
// Returns false when the block kind cannot hold nested blocks.
func (b *Block) SetChildren(children []Block) bool {
	switch b.Type {
	case BlockTypeParagraph:
		if b.Paragraph != nil {
			b.Paragraph.Children = children
			return true
		}
	case BlockTypeHeading1:
		if b.Heading1 != nil {
			b.Heading1.Children = children
			return true
		}
	case BlockTypeHeading2:
		if b.Heading2 != nil {
			b.Heading2.Children = children
			return true
		}
	case BlockTypeHeading3:
		if b.Heading3 != nil {
			b.Heading3.Children = children
			return true
		}
	case BlockTypeBulletedListItem:
		if b.BulletedListItem != nil {
			b.BulletedListItem.Children = children
			return true
		}
	case BlockTypeNumberedListItem:
		if b.NumberedListItem != nil {
			b.NumberedListItem.Children = children
			return true
		}
	case BlockTypeToDo:
		if b.ToDo != nil {
			b.ToDo.Children = children
			return true
		}
	case BlockTypeQuote:
		if b.Quote != nil {
			b.Quote.Children = children
			return true
		}
	case BlockTypeCallout:
		if b.Callout != nil {
			b.Callout.Children = children
			return true
		}
	case BlockTypeSyncedBlock:
		if b.SyncedBlock != nil {
			b.SyncedBlock.Children = children
			return true
		}
	case BlockTypeToggle:
		if b.Toggle != nil {
			b.Toggle.Children = children
			return true
		}
	}
	return false
}

// CanHoldChildren reports whether the payload of this kind owns a child list
func (b *Block) CanHoldChildren() bool {
	switch b.Type {
	case BlockTypeParagraph, BlockTypeHeading1, BlockTypeHeading2, BlockTypeHeading3,
		BlockTypeBulletedListItem, BlockTypeNumberedListItem, BlockTypeToDo,
		BlockTypeQuote, BlockTypeCallout, BlockTypeSyncedBlock, BlockTypeToggle:
		return true
	}
	return false
}

// Heading returns the heading payload for heading_1..3 blocks, nil otherwise
func (b *Block) Heading() *Heading {
	switch b.Type {
	case BlockTypeHeading1:
		return b.Heading1
	case BlockTypeHeading2:
		return b.Heading2
	case BlockTypeHeading3:
		return b.Heading3
	}
	return nil
}
