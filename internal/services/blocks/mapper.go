package blocks

import (
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
)

// blockMapper fills the payload of b from raw. It returns false when the raw
// record lacks the payload its type names.
type blockMapper func(raw *notion.BlockObject, b *models.Block) bool

// mappers is the registry of supported kinds. A kind absent here maps to
// models.BlockTypeUnsupported.
var mappers = map[models.BlockType]blockMapper{
	models.BlockTypeParagraph: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Paragraph == nil {
			return false
		}
		b.Paragraph = &models.Paragraph{
			RichTexts: MapRichTexts(raw.Paragraph.RichText),
			Color:     raw.Paragraph.Color,
		}
		return true
	},
	models.BlockTypeHeading1: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Heading1 = mapHeading(raw.Heading1)
		return b.Heading1 != nil
	},
	models.BlockTypeHeading2: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Heading2 = mapHeading(raw.Heading2)
		return b.Heading2 != nil
	},
	models.BlockTypeHeading3: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Heading3 = mapHeading(raw.Heading3)
		return b.Heading3 != nil
	},
	models.BlockTypeBulletedListItem: func(raw *notion.BlockObject, b *models.Block) bool {
		b.BulletedListItem = mapListItem(raw.BulletedListItem)
		return b.BulletedListItem != nil
	},
	models.BlockTypeNumberedListItem: func(raw *notion.BlockObject, b *models.Block) bool {
		b.NumberedListItem = mapListItem(raw.NumberedListItem)
		return b.NumberedListItem != nil
	},
	models.BlockTypeToDo: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.ToDo == nil {
			return false
		}
		b.ToDo = &models.ToDo{
			RichTexts: MapRichTexts(raw.ToDo.RichText),
			Checked:   raw.ToDo.Checked,
			Color:     raw.ToDo.Color,
		}
		return true
	},
	models.BlockTypeImage: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Image = mapMedia(raw.Image)
		return b.Image != nil
	},
	models.BlockTypeFile: func(raw *notion.BlockObject, b *models.Block) bool {
		b.File = mapMedia(raw.File)
		return b.File != nil
	},
	models.BlockTypeVideo: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Video = mapMedia(raw.Video)
		return b.Video != nil
	},
	models.BlockTypeCode: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Code == nil {
			return false
		}
		b.Code = &models.Code{
			Caption:   MapRichTexts(raw.Code.Caption),
			RichTexts: MapRichTexts(raw.Code.RichText),
			Language:  raw.Code.Language,
		}
		return true
	},
	models.BlockTypeQuote: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Quote == nil {
			return false
		}
		b.Quote = &models.Quote{
			RichTexts: MapRichTexts(raw.Quote.RichText),
			Color:     raw.Quote.Color,
		}
		return true
	},
	models.BlockTypeEquation: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Equation == nil {
			return false
		}
		b.Equation = &models.Equation{Expression: raw.Equation.Expression}
		return true
	},
	models.BlockTypeCallout: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Callout == nil {
			return false
		}
		b.Callout = &models.Callout{
			RichTexts: MapRichTexts(raw.Callout.RichText),
			Icon:      MapIcon(raw.Callout.Icon),
			Color:     raw.Callout.Color,
		}
		return true
	},
	models.BlockTypeSyncedBlock: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.SyncedBlock == nil {
			return false
		}
		b.SyncedBlock = &models.SyncedBlock{}
		if from := raw.SyncedBlock.SyncedFrom; from != nil && from.BlockID != "" {
			b.SyncedBlock.SyncedFrom = &models.SyncedFrom{BlockID: from.BlockID}
		}
		return true
	},
	models.BlockTypeToggle: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Toggle == nil {
			return false
		}
		b.Toggle = &models.Toggle{
			RichTexts: MapRichTexts(raw.Toggle.RichText),
			Color:     raw.Toggle.Color,
		}
		return true
	},
	models.BlockTypeEmbed: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Embed = mapURL(raw.Embed)
		return b.Embed != nil
	},
	models.BlockTypeBookmark: func(raw *notion.BlockObject, b *models.Block) bool {
		b.Bookmark = mapURL(raw.Bookmark)
		return b.Bookmark != nil
	},
	models.BlockTypeLinkPreview: func(raw *notion.BlockObject, b *models.Block) bool {
		b.LinkPreview = mapURL(raw.LinkPreview)
		return b.LinkPreview != nil
	},
	models.BlockTypeTable: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.Table == nil {
			return false
		}
		b.Table = &models.Table{
			TableWidth:      raw.Table.TableWidth,
			HasColumnHeader: raw.Table.HasColumnHeader,
			HasRowHeader:    raw.Table.HasRowHeader,
		}
		return true
	},
	// The upstream payload of a column list is empty, so it is never required
	models.BlockTypeColumnList: func(raw *notion.BlockObject, b *models.Block) bool {
		b.ColumnList = &models.ColumnList{}
		return true
	},
	models.BlockTypeTableOfContents: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.TableOfContents == nil {
			return false
		}
		b.TableOfContents = &models.TableOfContents{Color: raw.TableOfContents.Color}
		return true
	},
	models.BlockTypeLinkToPage: func(raw *notion.BlockObject, b *models.Block) bool {
		if raw.LinkToPage == nil || raw.LinkToPage.PageID == "" {
			return false
		}
		b.LinkToPage = &models.LinkToPage{
			Type:   raw.LinkToPage.Type,
			PageID: raw.LinkToPage.PageID,
		}
		return true
	},
}

// MapBlock converts one raw block record. Children are not resolved.
func MapBlock(raw *notion.BlockObject) models.Block {
	b := models.Block{
		ID:          raw.ID,
		Type:        models.BlockType(raw.Type),
		HasChildren: raw.HasChildren,
	}

	mapper, ok := mappers[b.Type]
	if !ok || !mapper(raw, &b) {
		return models.Block{
			ID:          raw.ID,
			Type:        models.BlockTypeUnsupported,
			HasChildren: raw.HasChildren,
		}
	}
	return b
}

// IsSupported reports whether a raw type string has a registered mapper
func IsSupported(blockType string) bool {
	_, ok := mappers[models.BlockType(blockType)]
	return ok
}

func mapHeading(raw *notion.TextBlockObject) *models.Heading {
	if raw == nil {
		return nil
	}
	return &models.Heading{
		RichTexts:    MapRichTexts(raw.RichText),
		Color:        raw.Color,
		IsToggleable: raw.IsToggleable,
	}
}

func mapListItem(raw *notion.TextBlockObject) *models.ListItem {
	if raw == nil {
		return nil
	}
	return &models.ListItem{
		RichTexts: MapRichTexts(raw.RichText),
		Color:     raw.Color,
	}
}

func mapMedia(raw *notion.MediaObject) *models.Media {
	if raw == nil {
		return nil
	}

	media := &models.Media{
		Type:    raw.Type,
		Caption: MapRichTexts(raw.Caption),
	}
	switch {
	case raw.Type == models.FileTypeExternal && raw.External != nil:
		media.External = &models.FileObject{Type: models.FileTypeExternal, URL: raw.External.URL}
	case raw.Type == models.FileTypeFile && raw.File != nil:
		media.File = &models.FileObject{
			Type:       models.FileTypeFile,
			URL:        raw.File.URL,
			ExpiryTime: raw.File.ExpiryTime,
		}
	}
	return media
}

func mapURL(raw *notion.URLObject) *models.URLBlock {
	if raw == nil {
		return nil
	}
	return &models.URLBlock{
		URL:     raw.URL,
		Caption: MapRichTexts(raw.Caption),
	}
}

// MapRichTexts converts a rich text array; nil in, empty out
func MapRichTexts(raw []notion.RichTextObject) []models.RichText {
	out := make([]models.RichText, 0, len(raw))
	for i := range raw {
		out = append(out, MapRichText(&raw[i]))
	}
	return out
}

// MapRichText converts one rich text run, keeping only the variant its type names
func MapRichText(raw *notion.RichTextObject) models.RichText {
	rt := models.RichText{
		PlainText: raw.PlainText,
		Annotation: models.Annotation{
			Bold:          raw.Annotations.Bold,
			Italic:        raw.Annotations.Italic,
			Strikethrough: raw.Annotations.Strikethrough,
			Underline:     raw.Annotations.Underline,
			Code:          raw.Annotations.Code,
			Color:         raw.Annotations.Color,
		},
	}
	if raw.Href != nil {
		rt.Href = *raw.Href
	}

	switch raw.Type {
	case "text":
		if raw.Text != nil {
			rt.Text = &models.Text{Content: raw.Text.Content}
			if raw.Text.Link != nil {
				rt.Text.Link = &models.Link{URL: raw.Text.Link.URL}
			}
		}
	case "equation":
		if raw.Equation != nil {
			rt.Equation = &models.Equation{Expression: raw.Equation.Expression}
		}
	case "mention":
		if raw.Mention != nil {
			rt.Mention = &models.Mention{Type: raw.Mention.Type}
			if raw.Mention.Type == "page" && raw.Mention.Page != nil {
				rt.Mention.Page = &models.Reference{ID: raw.Mention.Page.ID}
			}
		}
	}
	return rt
}

// MapIcon converts a page, database or callout icon. Unknown kinds yield nil.
func MapIcon(raw *notion.IconObject) *models.Icon {
	if raw == nil {
		return nil
	}

	switch raw.Type {
	case models.IconTypeEmoji:
		return &models.Icon{Type: raw.Type, Emoji: raw.Emoji}
	case models.IconTypeExternal:
		if raw.External != nil {
			return &models.Icon{Type: raw.Type, URL: raw.External.URL}
		}
	case models.IconTypeFile:
		if raw.File != nil {
			return &models.Icon{Type: raw.Type, URL: raw.File.URL}
		}
	}
	return nil
}

// MapFile converts a cover or files-property entry, preferring the external URL
func MapFile(raw *notion.FileObject) *models.FileObject {
	if raw == nil {
		return nil
	}

	switch {
	case raw.External != nil:
		return &models.FileObject{Type: models.FileTypeExternal, URL: raw.External.URL}
	case raw.File != nil:
		return &models.FileObject{
			Type:       models.FileTypeFile,
			URL:        raw.File.URL,
			ExpiryTime: raw.File.ExpiryTime,
		}
	}
	return nil
}
