// Package extract searches resolved block trees.
package extract

import (
	"strings"

	"github.com/ternarybob/folio/internal/models"
)

// Children returns the nested blocks of any container kind.
// Column lists yield their columns' children in column order.
func Children(block *models.Block) []models.Block {
	return block.Children()
}

// TargetBlocks returns every block of blockType at any depth, depth first.
// A matching container is returned and also searched.
func TargetBlocks(blockType models.BlockType, blocks []models.Block) []models.Block {
	var out []models.Block
	for i := range blocks {
		block := &blocks[i]
		if block.Type == blockType {
			out = append(out, *block)
		}
		if children := Children(block); len(children) > 0 {
			out = append(out, TargetBlocks(blockType, children)...)
		}
	}
	return out
}

// FirstImage picks the representative image of a page. Column layouts are
// checked first since they usually hold the lead image, then top-level
// images in document order, then every other container recursively.
func FirstImage(blocks []models.Block) (*models.FileObject, bool) {
	if len(blocks) == 0 {
		return nil, false
	}

	for i := range blocks {
		block := &blocks[i]
		if block.Type != models.BlockTypeColumnList || block.ColumnList == nil {
			continue
		}

		for _, column := range block.ColumnList.Columns {
			for j := range column.Children {
				if img, ok := imageOf(&column.Children[j]); ok {
					return img, true
				}
			}
		}

		if img, ok := FirstImage(Children(block)); ok {
			return img, true
		}
	}

	for i := range blocks {
		if img, ok := imageOf(&blocks[i]); ok {
			return img, true
		}
	}

	for i := range blocks {
		block := &blocks[i]
		if block.Type == models.BlockTypeColumnList {
			continue
		}
		if img, ok := FirstImage(Children(block)); ok {
			return img, true
		}
	}

	return nil, false
}

// imageOf returns the URL of an image block. Hosted files win over external links.
func imageOf(block *models.Block) (*models.FileObject, bool) {
	if block.Type != models.BlockTypeImage || block.Image == nil {
		return nil, false
	}

	if f := block.Image.File; f != nil && f.URL != "" {
		return &models.FileObject{Type: models.FileTypeFile, URL: f.URL}, true
	}
	if e := block.Image.External; e != nil && e.URL != "" {
		return &models.FileObject{Type: models.FileTypeExternal, URL: e.URL}, true
	}
	return nil, false
}

// PlainText concatenates the plain text of rich text runs
func PlainText(richTexts []models.RichText) string {
	var sb strings.Builder
	for _, rt := range richTexts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// HeadingID builds the anchor id of a heading block from its literal text
// runs, comma joined. Non-text runs contribute empty segments. Returns ""
// for non-heading blocks.
func HeadingID(block *models.Block) string {
	heading := block.Heading()
	if heading == nil {
		return ""
	}

	parts := make([]string, len(heading.RichTexts))
	for i, rt := range heading.RichTexts {
		if rt.Text != nil {
			parts[i] = rt.Text.Content
		}
	}
	return strings.TrimSpace(strings.Join(parts, ","))
}
