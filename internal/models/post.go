package models

import "time"

// FileObject types as reported by the Notion API
const (
	FileTypeFile     = "file"     // Notion-hosted, URL expires
	FileTypeExternal = "external" // externally hosted, stable URL
)

// Icon types
const (
	IconTypeEmoji    = "emoji"
	IconTypeExternal = "external"
	IconTypeFile     = "file"
)

// FileObject references an image or file by URL
type FileObject struct {
	Type       string `json:"type"` // file or external
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"` // only set for Notion-hosted files
}

// Icon is either an emoji or an image URL
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Tag is a multi-select option attached to a post
type Tag struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Post is one published entry of the content database.
// A Post is only built when it has a title and a publish date.
type Post struct {
	PageID        string      `json:"page_id"`
	Title         string      `json:"title"`
	Icon          *Icon       `json:"icon,omitempty"`
	Cover         *FileObject `json:"cover,omitempty"`
	Slug          string      `json:"slug"`
	Date          string      `json:"date"`           // as sent upstream (YYYY-MM-DD or RFC3339)
	PublishedAt   time.Time   `json:"published_at"`   // parsed Date, zero when unparseable
	Tags          []Tag       `json:"tags"`
	Excerpt       string      `json:"excerpt"`
	FeaturedImage *FileObject `json:"featured_image,omitempty"`
	FirstImage    *FileObject `json:"first_image,omitempty"` // resolved lazily from content
	Rank          float64     `json:"rank"`
	Likes         int         `json:"likes"`
}

// HasTag reports whether the post carries a tag with the given name
func (p *Post) HasTag(name string) bool {
	for _, tag := range p.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// Database describes the content database itself
type Database struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Icon        *Icon       `json:"icon,omitempty"`
	Cover       *FileObject `json:"cover,omitempty"`
}
