package posts

import (
	"fmt"
	"time"

	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/blocks"
)

// Property names of the content database
const (
	propertyPublished = "Published"
	propertyDate      = "Date"
	propertyLikes     = "Likes"
)

// publishedQuery selects published posts dated up to now, newest first
func publishedQuery(now time.Time, pageSize int) notion.QueryDatabaseRequest {
	return notion.QueryDatabaseRequest{
		Filter: &notion.Filter{
			And: []notion.Filter{
				{Property: propertyPublished, Checkbox: &notion.CheckboxFilter{Equals: true}},
				{Property: propertyDate, Date: &notion.DateFilter{OnOrBefore: now.UTC().Format(time.RFC3339)}},
			},
		},
		Sorts:    []notion.Sort{{Property: propertyDate, Direction: "descending"}},
		PageSize: pageSize,
	}
}

// validatePage reports why a record cannot become a post, nil when it can
func validatePage(page *notion.PageObject) error {
	if notion.PlainText(page.Properties.Page.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if page.Properties.Date.Date == nil || page.Properties.Date.Date.Start == "" {
		return fmt.Errorf("missing date")
	}
	return nil
}

// buildPost maps a validated record. Slug holds the explicit Slug property,
// empty when the title still needs deriving.
func buildPost(page *notion.PageObject) *models.Post {
	props := &page.Properties

	post := &models.Post{
		PageID:  page.ID,
		Title:   notion.PlainText(props.Page.Title),
		Icon:    blocks.MapIcon(page.Icon),
		Cover:   blocks.MapFile(page.Cover),
		Slug:    notion.PlainText(props.Slug.RichText),
		Excerpt: notion.PlainText(props.Excerpt.RichText),
		Tags:    make([]models.Tag, 0, len(props.Tags.MultiSelect)),
		Rank:    numberOrZero(props.Rank),
		Likes:   int(numberOrZero(props.Likes)),
	}

	if props.Date.Date != nil {
		post.Date = props.Date.Date.Start
		post.PublishedAt = parseDate(post.Date)
	}

	for _, opt := range props.Tags.MultiSelect {
		post.Tags = append(post.Tags, models.Tag{ID: opt.ID, Name: opt.Name, Color: opt.Color})
	}

	if files := props.FeaturedImage.Files; len(files) > 0 {
		post.FeaturedImage = blocks.MapFile(&files[0])
	}

	return post
}

// buildDatabase maps the database descriptor
func buildDatabase(db *notion.DatabaseObject) *models.Database {
	return &models.Database{
		Title:       notion.PlainText(db.Title),
		Description: notion.PlainText(db.Description),
		Icon:        blocks.MapIcon(db.Icon),
		Cover:       blocks.MapFile(db.Cover),
	}
}

func numberOrZero(p notion.NumberProperty) float64 {
	if p.Number == nil {
		return 0
	}
	return *p.Number
}

// parseDate accepts date-only and full timestamps; zero when neither parses
func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
