// Package slug derives URL-safe identifiers for posts that lack one.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/unidecode"
)

// DefaultMaxLength caps derived slugs
const DefaultMaxLength = 50

// fallbackBase replaces an empty base in Dedupe
const fallbackBase = "post"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text, collapses every non-alphanumeric run into a single
// hyphen and trims hyphens from both ends. The result is cut to maxLength
// on a word boundary; maxLength <= 0 uses DefaultMaxLength.
func Slugify(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	s := strings.ToLower(unidecode.Unidecode(text))
	s = strings.Trim(nonAlphanumeric.ReplaceAllString(s, "-"), "-")
	return truncateWords(s, maxLength)
}

// SlugifySync is the variant used where translation is not possible.
// It never fails: an empty result or a panic yields post-<epoch ms>.
func SlugifySync(title string, maxLength int) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = placeholder(time.Now())
		}
	}()

	s = Slugify(title, maxLength)
	if s == "" {
		s = placeholder(time.Now())
	}
	return s
}

func placeholder(now time.Time) string {
	return fmt.Sprintf("post-%d", now.UnixMilli())
}

// truncateWords keeps whole hyphen-separated words while the result fits.
// A first word longer than maxLength is cut at maxLength.
func truncateWords(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if i := strings.IndexByte(s, '-'); i < 0 || i > maxLength {
		return s[:maxLength]
	}

	var b strings.Builder
	for _, word := range strings.Split(s, "-") {
		next := len(word)
		if b.Len() > 0 {
			next++
		}
		if b.Len()+next > maxLength {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(word)
	}
	return b.String()
}

// Dedupe hands out unique slugs within one listing. Derived slugs that
// collide get -2, -3, ... appended; explicit slugs are reserved as given.
type Dedupe struct {
	seen map[string]int
}

// NewDedupe creates an empty tracker
func NewDedupe() *Dedupe {
	return &Dedupe{seen: make(map[string]int)}
}

// Reserve records an explicit slug without modifying it
func (d *Dedupe) Reserve(slug string) {
	if _, ok := d.seen[slug]; !ok {
		d.seen[slug] = 1
	}
}

// Assign returns slug, or slug-N when slug is already taken.
// An empty slug is assigned as "post".
func (d *Dedupe) Assign(slug string) string {
	if slug == "" {
		slug = fallbackBase
	}

	n, taken := d.seen[slug]
	if !taken {
		d.seen[slug] = 1
		return slug
	}

	for {
		n++
		candidate := fmt.Sprintf("%s-%d", slug, n)
		if _, exists := d.seen[candidate]; !exists {
			d.seen[slug] = n
			d.seen[candidate] = 1
			return candidate
		}
	}
}
