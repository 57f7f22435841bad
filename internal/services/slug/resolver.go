package slug

import (
	"context"
	"fmt"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
)

// Resolver derives slugs for titles, trying translators in order
type Resolver struct {
	translators []interfaces.Translator
	maxLength   int
	logger      arbor.ILogger
}

// NewResolver creates a resolver. translators are tried in the given order.
func NewResolver(translators []interfaces.Translator, maxLength int, logger arbor.ILogger) *Resolver {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Resolver{
		translators: translators,
		maxLength:   maxLength,
		logger:      logger,
	}
}

// Resolve returns existing when set. A Latin-only title is slugified
// directly, falling back to the title when nothing alphanumeric remains.
// Otherwise the first translator whose output slugifies to a
// non-empty string wins; when every translator fails the title is returned
// unchanged.
func (r *Resolver) Resolve(ctx context.Context, title, existing string) string {
	if existing != "" {
		return existing
	}

	if !NeedsTranslation(title) {
		if s := Slugify(title, r.maxLength); s != "" {
			return s
		}
		r.logger.Warn().
			Str("title", title).
			Msg("Title has no slug characters, using title")
		return title
	}

	for _, t := range r.translators {
		translated, err := r.try(ctx, t, title)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("strategy", t.Name()).
				Str("title", title).
				Msg("Slug strategy failed, trying next")
			continue
		}

		if s := Slugify(translated, r.maxLength); s != "" {
			r.logger.Debug().
				Str("strategy", t.Name()).
				Str("title", title).
				Str("slug", s).
				Msg("Derived slug")
			return s
		}

		r.logger.Warn().
			Str("strategy", t.Name()).
			Str("title", title).
			Msg("Slug strategy produced an empty slug, trying next")
	}

	r.logger.Warn().
		Str("title", title).
		Msg("All slug strategies failed, using title")
	return title
}

// try runs one translator, turning a panic into an error
func (r *Resolver) try(ctx context.Context, t interfaces.Translator, title string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panicked: %v", t.Name(), rec)
		}
	}()
	return t.Translate(ctx, title)
}

// NeedsTranslation reports whether text holds any letter outside the Latin script
func NeedsTranslation(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
