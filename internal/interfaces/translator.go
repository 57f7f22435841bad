package interfaces

import "context"

// Translator turns a title into an ASCII phrase suitable for a slug.
// The slug resolver tries translators in order and moves on when one fails.
type Translator interface {
	// Name identifies the strategy in logs
	Name() string

	// Translate returns a Latin-script rendering of text
	Translate(ctx context.Context, text string) (string, error)
}
