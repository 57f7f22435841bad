package slug

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// translatePrompt asks for a bare English rendering usable as a slug source
const translatePrompt = "Translate the following blog post title into a short English phrase. " +
	"Reply with the translation only, no quotes and no explanation.\n\nTitle: %s"

// GeminiTranslator translates titles with the Gemini API
type GeminiTranslator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  arbor.ILogger
}

// NewGeminiTranslator creates a translator for the given API key and model
func NewGeminiTranslator(ctx context.Context, apiKey, model string, timeout time.Duration, logger arbor.ILogger) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Msg("Gemini translator initialized")

	return &GeminiTranslator{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (g *GeminiTranslator) Name() string {
	return "gemini"
}

// Translate returns the model's English rendering of text
func (g *GeminiTranslator) Translate(ctx context.Context, text string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(translatePrompt, text), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini translation failed: %w", err)
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				out.WriteString(part.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}

	translated := cleanTranslation(out.String())
	if translated == "" {
		return "", fmt.Errorf("gemini returned no translation")
	}
	return translated, nil
}

// cleanTranslation keeps the first line and strips wrapping quotes
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), "\"'`")
}
