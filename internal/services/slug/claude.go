package slug

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
)

// ClaudeTranslator translates titles with the Anthropic Messages API
type ClaudeTranslator struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	logger  arbor.ILogger
}

// NewClaudeTranslator creates a translator for the given API key and model
func NewClaudeTranslator(apiKey, model string, timeout time.Duration, logger arbor.ILogger) (*ClaudeTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Msg("Claude translator initialized")

	return &ClaudeTranslator{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *ClaudeTranslator) Name() string {
	return "claude"
}

// Translate returns the model's English rendering of text
func (c *ClaudeTranslator) Translate(ctx context.Context, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 128,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(translatePrompt, text))),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude translation failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	translated := cleanTranslation(out.String())
	if translated == "" {
		return "", fmt.Errorf("claude returned no translation")
	}
	return translated, nil
}
