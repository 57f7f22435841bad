package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/httpclient"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/ternarybob/folio/internal/services/blocks"
	"github.com/ternarybob/folio/internal/services/cache"
	"github.com/ternarybob/folio/internal/services/posts"
	"github.com/ternarybob/folio/internal/services/slug"
	"github.com/ternarybob/folio/internal/storage"
)

// App holds the services of one generation run
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Cache       *cache.Store
	Client      *notion.Client
	Staging     interfaces.Staging
	Builder     *blocks.Builder
	Resolver    *slug.Resolver
	PostService interfaces.PostService
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Cache:  cache.NewStore(logger),
	}

	app.initClient()

	if err := app.initStaging(); err != nil {
		return nil, fmt.Errorf("failed to initialize staging: %w", err)
	}

	app.initBuilder()
	app.initResolver(ctx)

	app.PostService = posts.NewService(
		app.Client,
		app.Builder,
		app.Resolver,
		app.Cache,
		cfg.Notion.DatabaseID,
		cfg.Site.PostsPerPage,
		logger,
	)

	logger.Info().
		Str("session_id", app.Cache.SessionID()).
		Str("database_id", cfg.Notion.DatabaseID).
		Str("staging", cfg.Staging.Backend).
		Int("max_concurrency", cfg.Notion.MaxConcurrency).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initClient() {
	cfg := a.Config.Notion

	retry := notion.NewDefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	a.Client = notion.NewClient(cfg.APISecret,
		notion.WithBaseURL(cfg.BaseURL),
		notion.WithHTTPClient(httpclient.NewDefaultHTTPClient(cfg.MaxConcurrency)),
		notion.WithVersion(cfg.Version),
		notion.WithLogger(a.Logger),
		notion.WithRateLimit(cfg.RateLimit),
		notion.WithThrottleInterval(common.Duration(cfg.ThrottleInterval, 300*time.Millisecond)),
		notion.WithTimeout(common.Duration(cfg.RequestTimeout, notion.DefaultTimeout)),
		notion.WithRetry(retry),
		notion.WithPageSize(cfg.PageSize),
	)
}

func (a *App) initStaging() error {
	store, err := storage.NewStaging(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.Staging = store
	return nil
}

func (a *App) initBuilder() {
	opts := []blocks.Option{
		blocks.WithMaxConcurrency(a.Config.Notion.MaxConcurrency),
	}
	if a.Staging != nil {
		if a.Config.Staging.Record {
			// Recording run: always fetch fresh and write back
			opts = append(opts, blocks.WithRecorder(a.Staging))
		} else {
			opts = append(opts, blocks.WithStaging(a.Staging))
		}
	}
	a.Builder = blocks.NewBuilder(a.Client, a.Cache, a.Logger, opts...)
}

// initResolver builds the translator chain in configured order.
// Remote translators without a key are skipped.
func (a *App) initResolver(ctx context.Context) {
	var translators []interfaces.Translator

	for _, name := range a.Config.Slug.Translators {
		switch name {
		case "gemini":
			g := a.Config.Gemini
			if g.APIKey == "" {
				a.Logger.Debug().Msg("Gemini translator disabled (no API key)")
				continue
			}
			t, err := slug.NewGeminiTranslator(ctx, g.APIKey, g.Model, common.Duration(g.Timeout, 15*time.Second), a.Logger)
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Gemini translator unavailable")
				continue
			}
			translators = append(translators, t)
		case "claude":
			c := a.Config.Claude
			if c.APIKey == "" {
				a.Logger.Debug().Msg("Claude translator disabled (no API key)")
				continue
			}
			t, err := slug.NewClaudeTranslator(c.APIKey, c.Model, common.Duration(c.Timeout, 15*time.Second), a.Logger)
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Claude translator unavailable")
				continue
			}
			translators = append(translators, t)
		case "pinyin":
			translators = append(translators, slug.NewPinyinTransliterator())
		}
	}

	names := make([]string, len(translators))
	for i, t := range translators {
		names[i] = t.Name()
	}
	a.Logger.Debug().Strs("translators", names).Msg("Slug resolver initialized")

	a.Resolver = slug.NewResolver(translators, a.Config.Slug.MaxLength, a.Logger)
}

// Close releases the staging store and logs cache statistics
func (a *App) Close() error {
	a.Cache.LogStats()

	if a.Staging != nil {
		if err := a.Staging.Close(); err != nil {
			return fmt.Errorf("failed to close staging: %w", err)
		}
		a.Logger.Debug().Msg("Staging closed")
	}
	return nil
}
