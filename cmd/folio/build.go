package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/folio/internal/models"
	"golang.org/x/sync/errgroup"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Warm every cache: posts, tags, database, block trees and first images",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := application.PostService
	start := time.Now()

	posts, err := svc.ListAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list posts")
		return err
	}

	if _, err := svc.GetDatabase(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to retrieve database descriptor")
	}
	if _, err := svc.ListTags(ctx); err != nil {
		return err
	}

	// Each post's tree is independent; a failed subtree is reported and skipped
	failed := make([]bool, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Notion.MaxConcurrency)
	for i, post := range posts {
		g.Go(func() error {
			if err := buildPost(gctx, post); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn().
					Err(err).
					Str("page_id", post.PageID).
					Str("slug", post.Slug).
					Msg("Omitting post content")
				failed[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	omitted := 0
	for _, f := range failed {
		if f {
			omitted++
		}
	}

	logger.Info().
		Int("posts", len(posts)).
		Int("omitted", omitted).
		Dur("duration", time.Since(start)).
		Msg("Build complete")

	fmt.Printf("Built %d posts (%d omitted) in %s\n", len(posts)-omitted, omitted, time.Since(start).Round(time.Millisecond))
	return nil
}

func buildPost(ctx context.Context, post *models.Post) error {
	if _, err := application.PostService.GetBlockChildren(ctx, post.PageID); err != nil {
		return err
	}
	_, err := application.PostService.ResolveFirstImage(ctx, post)
	return err
}
