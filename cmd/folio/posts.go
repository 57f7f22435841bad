package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

var postsTag string

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List published posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := application.PostService

		var list []*models.Post
		var err error
		if postsTag != "" {
			list, err = svc.ListByTag(cmd.Context(), postsTag, 0)
		} else {
			list, err = svc.ListAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tDATE\tTITLE")
		for _, post := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", post.Slug, post.Date, post.Title)
		}
		return w.Flush()
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := application.PostService.ListTags(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TAG\tPAGES")
		for _, tag := range tags {
			pages, err := application.PostService.CountPages(cmd.Context(), tag.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\n", tag.Name, pages)
		}
		return w.Flush()
	},
}

var postCmd = &cobra.Command{
	Use:   "post <slug>",
	Short: "Show a post and its first image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := application.PostService

		post, err := svc.GetBySlug(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if post == nil {
			return fmt.Errorf("no post with slug %q", args[0])
		}

		if _, err := svc.ResolveFirstImage(cmd.Context(), post); err != nil {
			logger.Warn().Err(err).Str("slug", post.Slug).Msg("Failed to resolve first image")
		}

		return printJSON(post)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <id>",
	Short: "Dump the resolved block tree under a page or block as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		children, err := application.PostService.GetBlockChildren(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(children)
	},
}

var likeUnlike bool

var likeCmd = &cobra.Command{
	Use:   "like <page-id>",
	Short: "Increment (or with --unlike decrement) a post's like counter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := interfaces.LikeActionLike
		if likeUnlike {
			action = interfaces.LikeActionUnlike
		}

		likes, err := application.PostService.UpdateLikes(cmd.Context(), args[0], action)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d likes\n", args[0], likes)
		return nil
	},
}

func init() {
	postsCmd.Flags().StringVar(&postsTag, "tag", "", "Only list posts carrying this tag")
	likeCmd.Flags().BoolVar(&likeUnlike, "unlike", false, "Decrement instead of increment")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
