package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/editor"
	"github.com/Gyana491/contentflow/internal/generation"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/posts"
)

type generateOptions struct {
	topic         string
	link          string
	contentType   string
	tone          string
	scheduledTime string
	saveDraft     bool
}

var generateFlags generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a LinkedIn post from a topic or a link",
	Long: "Run the content generation workflow for a topic, or for the content of a web page with --link. " +
		"The result is kept for 'contentflow create', or saved as a draft with --save-draft.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { generateFlags = generateOptions{} }()
		f := generateFlags

		if (f.topic == "") == (f.link == "") {
			return api.ValidationError("Provide either --topic or --link")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.requireAuth(ctx); err != nil {
			return err
		}

		in := generation.Input{
			Topic:         f.topic,
			ContentType:   f.contentType,
			Tone:          f.tone,
			ScheduledTime: f.scheduledTime,
		}.WithDefaults()
		if f.link != "" {
			if in, err = in.FromLink(f.link); err != nil {
				return err
			}
		}

		cmd.Printf("Generating %s post (%s tone)...\n", in.ContentType, in.Tone)
		result, err := generation.NewGenerator(a.client, a.logger).Generate(ctx, in)
		if err != nil {
			return err
		}

		cmd.Println()
		cmd.Println(result.LinkedInPost)
		if len(result.Hashtags) > 0 {
			cmd.Println()
			cmd.Println(formatHashtags(result.Hashtags))
		}
		cmd.Println()

		title := f.topic
		if title == "" {
			title = f.link
		}

		if f.saveDraft {
			e := editor.New(nil, a.cfg.Location())
			defer e.Close()
			e.Topic = title
			e.ContentType = posts.ContentType(in.ContentType)
			e.Tone = posts.Tone(in.Tone)
			e.LoadGenerated(result)

			msg, err := a.publisher(a.repository()).SaveDraft(ctx, e, editor.Identity{UserID: a.session.UserID()})
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		}

		err = a.handoff().Put(ctx, handoff.Draft{
			Content:     result.LinkedInPost,
			Title:       posts.StringPtr(title),
			Hashtags:    result.Hashtags,
			ContentType: in.ContentType,
			Tone:        in.Tone,
			IsDraft:     true,
		})
		if err != nil {
			return fmt.Errorf("failed to keep generated post: %w", err)
		}
		cmd.Println("Run 'contentflow create' to edit, publish or schedule this post.")
		return nil
	},
}

func formatHashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		out = append(out, tag)
	}
	return strings.Join(out, " ")
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.topic, "topic", "", "Topic to write about")
	generateCmd.Flags().StringVar(&generateFlags.link, "link", "", "Web page to base the post on")
	generateCmd.Flags().StringVar(&generateFlags.contentType, "type", "", "Content type: article, trend, news, tutorial (default article)")
	generateCmd.Flags().StringVar(&generateFlags.tone, "tone", "", "Tone: professional, casual, inspiring, informative (default professional)")
	generateCmd.Flags().StringVar(&generateFlags.scheduledTime, "scheduled-time", "", "Intended publish time passed to the workflow")
	generateCmd.Flags().BoolVar(&generateFlags.saveDraft, "save-draft", false, "Save the result as a draft")
	rootCmd.AddCommand(generateCmd)
}
