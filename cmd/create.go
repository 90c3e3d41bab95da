package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/editor"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/posts"
)

type createOptions struct {
	content      string
	title        string
	contentType  string
	tone         string
	hashtags     []string
	image        string
	publish      bool
	scheduleDate string
	scheduleTime string
	saveDraft    bool
	expand       bool
	yes          bool
}

var createFlags createOptions

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Edit, preview and publish a post",
	Long: "Open the post editor. A post generated with 'contentflow generate' or picked with " +
		"'contentflow posts continue|duplicate' is loaded first; flags override its fields. " +
		"Use --content - to read the text from stdin.",
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) (err error) {
	defer func() { createFlags = createOptions{} }()
	f := createFlags

	actions := 0
	for _, on := range []bool{f.publish, f.saveDraft, f.scheduleDate != "" || f.scheduleTime != ""} {
		if on {
			actions++
		}
	}
	if actions > 1 {
		return api.ValidationError("Choose only one of --publish, --save-draft or --schedule-date/--schedule-time")
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

	e := editor.New(editor.NewPreviewRegistry(), a.cfg.Location())
	defer e.Close()

	publishOnLoad := false
	pending, perr := a.handoff().Consume(ctx)
	if perr != nil {
		cmd.PrintErrf("Warning: %v\n", perr)
	} else if pending != nil {
		publishOnLoad = e.LoadHandoff(*pending)
		if pending.ID != "" {
			cmd.Printf("Editing draft %s\n", pending.ID)
		} else {
			cmd.Printf("Loaded pending post\n")
		}
		// a failed run leaves the post pending for the next create
		defer func() {
			if err == nil {
				return
			}
			if serr := stashDraft(ctx, a, e); serr != nil {
				a.logger.Warn("failed to keep pending post", "error", serr)
			}
		}()
	}

	if err := applyCreateFlags(cmd, e, f); err != nil {
		return err
	}
	if !e.CanSaveDraft() {
		return api.ValidationError("Nothing to edit: pass --content or run 'contentflow generate' first")
	}

	m := a.linkedIn()
	id := a.identity(ctx, m)
	var profile *api.LinkedInProfile
	if id.LinkedInAuthID != "" {
		m.FetchCompleteProfile(ctx)
		p := m.Connection().Profile
		profile = &p
	}

	card := editor.CardInput{
		Content:  e.PostContent(),
		Profile:  profile,
		Hashtags: e.Hashtags,
		Expanded: f.expand,
	}
	if img := e.Image(); img != nil {
		card.Image = img.Filename
	}
	if err := editor.RenderCard(cmd.OutOrStdout(), card); err != nil {
		return err
	}
	cmd.Println()

	pub := a.publisher(a.repository())
	var msg string
	switch {
	case f.publish:
		msg, err = pub.Publish(ctx, e, id)
	case f.saveDraft:
		msg, err = pub.SaveDraft(ctx, e, id)
	case f.scheduleDate != "" || f.scheduleTime != "":
		msg, err = pub.Schedule(ctx, e, id)
	case publishOnLoad:
		if !f.yes && !confirm(cmd, "Publish this draft to LinkedIn now?") {
			return keepPending(ctx, cmd, a, e)
		}
		msg, err = pub.Publish(ctx, e, id)
	default:
		if !e.CanPublish(id.LinkedInAuthID != "", id.UserID != "") {
			cmd.Println("Connect LinkedIn with 'contentflow linkedin connect' to publish or schedule.")
		}
		return keepPending(ctx, cmd, a, e)
	}
	if err != nil {
		return err
	}

	cmd.Println(msg)
	return nil
}

func readContent(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func applyCreateFlags(cmd *cobra.Command, e *editor.Editor, f createOptions) error {
	if f.content != "" {
		content, err := readContent(cmd, f.content)
		if err != nil {
			return err
		}
		e.Content = content
		e.View = editor.ViewEditor
	}
	if f.title != "" {
		e.Topic = f.title
	}
	if f.contentType != "" {
		ct, err := posts.ParseContentType(f.contentType)
		if err != nil {
			return api.ValidationError(err.Error())
		}
		e.ContentType = ct
	}
	if f.tone != "" {
		tone, err := posts.ParseTone(f.tone)
		if err != nil {
			return api.ValidationError(err.Error())
		}
		e.Tone = tone
	}
	if len(f.hashtags) > 0 {
		e.Hashtags = f.hashtags
	}
	if f.image != "" {
		if _, err := e.AttachImage(f.image); err != nil {
			return err
		}
	}
	e.ScheduleDate = f.scheduleDate
	e.ScheduleTime = f.scheduleTime
	return nil
}

// keepPending hands the edited post back so the next create starts from it.
func keepPending(ctx context.Context, cmd *cobra.Command, a *app, e *editor.Editor) error {
	if err := stashDraft(ctx, a, e); err != nil {
		return err
	}
	cmd.Println("Preview only. Use --publish, --schedule-date and --schedule-time, or --save-draft.")
	return nil
}

func stashDraft(ctx context.Context, a *app, e *editor.Editor) error {
	return a.handoff().Put(ctx, handoff.Draft{
		ID:          e.DraftID,
		Content:     e.PostContent(),
		Title:       posts.StringPtr(e.Topic),
		Hashtags:    e.Hashtags,
		ContentType: string(e.ContentType),
		Tone:        string(e.Tone),
		IsDraft:     true,
	})
}

func init() {
	fl := createCmd.Flags()
	fl.StringVar(&createFlags.content, "content", "", "Post text, or - to read from stdin")
	fl.StringVar(&createFlags.title, "title", "", "Draft title")
	fl.StringVar(&createFlags.contentType, "type", "", "Content type: article, trend, news, tutorial")
	fl.StringVar(&createFlags.tone, "tone", "", "Tone: professional, casual, inspiring, informative")
	fl.StringSliceVar(&createFlags.hashtags, "hashtag", nil, "Hashtag to add (repeatable)")
	fl.StringVar(&createFlags.image, "image", "", "Image file to attach")
	fl.BoolVar(&createFlags.publish, "publish", false, "Publish to LinkedIn now")
	fl.StringVar(&createFlags.scheduleDate, "schedule-date", "", "Schedule date (YYYY-MM-DD)")
	fl.StringVar(&createFlags.scheduleTime, "schedule-time", "", "Schedule time (HH:MM, 24h)")
	fl.BoolVar(&createFlags.saveDraft, "save-draft", false, "Save as a draft")
	fl.BoolVar(&createFlags.expand, "expand", false, "Show the full text in the preview")
	fl.BoolVarP(&createFlags.yes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(createCmd)
}
