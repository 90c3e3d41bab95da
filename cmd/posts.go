package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/editor"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/posts"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List and manage your posts",
}

type filterOptions struct {
	status      string
	contentType string
	from        string
	to          string
	search      string
}

func (o filterOptions) filter(loc *time.Location) (posts.Filter, error) {
	from, to, err := posts.ParseDateRange(o.from, o.to, loc)
	if err != nil {
		return posts.Filter{}, api.ValidationError(err.Error())
	}
	f := posts.Filter{
		Status:      o.status,
		ContentType: o.contentType,
		From:        from,
		To:          to,
		Search:      o.search,
	}
	if err := f.Validate(); err != nil {
		return posts.Filter{}, api.ValidationError(err.Error())
	}
	return f, nil
}

func addFilterFlags(cmd *cobra.Command, o *filterOptions) {
	cmd.Flags().StringVar(&o.status, "status", "", "Filter by status: all, draft, scheduled, published, failed")
	cmd.Flags().StringVar(&o.contentType, "type", "", "Filter by content type")
	cmd.Flags().StringVar(&o.from, "from", "", "Created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.to, "to", "", "Created on or before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.search, "search", "", "Search content, title and hashtags")
}

// fetchPosts signs in and loads the post list.
func fetchPosts(cmd *cobra.Command, a *app) (*posts.Repository, error) {
	if err := a.requireAuth(cmd.Context()); err != nil {
		return nil, err
	}
	repo := a.repository()
	if _, err := repo.FetchPosts(cmd.Context()); err != nil {
		return nil, err
	}
	return repo, nil
}

// findPost loads the list and looks up id in it.
func findPost(cmd *cobra.Command, a *app, id string) (*posts.Repository, posts.Post, error) {
	repo, err := fetchPosts(cmd, a)
	if err != nil {
		return nil, posts.Post{}, err
	}
	p, ok := repo.Find(id)
	if !ok {
		return nil, posts.Post{}, fmt.Errorf("post %s not found", id)
	}
	return repo, p, nil
}

func statusLabel(p posts.Post) string {
	if p.IsPublished {
		return "published"
	}
	return strings.ToLower(string(p.Status))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writePostTable(w io.Writer, list []posts.Post, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tTITLE\tCREATED\tSCHEDULED")
	for _, p := range list {
		scheduled := "-"
		if p.IsScheduled() && p.ScheduledPost != nil {
			scheduled = p.ScheduledPost.ScheduledAt.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			statusLabel(p),
			p.ContentType,
			truncate(p.TitleOr(p.Content), 40),
			humanize.Time(p.CreatedAt),
			scheduled,
		)
	}
	return tw.Flush()
}

var listFlags filterOptions

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { listFlags = filterOptions{} }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		loc := a.cfg.Location()
		filter, err := listFlags.filter(loc)
		if err != nil {
			return err
		}

		repo, err := fetchPosts(cmd, a)
		if err != nil {
			return err
		}

		all := repo.Posts()
		matched := filter.Apply(all)
		if len(matched) == 0 {
			if filter.ActiveCount() > 0 {
				cmd.Println("No posts match the current filters.")
			} else {
				cmd.Println("No posts yet. Run 'contentflow generate' to write your first one.")
			}
			return nil
		}

		if err := writePostTable(cmd.OutOrStdout(), matched, loc); err != nil {
			return err
		}
		if n := filter.ActiveCount(); n > 0 {
			cmd.Printf("\nShowing %d of %d posts (%d %s active)\n", len(matched), len(all), n, plural(n, "filter", "filters"))
		}
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

var postsCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show how many posts are in each status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := fetchPosts(cmd, a)
		if err != nil {
			return err
		}

		c := posts.CountPosts(repo.Posts())
		cmd.Printf("All: %d\n", c.All)
		cmd.Printf("Drafts: %d\n", c.Draft)
		cmd.Printf("Scheduled: %d\n", c.Scheduled)
		cmd.Printf("Published: %d\n", c.Published)
		return nil
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		_, p, err := findPost(cmd, a, args[0])
		if err != nil {
			return err
		}

		loc := a.cfg.Location()
		cmd.Printf("ID: %s\n", p.ID)
		cmd.Printf("Title: %s\n", p.TitleOr("(untitled)"))
		cmd.Printf("Status: %s\n", statusLabel(p))
		cmd.Printf("Type: %s\n", p.ContentType)
		cmd.Printf("Tone: %s\n", p.Tone)
		cmd.Printf("Created: %s (%s)\n", p.CreatedAt.In(loc).Format(time.DateTime), humanize.Time(p.CreatedAt))
		if p.IsScheduled() && p.ScheduledPost != nil {
			at := p.ScheduledPost.ScheduledAt
			cmd.Printf("Scheduled: %s (%s)\n", at.In(loc).Format(time.DateTime), humanize.Time(at))
		}
		if p.PublishedAt != nil {
			cmd.Printf("Published: %s\n", p.PublishedAt.In(loc).Format(time.DateTime))
		}
		if p.LinkedInURL != nil && *p.LinkedInURL != "" {
			cmd.Printf("LinkedIn: %s\n", *p.LinkedInURL)
		}
		cmd.Println()

		card := editor.CardInput{Content: p.Content, Hashtags: p.Hashtags, Expanded: true}
		if p.ImageAssetURN != nil && *p.ImageAssetURN != "" {
			card.Image = *p.ImageAssetURN
		} else if p.ImageURL != nil {
			card.Image = *p.ImageURL
		}
		return editor.RenderCard(cmd.OutOrStdout(), card)
	},
}

var deleteYes bool

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { deleteYes = false }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAuth(cmd.Context()); err != nil {
			return err
		}
		if !deleteYes && !confirm(cmd, "Are you sure you want to delete this post?") {
			cmd.Println("Cancelled.")
			return nil
		}

		ok, err := a.repository().DeletePost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("failed to delete post")
		}
		cmd.Println("Post deleted.")
		return nil
	},
}

type editOptions struct {
	content string
	date    string
	time    string
}

var editFlags editOptions

var postsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a post's text or schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { editFlags = editOptions{} }()
		f := editFlags

		if (f.date == "") != (f.time == "") {
			return api.ValidationError("Please select both date and time for scheduling")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		repo, p, err := findPost(cmd, a, args[0])
		if err != nil {
			return err
		}

		content := p.Content
		if f.content != "" {
			if content, err = readContent(cmd, f.content); err != nil {
				return err
			}
		}

		updated, err := a.publisher(repo).EditPost(cmd.Context(), p, content, f.date, f.time, a.cfg.Location())
		if errors.Is(err, posts.ErrTerminal) {
			return fmt.Errorf("post %s is already published and cannot be scheduled", p.ID)
		}
		if err != nil {
			return err
		}

		cmd.Printf("Post %s updated.\n", updated.ID)
		return nil
	},
}

func handoffCommand(use, short, done string, build func(posts.Post) handoff.Draft) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			_, p, err := findPost(cmd, a, args[0])
			if err != nil {
				return err
			}
			if err := a.handoff().Put(cmd.Context(), build(p)); err != nil {
				return err
			}
			cmd.Println(done)
			return nil
		},
	}
}

var postsContinueCmd = handoffCommand("continue", "Continue editing a post",
	"Draft loaded. Run 'contentflow create' to keep editing it.", handoff.ContinueEditing)

var postsDuplicateCmd = handoffCommand("duplicate", "Start a new post from a copy of an existing one",
	"Copy loaded. Run 'contentflow create' to edit and save it as a new post.", handoff.Duplicate)

var publishYes bool

var postsPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a draft to LinkedIn",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { publishYes = false }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		repo, p, err := findPost(cmd, a, args[0])
		if err != nil {
			return err
		}
		if p.IsTerminal() {
			return fmt.Errorf("post %s is already published", p.ID)
		}

		e := editor.New(nil, a.cfg.Location())
		defer e.Close()
		e.LoadHandoff(handoff.PublishDraft(p))

		ctx := cmd.Context()
		id := a.identity(ctx, a.linkedIn())
		if !publishYes && !confirm(cmd, "Publish this draft to LinkedIn now?") {
			cmd.Println("Cancelled.")
			return nil
		}

		msg, err := a.publisher(repo).Publish(ctx, e, id)
		if err != nil {
			return err
		}
		cmd.Println(msg)
		return nil
	},
}

var imageOutput string

var postsImageCmd = &cobra.Command{
	Use:   "image <urn>",
	Short: "Download a post image by its asset URN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { imageOutput = "" }()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireAuth(cmd.Context()); err != nil {
			return err
		}

		img, err := a.client.ResolveImage(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}

		mt := mimetype.Detect(img.Data)
		out := imageOutput
		if out == "" {
			out = "image" + mt.Extension()
		}
		if err := os.WriteFile(out, img.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}

		cmd.Printf("Saved %s (%s, %s)\n", out, mt.String(), humanize.Bytes(uint64(len(img.Data))))
		return nil
	},
}

func init() {
	addFilterFlags(postsListCmd, &listFlags)
	postsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
	postsEditCmd.Flags().StringVar(&editFlags.content, "content", "", "New post text, or - to read from stdin")
	postsEditCmd.Flags().StringVar(&editFlags.date, "date", "", "New schedule date (YYYY-MM-DD)")
	postsEditCmd.Flags().StringVar(&editFlags.time, "time", "", "New schedule time (HH:MM, 24h)")
	postsPublishCmd.Flags().BoolVarP(&publishYes, "yes", "y", false, "Do not ask for confirmation")
	postsImageCmd.Flags().StringVarP(&imageOutput, "output", "o", "", "File to write (default image.<ext>)")

	postsCmd.AddCommand(
		postsListCmd,
		postsCountsCmd,
		postsShowCmd,
		postsDeleteCmd,
		postsEditCmd,
		postsContinueCmd,
		postsDuplicateCmd,
		postsPublishCmd,
		postsImageCmd,
	)
	rootCmd.AddCommand(postsCmd)
}
