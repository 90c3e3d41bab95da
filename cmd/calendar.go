package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/posts"
)

type calendarOptions struct {
	month string
	filterOptions
}

var calendarFlags calendarOptions

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show your posts on a month calendar",
	Long: "Show a month grid with the number of posts on each day, the posts of that month " +
		"and what is coming up in the next seven days. Scheduled posts are placed on their " +
		"publish date, everything else on its creation date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { calendarFlags = calendarOptions{} }()
		f := calendarFlags

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		loc := a.cfg.Location()
		now := time.Now().In(loc)
		year, month := now.Year(), now.Month()
		if f.month != "" {
			t, err := time.ParseInLocation("2006-01", f.month, loc)
			if err != nil {
				return api.ValidationError(fmt.Sprintf("invalid month %q: expected YYYY-MM", f.month))
			}
			year, month = t.Year(), t.Month()
		}

		filter, err := f.filter(loc)
		if err != nil {
			return err
		}

		repo, err := fetchPosts(cmd, a)
		if err != nil {
			return err
		}
		list := filter.Apply(repo.Posts())

		cells := posts.MonthGrid(year, month, loc)
		cmd.Print(renderMonth(year, month, cells, list, loc))

		cmd.Println()
		found := false
		for _, day := range cells {
			onDay := posts.PostsOn(list, day, loc)
			if len(onDay) == 0 {
				continue
			}
			found = true
			cmd.Printf("%s\n", day.Format("Mon Jan 2"))
			for _, p := range onDay {
				cmd.Printf("  %s  %-9s  %s\n", p.CalendarTime().In(loc).Format("15:04"), statusLabel(p), truncate(p.TitleOr(p.Content), 50))
			}
		}
		if !found {
			cmd.Printf("No posts in %s %d.\n", month, year)
		}

		upcoming := posts.Upcoming(list, time.Now(), posts.UpcomingWindow, posts.UpcomingLimit)
		if len(upcoming) > 0 {
			cmd.Println()
			cmd.Println("Upcoming:")
			for _, p := range upcoming {
				cmd.Printf("  %s  %s\n", humanize.Time(p.CalendarTime()), truncate(p.TitleOr(p.Content), 50))
			}
		}
		return nil
	},
}

// renderMonth draws a Sunday-first grid; days with posts show the count.
func renderMonth(year int, month time.Month, cells []time.Time, list []posts.Post, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", month, year)
	b.WriteString(" Sun   Mon   Tue   Wed   Thu   Fri   Sat\n")

	for i, day := range cells {
		if day.IsZero() {
			b.WriteString("      ")
		} else {
			cell := fmt.Sprintf("%2d", day.Day())
			if n := len(posts.PostsOn(list, day, loc)); n > 0 {
				cell += fmt.Sprintf("(%d)", n)
			}
			fmt.Fprintf(&b, " %-5s", cell)
		}
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	if len(cells)%7 != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	calendarCmd.Flags().StringVar(&calendarFlags.month, "month", "", "Month to show (YYYY-MM, default current month)")
	addFilterFlags(calendarCmd, &calendarFlags.filterOptions)
	rootCmd.AddCommand(calendarCmd)
}
