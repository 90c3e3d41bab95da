package posts

import (
	"fmt"
	"strings"
	"time"
)

// Status filter values
const (
	FilterAll       = "all"
	FilterDraft     = "draft"
	FilterScheduled = "scheduled"
	FilterPublished = "published"
	FilterFailed    = "failed"
)

// Filter narrows a post list. Zero values disable the matching criterion.
type Filter struct {
	Status      string
	ContentType string
	From        time.Time
	To          time.Time
	Search      string
}

// Validate rejects unknown status and content type values.
func (f Filter) Validate() error {
	switch strings.ToLower(f.Status) {
	case "", FilterAll, FilterDraft, FilterScheduled, FilterPublished, FilterFailed:
	default:
		return fmt.Errorf("unknown status filter %q", f.Status)
	}
	if ct := strings.ToLower(f.ContentType); ct != "" && ct != FilterAll {
		if _, err := ParseContentType(ct); err != nil {
			return err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("date range end %s is before start %s",
			f.To.Format(time.DateOnly), f.From.Format(time.DateOnly))
	}
	return nil
}

// Matches reports whether p passes every active criterion.
func (f Filter) Matches(p Post) bool {
	switch strings.ToLower(f.Status) {
	case FilterPublished:
		if !p.IsPublished {
			return false
		}
	case FilterDraft:
		if !p.IsDraft() {
			return false
		}
	case FilterScheduled:
		if !p.Status.Is(StatusScheduled) {
			return false
		}
	case FilterFailed:
		if !p.Status.Is(StatusFailed) {
			return false
		}
	}

	if ct := f.ContentType; ct != "" && !strings.EqualFold(ct, FilterAll) {
		if !strings.EqualFold(string(p.ContentType), ct) {
			return false
		}
	}

	if !f.From.IsZero() && p.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && p.CreatedAt.After(f.To) {
		return false
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Content), needle) &&
			!strings.Contains(strings.ToLower(p.TitleOr("")), needle) &&
			!hashtagContains(p.Hashtags, needle) {
			return false
		}
	}

	return true
}

func hashtagContains(tags []string, needle string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Apply returns the posts matching f, preserving order.
func (f Filter) Apply(list []Post) []Post {
	out := make([]Post, 0, len(list))
	for _, p := range list {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// ActiveCount returns how many criteria are set
func (f Filter) ActiveCount() int {
	n := 0
	if f.Status != "" && !strings.EqualFold(f.Status, FilterAll) {
		n++
	}
	if f.ContentType != "" && !strings.EqualFold(f.ContentType, FilterAll) {
		n++
	}
	if !f.From.IsZero() {
		n++
	}
	if !f.To.IsZero() {
		n++
	}
	if f.Search != "" {
		n++
	}
	return n
}

// ParseDateRange parses YYYY-MM-DD bounds in loc. The start is the beginning
// of its day and the end is the last nanosecond of its day. Empty bounds stay zero.
func ParseDateRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	var start, end time.Time
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		start = t
	}
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		end = EndOfDay(t)
	}
	return start, end, nil
}

// EndOfDay returns 23:59:59.999999999 of t's day in t's location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Counts is the number of posts per status tab
type Counts struct {
	All       int `json:"all"`
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Published int `json:"published"`
}

// CountPosts tallies list for the status tabs
func CountPosts(list []Post) Counts {
	c := Counts{All: len(list)}
	for _, p := range list {
		if p.Status.Is(StatusDraft) {
			c.Draft++
		}
		if p.Status.Is(StatusScheduled) {
			c.Scheduled++
		}
		if p.IsPublished {
			c.Published++
		}
	}
	return c
}
