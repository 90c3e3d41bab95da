package posts

import (
	"sort"
	"time"
)

// MonthGrid returns the cells of a month view starting on Sunday. Cells
// before the first day of the month are zero times.
func MonthGrid(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()

	cells := make([]time.Time, int(first.Weekday()), int(first.Weekday())+daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, time.Date(year, month, day, 0, 0, 0, 0, loc))
	}
	return cells
}

// SameDay reports whether a and b fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// PostsOn returns the posts placed on day
func PostsOn(list []Post, day time.Time, loc *time.Location) []Post {
	if day.IsZero() {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	var out []Post
	for _, p := range list {
		if SameDay(p.CalendarTime(), day, loc) {
			out = append(out, p)
		}
	}
	return out
}

// UpcomingWindow and UpcomingLimit bound the upcoming list
const (
	UpcomingWindow = 7 * 24 * time.Hour
	UpcomingLimit  = 5
)

// Upcoming returns up to limit posts placed within [now, now+window], soonest first.
func Upcoming(list []Post, now time.Time, window time.Duration, limit int) []Post {
	end := now.Add(window)

	var out []Post
	for _, p := range list {
		t := p.CalendarTime()
		if !t.Before(now) && !t.After(end) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CalendarTime().Before(out[j].CalendarTime())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
