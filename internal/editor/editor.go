// Package editor holds the post being composed, the gates deciding which
// actions are allowed, image attachments and the preview card.
package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gyana491/contentflow/internal/generation"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/posts"
)

// View is the active editor view
type View int

const (
	// ViewInput is topic or link entry before anything was generated.
	ViewInput View = iota
	// ViewEditor shows editable post text.
	ViewEditor
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Editor is the state of the post being composed. It is not safe for
// concurrent use; one goroutine drives it.
type Editor struct {
	Topic       string
	Content     string
	Hashtags    []string
	ContentType posts.ContentType
	Tone        posts.Tone
	// DraftID is set while editing an existing draft; saving updates it.
	DraftID      string
	ScheduleDate string
	ScheduleTime string
	View         View

	generated *generation.Result
	previews  *PreviewRegistry
	image     *Attachment
	loc       *time.Location
}

// New returns an editor with default type and tone. Scheduled dates and
// times are read in loc.
func New(previews *PreviewRegistry, loc *time.Location) *Editor {
	if previews == nil {
		previews = NewPreviewRegistry()
	}
	if loc == nil {
		loc = time.Local
	}
	e := &Editor{previews: previews, loc: loc}
	e.defaults()
	return e
}

func (e *Editor) defaults() {
	e.Topic = ""
	e.Content = ""
	e.Hashtags = nil
	e.ContentType = posts.ContentArticle
	e.Tone = posts.ToneProfessional
	e.DraftID = ""
	e.ScheduleDate = ""
	e.ScheduleTime = ""
	e.View = ViewInput
	e.generated = nil
}

// Location is the zone scheduled times are read in
func (e *Editor) Location() *time.Location {
	return e.loc
}

// LoadGenerated copies generated text into the editor and switches to the editor view.
func (e *Editor) LoadGenerated(r *generation.Result) {
	if r == nil || r.LinkedInPost == "" {
		return
	}
	e.generated = r
	e.Content = r.LinkedInPost
	e.Hashtags = append([]string(nil), r.Hashtags...)
	e.View = ViewEditor
}

// LoadHandoff applies a draft handed over from the post list and reports
// whether the user asked to publish it.
func (e *Editor) LoadHandoff(d handoff.Draft) (publishOnLoad bool) {
	e.Topic = ""
	if d.Title != nil {
		e.Topic = *d.Title
	}
	if ct, err := posts.ParseContentType(d.ContentType); err == nil {
		e.ContentType = ct
	}
	if t, err := posts.ParseTone(d.Tone); err == nil {
		e.Tone = t
	}
	e.Content = d.Content
	e.Hashtags = append([]string(nil), d.Hashtags...)
	e.DraftID = d.ID
	e.View = ViewEditor
	return d.PublishOnLoad
}

// PostContent is the text that would be sent: the edited content, else the
// generated text, else the topic.
func (e *Editor) PostContent() string {
	if e.Content != "" {
		return e.Content
	}
	if e.generated != nil && e.generated.LinkedInPost != "" {
		return e.generated.LinkedInPost
	}
	return e.Topic
}

func (e *Editor) hasContent() bool {
	return strings.TrimSpace(e.PostContent()) != ""
}

// CanSaveDraft reports whether there is text to save
func (e *Editor) CanSaveDraft() bool {
	return e.hasContent()
}

// CanPublish reports whether publishing is allowed right now
func (e *Editor) CanPublish(connected, authenticated bool) bool {
	return connected && authenticated && e.hasContent()
}

// ParseSchedule combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseSchedule(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q %q: expected YYYY-MM-DD and HH:MM", date, clock)
	}
	return t, nil
}

// ScheduledAt returns the selected publish instant, if both parts are set and valid.
func (e *Editor) ScheduledAt() (time.Time, bool) {
	if e.ScheduleDate == "" || e.ScheduleTime == "" {
		return time.Time{}, false
	}
	t, err := ParseSchedule(e.ScheduleDate, e.ScheduleTime, e.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsScheduledTimeValid reports whether date and time are set and strictly after now.
func (e *Editor) IsScheduledTimeValid(now time.Time) bool {
	at, ok := e.ScheduledAt()
	return ok && at.After(now)
}

// ScheduleValidationMessage explains an invalid selection. It is empty when
// nothing is selected yet or the selection is valid.
func (e *Editor) ScheduleValidationMessage(now time.Time) string {
	if e.ScheduleDate == "" || e.ScheduleTime == "" {
		return ""
	}
	if !e.IsScheduledTimeValid(now) {
		return "Please select a future time for today's schedule"
	}
	return ""
}

// CanSchedule reports whether scheduling is allowed right now
func (e *Editor) CanSchedule(connected, authenticated bool, now time.Time) bool {
	return e.CanPublish(connected, authenticated) && e.IsScheduledTimeValid(now)
}

// Reset revokes the attachment and restores defaults.
func (e *Editor) Reset() {
	e.RemoveImage()
	e.defaults()
}

// Close releases the attachment handle when the editor goes away.
func (e *Editor) Close() {
	e.RemoveImage()
}
