// Package posts models the user's posts and the client-side views over them:
// the repository, list filters, counts and the calendar.
package posts

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the kind of post being written
type ContentType string

const (
	ContentArticle  ContentType = "article"
	ContentTrend    ContentType = "trend"
	ContentNews     ContentType = "news"
	ContentTutorial ContentType = "tutorial"
)

// ContentTypes lists the accepted content types in display order
var ContentTypes = []ContentType{ContentArticle, ContentTrend, ContentNews, ContentTutorial}

// ParseContentType accepts any casing
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContentTypes {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// Tone is the writing style of a post
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneInspiring    Tone = "inspiring"
	ToneInformative  Tone = "informative"
)

// Tones lists the accepted tones in display order
var Tones = []Tone{ToneProfessional, ToneCasual, ToneInspiring, ToneInformative}

// ParseTone accepts any casing
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tones {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

// Status is the lifecycle state of a post
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusScheduled Status = "SCHEDULED"
	StatusPublished Status = "PUBLISHED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus accepts any casing
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusScheduled, StatusPublished, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Is compares case-insensitively; the backend is not consistent about casing.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(string(s), string(other))
}

// ScheduledPost is the schedule attached to a post
type ScheduledPost struct {
	ID          string    `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Timezone    string    `json:"timezone"`
	Status      string    `json:"status"`
}

// Post is a user's post as stored by the backend
type Post struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Title            *string        `json:"title"`
	Content          string         `json:"content"`
	Hashtags         []string       `json:"hashtags"`
	ContentType      ContentType    `json:"contentType"`
	Tone             Tone           `json:"tone"`
	Status           Status         `json:"status"`
	IsPublished      bool           `json:"isPublished"`
	PublishedAt      *time.Time     `json:"publishedAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	LinkedInPostID   *string        `json:"linkedInPostId"`
	LinkedInURL      *string        `json:"linkedInUrl"`
	ImageURL         *string        `json:"imageUrl"`
	ImageAssetURN    *string        `json:"imageAssetUrn"`
	ImageTitle       *string        `json:"imageTitle"`
	ImageDescription *string        `json:"imageDescription"`
	ScheduledPost    *ScheduledPost `json:"scheduledPost,omitempty"`
}

// TitleOr returns the title or def when there is none
func (p Post) TitleOr(def string) string {
	if p.Title == nil || *p.Title == "" {
		return def
	}
	return *p.Title
}

// IsTerminal reports whether the post reached LinkedIn; nothing may be
// scheduled for it afterwards.
func (p Post) IsTerminal() bool {
	return p.IsPublished
}

// CanSchedule reports whether a schedule may still be attached
func (p Post) CanSchedule() bool {
	return !p.IsTerminal()
}

// IsDraft reports whether the post is an unpublished draft
func (p Post) IsDraft() bool {
	return p.Status.Is(StatusDraft) && !p.IsPublished
}

// IsScheduled reports whether the post waits for a scheduled publish
func (p Post) IsScheduled() bool {
	return p.Status.Is(StatusScheduled)
}

// HasImage reports whether an image is attached
func (p Post) HasImage() bool {
	return (p.ImageURL != nil && *p.ImageURL != "") || (p.ImageAssetURN != nil && *p.ImageAssetURN != "")
}

// CalendarTime places the post on the calendar: the scheduled instant for
// scheduled posts, the creation time otherwise.
func (p Post) CalendarTime() time.Time {
	if p.IsScheduled() && p.ScheduledPost != nil && !p.ScheduledPost.ScheduledAt.IsZero() {
		return p.ScheduledPost.ScheduledAt
	}
	return p.CreatedAt
}

// CreateRequest is the body of POST /posts
type CreateRequest struct {
	Content     string      `json:"content" validate:"required"`
	Title       *string     `json:"title"`
	ContentType ContentType `json:"contentType" validate:"required"`
	Tone        Tone        `json:"tone" validate:"required"`
	Hashtags    []string    `json:"hashtags"`
	Status      Status      `json:"status"`
}

// UpdateRequest is the body of PUT /posts/:id; nil fields are left unchanged
type UpdateRequest struct {
	Content       *string        `json:"content,omitempty"`
	Title         *string        `json:"title,omitempty"`
	ContentType   *ContentType   `json:"contentType,omitempty"`
	Tone          *Tone          `json:"tone,omitempty"`
	Hashtags      []string       `json:"hashtags,omitempty"`
	Status        *Status        `json:"status,omitempty"`
	ScheduledPost *ScheduledPost `json:"scheduledPost,omitempty"`
}

// StringPtr returns nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
