package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/logging"
	"github.com/Gyana491/contentflow/internal/posts"
)

// PublishAPI is the subset of the REST client used to publish and schedule
type PublishAPI interface {
	PublishWithImage(ctx context.Context, req api.PublishRequest) (*api.PublishResult, error)
	Schedule(ctx context.Context, req api.ScheduleRequest) (*api.PublishResult, error)
	ScheduleWithImage(ctx context.Context, req api.ScheduleRequest) (*api.PublishResult, error)
	Reschedule(ctx context.Context, scheduledPostID string, at time.Time, timezone string) error
	SchedulePost(ctx context.Context, postID string, at time.Time, timezone string) error
}

// Drafts saves drafts and edits; posts.Repository implements it.
type Drafts interface {
	CreateDraft(ctx context.Context, req posts.CreateRequest) (*posts.Post, error)
	UpdatePost(ctx context.Context, id string, req posts.UpdateRequest) (*posts.Post, error)
}

// Identity is who publishes: the LinkedIn connection and the signed-in user.
// Empty fields mean not connected or not signed in.
type Identity struct {
	LinkedInAuthID string
	UserID         string
}

// Publisher runs the editor actions against the backend.
type Publisher struct {
	api      PublishAPI
	drafts   Drafts
	timezone string
	now      func() time.Time
	logger   *slog.Logger
}

// NewPublisher creates a publisher; timezone is the IANA name sent with schedules.
func NewPublisher(client PublishAPI, drafts Drafts, timezone string, logger *slog.Logger) *Publisher {
	return &Publisher{
		api:      client,
		drafts:   drafts,
		timezone: timezone,
		now:      time.Now,
		logger:   logging.OrDiscard(logger),
	}
}

// SetClock replaces the time source used for schedule checks
func (p *Publisher) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Publisher) publishRequest(e *Editor, id Identity) api.PublishRequest {
	req := api.PublishRequest{
		LinkedInAuthID: id.LinkedInAuthID,
		UserID:         id.UserID,
		Content:        e.PostContent(),
		ContentType:    string(e.ContentType),
		Tone:           string(e.Tone),
		Hashtags:       e.Hashtags,
	}
	if req.ContentType == "" {
		req.ContentType = string(posts.ContentArticle)
	}
	if req.Tone == "" {
		req.Tone = string(posts.ToneProfessional)
	}
	if img := e.Image(); img != nil {
		req.Image = &api.FormFile{
			Field:       "imageFile",
			Filename:    img.Filename,
			ContentType: img.MIME,
			Content:     bytes.NewReader(img.Data),
		}
	}
	return req
}

// Publish posts the editor content to LinkedIn now. On success the editor
// is reset and the confirmation message returned.
func (p *Publisher) Publish(ctx context.Context, e *Editor, id Identity) (string, error) {
	switch {
	case id.LinkedInAuthID == "":
		return "", api.ValidationError("Please connect your LinkedIn account first")
	case id.UserID == "":
		return "", api.ValidationError("User authentication required")
	case !e.hasContent():
		return "", api.ValidationError("No content to publish")
	}

	p.logger.Info("publishing post", "user_id", id.UserID, "linkedin_auth_id", id.LinkedInAuthID, "image", e.Image() != nil)
	result, err := p.api.PublishWithImage(ctx, p.publishRequest(e, id))
	if err != nil {
		return "", fmt.Errorf("failed to publish post: %w", err)
	}

	e.Reset()
	if result.HasImage {
		return "Post with image published successfully to LinkedIn and saved to database!", nil
	}
	return "Post published successfully to LinkedIn and saved to database!", nil
}

// Schedule sends the editor content with the selected instant. An attached
// image switches to the multipart endpoint.
func (p *Publisher) Schedule(ctx context.Context, e *Editor, id Identity) (string, error) {
	switch {
	case e.ScheduleDate == "" || e.ScheduleTime == "":
		return "", api.ValidationError("Please select both date and time for scheduling")
	case id.LinkedInAuthID == "":
		return "", api.ValidationError("Please connect your LinkedIn account first")
	case id.UserID == "":
		return "", api.ValidationError("User authentication required")
	case !e.hasContent():
		return "", api.ValidationError("No content to schedule")
	}
	if !e.IsScheduledTimeValid(p.now()) {
		return "", api.ValidationError("Please select a future time for today's schedule")
	}

	at, _ := e.ScheduledAt()
	req := api.ScheduleRequest{
		PublishRequest: p.publishRequest(e, id),
		ScheduledAt:    at,
		Timezone:       p.timezone,
	}

	var (
		result *api.PublishResult
		err    error
	)
	if req.Image != nil {
		result, err = p.api.ScheduleWithImage(ctx, req)
	} else {
		result, err = p.api.Schedule(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("failed to schedule post: %w", err)
	}

	local := at.In(e.Location()).Format("1/2/2006, 3:04:05 PM")
	e.Reset()
	if result.HasImage {
		return fmt.Sprintf("Post with image scheduled successfully for %s and saved to database!", local), nil
	}
	return fmt.Sprintf("Post scheduled successfully for %s and saved to database!", local), nil
}

// SaveDraft creates a draft, or updates the draft being edited.
func (p *Publisher) SaveDraft(ctx context.Context, e *Editor, id Identity) (string, error) {
	switch {
	case id.UserID == "":
		return "", api.ValidationError("User authentication required")
	case !e.hasContent():
		return "", api.ValidationError("No content to save")
	}

	content := e.PostContent()
	title := posts.StringPtr(e.Topic)
	ct, tone := e.ContentType, e.Tone
	if ct == "" {
		ct = posts.ContentArticle
	}
	if tone == "" {
		tone = posts.ToneProfessional
	}
	hashtags := e.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	var (
		saved *posts.Post
		err   error
	)
	updating := e.DraftID != ""
	if updating {
		status := posts.StatusDraft
		saved, err = p.drafts.UpdatePost(ctx, e.DraftID, posts.UpdateRequest{
			Content:     &content,
			Title:       title,
			ContentType: &ct,
			Tone:        &tone,
			Hashtags:    hashtags,
			Status:      &status,
		})
	} else {
		saved, err = p.drafts.CreateDraft(ctx, posts.CreateRequest{
			Content:     content,
			Title:       title,
			ContentType: ct,
			Tone:        tone,
			Hashtags:    hashtags,
			Status:      posts.StatusDraft,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to save draft: %w", err)
	}
	if saved == nil {
		return "", api.ValidationError("User authentication required")
	}

	e.Reset()
	if updating {
		return "Draft updated successfully!", nil
	}
	return "Draft saved successfully! You can find it in your posts list.", nil
}

// ErrUpdateFailed is returned when an edit produced no updated post
var ErrUpdateFailed = errors.New("Failed to update post. Please try again.")

// EditPost saves a content edit from the post list. When date and clock are
// both given the post is rescheduled, or scheduled if it had no schedule.
func (p *Publisher) EditPost(ctx context.Context, post posts.Post, content, date, clock string, loc *time.Location) (*posts.Post, error) {
	if date != "" && clock != "" {
		at, err := ParseSchedule(date, clock, loc)
		if err != nil {
			return nil, api.ValidationError(err.Error())
		}
		if !at.After(p.now()) {
			return nil, api.ValidationError("Please select a future time for today's schedule")
		}
		if !post.CanSchedule() {
			return nil, posts.ErrTerminal
		}

		if post.ScheduledPost != nil && post.ScheduledPost.ID != "" {
			err = p.api.Reschedule(ctx, post.ScheduledPost.ID, at, p.timezone)
		} else {
			err = p.api.SchedulePost(ctx, post.ID, at, p.timezone)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update post: %w", err)
		}
	}

	updated, err := p.drafts.UpdatePost(ctx, post.ID, posts.UpdateRequest{Content: &content})
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if updated == nil {
		return nil, ErrUpdateFailed
	}
	return updated, nil
}
