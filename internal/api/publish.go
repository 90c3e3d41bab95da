package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Gyana491/contentflow/internal/posts"
)

// PublishRequest carries a post to LinkedIn. Image is optional.
type PublishRequest struct {
	LinkedInAuthID string
	UserID         string
	Content        string
	ContentType    string
	Tone           string
	Hashtags       []string
	Image          *FormFile
}

// ScheduleRequest is a PublishRequest with a publish instant
type ScheduleRequest struct {
	PublishRequest
	ScheduledAt time.Time
	Timezone    string
}

// PublishResult is returned by the publish and schedule endpoints
type PublishResult struct {
	Message        string               `json:"message"`
	HasImage       bool                 `json:"hasImage"`
	Post           *posts.Post          `json:"post,omitempty"`
	LinkedInPostID string               `json:"linkedInPostId,omitempty"`
	LinkedInURL    string               `json:"linkedInUrl,omitempty"`
	ScheduledPost  *posts.ScheduledPost `json:"scheduledPost,omitempty"`
}

// ISOTime formats t the way the backend expects scheduledAt
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func hashtagsJSON(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode hashtags: %w", err)
	}
	return string(data), nil
}

func (r PublishRequest) fields() ([]FormField, error) {
	tags, err := hashtagsJSON(r.Hashtags)
	if err != nil {
		return nil, err
	}
	return []FormField{
		{Name: "linkedInAuthId", Value: r.LinkedInAuthID},
		{Name: "userId", Value: r.UserID},
		{Name: "content", Value: r.Content},
		{Name: "contentType", Value: r.ContentType},
		{Name: "tone", Value: r.Tone},
		{Name: "hashtags", Value: tags},
	}, nil
}

// PublishWithImage publishes immediately; the image part is sent only when set.
func (c *Client) PublishWithImage(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	fields, err := req.fields()
	if err != nil {
		return nil, err
	}

	var result PublishResult
	if err := c.upload(ctx, "/linkedin/publish-with-image", fields, req.Image, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Schedule schedules a text-only post
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) (*PublishResult, error) {
	tags, err := hashtagsJSON(req.Hashtags)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"linkedInAuthId": req.LinkedInAuthID,
		"userId":         req.UserID,
		"content":        req.Content,
		"contentType":    req.ContentType,
		"tone":           req.Tone,
		"hashtags":       tags,
		"scheduledAt":    ISOTime(req.ScheduledAt),
		"timezone":       req.Timezone,
	}

	var result PublishResult
	if err := c.do(ctx, http.MethodPost, "/linkedin/schedule", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ScheduleWithImage schedules a post with an image attachment
func (c *Client) ScheduleWithImage(ctx context.Context, req ScheduleRequest) (*PublishResult, error) {
	if req.Image == nil {
		return nil, ValidationError("an image is required for scheduling with image")
	}

	fields, err := req.fields()
	if err != nil {
		return nil, err
	}
	fields = append(fields,
		FormField{Name: "scheduledAt", Value: ISOTime(req.ScheduledAt)},
		FormField{Name: "timezone", Value: req.Timezone},
	)

	var result PublishResult
	if err := c.upload(ctx, "/linkedin/schedule-with-image", fields, req.Image, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reschedule moves an existing schedule
func (c *Client) Reschedule(ctx context.Context, scheduledPostID string, at time.Time, timezone string) error {
	payload := map[string]string{
		"scheduledAt": ISOTime(at),
		"timezone":    timezone,
	}
	return c.do(ctx, http.MethodPut, "/scheduled-posts/"+url.PathEscape(scheduledPostID), payload, nil)
}

// SchedulePost attaches a schedule to an existing post
func (c *Client) SchedulePost(ctx context.Context, postID string, at time.Time, timezone string) error {
	payload := map[string]string{
		"postId":      postID,
		"scheduledAt": ISOTime(at),
		"timezone":    timezone,
	}
	return c.do(ctx, http.MethodPost, "/linkedin/schedule", payload, nil)
}
