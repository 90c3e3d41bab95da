package api

import (
	"context"
	"net/http"
)

// GenerateRequest is the body of POST /generate
type GenerateRequest struct {
	Topic         string `json:"topic"`
	ContentType   string `json:"contentType"`
	Tone          string `json:"tone"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
}

// Generate runs the generation workflow and returns the raw response body.
// The body shape varies and is normalized by the caller.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, "/generate", req)
}
