package api

import (
	"context"
	"net/http"
)

// HealthResponse represents the server status response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service,omitempty"`
	Version          string `json:"version,omitempty"`
	MinClientVersion string `json:"minClientVersion,omitempty"`
}

// Health checks if the server is up
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &health); err != nil {
		return nil, err
	}
	if health.Status == "" {
		health.Status = "ok"
	}
	return &health, nil
}
