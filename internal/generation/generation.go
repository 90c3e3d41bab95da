// Package generation drives the backend content generation workflow.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/logging"
	"github.com/Gyana491/contentflow/internal/posts"
)

// LinkTopicPrefix marks a topic that asks the workflow to read a web page.
const LinkTopicPrefix = "Extract Full Content: "

const (
	msgInvalidStructure = "Invalid response structure from content generation"
	msgInvalidResponse  = "Invalid response from content generation"
	msgFailed           = "Failed to generate content"
)

// Input is a generation request as entered by the user
type Input struct {
	Topic         string `json:"topic" validate:"required"`
	ContentType   string `json:"contentType" validate:"oneof=article trend news tutorial"`
	Tone          string `json:"tone" validate:"oneof=professional casual inspiring informative"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
}

// WithDefaults fills an empty content type and tone and lower-cases both.
func (in Input) WithDefaults() Input {
	in.Topic = strings.TrimSpace(in.Topic)
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	in.Tone = strings.ToLower(strings.TrimSpace(in.Tone))
	if in.ContentType == "" {
		in.ContentType = string(posts.ContentArticle)
	}
	if in.Tone == "" {
		in.Tone = string(posts.ToneProfessional)
	}
	return in
}

// FromLink returns a copy of in whose topic asks for the content of link.
func (in Input) FromLink(link string) (Input, error) {
	link = strings.TrimSpace(link)
	if err := api.Validate(struct {
		Link string `validate:"required,http_url"`
	}{link}); err != nil {
		return in, err
	}
	in.Topic = LinkTopicPrefix + link
	return in, nil
}

// Result is generated post text
type Result struct {
	LinkedInPost string   `json:"linkedinPost"`
	Hashtags     []string `json:"hashtags"`
	Topic        string   `json:"topic"`
}

// Decode normalizes the generation response. Accepted shapes, in order:
// {data:{linkedinPost}}, {linkedinPost}, {success:true,data:{...}}.
func Decode(body []byte) (*Result, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		return nil, api.MalformedResponseError(msgInvalidResponse, body)
	}

	var data *Result
	if raw, ok := envelope["data"]; ok && isObject(raw) {
		var r Result
		if err := json.Unmarshal(raw, &r); err == nil {
			data = &r
		}
	}

	var top Result
	_ = json.Unmarshal(body, &top)

	var success bool
	if raw, ok := envelope["success"]; ok {
		_ = json.Unmarshal(raw, &success)
	}

	var picked *Result
	switch {
	case data != nil && data.LinkedInPost != "":
		picked = data
	case top.LinkedInPost != "":
		picked = &top
	case success && data != nil:
		picked = data
	default:
		return nil, api.MalformedResponseError(msgInvalidStructure, body)
	}

	if strings.TrimSpace(picked.LinkedInPost) == "" {
		return nil, api.MalformedResponseError(msgInvalidStructure, body)
	}
	if picked.Hashtags == nil {
		picked.Hashtags = []string{}
	}
	return picked, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// State is the generator lifecycle state
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Client is the generation endpoint. The bearer token is attached by the
// client whenever the session has one.
type Client interface {
	Generate(ctx context.Context, req api.GenerateRequest) ([]byte, error)
}

// Generator holds the outcome of the latest generation.
type Generator struct {
	api    Client
	logger *slog.Logger

	mu      sync.RWMutex
	state   State
	content *Result
	err     error
}

func NewGenerator(client Client, logger *slog.Logger) *Generator {
	return &Generator{api: client, logger: logging.OrDiscard(logger)}
}

// Generate validates in, clears the previous outcome and runs the workflow.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	in = in.WithDefaults()

	g.mu.Lock()
	g.state = StateGenerating
	g.content = nil
	g.err = nil
	g.mu.Unlock()

	result, err := g.generate(ctx, in)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = StateFailed
		g.err = err
		return nil, err
	}
	g.state = StateReady
	g.content = result
	return result, nil
}

func (g *Generator) generate(ctx context.Context, in Input) (*Result, error) {
	if err := api.Validate(in); err != nil {
		return nil, err
	}

	body, err := g.api.Generate(ctx, api.GenerateRequest{
		Topic:         in.Topic,
		ContentType:   in.ContentType,
		Tone:          in.Tone,
		ScheduledTime: in.ScheduledTime,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindHTTP && strings.HasPrefix(apiErr.Message, "HTTP ") {
			normalized := *apiErr
			normalized.Message = msgFailed
			return nil, &normalized
		}
		return nil, err
	}

	result, err := Decode(body)
	if err != nil {
		g.logger.Error("unexpected content generation response", "error", err, "payload", string(body))
		return nil, err
	}
	g.logger.Debug("content generated", "topic", in.Topic, "hashtags", len(result.Hashtags))
	return result, nil
}

// Reset returns to Idle from any state
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateIdle
	g.content = nil
	g.err = nil
}

func (g *Generator) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Content returns the last generated result, or nil
func (g *Generator) Content() *Result {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.content
}

// Err returns the last failure, or nil
func (g *Generator) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}
