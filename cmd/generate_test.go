package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/kv"
)

func generateRoutes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"POST /generate": jsonHandler(http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"linkedinPost": "Five things I learned shipping Go CLIs.",
				"hashtags":     []string{"golang", "#cli"},
				"topic":        "Go CLIs",
			},
		}),
	}
}

func TestGenerateCommand_Topic(t *testing.T) {
	backend := newTestBackend(t, generateRoutes())
	home := setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	output, err := executeCommand(generateCmd, "", "generate", "--topic", "Go CLIs", "--tone", "Casual")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	expectedParts := []string{
		"Generating article post (casual tone)...",
		"Five things I learned shipping Go CLIs.",
		"#golang #cli",
		"Run 'contentflow create'",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("output missing %q\nGot:\n%s", part, output)
		}
	}

	var req map[string]string
	if err := json.Unmarshal(backend.lastBody("POST /generate"), &req); err != nil {
		t.Fatalf("failed to decode generate body: %v", err)
	}
	if req["topic"] != "Go CLIs" || req["contentType"] != "article" || req["tone"] != "casual" {
		t.Errorf("unexpected generate body: %v", req)
	}

	pending, err := handoff.NewStore(stateStore(t, home, kv.ScopeDurable), nil).Consume(context.Background())
	if err != nil {
		t.Fatalf("failed to read pending post: %v", err)
	}
	if pending == nil {
		t.Fatal("expected the generated post to be kept for create")
	}
	if pending.ID != "" {
		t.Errorf("generated post should not carry an id, got %q", pending.ID)
	}
	if pending.Content != "Five things I learned shipping Go CLIs." {
		t.Errorf("unexpected pending content: %q", pending.Content)
	}
	if pending.Title == nil || *pending.Title != "Go CLIs" {
		t.Errorf("expected title Go CLIs, got %v", pending.Title)
	}
}

func TestGenerateCommand_Link(t *testing.T) {
	backend := newTestBackend(t, generateRoutes())
	setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	_, err := executeCommand(generateCmd, "", "generate", "--link", "https://go.dev/blog/")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var req map[string]string
	if err := json.Unmarshal(backend.lastBody("POST /generate"), &req); err != nil {
		t.Fatalf("failed to decode generate body: %v", err)
	}
	if !strings.HasSuffix(req["topic"], "https://go.dev/blog/") {
		t.Errorf("expected topic built from the link, got %q", req["topic"])
	}
}

func TestGenerateCommand_InvalidLink(t *testing.T) {
	backend := newTestBackend(t, generateRoutes())
	setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	_, err := executeCommand(generateCmd, "", "generate", "--link", "not a url")
	if err == nil {
		t.Fatal("expected error for an invalid link")
	}
	if !strings.Contains(err.Error(), "link must be a valid URL") {
		t.Errorf("unexpected error: %v", err)
	}
	if n := backend.count("POST /generate"); n != 0 {
		t.Errorf("invalid input should not reach the server, got %d calls", n)
	}
}

func TestGenerateCommand_TopicOrLink(t *testing.T) {
	backend := newTestBackend(t, nil)
	setupTestConfig(t, backend.URL)
	useMemoryKeychain(t)

	tests := []struct {
		name string
		args []string
	}{
		{"neither", []string{"generate"}},
		{"both", []string{"generate", "--topic", "Go", "--link", "https://go.dev"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(generateCmd, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "Provide either --topic or --link") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateCommand_InvalidTone(t *testing.T) {
	backend := newTestBackend(t, generateRoutes())
	setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	_, err := executeCommand(generateCmd, "", "generate", "--topic", "Go", "--tone", "angry")
	if err == nil {
		t.Fatal("expected error for an unknown tone")
	}
	if !strings.Contains(err.Error(), "tone must be one of") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerateCommand_MalformedResponse(t *testing.T) {
	backend := newTestBackend(t, map[string]http.HandlerFunc{
		"POST /generate": jsonHandler(http.StatusOK, map[string]any{"data": map[string]any{}}),
	})
	setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	_, err := executeCommand(generateCmd, "", "generate", "--topic", "Go")
	if err == nil {
		t.Fatal("expected error for a response without post text")
	}
	if !strings.Contains(err.Error(), "Invalid response structure from content generation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerateCommand_SaveDraft(t *testing.T) {
	routes := generateRoutes()
	routes["POST /posts"] = jsonHandler(http.StatusCreated, map[string]any{
		"post": map[string]any{"id": "p1", "content": "Five things I learned shipping Go CLIs.", "status": "DRAFT"},
	})
	backend := newTestBackend(t, routes)
	home := setupTestConfig(t, backend.URL)
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)

	output, err := executeCommand(generateCmd, "", "generate", "--topic", "Go CLIs", "--type", "tutorial", "--save-draft")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(output, "Draft saved successfully!") {
		t.Errorf("expected draft saved message, got: %s", output)
	}

	var req map[string]any
	if err := json.Unmarshal(backend.lastBody("POST /posts"), &req); err != nil {
		t.Fatalf("failed to decode create body: %v", err)
	}
	if req["status"] != "DRAFT" || req["title"] != "Go CLIs" || req["contentType"] != "tutorial" {
		t.Errorf("unexpected create body: %v", req)
	}

	pending, err := handoff.NewStore(stateStore(t, home, kv.ScopeDurable), nil).Consume(context.Background())
	if err != nil || pending != nil {
		t.Errorf("a saved draft should not leave a pending post, got %v (%v)", pending, err)
	}
}

func TestFormatHashtags(t *testing.T) {
	got := formatHashtags([]string{"go", " #cli ", "", "linkedin"})
	if got != "#go #cli #linkedin" {
		t.Errorf("formatHashtags = %q", got)
	}
}
