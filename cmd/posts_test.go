package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gyana491/contentflow/internal/config"
)

var testPosts = []map[string]any{
	{
		"id":          "p1",
		"title":       "Launch plan",
		"content":     "We launch soon",
		"hashtags":    []string{"launch"},
		"contentType": "article",
		"tone":        "professional",
		"status":      "DRAFT",
		"isPublished": false,
		"createdAt":   "2025-03-10T12:00:00Z",
	},
	{
		"id":          "p2",
		"content":     "Scheduled update",
		"hashtags":    []string{},
		"contentType": "news",
		"tone":        "casual",
		"status":      "SCHEDULED",
		"isPublished": false,
		"createdAt":   "2025-03-11T12:00:00Z",
		"scheduledPost": map[string]any{
			"id":          "sp2",
			"scheduledAt": "2099-01-01T09:00:00Z",
			"timezone":    "UTC",
		},
	},
	{
		"id":          "p3",
		"title":       "Old news",
		"content":     "Shipped it",
		"hashtags":    []string{"golang"},
		"contentType": "news",
		"tone":        "informative",
		"status":      "PUBLISHED",
		"isPublished": true,
		"createdAt":   "2025-03-12T12:00:00Z",
		"linkedInUrl": "https://www.linkedin.com/feed/update/urn:li:share:1",
	},
}

// postsRoutes serves testPosts plus extra routes.
func postsRoutes(extra map[string]http.HandlerFunc) map[string]http.HandlerFunc {
	routes := map[string]http.HandlerFunc{
		"GET /posts/user": jsonHandler(http.StatusOK, map[string]any{"posts": testPosts}),
	}
	for k, v := range extra {
		routes[k] = v
	}
	return routes
}

// setupPosts starts a signed-in session against a backend serving testPosts.
// Schedules are shown in UTC.
func setupPosts(t *testing.T, extra map[string]http.HandlerFunc) (*testBackend, string) {
	t.Helper()
	backend := newTestBackend(t, postsRoutes(extra))
	home := setupTestConfig(t, backend.URL)
	t.Setenv(config.EnvPrefix+"_SCHEDULE_TIMEZONE", "UTC")
	mockKC := useMemoryKeychain(t)
	loggedIn(t, mockKC)
	return backend, home
}

func TestPostsList(t *testing.T) {
	setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "", "posts", "list")
	if err != nil {
		t.Fatalf("posts list failed: %v", err)
	}

	expectedParts := []string{
		"ID", "STATUS", "TITLE", "SCHEDULED",
		"p1", "draft", "Launch plan",
		"p2", "scheduled", "Scheduled update", "2099-01-01 09:00",
		"p3", "published", "Old news",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("output missing %q\nGot:\n%s", part, output)
		}
	}
	if strings.Contains(output, "Showing") {
		t.Errorf("no filter summary expected without filters, got:\n%s", output)
	}
}

func TestPostsList_Filters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "draft status",
			args:    []string{"--status", "draft"},
			want:    []string{"p1", "Showing 1 of 3 posts (1 filter active)"},
			notWant: []string{"p2", "p3"},
		},
		{
			name:    "type and search",
			args:    []string{"--type", "news", "--search", "GOLANG"},
			want:    []string{"p3", "Showing 1 of 3 posts (2 filters active)"},
			notWant: []string{"p1", "p2"},
		},
		{
			name:    "date range",
			args:    []string{"--from", "2025-03-11", "--to", "2025-03-11"},
			want:    []string{"p2"},
			notWant: []string{"p1", "p3"},
		},
		{
			name: "no match",
			args: []string{"--search", "nothing like this"},
			want: []string{"No posts match the current filters."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupPosts(t, nil)

			args := append([]string{"posts", "list"}, tt.args...)
			output, err := executeCommand(postsCmd, "", args...)
			if err != nil {
				t.Fatalf("posts list failed: %v", err)
			}
			for _, part := range tt.want {
				if !strings.Contains(output, part) {
					t.Errorf("output missing %q\nGot:\n%s", part, output)
				}
			}
			for _, part := range tt.notWant {
				if strings.Contains(output, part+" ") {
					t.Errorf("output should not contain %q\nGot:\n%s", part, output)
				}
			}
		})
	}
}

func TestPostsList_InvalidFilters(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{"status", []string{"--status", "bogus"}, `unknown status filter "bogus"`},
		{"type", []string{"--type", "poem"}, `unknown content type "poem"`},
		{"date", []string{"--from", "03/10/2025"}, "invalid from date"},
		{"range", []string{"--from", "2025-03-12", "--to", "2025-03-10"}, "is before start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, _ := setupPosts(t, nil)

			args := append([]string{"posts", "list"}, tt.args...)
			_, err := executeCommand(postsCmd, "", args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("expected error containing %q, got: %v", tt.expectedErr, err)
			}
			if n := backend.count("GET /posts/user"); n != 0 {
				t.Errorf("invalid filters should not fetch posts, got %d calls", n)
			}
		})
	}
}

func TestPostsList_Empty(t *testing.T) {
	setupPosts(t, map[string]http.HandlerFunc{
		"GET /posts/user": jsonHandler(http.StatusOK, map[string]any{"posts": []any{}}),
	})

	output, err := executeCommand(postsCmd, "", "posts", "list")
	if err != nil {
		t.Fatalf("posts list failed: %v", err)
	}
	if !strings.Contains(output, "No posts yet.") {
		t.Errorf("expected empty message, got: %s", output)
	}
}

func TestPostsList_NotLoggedIn(t *testing.T) {
	backend := newTestBackend(t, postsRoutes(nil))
	setupTestConfig(t, backend.URL)
	useMemoryKeychain(t)

	_, err := executeCommand(postsCmd, "", "posts", "list")
	if err != errNotLoggedIn {
		t.Errorf("expected errNotLoggedIn, got %v", err)
	}
}

func TestPostsCounts(t *testing.T) {
	setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "", "posts", "counts")
	if err != nil {
		t.Fatalf("posts counts failed: %v", err)
	}

	expected := "All: 3\nDrafts: 1\nScheduled: 1\nPublished: 1\n"
	if output != expected {
		t.Errorf("expected output:\n%s\ngot:\n%s", expected, output)
	}
}

func TestPostsShow(t *testing.T) {
	setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "", "posts", "show", "p3")
	if err != nil {
		t.Fatalf("posts show failed: %v", err)
	}

	expectedParts := []string{
		"ID: p3",
		"Title: Old news",
		"Status: published",
		"Type: news",
		"LinkedIn: https://www.linkedin.com/feed/update/urn:li:share:1",
		"Shipped it",
		"#golang",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("output missing %q\nGot:\n%s", part, output)
		}
	}
}

func TestPostsShow_NotFound(t *testing.T) {
	setupPosts(t, nil)

	_, err := executeCommand(postsCmd, "", "posts", "show", "nope")
	if err == nil {
		t.Fatal("expected error for an unknown post")
	}
	if err.Error() != "post nope not found" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPostsDelete(t *testing.T) {
	backend, _ := setupPosts(t, map[string]http.HandlerFunc{
		"DELETE /posts/p1": jsonHandler(http.StatusOK, map[string]string{"message": "Post deleted"}),
	})

	output, err := executeCommand(postsCmd, "", "posts", "delete", "p1", "--yes")
	if err != nil {
		t.Fatalf("posts delete failed: %v", err)
	}
	if !strings.Contains(output, "Post deleted.") {
		t.Errorf("expected delete message, got: %s", output)
	}
	if n := backend.count("DELETE /posts/p1"); n != 1 {
		t.Errorf("expected one delete call, got %d", n)
	}
}

func TestPostsDelete_Cancelled(t *testing.T) {
	backend, _ := setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "n\n", "posts", "delete", "p1")
	if err != nil {
		t.Fatalf("posts delete failed: %v", err)
	}
	if !strings.Contains(output, "Are you sure you want to delete this post? [y/N]") {
		t.Errorf("expected confirmation prompt, got: %s", output)
	}
	if !strings.Contains(output, "Cancelled.") {
		t.Errorf("expected cancel message, got: %s", output)
	}
	if n := backend.count("DELETE /posts/p1"); n != 0 {
		t.Errorf("no delete call expected, got %d", n)
	}
}

func TestPostsDelete_ServerError(t *testing.T) {
	setupPosts(t, map[string]http.HandlerFunc{
		"DELETE /posts/p1": jsonHandler(http.StatusForbidden, map[string]string{"error": "Not your post"}),
	})

	_, err := executeCommand(postsCmd, "y\n", "posts", "delete", "p1")
	if err == nil {
		t.Fatal("expected delete to fail")
	}
	if !strings.Contains(err.Error(), "Not your post") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPostsEdit_Content(t *testing.T) {
	backend, _ := setupPosts(t, map[string]http.HandlerFunc{
		"PUT /posts/p1": jsonHandler(http.StatusOK, map[string]any{"post": map[string]any{"id": "p1"}}),
	})

	output, err := executeCommand(postsCmd, "", "posts", "edit", "p1", "--content", "Updated text")
	if err != nil {
		t.Fatalf("posts edit failed: %v", err)
	}
	if !strings.Contains(output, "Post p1 updated.") {
		t.Errorf("expected update message, got: %s", output)
	}

	var req map[string]any
	if err := json.Unmarshal(backend.lastBody("PUT /posts/p1"), &req); err != nil {
		t.Fatalf("failed to decode update body: %v", err)
	}
	if req["content"] != "Updated text" {
		t.Errorf("unexpected update body: %v", req)
	}
	if _, ok := req["status"]; ok {
		t.Errorf("content edit should not change status: %v", req)
	}
}

func TestPostsEdit_Reschedule(t *testing.T) {
	backend, _ := setupPosts(t, map[string]http.HandlerFunc{
		"PUT /scheduled-posts/sp2": jsonHandler(http.StatusOK, map[string]string{"message": "Rescheduled"}),
		"PUT /posts/p2":            jsonHandler(http.StatusOK, map[string]any{"post": map[string]any{"id": "p2"}}),
	})

	output, err := executeCommand(postsCmd, "", "posts", "edit", "p2", "--date", "2099-02-01", "--time", "10:30")
	if err != nil {
		t.Fatalf("posts edit failed: %v", err)
	}
	if !strings.Contains(output, "Post p2 updated.") {
		t.Errorf("expected update message, got: %s", output)
	}

	var req map[string]string
	if err := json.Unmarshal(backend.lastBody("PUT /scheduled-posts/sp2"), &req); err != nil {
		t.Fatalf("failed to decode reschedule body: %v", err)
	}
	if req["scheduledAt"] != "2099-02-01T10:30:00.000Z" || req["timezone"] != "UTC" {
		t.Errorf("unexpected reschedule body: %v", req)
	}
	if n := backend.count("POST /linkedin/schedule"); n != 0 {
		t.Errorf("an existing schedule should be moved, not created, got %d calls", n)
	}
}

func TestPostsEdit_ScheduleDraft(t *testing.T) {
	backend, _ := setupPosts(t, map[string]http.HandlerFunc{
		"POST /linkedin/schedule": jsonHandler(http.StatusOK, map[string]string{"message": "Scheduled"}),
		"PUT /posts/p1":           jsonHandler(http.StatusOK, map[string]any{"post": map[string]any{"id": "p1"}}),
	})

	_, err := executeCommand(postsCmd, "", "posts", "edit", "p1", "--date", "2099-02-01", "--time", "10:30")
	if err != nil {
		t.Fatalf("posts edit failed: %v", err)
	}

	var req map[string]string
	if err := json.Unmarshal(backend.lastBody("POST /linkedin/schedule"), &req); err != nil {
		t.Fatalf("failed to decode schedule body: %v", err)
	}
	if req["postId"] != "p1" {
		t.Errorf("expected postId p1, got %v", req)
	}
}

func TestPostsEdit_PublishedCannotBeScheduled(t *testing.T) {
	backend, _ := setupPosts(t, nil)

	_, err := executeCommand(postsCmd, "", "posts", "edit", "p3", "--date", "2099-02-01", "--time", "10:30")
	if err == nil {
		t.Fatal("expected error for a published post")
	}
	if !strings.Contains(err.Error(), "post p3 is already published and cannot be scheduled") {
		t.Errorf("unexpected error: %v", err)
	}
	if n := backend.count("PUT /posts/p3"); n != 0 {
		t.Errorf("no update expected, got %d calls", n)
	}
}

func TestPostsEdit_Validation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{"date without time", []string{"--date", "2099-02-01"}, "Please select both date and time"},
		{"past time", []string{"--date", "2000-01-01", "--time", "10:00"}, "Please select a future time"},
		{"bad date", []string{"--date", "tomorrow", "--time", "10:00"}, "expected YYYY-MM-DD and HH:MM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupPosts(t, nil)

			args := append([]string{"posts", "edit", "p1"}, tt.args...)
			_, err := executeCommand(postsCmd, "", args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("expected error containing %q, got: %v", tt.expectedErr, err)
			}
		})
	}
}

func TestPostsContinue(t *testing.T) {
	_, home := setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "", "posts", "continue", "p1")
	if err != nil {
		t.Fatalf("posts continue failed: %v", err)
	}
	if !strings.Contains(output, "Draft loaded.") {
		t.Errorf("expected loaded message, got: %s", output)
	}

	pending, err := pendingStore(t, home).Consume(context.Background())
	if err != nil || pending == nil {
		t.Fatalf("expected a pending draft, got %v (%v)", pending, err)
	}
	if pending.ID != "p1" || pending.Content != "We launch soon" || pending.PublishOnLoad {
		t.Errorf("unexpected pending draft: %+v", pending)
	}
}

func TestPostsDuplicate(t *testing.T) {
	_, home := setupPosts(t, nil)

	output, err := executeCommand(postsCmd, "", "posts", "duplicate", "p1")
	if err != nil {
		t.Fatalf("posts duplicate failed: %v", err)
	}
	if !strings.Contains(output, "Copy loaded.") {
		t.Errorf("expected loaded message, got: %s", output)
	}

	pending, err := pendingStore(t, home).Consume(context.Background())
	if err != nil || pending == nil {
		t.Fatalf("expected a pending draft, got %v (%v)", pending, err)
	}
	if pending.ID != "" {
		t.Errorf("a copy should not keep the original id, got %q", pending.ID)
	}
	if pending.Title == nil || *pending.Title != "Launch plan (Copy)" {
		t.Errorf("expected copied title, got %v", pending.Title)
	}
}

func TestPostsPublish(t *testing.T) {
	extra := connectedRoutes()
	extra["POST /linkedin/publish-with-image"] = jsonHandler(http.StatusOK, map[string]any{"message": "Published"})
	backend, home := setupPosts(t, extra)
	seedConnection(t, home)

	output, err := executeCommand(postsCmd, "", "posts", "publish", "p1", "--yes")
	if err != nil {
		t.Fatalf("posts publish failed: %v", err)
	}
	if !strings.Contains(output, "Post published successfully to LinkedIn") {
		t.Errorf("expected publish message, got: %s", output)
	}

	body := string(backend.lastBody("POST /linkedin/publish-with-image"))
	if !strings.Contains(body, "We launch soon") || !strings.Contains(body, "la-1") {
		t.Errorf("unexpected publish body:\n%s", body)
	}
}

func TestPostsPublish_AlreadyPublished(t *testing.T) {
	backend, _ := setupPosts(t, nil)

	_, err := executeCommand(postsCmd, "", "posts", "publish", "p3", "--yes")
	if err == nil {
		t.Fatal("expected error for a published post")
	}
	if err.Error() != "post p3 is already published" {
		t.Errorf("unexpected error: %v", err)
	}
	if n := backend.count("POST /linkedin/publish-with-image"); n != 0 {
		t.Errorf("nothing should be published, got %d calls", n)
	}
}

func TestPostsImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	backend, _ := setupPosts(t, map[string]http.HandlerFunc{
		"GET /posts/image/urn:li:image:1": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		},
	})

	out := filepath.Join(t.TempDir(), "cover.png")
	output, err := executeCommand(postsCmd, "", "posts", "image", "urn:li:image:1", "-o", out)
	if err != nil {
		t.Fatalf("posts image failed: %v", err)
	}
	if !strings.Contains(output, "Saved "+out+" (image/png, 72 B)") {
		t.Errorf("unexpected output: %s", output)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if len(data) != len(png) {
		t.Errorf("expected %d bytes, got %d", len(png), len(data))
	}
	if n := backend.count("GET /posts/image/urn:li:image:1"); n != 1 {
		t.Errorf("expected one image request, got %d", n)
	}
}

func TestPostsImage_NotFound(t *testing.T) {
	setupPosts(t, nil)

	_, err := executeCommand(postsCmd, "", "posts", "image", "urn:li:image:missing", "-o", filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("expected error for a missing image")
	}
	if !strings.Contains(err.Error(), "failed to load image") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 40, "line one line two"},
		{"abcdefghij", 5, "abcd…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
