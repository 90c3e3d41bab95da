package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Gyana491/contentflow/internal/logging"
)

// ErrTerminal is returned when a schedule is attached to a published post
var ErrTerminal = errors.New("published posts cannot be scheduled")

// Backend is the subset of the REST client the repository needs
type Backend interface {
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, req CreateRequest) (*Post, error)
	UpdatePost(ctx context.Context, id string, req UpdateRequest) (*Post, error)
	DeletePost(ctx context.Context, id string) error
}

// Session reports whether a bearer token is present
type Session interface {
	IsAuthenticated() bool
}

// Repository is the client view over the user's posts. Every successful
// mutation refetches the whole list. Errors from all operations share one
// message slot; the last one wins.
type Repository struct {
	backend Backend
	session Session
	logger  *slog.Logger

	mu    sync.RWMutex
	posts []Post
	err   string
}

// NewRepository creates a repository
func NewRepository(backend Backend, session Session, logger *slog.Logger) *Repository {
	return &Repository{
		backend: backend,
		session: session,
		logger:  logging.OrDiscard(logger),
	}
}

// Posts returns a copy of the last fetched list
func (r *Repository) Posts() []Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Post(nil), r.posts...)
}

// Find returns the cached post with the given id
func (r *Repository) Find(id string) (Post, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

// Err returns the last error message, or "" when none is set
func (r *Repository) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// ClearError resets the shared error
func (r *Repository) ClearError() {
	r.setErr("")
}

func (r *Repository) setErr(msg string) {
	r.mu.Lock()
	r.err = msg
	r.mu.Unlock()
}

// failure records err under the shared slot. A bare "HTTP <status>" message,
// meaning the server sent no error text, is completed with the operation.
func (r *Repository) failure(op string, err error) error {
	msg := err.Error()
	if code, ok := strings.CutPrefix(msg, "HTTP "); ok {
		if _, convErr := strconv.Atoi(code); convErr == nil {
			msg = fmt.Sprintf("%s: Failed to %s", msg, op)
		}
	}
	r.logger.Error("post operation failed", "operation", op, "error", err)
	r.setErr(msg)
	return err
}

// FetchPosts replaces the cached list. Without a session it empties the list
// and returns nil without calling the backend.
func (r *Repository) FetchPosts(ctx context.Context) ([]Post, error) {
	if !r.session.IsAuthenticated() {
		r.logger.Debug("not authenticated, skipping post fetch")
		r.mu.Lock()
		r.posts = nil
		r.mu.Unlock()
		return nil, nil
	}

	r.setErr("")
	list, err := r.backend.ListPosts(ctx)
	if err != nil {
		return nil, r.failure("fetch posts", err)
	}

	r.mu.Lock()
	r.posts = list
	r.mu.Unlock()
	return r.Posts(), nil
}

// refetch refreshes the list after a mutation; its failure lands in the
// shared error slot but does not undo the mutation.
func (r *Repository) refetch(ctx context.Context) {
	_, _ = r.FetchPosts(ctx)
}

// CreateDraft saves a new post with status DRAFT. It returns nil, nil when
// there is no session.
func (r *Repository) CreateDraft(ctx context.Context, req CreateRequest) (*Post, error) {
	if !r.session.IsAuthenticated() {
		r.logger.Debug("not authenticated, cannot create draft")
		return nil, nil
	}

	req.Status = StatusDraft
	post, err := r.backend.CreatePost(ctx, req)
	if err != nil {
		return nil, r.failure("create draft", err)
	}

	r.refetch(ctx)
	return post, nil
}

// UpdatePost applies a partial update. Published posts cannot receive a schedule.
func (r *Repository) UpdatePost(ctx context.Context, id string, req UpdateRequest) (*Post, error) {
	if !r.session.IsAuthenticated() {
		r.logger.Debug("not authenticated, cannot update post")
		return nil, nil
	}

	if current, ok := r.Find(id); ok && current.IsTerminal() {
		if req.ScheduledPost != nil || (req.Status != nil && req.Status.Is(StatusScheduled)) {
			return nil, r.failure("update post", ErrTerminal)
		}
	}

	post, err := r.backend.UpdatePost(ctx, id, req)
	if err != nil {
		return nil, r.failure("update post", err)
	}

	r.refetch(ctx)
	return post, nil
}

// DeletePost removes a post. It reports false without a session or on failure.
func (r *Repository) DeletePost(ctx context.Context, id string) (bool, error) {
	if !r.session.IsAuthenticated() {
		r.logger.Debug("not authenticated, cannot delete post")
		return false, nil
	}

	if err := r.backend.DeletePost(ctx, id); err != nil {
		return false, r.failure("delete post", err)
	}

	r.refetch(ctx)
	return true, nil
}
