// Package handoff passes a post from the list views to the editor through
// durable storage.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gyana491/contentflow/internal/kv"
	"github.com/Gyana491/contentflow/internal/logging"
	"github.com/Gyana491/contentflow/internal/posts"
)

// Key is the durable key of the pending draft
const Key = "continueEditingDraft"

// Draft is a post handed to the editor. A nil-ID draft is saved as a new post.
type Draft struct {
	ID            string   `json:"id,omitempty"`
	Content       string   `json:"content"`
	Title         *string  `json:"title"`
	Hashtags      []string `json:"hashtags"`
	ContentType   string   `json:"contentType"`
	Tone          string   `json:"tone"`
	IsDraft       bool     `json:"isDraft"`
	PublishOnLoad bool     `json:"publishOnLoad,omitempty"`
}

func fromPost(p posts.Post) Draft {
	d := Draft{
		ID:          p.ID,
		Content:     p.Content,
		Hashtags:    append([]string(nil), p.Hashtags...),
		ContentType: string(p.ContentType),
		Tone:        string(p.Tone),
		IsDraft:     true,
	}
	if p.Title != nil {
		t := *p.Title
		d.Title = &t
	}
	return d
}

// ContinueEditing hands off p for editing in place
func ContinueEditing(p posts.Post) Draft {
	return fromPost(p)
}

// Duplicate hands off a copy of p; saving it creates a new post.
func Duplicate(p posts.Post) Draft {
	d := fromPost(p)
	d.ID = ""
	if d.Title != nil {
		t := *d.Title + " (Copy)"
		d.Title = &t
	}
	return d
}

// PublishDraft hands off p so the editor offers to publish it on load.
func PublishDraft(p posts.Post) Draft {
	d := fromPost(p)
	d.PublishOnLoad = true
	return d
}

// Store keeps at most one pending draft
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

func NewStore(store kv.Store, logger *slog.Logger) *Store {
	return &Store{kv: store, logger: logging.OrDiscard(logger)}
}

// Put replaces the pending draft
func (s *Store) Put(ctx context.Context, d Draft) error {
	if err := kv.SetJSON(ctx, s.kv, Key, d); err != nil {
		return fmt.Errorf("failed to store draft handoff: %w", err)
	}
	return nil
}

// Consume returns the pending draft and removes it. Nothing pending yields
// nil, nil. Unparsable data is removed and reported; a record not marked as
// a draft is removed and ignored.
func (s *Store) Consume(ctx context.Context) (*Draft, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := s.kv.Delete(ctx, Key); err != nil {
			s.logger.Warn("failed to remove draft handoff", "error", err)
		}
	}()

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		s.logger.Error("error parsing draft data", "error", err)
		return nil, fmt.Errorf("error parsing draft data: %w", err)
	}
	if !d.IsDraft {
		return nil, nil
	}
	return &d, nil
}
