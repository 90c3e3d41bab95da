package posts

import (
	"context"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var faker = gofakeit.New(42)

func fakePost(mutate func(p *Post)) Post {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	p := Post{
		ID:          faker.UUID(),
		UserID:      "user-1",
		Title:       StringPtr(faker.Sentence(4)),
		Content:     faker.Sentence(20),
		Hashtags:    []string{"#" + faker.Word(), "#" + faker.Word()},
		ContentType: ContentArticle,
		Tone:        ToneProfessional,
		Status:      StatusDraft,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

type fakeSession bool

func (s fakeSession) IsAuthenticated() bool { return bool(s) }

// fakeBackend keeps posts in memory and counts list calls
type fakeBackend struct {
	mu        sync.Mutex
	posts     []Post
	listCalls int
	nextErr   error
	listErr   error
}

func (b *fakeBackend) ListPosts(context.Context) ([]Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]Post(nil), b.posts...), nil
}

func (b *fakeBackend) takeErr() error {
	err := b.nextErr
	b.nextErr = nil
	return err
}

func (b *fakeBackend) CreatePost(_ context.Context, req CreateRequest) (*Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeErr(); err != nil {
		return nil, err
	}
	p := Post{
		ID:          faker.UUID(),
		Title:       req.Title,
		Content:     req.Content,
		Hashtags:    req.Hashtags,
		ContentType: req.ContentType,
		Tone:        req.Tone,
		Status:      req.Status,
		CreatedAt:   time.Now(),
	}
	b.posts = append(b.posts, p)
	return &p, nil
}

func (b *fakeBackend) UpdatePost(_ context.Context, id string, req UpdateRequest) (*Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeErr(); err != nil {
		return nil, err
	}
	for i := range b.posts {
		if b.posts[i].ID != id {
			continue
		}
		if req.Content != nil {
			b.posts[i].Content = *req.Content
		}
		if req.Status != nil {
			b.posts[i].Status = *req.Status
		}
		p := b.posts[i]
		return &p, nil
	}
	return nil, errString("HTTP 404")
}

func (b *fakeBackend) DeletePost(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeErr(); err != nil {
		return err
	}
	for i := range b.posts {
		if b.posts[i].ID == id {
			b.posts = append(b.posts[:i], b.posts[i+1:]...)
			return nil
		}
	}
	return errString("HTTP 404")
}

type errString string

func (e errString) Error() string { return string(e) }
