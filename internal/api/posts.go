package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Gyana491/contentflow/internal/posts"
)

type postEnvelope struct {
	Post *posts.Post `json:"post"`
}

// ListPosts returns every post of the current user
func (c *Client) ListPosts(ctx context.Context) ([]posts.Post, error) {
	var resp struct {
		Posts []posts.Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/user", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Posts == nil {
		return []posts.Post{}, nil
	}
	return resp.Posts, nil
}

// CreatePost saves a new post
func (c *Client) CreatePost(ctx context.Context, req posts.CreateRequest) (*posts.Post, error) {
	var resp postEnvelope
	if err := c.do(ctx, http.MethodPost, "/posts", req, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// UpdatePost applies a partial update to a post
func (c *Client) UpdatePost(ctx context.Context, id string, req posts.UpdateRequest) (*posts.Post, error) {
	var resp postEnvelope
	if err := c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// DeletePost removes a post. It is not retried: a repeat after a lost
// response would report the completed delete as a 404.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(withoutRetry(ctx), http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

// ImageURL returns the URL serving a stored image asset
func (c *Client) ImageURL(urn string) string {
	return c.baseURL + "/posts/image/" + url.PathEscape(urn)
}

// Image is a resolved image asset
type Image struct {
	ContentType string
	Data        []byte
}

// ResolveImage downloads a stored image by its LinkedIn asset URN
func (c *Client) ResolveImage(ctx context.Context, urn string) (*Image, error) {
	if urn == "" {
		return nil, ValidationError("image asset URN is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(urn), nil)
	if err != nil {
		return nil, err
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.retryableRequest(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readLimitedResponse(resp.Body, MaxImageSize)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp.StatusCode, data)
	}

	return &Image{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

// MaxImageSize caps downloaded images (10 MiB)
const MaxImageSize int64 = 10 << 20
