package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// ErrRateLimited is returned when the provider throttled a profile fetch
var ErrRateLimited = errors.New("linkedin API rate limited")

// LinkedInProfile is the provider profile snapshot
type LinkedInProfile struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Name           string `json:"name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Email          string `json:"email,omitempty"`
	EmailVerified  bool   `json:"emailVerified,omitempty"`
	Locale         string `json:"locale,omitempty"`
	Headline       string `json:"headline,omitempty"`
	VanityName     string `json:"vanityName,omitempty"`
	Industry       string `json:"industry,omitempty"`
	Location       string `json:"location,omitempty"`
}

// Merge overlays the non-empty fields of other onto p.
func (p LinkedInProfile) Merge(other LinkedInProfile) LinkedInProfile {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.ID, other.ID)
	set(&p.FirstName, other.FirstName)
	set(&p.LastName, other.LastName)
	set(&p.Name, other.Name)
	set(&p.ProfilePicture, other.ProfilePicture)
	set(&p.Email, other.Email)
	set(&p.Locale, other.Locale)
	set(&p.Headline, other.Headline)
	set(&p.VanityName, other.VanityName)
	set(&p.Industry, other.Industry)
	set(&p.Location, other.Location)
	if other.EmailVerified {
		p.EmailVerified = true
	}
	return p
}

// Complete reports whether the profile has a picture and both names.
func (p LinkedInProfile) Complete() bool {
	return p.ProfilePicture != "" && p.FirstName != "" && p.LastName != ""
}

// LinkedInToken is the token payload returned by the exchange and refresh endpoints
type LinkedInToken struct {
	oauth2.Token
	Scope string `json:"scope,omitempty"`
}

// ExpiresInDuration returns expires_in as a duration, falling back to def when unset.
func (t LinkedInToken) ExpiresInDuration(def time.Duration) time.Duration {
	if t.ExpiresIn > 0 {
		return time.Duration(t.ExpiresIn) * time.Second
	}
	return def
}

// withExpiry fills Expiry from ExpiresIn relative to now.
func (t *LinkedInToken) withExpiry(now time.Time) {
	if t.Expiry.IsZero() && t.ExpiresIn > 0 {
		t.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// LinkedInAuth is the server-side connection record
type LinkedInAuth struct {
	ID               string     `json:"id"`
	LinkedInID       string     `json:"linkedInId,omitempty"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	Email            string     `json:"email,omitempty"`
	ProfilePicture   string     `json:"profilePicture,omitempty"`
	ConnectedAt      *time.Time `json:"connectedAt,omitempty"`
	ProfileFetchedAt *time.Time `json:"profileFetchedAt,omitempty"`
	ExpiresIn        int64      `json:"expiresIn,omitempty"`
}

// CompleteOAuthRequest is the body of POST /auth/linkedin/complete
type CompleteOAuthRequest struct {
	AccessToken   string          `json:"accessToken"`
	Profile       LinkedInProfile `json:"profile"`
	RefreshToken  string          `json:"refreshToken,omitempty"`
	ExpiresIn     int64           `json:"expiresIn,omitempty"`
	CurrentUserID string          `json:"currentUserId,omitempty"`
}

// CompleteOAuthResponse is returned by POST /auth/linkedin/complete. Fields
// are pointers so a missing object can be told apart from an empty one.
type CompleteOAuthResponse struct {
	Message      string        `json:"message"`
	User         *User         `json:"user"`
	LinkedInAuth *LinkedInAuth `json:"linkedInAuth"`
}

// ConnectionStatus is returned by GET /auth/linkedin/status/:id
type ConnectionStatus struct {
	IsConnected  bool            `json:"isConnected"`
	Profile      LinkedInProfile `json:"profile"`
	LinkedInAuth *LinkedInAuth   `json:"linkedInAuth"`
	User         *User           `json:"user"`
	ExpiresIn    int64           `json:"expiresIn,omitempty"`
}

// AuthorizationURL returns the provider URL the user must visit
func (c *Client) AuthorizationURL(ctx context.Context) (string, error) {
	var resp struct {
		AuthURL string `json:"authUrl"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/linkedin/authorize", nil, &resp); err != nil {
		return "", err
	}
	if resp.AuthURL == "" {
		return "", MalformedResponseError("Invalid response from authorization endpoint - missing authUrl", nil)
	}
	return resp.AuthURL, nil
}

func (c *Client) exchangeToken(ctx context.Context, path string, payload any) (*LinkedInToken, error) {
	var tok LinkedInToken
	if err := c.do(ctx, http.MethodPost, path, payload, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, MalformedResponseError("Invalid token response - missing access_token", nil)
	}
	tok.withExpiry(time.Now())
	return &tok, nil
}

// ExchangeCode trades an authorization code for provider tokens
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*LinkedInToken, error) {
	return c.exchangeToken(ctx, "/auth/linkedin/token", map[string]string{"code": code, "state": state})
}

// RefreshToken asks the backend to refresh the provider token of a connection
func (c *Client) RefreshToken(ctx context.Context, linkedInAuthID string) (*LinkedInToken, error) {
	return c.exchangeToken(ctx, "/auth/linkedin/refresh", map[string]string{"linkedInAuthId": linkedInAuthID})
}

// FetchProfile loads the provider profile either with an access token or
// through a stored connection. Provider throttling yields ErrRateLimited.
func (c *Client) FetchProfile(ctx context.Context, accessToken, linkedInAuthID string) (*LinkedInProfile, error) {
	payload := map[string]string{"accessToken": accessToken}
	if linkedInAuthID != "" {
		payload["linkedInAuthId"] = linkedInAuthID
	}

	body, err := c.sendJSON(ctx, http.MethodPost, "/auth/linkedin/profile", payload)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindHTTP {
			if apiErr.Status == http.StatusTooManyRequests || rateLimited(apiErr.Payload) {
				return nil, ErrRateLimited
			}
		}
		return nil, err
	}
	if rateLimited(body) {
		return nil, ErrRateLimited
	}

	var profile LinkedInProfile
	if err := decode(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func rateLimited(body []byte) bool {
	var flag struct {
		RateLimited bool `json:"rateLimited"`
	}
	return json.Unmarshal(body, &flag) == nil && flag.RateLimited
}

// CompleteOAuth attaches the provider connection to the user. The response is
// returned as decoded; callers validate its required fields.
func (c *Client) CompleteOAuth(ctx context.Context, req CompleteOAuthRequest) (*CompleteOAuthResponse, []byte, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/auth/linkedin/complete", req)
	if err != nil {
		return nil, nil, err
	}
	if len(body) == 0 {
		return nil, body, MalformedResponseError("No response received from OAuth completion", body)
	}

	var resp CompleteOAuthResponse
	if err := decode(body, &resp); err != nil {
		return nil, body, err
	}
	return &resp, body, nil
}

// ConnectionStatus reports whether a stored connection id is still valid
func (c *Client) ConnectionStatus(ctx context.Context, linkedInAuthID string) (*ConnectionStatus, error) {
	var status ConnectionStatus
	path := "/auth/linkedin/status/" + url.PathEscape(linkedInAuthID)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
