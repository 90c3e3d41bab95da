package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// User is the authenticated account
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	Timezone      string     `json:"timezone,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// DisplayName returns "First Last", falling back to the email
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

// MessageResponse is the generic {message} reply
type MessageResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, MalformedResponseError("Invalid authentication response - missing token", nil)
	}
	return &resp, nil
}

// Register creates an account and returns the new session
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

// Login exchanges credentials for a session
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", req)
}

// Me returns the user owning the current bearer token. Both {user} and a
// bare user object are accepted. The session check gets a single attempt.
func (c *Client) Me(ctx context.Context) (*User, error) {
	body, err := c.sendJSON(withoutRetry(ctx), http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		User *User `json:"user"`
	}
	payload := unwrap(body)
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, MalformedResponseError("Invalid response from current user endpoint", body)
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}

	var bare User
	if err := json.Unmarshal(payload, &bare); err != nil || bare.ID == "" {
		return nil, MalformedResponseError("Invalid response from current user endpoint", body)
	}
	return &bare, nil
}

// Logout asks the server to end the session. Callers treat failure as non-fatal.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ForgotPassword requests a password reset email
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, password string) (*MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/auth/reset-password",
		map[string]string{"token": token, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendVerification sends the verification email again
func (c *Client) ResendVerification(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmail confirms an email address with the token from the verification email
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/auth/verify-email", map[string]string{"token": token}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
