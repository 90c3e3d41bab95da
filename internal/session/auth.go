package session

import (
	"context"
	"strings"

	"github.com/Gyana491/contentflow/internal/api"
)

// AuthAPI is the subset of the REST client used by the auth flows
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (*api.MessageResponse, error)
	ResetPassword(ctx context.Context, token, password string) (*api.MessageResponse, error)
	ResendVerification(ctx context.Context, email string) (*api.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (*api.MessageResponse, error)
}

// Auth runs the sign-up, sign-in and account recovery flows against a Store.
type Auth struct {
	api   AuthAPI
	store *Store
}

// NewAuth creates the auth flows
func NewAuth(client AuthAPI, store *Store) *Auth {
	return &Auth{api: client, store: store}
}

// Register creates an account and starts a session on success.
func (a *Auth) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := api.Validate(req); err != nil {
		a.store.SetError(err.Error())
		return nil, err
	}
	resp, err := a.api.Register(ctx, req)
	return a.finish(ctx, resp, err)
}

// Login signs in with email and password and starts a session on success.
// On failure the store stays unauthenticated and carries the error message.
func (a *Auth) Login(ctx context.Context, email, password string) (*api.User, error) {
	req := api.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := api.Validate(req); err != nil {
		a.store.SetError(err.Error())
		return nil, err
	}
	resp, err := a.api.Login(ctx, req)
	return a.finish(ctx, resp, err)
}

func (a *Auth) finish(ctx context.Context, resp *api.AuthResponse, err error) (*api.User, error) {
	if err != nil {
		a.store.SetError(err.Error())
		return nil, err
	}
	if err := a.store.Login(ctx, resp.User, resp.Token); err != nil {
		a.store.SetError(err.Error())
		return nil, err
	}
	return a.store.User(), nil
}

// Logout ends the session; the server call is best effort.
func (a *Auth) Logout(ctx context.Context) {
	a.store.Logout(ctx, a.api.Logout)
}

// ForgotPassword requests a reset email
func (a *Auth) ForgotPassword(ctx context.Context, email string) (*api.MessageResponse, error) {
	email = strings.TrimSpace(email)
	if err := api.Validate(struct {
		Email string `validate:"required,email"`
	}{email}); err != nil {
		return nil, err
	}
	return a.api.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password from a reset token
func (a *Auth) ResetPassword(ctx context.Context, token, password string) (*api.MessageResponse, error) {
	if err := api.Validate(struct {
		Token    string `validate:"required"`
		Password string `validate:"required,min=8"`
	}{token, password}); err != nil {
		return nil, err
	}
	return a.api.ResetPassword(ctx, token, password)
}

func (a *Auth) ResendVerification(ctx context.Context, email string) (*api.MessageResponse, error) {
	return a.api.ResendVerification(ctx, strings.TrimSpace(email))
}

func (a *Auth) VerifyEmail(ctx context.Context, token string) (*api.MessageResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, api.ValidationError("Verification token is required")
	}
	return a.api.VerifyEmail(ctx, token)
}
