package linkedin

import (
	"context"
	"errors"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/callback"
)

// callbackFlow carries the values produced by each CompleteCallback step.
type callbackFlow struct {
	params  callback.Params
	userID  string
	token   *api.LinkedInToken
	profile *api.LinkedInProfile
	resp    *api.CompleteOAuthResponse
	body    []byte
}

func (m *Manager) checkParams(_ context.Context, f *callbackFlow) error {
	if f.params.Error != "" {
		return api.ValidationError("LinkedIn authorization failed: " + f.params.Error)
	}
	if f.params.Code == "" {
		return api.ValidationError("No authorization code received from LinkedIn")
	}
	return nil
}

func (m *Manager) resolveUser(ctx context.Context, f *callbackFlow) error {
	if id := m.users.UserID(); id != "" {
		f.userID = id
		return nil
	}

	user, err := m.users.Snapshot(ctx)
	if err != nil {
		m.logger.Warn("failed to read persisted session", "error", err)
	}
	if user == nil || user.ID == "" {
		return ErrAuthRequired
	}
	m.logger.Debug("using persisted user id for linkedin callback", "user_id", user.ID)
	f.userID = user.ID
	return nil
}

func (m *Manager) exchangeCode(ctx context.Context, f *callbackFlow) error {
	tok, err := m.api.ExchangeCode(ctx, f.params.Code, f.params.State)
	if err != nil {
		return err
	}
	f.token = tok
	return nil
}

func (m *Manager) fetchProfile(ctx context.Context, f *callbackFlow) error {
	profile, err := m.api.FetchProfile(ctx, f.token.AccessToken, "")
	if err != nil {
		return err
	}
	f.profile = profile
	return nil
}

func (m *Manager) completeOAuth(ctx context.Context, f *callbackFlow) error {
	resp, body, err := m.api.CompleteOAuth(ctx, api.CompleteOAuthRequest{
		AccessToken:   f.token.AccessToken,
		Profile:       *f.profile,
		RefreshToken:  f.token.RefreshToken,
		ExpiresIn:     f.token.ExpiresIn,
		CurrentUserID: f.userID,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindMalformedResponse {
			m.logger.Error(apiErr.Message, "payload", string(apiErr.Payload))
		}
		return err
	}
	f.resp = resp
	f.body = body
	return nil
}

func (m *Manager) validateCompletion(_ context.Context, f *callbackFlow) error {
	var msg string
	switch {
	case f.resp == nil:
		msg = "No response received from OAuth completion"
	case f.resp.LinkedInAuth == nil:
		msg = "Invalid response from OAuth completion - missing LinkedIn auth data"
	case f.resp.LinkedInAuth.ID == "":
		msg = "Invalid response from OAuth completion - missing LinkedIn auth ID"
	case f.resp.User == nil:
		msg = "Invalid response from OAuth completion - missing user data"
	case f.resp.User.ID == "":
		msg = "Invalid response from OAuth completion - missing user ID"
	default:
		return nil
	}
	m.logger.Error(msg, "payload", string(f.body))
	return api.MalformedResponseError(msg, f.body)
}

func (m *Manager) persistConnection(ctx context.Context, f *callbackFlow) error {
	la := f.resp.LinkedInAuth
	if err := m.scope.Set(ctx, KeyLinkedInAuthID, la.ID); err != nil {
		return err
	}
	if err := m.scope.Set(ctx, KeyUserID, f.resp.User.ID); err != nil {
		return err
	}

	conn := &Connection{
		LinkedInAuthID: la.ID,
		UserID:         f.resp.User.ID,
		AccessToken:    f.token.AccessToken,
		ExpiresIn:      f.token.ExpiresInDuration(m.defaultExpiry),
		ConnectedAt:    m.now(),
		Profile:        *f.profile,
	}
	conn.ProfileFetchedAt = conn.ConnectedAt
	m.set(conn)
	m.logger.Info("linkedin account connected", "linkedin_auth_id", la.ID, "user_id", conn.UserID)
	return nil
}
