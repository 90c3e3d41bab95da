package callback

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_CapturesFirstRedirect(t *testing.T) {
	l, err := Listen("127.0.0.1:0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	resp, err := http.Get(l.URL() + "?code=abc&state=xyz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "authorization received")

	resp, err = http.Get(l.URL() + "?code=second")
	require.NoError(t, err)
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p, err := l.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, Params{Code: "abc", State: "xyz"}, p)
}

func TestListener_ErrorRedirect(t *testing.T) {
	l, err := Listen("127.0.0.1:0", "/cb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	resp, err := http.Get(l.URL() + "?error=user_cancelled_login&error_description=The+user+cancelled")
	require.NoError(t, err)
	_ = resp.Body.Close()

	p, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user_cancelled_login", p.Error)
	assert.Equal(t, "The user cancelled", p.ErrorDescription)
}

func TestListener_WaitHonorsContext(t *testing.T) {
	l, err := Listen("127.0.0.1:0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Params
		wantErr bool
	}{
		{
			name: "code and state",
			raw:  "http://127.0.0.1:3000/auth/callback/linkedin?code=c1&state=s1",
			want: Params{Code: "c1", State: "s1"},
		},
		{
			name: "provider error",
			raw:  "http://localhost/cb?error=access_denied",
			want: Params{Error: "access_denied"},
		},
		{name: "no params", raw: "http://localhost/cb", wantErr: true},
		{name: "unparsable", raw: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
