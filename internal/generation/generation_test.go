package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gyana491/contentflow/internal/api"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPost string
		wantMsg  string
	}{
		{name: "data wrapper", body: `{"data":{"linkedinPost":"Hello","hashtags":["#go"],"topic":"go"}}`, wantPost: "Hello"},
		{name: "bare result", body: `{"linkedinPost":"Bare","hashtags":[]}`, wantPost: "Bare"},
		{name: "success flag", body: `{"success":true,"data":{"linkedinPost":"Flag"},"runId":"r1"}`, wantPost: "Flag"},
		{name: "data wins over top level", body: `{"linkedinPost":"top","data":{"linkedinPost":"nested"}}`, wantPost: "nested"},
		{name: "success with empty post", body: `{"success":true,"data":{"linkedinPost":""}}`, wantMsg: msgInvalidStructure},
		{name: "unknown object", body: `{"result":"x"}`, wantMsg: msgInvalidStructure},
		{name: "success false", body: `{"success":false,"data":{"hashtags":["a"]}}`, wantMsg: msgInvalidStructure},
		{name: "array", body: `["a"]`, wantMsg: msgInvalidResponse},
		{name: "null", body: `null`, wantMsg: msgInvalidResponse},
		{name: "not json", body: `oops`, wantMsg: msgInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.body))
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.True(t, api.IsKind(err, api.KindMalformedResponse))
				assert.Equal(t, tt.wantMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPost, got.LinkedInPost)
			assert.NotNil(t, got.Hashtags)
		})
	}
}

func TestInput(t *testing.T) {
	in := Input{Topic: "  Go generics  ", ContentType: "News"}.WithDefaults()
	assert.Equal(t, "Go generics", in.Topic)
	assert.Equal(t, "news", in.ContentType)
	assert.Equal(t, "professional", in.Tone)

	linked, err := Input{}.FromLink("https://go.dev/blog")
	require.NoError(t, err)
	assert.Equal(t, "Extract Full Content: https://go.dev/blog", linked.Topic)

	_, err = Input{}.FromLink("not a url")
	assert.True(t, api.IsKind(err, api.KindValidation))
}

type fakeClient struct {
	body  []byte
	err   error
	req   api.GenerateRequest
	calls int
}

func (f *fakeClient) Generate(_ context.Context, req api.GenerateRequest) ([]byte, error) {
	f.calls++
	f.req = req
	return f.body, f.err
}

func TestGenerator_Lifecycle(t *testing.T) {
	fake := &fakeClient{body: []byte(`{"data":{"linkedinPost":"Post","hashtags":["#ai"]}}`)}
	g := NewGenerator(fake, nil)
	assert.Equal(t, StateIdle, g.State())

	res, err := g.Generate(context.Background(), Input{Topic: "AI"})
	require.NoError(t, err)
	assert.Equal(t, "Post", res.LinkedInPost)
	assert.Equal(t, StateReady, g.State())
	assert.Equal(t, res, g.Content())
	assert.Equal(t, api.GenerateRequest{Topic: "AI", ContentType: "article", Tone: "professional"}, fake.req)

	fake.body = []byte(`{"nope":true}`)
	_, err = g.Generate(context.Background(), Input{Topic: "AI"})
	require.Error(t, err)
	assert.Equal(t, StateFailed, g.State())
	assert.Nil(t, g.Content(), "a new attempt clears the previous content")
	assert.Equal(t, err, g.Err())

	g.Reset()
	assert.Equal(t, StateIdle, g.State())
	assert.NoError(t, g.Err())
}

func TestGenerator_ValidationMakesNoCall(t *testing.T) {
	fake := &fakeClient{}
	g := NewGenerator(fake, nil)

	_, err := g.Generate(context.Background(), Input{Topic: "x", Tone: "angry"})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	assert.Contains(t, err.Error(), "tone must be one of")
	assert.Zero(t, fake.calls)
	assert.Equal(t, StateFailed, g.State())
}

func TestGenerator_HTTPFailureMessage(t *testing.T) {
	fake := &fakeClient{err: &api.Error{Kind: api.KindHTTP, Status: 500, Message: "HTTP 500"}}
	_, err := NewGenerator(fake, nil).Generate(context.Background(), Input{Topic: "x"})
	require.Error(t, err)
	assert.Equal(t, "Failed to generate content", err.Error())
	assert.Equal(t, 500, api.StatusCode(err))

	fake.err = &api.Error{Kind: api.KindHTTP, Status: 429, Message: "Too many requests"}
	_, err = NewGenerator(fake, nil).Generate(context.Background(), Input{Topic: "x"})
	assert.Equal(t, "Too many requests", err.Error())
}

func TestGenerator_AuthHeaderFollowsSession(t *testing.T) {
	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		var req api.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"linkedinPost":"about ` + req.Topic + `"}`))
	}))
	defer server.Close()

	anon := api.NewClient(server.URL, api.WithRetry(1, time.Millisecond))
	_, err := NewGenerator(anon, nil).Generate(context.Background(), Input{Topic: "x"})
	require.NoError(t, err)

	authed := api.NewClient(server.URL, api.WithTokenSource(api.StaticToken("tok")))
	res, err := NewGenerator(authed, nil).Generate(context.Background(), Input{Topic: "y"})
	require.NoError(t, err)
	assert.Equal(t, "about y", res.LinkedInPost)

	assert.Equal(t, []string{"", "Bearer tok"}, gotAuth)
}
