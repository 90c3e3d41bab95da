package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gyana491/contentflow/internal/generation"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/posts"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestLoadGenerated(t *testing.T) {
	e := New(nil, time.UTC)
	assert.Equal(t, ViewInput, e.View)

	e.LoadGenerated(&generation.Result{LinkedInPost: "Generated post", Hashtags: []string{"#go"}})
	assert.Equal(t, ViewEditor, e.View)
	assert.Equal(t, "Generated post", e.Content)
	assert.Equal(t, []string{"#go"}, e.Hashtags)

	e.LoadGenerated(&generation.Result{})
	assert.Equal(t, "Generated post", e.Content, "empty results are ignored")
}

func TestLoadHandoff(t *testing.T) {
	e := New(nil, time.UTC)
	title := "My title"
	publish := e.LoadHandoff(handoff.Draft{
		ID:            "p1",
		Content:       "Body",
		Title:         &title,
		ContentType:   "TUTORIAL",
		Tone:          "Casual",
		IsDraft:       true,
		PublishOnLoad: true,
	})

	assert.True(t, publish)
	assert.Equal(t, "p1", e.DraftID)
	assert.Equal(t, "My title", e.Topic)
	assert.Equal(t, posts.ContentTutorial, e.ContentType)
	assert.Equal(t, posts.ToneCasual, e.Tone)
	assert.Equal(t, ViewEditor, e.View)
}

func TestPostContentPrecedence(t *testing.T) {
	e := New(nil, time.UTC)
	e.Topic = "topic"
	assert.Equal(t, "topic", e.PostContent())

	e.LoadGenerated(&generation.Result{LinkedInPost: "generated"})
	e.Content = ""
	assert.Equal(t, "generated", e.PostContent())

	e.Content = "edited"
	assert.Equal(t, "edited", e.PostContent())
}

func TestGates(t *testing.T) {
	e := New(nil, time.UTC)
	assert.False(t, e.CanSaveDraft())
	e.Content = "   "
	assert.False(t, e.CanSaveDraft(), "blank content cannot be saved")

	e.Content = "Hello"
	assert.True(t, e.CanSaveDraft())
	assert.True(t, e.CanPublish(true, true))
	assert.False(t, e.CanPublish(false, true))
	assert.False(t, e.CanPublish(true, false))
}

func TestScheduleValidity(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		clock     string
		wantValid bool
		wantMsg   string
	}{
		{name: "nothing selected"},
		{name: "date only", date: "2026-03-10"},
		{name: "later today", date: "2026-03-10", clock: "12:30", wantValid: true},
		{name: "exactly now", date: "2026-03-10", clock: "12:00", wantMsg: "Please select a future time for today's schedule"},
		{name: "earlier today", date: "2026-03-10", clock: "09:15", wantMsg: "Please select a future time for today's schedule"},
		{name: "tomorrow", date: "2026-03-11", clock: "08:00", wantValid: true},
		{name: "garbage", date: "tomorrow", clock: "8am", wantMsg: "Please select a future time for today's schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(nil, time.UTC)
			e.Content = "x"
			e.ScheduleDate, e.ScheduleTime = tt.date, tt.clock

			assert.Equal(t, tt.wantValid, e.IsScheduledTimeValid(now))
			assert.Equal(t, tt.wantMsg, e.ScheduleValidationMessage(now))
			assert.Equal(t, tt.wantValid, e.CanSchedule(true, true, now))
		})
	}
}

func TestScheduleUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	e := New(nil, paris)
	e.ScheduleDate, e.ScheduleTime = "2026-03-10", "12:30"
	// 12:30 in Paris is 11:30 UTC, before now
	assert.False(t, e.IsScheduledTimeValid(now))

	at, ok := e.ScheduledAt()
	require.True(t, ok)
	assert.Equal(t, 11, at.UTC().Hour())
}

func TestReset(t *testing.T) {
	reg := NewPreviewRegistry()
	e := New(reg, time.UTC)
	e.Content = "x"
	e.DraftID = "p1"
	e.ContentType = posts.ContentNews
	_, err := e.AttachImageData("a.png", pngBytes)
	require.NoError(t, err)

	e.Reset()
	assert.Empty(t, e.Content)
	assert.Empty(t, e.DraftID)
	assert.Equal(t, posts.ContentArticle, e.ContentType)
	assert.Equal(t, posts.ToneProfessional, e.Tone)
	assert.Nil(t, e.Image())
	assert.Empty(t, reg.Active())
}
