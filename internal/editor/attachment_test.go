package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gyana491/contentflow/internal/api"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")...)

func TestPreviewRegistry(t *testing.T) {
	reg := NewPreviewRegistry()
	h := reg.Create(&Attachment{Filename: "a.png"})
	assert.True(t, strings.HasPrefix(h, "blob:"))
	assert.Equal(t, []string{h}, reg.Active())

	assert.True(t, reg.Revoke(h))
	assert.False(t, reg.Revoke(h))
	assert.Empty(t, reg.Active())
}

func TestAttachImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	reg := NewPreviewRegistry()
	e := New(reg, time.UTC)

	a, err := e.AttachImage(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", a.Filename)
	assert.Equal(t, "image/png", a.MIME)
	assert.Equal(t, []string{a.Handle}, reg.Active())
}

func TestAttachImage_ReplacesAndRevokesPrevious(t *testing.T) {
	reg := NewPreviewRegistry()
	e := New(reg, time.UTC)

	first, err := e.AttachImageData("one.png", pngBytes)
	require.NoError(t, err)
	second, err := e.AttachImageData("two.png", pngBytes)
	require.NoError(t, err)

	assert.NotEqual(t, first.Handle, second.Handle)
	assert.Equal(t, []string{second.Handle}, reg.Active(), "only the current attachment stays live")
	assert.Same(t, second, e.Image())

	e.RemoveImage()
	assert.Nil(t, e.Image())
	assert.Empty(t, reg.Active())
}

func TestAttachImage_Rejects(t *testing.T) {
	e := New(nil, time.UTC)

	_, err := e.AttachImageData("notes.txt", []byte("just some text"))
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	assert.Contains(t, err.Error(), "not an image")

	_, err = e.AttachImageData("empty.png", nil)
	assert.True(t, api.IsKind(err, api.KindValidation))

	_, err = e.AttachImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
	assert.Nil(t, e.Image())
}

func TestClose_RevokesHandle(t *testing.T) {
	reg := NewPreviewRegistry()
	e := New(reg, time.UTC)
	_, err := e.AttachImageData("a.png", pngBytes)
	require.NoError(t, err)

	e.Close()
	assert.Empty(t, reg.Active())
}
