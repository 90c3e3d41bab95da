package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Gyana491/contentflow/internal/api"
)

// Attachment is an image selected for the post
type Attachment struct {
	Filename string
	MIME     string
	Data     []byte
	// Handle is the preview handle issued for the attachment.
	Handle string
}

// PreviewRegistry issues preview handles for attachments and tracks which
// are still live.
type PreviewRegistry struct {
	mu     sync.Mutex
	active map[string]*Attachment
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{active: make(map[string]*Attachment)}
}

// Create registers a and returns its handle
func (r *PreviewRegistry) Create(a *Attachment) string {
	handle := "blob:" + uuid.NewString()
	r.mu.Lock()
	r.active[handle] = a
	r.mu.Unlock()
	return handle
}

// Revoke releases a handle; it reports whether the handle was live.
func (r *PreviewRegistry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[handle]; !ok {
		return false
	}
	delete(r.active, handle)
	return true
}

// Active lists the live handles, sorted
func (r *PreviewRegistry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.active))
	for h := range r.active {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// AttachImage reads the file at path, checks it is an image and makes it
// the post's attachment. The previous handle is revoked before the new one
// is created.
func (e *Editor) AttachImage(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return e.AttachImageData(filepath.Base(path), data)
}

// AttachImageData is AttachImage for bytes already in memory
func (e *Editor) AttachImageData(filename string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, api.ValidationError("Image file is empty")
	}
	if int64(len(data)) > api.MaxImageSize {
		return nil, api.ValidationError(fmt.Sprintf("Image is larger than %d MB", api.MaxImageSize>>20))
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, api.ValidationError(fmt.Sprintf("%s is not an image (%s)", filename, mt.String()))
	}

	if e.image != nil {
		e.previews.Revoke(e.image.Handle)
	}
	a := &Attachment{Filename: filename, MIME: mt.String(), Data: data}
	a.Handle = e.previews.Create(a)
	e.image = a
	return a, nil
}

// Image returns the current attachment, or nil
func (e *Editor) Image() *Attachment {
	return e.image
}

// RemoveImage revokes the handle and drops the attachment
func (e *Editor) RemoveImage() {
	if e.image == nil {
		return
	}
	e.previews.Revoke(e.image.Handle)
	e.image = nil
}
