package session

import (
	"encoding/base64"
	"sync"
)

// ViewHandle is a revocable display handle for one image: a data URL built
// from the payload plus a caption. Release drops the URL exactly once;
// releasing twice is a no-op.
type ViewHandle struct {
	mu       sync.Mutex
	url      string
	caption  string
	released bool
}

// URL returns the display URL, or "" after release.
func (h *ViewHandle) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

// Caption returns the image filename shown with the modal.
func (h *ViewHandle) Caption() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.caption
}

// Released reports whether the handle has been released.
func (h *ViewHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release revokes the URL. Idempotent.
func (h *ViewHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.url = ""
}

// Viewer manages the modal image view: at most one handle is open at a
// time, and the image bytes are only decoded into a URL here, on demand.
type Viewer struct {
	mu   sync.Mutex
	open *ViewHandle
}

// NewViewer returns a Viewer with nothing open.
func NewViewer() *Viewer {
	return &Viewer{}
}

// Open builds a display handle for the payload and makes it the open one,
// releasing any previously open handle first.
func (v *Viewer) Open(img ImagePayload) *ViewHandle {
	handle := &ViewHandle{
		url:     "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes),
		caption: img.Filename,
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open != nil {
		v.open.Release()
	}
	v.open = handle
	return handle
}

// Current returns the open handle, or nil.
func (v *Viewer) Current() *ViewHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// Close dismisses the modal, releasing the open handle. Any dismissal path
// (close control, outside click, Escape) funnels here; calling it with
// nothing open is a no-op.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open == nil {
		return
	}
	v.open.Release()
	v.open = nil
}
