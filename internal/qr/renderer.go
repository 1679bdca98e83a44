package qr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEncodingUnavailable indicates the QR codec is missing from this
	// build/runtime; the textual code remains usable.
	ErrEncodingUnavailable = errors.New("qr: encoding capability unavailable")

	// ErrNotReady indicates no visual has been successfully rendered yet.
	ErrNotReady = errors.New("qr: no visual rendered")
)

// EncodeFunc encodes content into a PNG of the given pixel size.
type EncodeFunc func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// Visual is one rendered scannable code, bound to exactly one code string.
type Visual struct {
	Code string
	PNG  []byte
}

// Renderer owns the single display slot for the current visual. Render
// replaces the slot atomically (clear-then-draw); at most one visual is
// bound at any time.
type Renderer struct {
	mu     sync.Mutex
	encode EncodeFunc
	size   int
	bound  *Visual
}

// NewRenderer creates a renderer producing size x size pixel PNGs.
func NewRenderer(size int) *Renderer {
	return NewRendererWithEncoder(qrcode.Encode, size)
}

// NewRendererWithEncoder creates a renderer with a custom codec. A nil
// encoder models the capability being absent.
func NewRendererWithEncoder(encode EncodeFunc, size int) *Renderer {
	return &Renderer{encode: encode, size: size}
}

// Render encodes data and binds the result as the current visual. Any
// previously bound visual is cleared first, so a failed encode leaves
// the slot empty rather than showing a stale code.
func (r *Renderer) Render(data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bound = nil
	if r.encode == nil {
		return ErrEncodingUnavailable
	}
	png, err := r.encode(data, qrcode.Medium, r.size)
	if err != nil {
		return fmt.Errorf("qr: encode %q: %w", data, err)
	}
	r.bound = &Visual{Code: data, PNG: png}
	return nil
}

// Current returns the bound visual, if any.
func (r *Renderer) Current() (Visual, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound == nil {
		return Visual{}, false
	}
	return *r.bound, true
}

// Export writes the current visual's PNG into dir. An empty filename
// defaults to "<code>.png". Returns ErrNotReady before any successful
// render instead of producing an empty artifact.
func (r *Renderer) Export(dir, filename string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bound == nil {
		return "", ErrNotReady
	}
	if filename == "" {
		filename = r.bound.Code + ".png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("qr: create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, r.bound.PNG, 0o644); err != nil {
		return "", fmt.Errorf("qr: write %s: %w", path, err)
	}
	return path, nil
}

// Clear unbinds the current visual.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = nil
}
