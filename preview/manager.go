// Package preview owns the ephemeral local previews of not-yet-uploaded
// files. Each accepted pending file acquires exactly one handle at intake
// time; the handle points at a downscaled thumbnail written to a session
// temp directory and must be released exactly once, on commit, on removal,
// or on session teardown. Double-release is guarded as a no-op.
package preview

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/code19m/errx"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rise-and-shine/mediakit/logger"
)

// Thumbnails are fitted into this bounding box before encoding.
const thumbnailEdge = 320

// Handle is an ephemeral, revocable reference to a local preview file.
type Handle struct {
	id   string
	path string
}

// ID returns the handle's opaque identifier.
func (h *Handle) ID() string { return h.id }

// Path returns the location of the preview file on disk. The file exists
// until the handle is released.
func (h *Handle) Path() string { return h.path }

// Manager creates and revokes preview handles. It guarantees that every
// preview file it created is removed by the time Close returns.
type Manager struct {
	mu      sync.Mutex
	dir     string
	handles map[string]*Handle
	closed  bool
	log     logger.Logger
}

// NewManager creates a Manager backed by a fresh temp directory.
func NewManager(log logger.Logger) (*Manager, error) {
	dir, err := os.MkdirTemp("", "mediakit-preview-*")
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Manager{
		dir:     dir,
		handles: make(map[string]*Handle),
		log:     log.Named("preview"),
	}, nil
}

// Acquire renders a preview for the given source bytes and registers a
// handle for it. Image content is downscaled to a JPEG thumbnail; content
// that cannot be decoded as an image (videos, PDFs) is kept verbatim so the
// host can still hand it to its own renderer.
func (m *Manager) Acquire(name string, source io.Reader) (*Handle, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	rendered, ext := m.render(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errx.New("preview manager is closed", errx.WithType(errx.T_Internal))
	}

	h := &Handle{
		id:   uuid.New().String(),
		path: filepath.Join(m.dir, uuid.New().String()+ext),
	}

	if err := os.WriteFile(h.path, rendered, 0o600); err != nil {
		return nil, errx.Wrap(err)
	}

	m.handles[h.id] = h
	m.log.With("handle_id", h.id, "file", name).Debug("preview acquired")

	return h, nil
}

// Release revokes a handle and removes its preview file. Releasing a handle
// twice, or a handle the manager does not know, is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.handles[h.id]; !ok {
		m.log.With("handle_id", h.id).Warn("release of unknown or already released preview handle")
		return
	}

	m.removeLocked(h)
}

// Outstanding reports how many handles are still held.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Close releases every outstanding handle and removes the temp directory.
// The manager cannot be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, h := range m.handles {
		m.removeLocked(h)
	}

	return errx.Wrap(os.RemoveAll(m.dir))
}

func (m *Manager) removeLocked(h *Handle) {
	delete(m.handles, h.id)
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		m.log.With("handle_id", h.id, "error", err).Warn("failed to remove preview file")
	}
}

// render produces the preview bytes and file extension for the source data.
func (m *Manager) render(data []byte) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		// Not decodable as an image; keep the raw bytes.
		return data, ".bin"
	}

	thumb := imaging.Fit(img, thumbnailEdge, thumbnailEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return data, ".bin"
	}

	return buf.Bytes(), ".jpg"
}
