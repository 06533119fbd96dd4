package blob

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every object URL handed out by a Registry.
const Prefix = "blob:smartgallery/"

type entry struct {
	data []byte
	mime string
}

// Registry holds in-memory binary content behind process-lifetime object URLs.
// URLs are never persisted by the registry; anything that outlives the
// process holding it dangles.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Create stores data and returns a new object URL for it.
func (r *Registry) Create(data []byte, mime string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = entry{data: data, mime: mime}
	r.mu.Unlock()
	return Prefix + id
}

// Resolve returns the content behind url.
func (r *Registry) Resolve(url string) ([]byte, string, bool) {
	id, ok := ID(url)
	if !ok {
		return nil, "", false
	}
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e.data, e.mime, ok
}

// Revoke releases url. Revoking an unknown or already revoked URL is a no-op.
func (r *Registry) Revoke(url string) {
	id, ok := ID(url)
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of live URLs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ID extracts the opaque id from an object URL.
func ID(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, Prefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// URL builds the object URL for id.
func URL(id string) string {
	return Prefix + id
}
