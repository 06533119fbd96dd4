package library

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/kv"
	"github.com/hpungsan/smartgallery/internal/media"
)

// LockFileName is the cross-process lock created next to the database.
const LockFileName = "library.lock"

const lockRetryDelay = 25 * time.Millisecond

// ErrUnchanged may be returned by a Transact function to skip the write.
// Transact then returns nil.
var ErrUnchanged = stderrors.New("library unchanged")

// Store is the persisted, most-recent-first list of library items.
// Every mutation rewrites the whole list under the library key.
// Writes are last-writer-wins; the mutex and optional file lock only keep
// read-modify-write cycles from interleaving.
type Store struct {
	backend kv.Backend
	logger  *zap.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// Option configures a Store.
type Option func(*Store)

// WithFileLock serializes mutations across processes sharing the same base directory.
func WithFileLock(path string) Option {
	return func(s *Store) {
		s.lock = flock.New(path)
	}
}

// New returns a Store over backend. A nil logger disables logging.
func New(backend kv.Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{backend: backend, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every item, most recent first.
// Missing, corrupt, or unreadable storage yields an empty list, never an error.
func (s *Store) List(ctx context.Context) []media.LibraryItem {
	items, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("library unreadable, treating as empty", zap.Error(err))
		return []media.LibraryItem{}
	}
	return items
}

// Get returns the item with id, or NOT_FOUND.
func (s *Store) Get(ctx context.Context, id string) (media.LibraryItem, error) {
	for _, it := range s.List(ctx) {
		if it.ID == id {
			return it, nil
		}
	}
	return media.LibraryItem{}, errors.NewNotFound(id)
}

// Add inserts item at the front and persists the list.
// The caller supplies ID and CreatedAt; a duplicate ID is a CONFLICT.
func (s *Store) Add(ctx context.Context, item media.LibraryItem) error {
	if item.ID == "" {
		return errors.NewInvalidRequest("id is required")
	}
	item = item.Clone()
	if item.Tags == nil {
		item.Tags = []string{}
	}

	var conflict bool
	err := s.mutate(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, bool) {
		for _, existing := range items {
			if existing.ID == item.ID {
				conflict = true
				return items, false
			}
		}
		return append([]media.LibraryItem{item}, items...), true
	})
	if err != nil {
		return err
	}
	if conflict {
		return errors.NewConflict(fmt.Sprintf("item already exists: %s", item.ID))
	}
	s.logger.Debug("library item added", zap.String("id", item.ID))
	return nil
}

// Update applies patch to the item with id.
// An unknown id is a silent no-op: updated is false and err is nil.
func (s *Store) Update(ctx context.Context, id string, patch media.Patch) (updated bool, err error) {
	err = s.mutate(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, bool) {
		for i := range items {
			if items[i].ID == id {
				items[i] = patch.Apply(items[i])
				updated = true
				return items, true
			}
		}
		return items, false
	})
	if err != nil {
		return false, err
	}
	if updated {
		s.logger.Debug("library item updated", zap.String("id", id))
	}
	return updated, nil
}

// Remove drops the item with id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) (removed bool, err error) {
	err = s.mutate(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, bool) {
		out := make([]media.LibraryItem, 0, len(items))
		for _, it := range items {
			if it.ID == id {
				removed = true
				continue
			}
			out = append(out, it)
		}
		return out, removed
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Debug("library item removed", zap.String("id", id))
	}
	return removed, nil
}

// Clear empties the library.
func (s *Store) Clear(ctx context.Context) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.backend.Remove(ctx, kv.KeyLibrary); err != nil {
		s.logger.Warn("library clear failed", zap.Error(err))
		return err
	}
	s.logger.Info("library cleared")
	return nil
}

// Transact runs fn over the current list and persists its result.
// Nothing is written when fn returns an error, including ErrUnchanged.
func (s *Store) Transact(ctx context.Context, fn func([]media.LibraryItem) ([]media.LibraryItem, error)) error {
	var fnErr error
	err := s.mutate(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, bool) {
		next, err := fn(items)
		if err != nil {
			if !stderrors.Is(err, ErrUnchanged) {
				fnErr = err
			}
			return items, false
		}
		return next, true
	})
	if err != nil {
		return err
	}
	return fnErr
}

// LastCapture returns the most recent captured photo, if any.
func (s *Store) LastCapture(ctx context.Context) (string, bool) {
	raw, ok, err := s.backend.Get(ctx, kv.KeyLastCapture)
	if err != nil {
		s.logger.Warn("last capture unreadable", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	var uri string
	if err := json.Unmarshal([]byte(raw), &uri); err != nil || uri == "" {
		return "", false
	}
	return uri, true
}

// SetLastCapture overwrites the last-capture slot.
func (s *Store) SetLastCapture(ctx context.Context, dataURI string) error {
	data, err := json.Marshal(dataURI)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.backend.Set(ctx, kv.KeyLastCapture, string(data)); err != nil {
		s.logger.Warn("last capture not saved", zap.Error(err))
		return err
	}
	return nil
}

// Usage reports the backend footprint against its quota.
func (s *Store) Usage(ctx context.Context) (kv.Usage, error) {
	return s.backend.Usage(ctx)
}

// load reads the list. Corrupt JSON degrades to empty; storage errors are returned.
func (s *Store) load(ctx context.Context) ([]media.LibraryItem, error) {
	raw, ok, err := s.backend.Get(ctx, kv.KeyLibrary)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []media.LibraryItem{}, nil
	}
	var items []media.LibraryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("library data corrupt, treating as empty", zap.Error(err))
		return []media.LibraryItem{}, nil
	}
	if items == nil {
		items = []media.LibraryItem{}
	}
	return items, nil
}

// mutate runs a read-modify-write cycle. fn reports whether anything changed;
// unchanged lists are not rewritten.
func (s *Store) mutate(ctx context.Context, fn func([]media.LibraryItem) ([]media.LibraryItem, bool)) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	items, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("library read failed", zap.Error(err))
		return err
	}

	next, changed := fn(items)
	if !changed {
		return nil
	}

	data, err := json.Marshal(next)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.backend.Set(ctx, kv.KeyLibrary, string(data)); err != nil {
		s.logger.Warn("library write failed", zap.Int("items", len(next)), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if s.lock == nil {
		return s.mu.Unlock, nil
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		s.mu.Unlock()
		if err == nil {
			return nil, errors.NewStorageUnavailable(fmt.Errorf("library lock busy: %s", s.lock.Path()))
		}
		return nil, errors.NewStorageUnavailable(fmt.Errorf("acquire library lock: %w", err))
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release library lock", zap.Error(err))
		}
		s.mu.Unlock()
	}, nil
}
