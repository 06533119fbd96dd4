package kv

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/hpungsan/smartgallery/internal/db"
	"github.com/hpungsan/smartgallery/internal/errors"
)

// Well-known keys.
const (
	KeyLibrary     = "library"
	KeyLastCapture = "last-capture"
	KeyUsers       = "users"
)

// Usage reports the footprint of a backend against its quota.
type Usage struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}

// Backend is a string key-value store.
// Set fails with QUOTA_EXCEEDED when the write would push the total
// footprint (keys plus values, in bytes) over the quota.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Usage(ctx context.Context) (Usage, error)
}

// SQLite is a Backend over the kv table.
type SQLite struct {
	db    *sql.DB
	quota int64
}

// NewSQLite returns a SQLite backend. quota <= 0 means unlimited.
func NewSQLite(sqlDB *sql.DB, quota int64) *SQLite {
	return &SQLite{db: sqlDB, quota: quota}
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	return db.GetValue(ctx, s.db, key)
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	return db.SetValueWithQuota(ctx, s.db, key, value, s.quota)
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	return db.DeleteValue(ctx, s.db, key)
}

func (s *SQLite) Usage(ctx context.Context) (Usage, error) {
	used, err := db.UsedBytes(ctx, s.db, "")
	if err != nil {
		return Usage{}, err
	}
	return Usage{UsedBytes: used, QuotaBytes: s.quota}, nil
}

// Memory is an in-process Backend with the same quota contract as SQLite.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int64
}

// NewMemory returns an empty Memory backend. quota <= 0 means unlimited.
func NewMemory(quota int64) *Memory {
	return &Memory{data: make(map[string]string), quota: quota}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		required := m.usedLocked(key) + int64(len(key)) + int64(len(value))
		if required > m.quota {
			return errors.NewQuotaExceeded(m.quota, required)
		}
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Usage(_ context.Context) (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Usage{UsedBytes: m.usedLocked(""), QuotaBytes: m.quota}, nil
}

// Keys returns the stored keys in ascending order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) usedLocked(excludeKey string) int64 {
	var used int64
	for k, v := range m.data {
		if k == excludeKey {
			continue
		}
		used += int64(len(k)) + int64(len(v))
	}
	return used
}
