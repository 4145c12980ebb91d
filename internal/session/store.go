// Package session holds the dashboard's client-local state: a key-value
// Store (persisted in SQLite or kept in memory) and the Session context that
// is created at login and discarded at logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/internal/repo"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("session: key not found")

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a mutex-guarded in-process Store. The zero value is ready
// to use.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SetIfAbsent stores value under key unless the key exists, and reports
// whether it stored.
func (m *MemoryStore) SetIfAbsent(key, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return true
}

// SQLStore persists keys in the settings table.
type SQLStore struct {
	DB *gorm.DB
}

// StateFile is the SQLite file name under the state directory.
const StateFile = "dashboard.db"

// OpenSQLStore opens (creating if needed) dir/dashboard.db and migrates the
// settings table.
func OpenSQLStore(dir string) (*SQLStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: state dir: %w", err)
	}
	db, err := repo.OpenSQLite(filepath.Join(dir, StateFile))
	if err != nil {
		return nil, fmt.Errorf("session: open state: %w", err)
	}
	if err := repo.MigrateSettings(db); err != nil {
		return nil, fmt.Errorf("session: migrate state: %w", err)
	}
	return &SQLStore{DB: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	v, err := repo.GetSetting(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	return repo.PutSetting(ctx, s.DB, key, value)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return repo.DeleteSetting(ctx, s.DB, key)
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
