package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Keys of the three session flags.
const (
	KeyAuthenticated        = "authenticated"
	KeyFestivalShown        = "festival_notification_shown"
	KeyFestivalAcknowledged = "festival_notifications_acknowledged"
)

// ErrUnauthenticated is returned when the persisted authentication flag is
// absent.
var ErrUnauthenticated = errors.New("session: not authenticated")

// Session is the context of one login. Its festival flags live in memory for
// the lifetime of the session only.
type Session struct {
	ID        string
	StartedAt time.Time

	flags *MemoryStore
}

func newSession(now time.Time) *Session {
	return &Session{ID: uuid.NewString(), StartedAt: now, flags: NewMemoryStore()}
}

// ClaimFestivalShown sets the "shown" flag and reports whether this call set
// it. Only the first claim in a session wins.
func (s *Session) ClaimFestivalShown() bool {
	return s.flags.SetIfAbsent(KeyFestivalShown, "true")
}

// FestivalShown reports whether the festival modal was opened this session.
func (s *Session) FestivalShown() bool { return s.has(KeyFestivalShown) }

// AcknowledgeFestivals records that the user dismissed the festival modal.
func (s *Session) AcknowledgeFestivals() {
	_ = s.flags.Set(context.Background(), KeyFestivalAcknowledged, "true")
}

// FestivalsAcknowledged reports whether AcknowledgeFestivals was called.
func (s *Session) FestivalsAcknowledged() bool { return s.has(KeyFestivalAcknowledged) }

func (s *Session) has(key string) bool {
	_, err := s.flags.Get(context.Background(), key)
	return err == nil
}

func (s *Session) clear() {
	_ = s.flags.Delete(context.Background(), KeyFestivalShown)
	_ = s.flags.Delete(context.Background(), KeyFestivalAcknowledged)
}

// Manager owns the persisted authentication flag and the current Session.
type Manager struct {
	store Store
	now   func() time.Time

	mu      sync.Mutex
	current *Session
}

// NewManager returns a Manager persisting the authentication flag in store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Authenticated reports whether the persisted flag is set.
func (m *Manager) Authenticated(ctx context.Context) (bool, error) {
	v, err := m.store.Get(ctx, KeyAuthenticated)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// Resume returns the current Session when the persisted flag is set, starting
// one if the process has none yet (a restart with a remembered login).
func (m *Manager) Resume(ctx context.Context) (*Session, error) {
	ok, err := m.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthenticated
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.current = newSession(m.now())
	}
	return m.current, nil
}

// Login sets the persisted flag and starts a fresh Session.
func (m *Manager) Login(ctx context.Context) (*Session, error) {
	if err := m.store.Set(ctx, KeyAuthenticated, "true"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.clear()
	}
	m.current = newSession(m.now())
	return m.current, nil
}

// Logout clears the persisted flag and both festival flags and drops the
// current Session.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Delete(ctx, KeyAuthenticated)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.clear()
		m.current = nil
	}
	return err
}

// Current returns the active Session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
