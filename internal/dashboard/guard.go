package dashboard

import (
	"context"
	"errors"

	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

// Guard gates the dashboard on the persisted authentication flag.
type Guard struct {
	sessions *session.Manager
}

// NewGuard returns a Guard over sessions.
func NewGuard(sessions *session.Manager) *Guard { return &Guard{sessions: sessions} }

// Check returns the current session, or ErrUnauthenticated when nobody is
// logged in. Store failures are returned as-is.
func (g *Guard) Check(ctx context.Context) (*session.Session, error) {
	sess, err := g.sessions.Resume(ctx)
	if errors.Is(err, session.ErrUnauthenticated) {
		return nil, ErrUnauthenticated
	}
	return sess, err
}
