package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

// DefaultFestivalDelay is the wait between login and the festival fetch.
const DefaultFestivalDelay = 2 * time.Second

// FestivalLister fetches upcoming festivals.
type FestivalLister interface {
	ListFestivals(ctx context.Context) ([]domain.Festival, error)
}

// Notifier is the one-shot festival modal of a session.
type Notifier struct {
	api      FestivalLister
	store    *Store
	composer *Composer
	toasts   *Toasts
	delay    time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	sess      *session.Session
	open      bool
	festivals []domain.Festival
	onOpen    func([]domain.Festival)

	// epoch advances on Close; a Run started before it never opens.
	epoch uint64
}

// NewNotifier returns a closed notifier that waits delay before fetching.
func NewNotifier(api FestivalLister, store *Store, composer *Composer, toasts *Toasts, delay time.Duration) *Notifier {
	return &Notifier{
		api:      api,
		store:    store,
		composer: composer,
		toasts:   toasts,
		delay:    delay,
		log:      log.With().Str("component", "festival_notifier").Logger(),
	}
}

// OnOpen registers fn to be called when the modal opens.
func (n *Notifier) OnOpen(fn func([]domain.Festival)) {
	n.mu.Lock()
	n.onOpen = fn
	n.mu.Unlock()
}

// Run waits the delay, fetches festivals and opens the modal at most once per
// sess. It reports whether this call opened the modal. Fetch errors and an
// empty list leave the session flag unset.
func (n *Notifier) Run(ctx context.Context, sess *session.Session) bool {
	if sess == nil || sess.FestivalShown() {
		return false
	}
	n.mu.Lock()
	epoch := n.epoch
	n.mu.Unlock()

	if n.delay > 0 {
		timer := time.NewTimer(n.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	list, err := n.api.ListFestivals(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("festival fetch failed")
		return false
	}
	if len(list) == 0 {
		n.log.Debug().Msg("no upcoming festivals")
		return false
	}
	n.mu.Lock()
	if ctx.Err() != nil || n.epoch != epoch || !sess.ClaimFestivalShown() {
		n.mu.Unlock()
		return false
	}
	n.sess = sess
	n.open = true
	n.festivals = list
	hook := n.onOpen
	n.mu.Unlock()

	n.log.Info().Int("festivals", len(list)).Msg("festival modal opened")
	if hook != nil {
		hook(list)
	}
	return true
}

// Arm runs Run in a goroutine. The channel yields its result.
func (n *Notifier) Arm(ctx context.Context, sess *session.Session) <-chan bool {
	done := make(chan bool, 1)
	go func() { done <- n.Run(ctx, sess) }()
	return done
}

// IsOpen reports whether the modal is showing.
func (n *Notifier) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// Festivals returns the list shown in the modal.
func (n *Notifier) Festivals() []domain.Festival {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.Festival, len(n.festivals))
	copy(out, n.festivals)
	return out
}

// Accept closes the modal and asks for strategies for the shown festivals
// in the active chat, creating one if needed.
func (n *Notifier) Accept(ctx context.Context) error {
	list, ok := n.take()
	if !ok {
		return ErrModalClosed
	}
	names := make([]string, 0, len(list))
	for _, f := range list {
		names = append(names, f.Name)
	}

	chatID, err := n.store.EnsureActive(ctx)
	if err != nil {
		return err
	}
	return n.composer.SubmitText(ctx, chatID, ShortcutMessage(names))
}

// RemindLater closes the modal with an acknowledgment toast.
func (n *Notifier) RemindLater() error {
	if _, ok := n.take(); !ok {
		return ErrModalClosed
	}
	n.toasts.Info(msgRemindLater)
	return nil
}

// Dismiss closes the modal and records the acknowledgment in the session.
func (n *Notifier) Dismiss() error {
	n.mu.Lock()
	sess := n.sess
	n.mu.Unlock()
	if _, ok := n.take(); !ok {
		return ErrModalClosed
	}
	if sess != nil {
		sess.AcknowledgeFestivals()
	}
	return nil
}

// Close hides the modal without any side effect. A Run already in flight
// will not open it afterwards.
func (n *Notifier) Close() {
	n.take()
	n.mu.Lock()
	n.sess = nil
	n.epoch++
	n.mu.Unlock()
}

func (n *Notifier) take() ([]domain.Festival, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return nil, false
	}
	list := n.festivals
	n.open = false
	n.festivals = nil
	return list, true
}

// ShortcutMessage phrases the accept-shortcut prompt: "A", "A and B",
// "A, B and C".
func ShortcutMessage(names []string) string {
	const prefix = "Give me business strategies for "
	switch len(names) {
	case 0:
		return strings.TrimSpace(prefix)
	case 1:
		return prefix + names[0]
	default:
		return prefix + strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
