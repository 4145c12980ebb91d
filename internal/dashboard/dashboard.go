// Package dashboard is the UI-agnostic state machine of the sales chat
// dashboard: session guard, connectivity monitor, chat store, message
// composer, festival notifier and toasts. Front ends (the terminal UI) read
// its snapshots and call its actions.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

// MailRelayed is the gateway status for a mail delivered by its relay.
const MailRelayed = "relayed"

// Mailer triggers the gateway's mail-compose flow.
type Mailer interface {
	TriggerMail(ctx context.Context, req gateway.MailRequest) (*gateway.MailResult, error)
}

// Backend is everything the dashboard needs from the gateway.
type Backend interface {
	HealthChecker
	ChatAPI
	FestivalLister
	Mailer
}

// Features toggles the optional parts of the single dashboard component.
type Features struct {
	Multilingual    bool
	CannedQuestions bool
}

// Options configures New.
type Options struct {
	Features      Features
	Language      string
	FestivalDelay time.Duration
	ToastTTL      time.Duration
}

// CannedQuestions are the one-keystroke sales questions.
var CannedQuestions = []string{
	"Give me business strategies for Diwali",
	"Business strategies for Christmas and Holi",
	"What are the business strategies for Valentine's Day?",
	"Which product categories sold best last month?",
	"How can I reduce stock-outs before the festive season?",
	"Suggest discounts to clear slow-moving inventory",
}

// Dashboard wires the components around one Backend and session manager.
type Dashboard struct {
	Toasts   *Toasts
	Monitor  *Monitor
	Store    *Store
	Composer *Composer
	Notifier *Notifier

	api      Backend
	guard    *Guard
	sessions *session.Manager
	features Features
	log      zerolog.Logger

	mu       sync.Mutex
	sess     *session.Session
	cancel   context.CancelFunc
	notified <-chan bool
}

// New builds a Dashboard. It does nothing until Mount or Login.
func New(api Backend, sessions *session.Manager, opts Options) (*Dashboard, error) {
	toasts := NewToasts(opts.ToastTTL)
	mon := NewMonitor(api, toasts)
	store := NewStore(api, mon, toasts)
	comp := NewComposer(store, mon, toasts, opts.Features.Multilingual)
	if opts.Features.Multilingual && opts.Language != "" {
		if err := comp.SetLanguage(opts.Language); err != nil {
			return nil, err
		}
	}
	return &Dashboard{
		Toasts:   toasts,
		Monitor:  mon,
		Store:    store,
		Composer: comp,
		Notifier: NewNotifier(api, store, comp, toasts, opts.FestivalDelay),
		api:      api,
		guard:    NewGuard(sessions),
		sessions: sessions,
		features: opts.Features,
		log:      log.With().Str("component", "dashboard").Logger(),
	}, nil
}

// Features returns the enabled features.
func (d *Dashboard) Features() Features { return d.features }

// Mount runs the guard, probes the gateway, loads chats when reachable and
// arms the festival notifier. It returns ErrUnauthenticated when nobody is
// logged in; the caller shows the login surface.
func (d *Dashboard) Mount(ctx context.Context) error {
	sess, err := d.guard.Check(ctx)
	if err != nil {
		return err
	}

	if d.Monitor.Probe(ctx) {
		d.Store.ListAll(ctx)
	}

	nctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.sess = sess
	d.cancel = cancel
	d.notified = d.Notifier.Arm(nctx, sess)
	d.mu.Unlock()

	d.log.Info().Str("session_id", sess.ID).Bool("connected", d.Monitor.Connected()).Msg("dashboard mounted")
	return nil
}

// Login persists the authentication flag, starts a fresh session and mounts.
func (d *Dashboard) Login(ctx context.Context) error {
	if _, err := d.sessions.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return d.Mount(ctx)
}

// Logout stops the notifier, clears local state and all three session flags.
func (d *Dashboard) Logout(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.sess = nil
	d.mu.Unlock()

	d.Notifier.Close()
	d.Store.Reset()
	d.Composer.Reset()
	d.Monitor.Disconnect()
	d.Toasts.Clear()

	if err := d.sessions.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	d.log.Info().Msg("logged out")
	return nil
}

// Session returns the mounted session or nil.
func (d *Dashboard) Session() *session.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess
}

// WaitNotifier blocks until the notifier armed by the last Mount finishes and
// reports whether it opened the modal.
func (d *Dashboard) WaitNotifier(ctx context.Context) bool {
	d.mu.Lock()
	ch := d.notified
	d.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case opened := <-ch:
		return opened
	case <-ctx.Done():
		return false
	}
}

// CannedQuestions returns the shortcut questions, or nil when the feature is off.
func (d *Dashboard) CannedQuestions() []string {
	if !d.features.CannedQuestions {
		return nil
	}
	return CannedQuestions
}

// Ask sends canned question i in the active chat, creating one if needed.
func (d *Dashboard) Ask(ctx context.Context, i int) error {
	if !d.features.CannedQuestions {
		return ErrFeatureDisabled
	}
	if i < 0 || i >= len(CannedQuestions) {
		return fmt.Errorf("canned question %d out of range", i)
	}
	if !d.Monitor.Connected() {
		return ErrDisconnected
	}
	chatID, err := d.Store.EnsureActive(ctx)
	if err != nil {
		return err
	}
	return d.Composer.SubmitText(ctx, chatID, CannedQuestions[i])
}

// SendMail asks the gateway to relay or compose a mail and toasts the outcome.
func (d *Dashboard) SendMail(ctx context.Context, req gateway.MailRequest) (*gateway.MailResult, error) {
	if !d.Monitor.Connected() {
		return nil, ErrDisconnected
	}
	req.To = strings.TrimSpace(req.To)
	res, err := d.api.TriggerMail(ctx, req)
	if err != nil {
		d.log.Error().Err(err).Msg("mail failed")
		d.Toasts.Error(gateway.UserMessage(err, msgMailFailed))
		return nil, fmt.Errorf("send mail: %w", err)
	}
	switch {
	case res.Status == MailRelayed:
		d.Toasts.Success(msgMailSent)
	case res.ComposeURL != "":
		d.Toasts.Info(msgMailComposeURL + res.ComposeURL)
	}
	return res, nil
}
