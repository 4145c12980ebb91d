package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
)

// Languages offered by the multilingual feature, default first.
var Languages = []language.Tag{language.English, language.Tamil, language.Hindi}

// ComposerState is the composer's send state.
type ComposerState int

const (
	StateIdle ComposerState = iota
	StateSending
)

func (s ComposerState) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Modifiers are the keys held with Enter.
type Modifiers struct {
	Shift, Alt, Ctrl bool
}

func (m Modifiers) held() bool { return m.Shift || m.Alt || m.Ctrl }

// Composer owns the input buffer and the send state machine:
// idle -> sending -> idle (input cleared) or idle (input restored).
type Composer struct {
	store *Store
	conn  Connectivity
	toast *Toasts
	log   zerolog.Logger

	multilingual bool

	mu       sync.Mutex
	input    string
	lang     string
	inFlight int
}

// NewComposer returns an idle composer. When multilingual is false no
// language hint is sent.
func NewComposer(store *Store, conn Connectivity, toasts *Toasts, multilingual bool) *Composer {
	return &Composer{
		store:        store,
		conn:         conn,
		toast:        toasts,
		multilingual: multilingual,
		lang:         Languages[0].String(),
		log:          log.With().Str("component", "composer").Logger(),
	}
}

// Input returns the current buffer.
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the buffer.
func (c *Composer) SetInput(s string) {
	c.mu.Lock()
	c.input = s
	c.mu.Unlock()
}

// State reports whether a send is in flight.
func (c *Composer) State() ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return StateSending
	}
	return StateIdle
}

// Disabled reports whether input is locked: while sending or disconnected.
func (c *Composer) Disabled() bool {
	return c.State() == StateSending || !c.conn.Connected()
}

// Language returns the current hint code.
func (c *Composer) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// SetLanguage sets the hint to one of Languages. Regional tags ("ta-IN")
// collapse to their base.
func (c *Composer) SetLanguage(code string) error {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	base, _ := tag.Base()
	for _, l := range Languages {
		if b, _ := l.Base(); b == base {
			c.mu.Lock()
			c.lang = l.String()
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// HandleEnter submits on a bare Enter. With any modifier it appends a newline
// and reports false without sending.
func (c *Composer) HandleEnter(ctx context.Context, mods Modifiers) (bool, error) {
	if mods.held() {
		c.mu.Lock()
		c.input += "\n"
		c.mu.Unlock()
		return false, nil
	}
	if err := c.Submit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Submit sends the buffer to the active chat. Blank input is a no-op that
// returns ErrEmptyMessage. On failure the buffer is restored to exactly
// the text that was sent and an error toast is shown.
func (c *Composer) Submit(ctx context.Context) error {
	if !c.conn.Connected() {
		return ErrDisconnected
	}
	c.mu.Lock()
	if c.inFlight > 0 {
		c.mu.Unlock()
		return ErrBusy
	}
	text := c.input
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	c.input = ""
	c.inFlight++
	lang := c.hintLocked()
	c.mu.Unlock()

	return c.send(ctx, "", text, lang, true)
}

// SubmitText sends text through the same path as Submit without touching a
// non-empty buffer. It is used by shortcuts and may overlap a user send.
func (c *Composer) SubmitText(ctx context.Context, chatID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if !c.conn.Connected() {
		return ErrDisconnected
	}
	c.mu.Lock()
	c.inFlight++
	lang := c.hintLocked()
	c.mu.Unlock()

	return c.send(ctx, chatID, text, lang, false)
}

// Reset clears the buffer and the language choice.
func (c *Composer) Reset() {
	c.mu.Lock()
	c.input = ""
	c.lang = Languages[0].String()
	c.mu.Unlock()
}

func (c *Composer) send(ctx context.Context, chatID, text, lang string, owned bool) error {
	_, err := c.store.SendMessage(ctx, chatID, text, lang)

	c.mu.Lock()
	c.inFlight--
	if err != nil && (owned || c.input == "") {
		c.input = text
	}
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, ErrNoActiveChat) && !errors.Is(err, ErrUnknownChat) {
			c.toast.Error(gateway.UserMessage(err, msgSendFailed))
		} else {
			c.toast.Warn("Start a new chat first.")
		}
		c.log.Debug().Err(err).Msg("send failed; input restored")
		return err
	}
	return nil
}

func (c *Composer) hintLocked() string {
	if !c.multilingual {
		return ""
	}
	return c.lang
}
