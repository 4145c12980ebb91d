package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
)

// ChatAPI is the slice of the gateway the Chat Store uses.
type ChatAPI interface {
	ListChats(ctx context.Context) ([]domain.Chat, error)
	CreateChat(ctx context.Context) (*domain.Chat, error)
	DeleteChat(ctx context.Context, id string) error
	SendMessage(ctx context.Context, id, text, lang string) (*domain.Chat, error)
}

// Connectivity reports whether mutating actions are allowed.
type Connectivity interface {
	Connected() bool
}

// Store is the client-side chat collection with at most one active chat.
// The active id, when set, is always a member of the collection.
type Store struct {
	api    ChatAPI
	conn   Connectivity
	toasts *Toasts
	log    zerolog.Logger

	mu     sync.Mutex
	chats  []domain.Chat
	active string

	pending atomic.Int32
}

// NewStore returns an empty Store.
func NewStore(api ChatAPI, conn Connectivity, toasts *Toasts) *Store {
	return &Store{
		api:    api,
		conn:   conn,
		toasts: toasts,
		log:    log.With().Str("component", "chat_store").Logger(),
	}
}

// ListAll replaces the collection with the gateway's. Errors are logged and
// leave an empty collection.
func (s *Store) ListAll(ctx context.Context) {
	chats, err := s.api.ListChats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list chats failed")
		chats = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = chats
	if s.indexLocked(s.active) < 0 {
		s.active = ""
	}
}

// Create makes a new chat, prepends it and activates it.
func (s *Store) Create(ctx context.Context) (*domain.Chat, error) {
	if !s.conn.Connected() {
		return nil, ErrDisconnected
	}
	chat, err := s.api.CreateChat(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("create chat failed")
		s.toasts.Error(gateway.UserMessage(err, msgCreateFailed))
		return nil, fmt.Errorf("create chat: %w", err)
	}

	s.mu.Lock()
	s.chats = append([]domain.Chat{*chat}, s.chats...)
	s.active = chat.ID
	s.mu.Unlock()

	s.log.Info().Str("chat_id", chat.ID).Msg("chat created")
	return chat, nil
}

// EnsureActive returns the active chat id, creating a chat when none is active.
func (s *Store) EnsureActive(ctx context.Context) (string, error) {
	if id := s.ActiveID(); id != "" {
		return id, nil
	}
	chat, err := s.Create(ctx)
	if err != nil {
		return "", err
	}
	return chat.ID, nil
}

// Delete removes a chat after the gateway confirms. A failure leaves the
// collection untouched.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !s.conn.Connected() {
		return ErrDisconnected
	}
	s.mu.Lock()
	known := s.indexLocked(id) >= 0
	s.mu.Unlock()
	if !known {
		return ErrUnknownChat
	}

	if err := s.api.DeleteChat(ctx, id); err != nil {
		s.log.Error().Err(err).Str("chat_id", id).Msg("delete chat failed")
		s.toasts.Error(gateway.UserMessage(err, msgDeleteFailed))
		return fmt.Errorf("delete chat: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.chats = append(s.chats[:i:i], s.chats[i+1:]...)
	}
	if s.active == id {
		s.active = ""
	}
	return nil
}

// SendMessage posts text to chatID (or the active chat when chatID is empty)
// and swaps in the chat returned by the gateway. Errors are returned
// unannounced; callers decide how to surface them.
func (s *Store) SendMessage(ctx context.Context, chatID, text, lang string) (*domain.Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if chatID == "" {
		chatID = s.ActiveID()
		if chatID == "" {
			return nil, ErrNoActiveChat
		}
	}
	if !s.conn.Connected() {
		return nil, ErrDisconnected
	}
	s.mu.Lock()
	known := s.indexLocked(chatID) >= 0
	s.mu.Unlock()
	if !known {
		return nil, ErrUnknownChat
	}

	s.pending.Add(1)
	defer s.pending.Add(-1)

	chat, err := s.api.SendMessage(ctx, chatID, text, lang)
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("send message failed")
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A chat deleted while the send was in flight stays deleted.
	if i := s.indexLocked(chat.ID); i >= 0 {
		s.chats[i] = *chat
	}
	return chat, nil
}

// Typing reports whether any send is in flight.
func (s *Store) Typing() bool { return s.pending.Load() > 0 }

// Select activates a chat from the collection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return ErrUnknownChat
	}
	s.active = id
	return nil
}

// ActiveID returns the active chat id or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active returns a copy of the active chat.
func (s *Store) Active() (domain.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(s.active); i >= 0 {
		return s.chats[i], true
	}
	return domain.Chat{}, false
}

// Chats returns a snapshot of the collection in display order.
func (s *Store) Chats() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// Reset forgets every chat and the selection.
func (s *Store) Reset() {
	s.mu.Lock()
	s.chats = nil
	s.active = ""
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}
