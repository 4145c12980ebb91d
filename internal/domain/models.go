// Package domain defines the persistence and wire models shared by the
// gateway and the dashboard: chats, messages, festivals and settings.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is a conversation owned by a user. The dashboard never mutates a chat
// in place; it swaps the whole value returned by the gateway.
//
// Fields:
//   - ID: server-assigned UUID (char(36)).
//   - UserID: owner; indexed for per-user listing and eviction.
//   - Title: display title, "New chat" until the first prompt renames it.
//   - Messages: conversation history in insertion order.
//   - DeletedAt: soft deletion marker.
type Chat struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"-"          gorm:"type:varchar(64);not null;index:idx_user_chats"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'New chat'"`
	Messages  []Message      `json:"messages"   gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"index:idx_user_chats_updated"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message is a single immutable utterance within a chat. CreatedAt travels as
// "timestamp" (RFC 3339) on the wire.
type Message struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string         `json:"-"         gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role      string         `json:"role"      gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"   gorm:"type:text;not null"`
	Language  string         `json:"language,omitempty" gorm:"type:varchar(8)"`
	Score     *float64       `json:"score,omitempty"`
	CreatedAt time.Time      `json:"timestamp" gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Setting is a persisted key/value pair. The dashboard keeps its
// authentication flag here so it survives restarts.
type Setting struct {
	Key       string    `gorm:"type:varchar(128);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }
