// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregates the HTTP layer turns
// into weak ETags.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

// ChatsStats returns the number of chats owned by userID and the greatest
// UpdatedAt among them (nil when there are none).
func ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return countAndLatest(db.WithContext(ctx).Model(&domain.Chat{}).Where("user_id = ?", userID))
}

// MessagesStats returns the number of messages in chatID and the greatest
// UpdatedAt among them (nil when there are none).
func MessagesStats(ctx context.Context, db *gorm.DB, chatID string) (int64, *time.Time, error) {
	return countAndLatest(db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID))
}

func countAndLatest(q *gorm.DB) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	// ORDER BY instead of MAX(): SQLite returns MAX(datetime) as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
