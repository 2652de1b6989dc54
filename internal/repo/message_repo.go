package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// CreateChatMessage inserts a message and loads its sender.
func CreateChatMessage(ctx context.Context, db *gorm.DB, m *domain.ChatMessage) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	var sender domain.User
	if err := db.WithContext(ctx).First(&sender, m.SenderID).Error; err != nil {
		return err
	}
	m.Sender = &sender
	return nil
}

// ListChatMessages returns every message of a booking in creation order,
// with senders loaded.
func ListChatMessages(ctx context.Context, db *gorm.DB, bookingID uint) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
