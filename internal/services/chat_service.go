// Package services – ChatService
//
// This file implements the ChatService, which manages the chat thread of a
// booking. Only the booking's client, the booked creative and admins can read
// or post. New messages are fanned out through the configured notify.Publisher
// on a best-effort basis.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/notify"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// ChatService provides booking-scoped messaging.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Publisher receives every stored message; nil disables fan-out.
	Publisher notify.Publisher
	// MaxRunes caps message length; zero means unlimited.
	MaxRunes int
}

// NewChatService constructs a ChatService with a 4000 rune message cap.
func NewChatService(db *gorm.DB, pub notify.Publisher) *ChatService {
	return &ChatService{DB: db, Publisher: pub, MaxRunes: 4000}
}

func (s *ChatService) booking(ctx context.Context, actor Actor, bookingID uint) (*domain.Booking, error) {
	b, err := repo.GetBooking(ctx, s.DB, bookingID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.bookingParty(b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns the booking's messages oldest first.
func (s *ChatService) List(ctx context.Context, actor Actor, bookingID uint) ([]domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.Int64("booking.id", int64(bookingID))))
	defer span.End()

	if _, err := s.booking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return repo.ListChatMessages(ctx, s.DB, bookingID)
}

// Stats returns the message count and newest timestamp of a booking's thread
// for conditional GETs, under the same access rule as List.
func (s *ChatService) Stats(ctx context.Context, actor Actor, bookingID uint) (int64, *time.Time, error) {
	if _, err := s.booking(ctx, actor, bookingID); err != nil {
		return 0, nil, err
	}
	return repo.ChatMessagesStats(ctx, s.DB, bookingID)
}

// Post stores a message from the actor in the booking's thread.
func (s *ChatService) Post(ctx context.Context, actor Actor, bookingID uint, text string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Post", trace.WithAttributes(
		attribute.Int64("booking.id", int64(bookingID)),
		attribute.Int64("sender.id", int64(actor.UserID)),
	))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message", "This field may not be blank.")
	}
	if s.MaxRunes > 0 && utf8.RuneCountInString(text) > s.MaxRunes {
		return nil, invalid("message", "Message is too long.")
	}
	if _, err := s.booking(ctx, actor, bookingID); err != nil {
		return nil, err
	}

	m := &domain.ChatMessage{BookingID: bookingID, SenderID: actor.UserID, Message: text}
	if err := repo.CreateChatMessage(ctx, s.DB, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)
	return m, nil
}

func (s *ChatService) publish(ctx context.Context, m *domain.ChatMessage) {
	if s.Publisher == nil {
		return
	}
	ev := notify.ChatMessageEvent{
		ID:        m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
	if m.Sender != nil {
		ev.SenderName = m.Sender.Username
	}
	if err := s.Publisher.PublishChatMessage(ctx, ev); err != nil {
		log.Warn().Err(err).Uint("booking_id", m.BookingID).Msg("chat publish failed")
	}
}
