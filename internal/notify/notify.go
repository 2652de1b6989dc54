// Package notify fans out marketplace events to external subscribers.
//
// Chat messages are published to a Redis channel per booking so that
// connected clients (or a push gateway) can pick them up without polling.
// Publishing is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatMessageEvent is the payload published for a new chat message.
type ChatMessageEvent struct {
	ID         uint      `json:"id"`
	BookingID  uint      `json:"booking"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher distributes chat events.
type Publisher interface {
	PublishChatMessage(ctx context.Context, ev ChatMessageEvent) error
}

// ChatChannel returns the channel name carrying messages of bookingID.
func ChatChannel(bookingID uint) string {
	return fmt.Sprintf("booking:%d:messages", bookingID)
}

// RedisPublishClient is the subset of *redis.Client used for publishing.
type RedisPublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	Client RedisPublishClient
}

// NewRedisClient builds a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// PublishChatMessage implements Publisher.
func (p *RedisPublisher) PublishChatMessage(ctx context.Context, ev ChatMessageEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.Client.Publish(ctx, ChatChannel(ev.BookingID), b).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Nop discards every event.
type Nop struct{}

// PublishChatMessage implements Publisher.
func (Nop) PublishChatMessage(context.Context, ChatMessageEvent) error { return nil }
