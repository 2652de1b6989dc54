package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// DefaultIdempotencyTTL bounds how long a create result can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService stores and looks up the outcome of create requests
// retried with the same Idempotency-Key.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Lookup reports whether (userID, scope, key) completed before and is still
// inside its window, returning the created resource id. Its signature matches
// middleware.IdempotencyLookup.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (uint, bool, error) {
	tr := otel.Tracer("services/IdempotencyService")
	ctx, span := tr.Start(ctx, "Lookup", trace.WithAttributes(attribute.String("scope", scope)))
	defer span.End()

	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, true, nil
}

// Remember records that (userID, scope, key) created resourceID. A concurrent
// request that recorded the same tuple first wins; that is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, userID, scope, key string, resourceID uint, status int) error {
	tr := otel.Tracer("services/IdempotencyService")
	ctx, span := tr.Start(ctx, "Remember", trace.WithAttributes(
		attribute.String("scope", scope),
		attribute.Int64("resource.id", int64(resourceID)),
	))
	defer span.End()

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, resourceID, status, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
