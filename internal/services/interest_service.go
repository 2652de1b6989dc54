package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// InterestService records which sub categories a user cares about.
type InterestService struct {
	DB *gorm.DB
}

// Replace swaps the user's interests for subIDs atomically. Unknown ids are
// ignored. Any storage failure leaves the previous interests in place and is
// reported as ErrInterestsFailed.
func (s *InterestService) Replace(ctx context.Context, actor Actor, userID uint, subIDs []uint) ([]uint, error) {
	tr := otel.Tracer("services/InterestService")
	ctx, span := tr.Start(ctx, "Replace", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("sub_categories", len(subIDs)),
	))
	defer span.End()

	if userID == 0 {
		return nil, invalid("user_id", "User ID required")
	}
	if !actor.Is(userID) {
		return nil, ErrForbidden
	}

	stored, err := repo.ReplaceInterests(ctx, s.DB, userID, subIDs)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("replace interests")
		return nil, fmt.Errorf("%w: %v", ErrInterestsFailed, err)
	}
	return stored, nil
}
