package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

const contractTemplate = `
CONTRACT OF SERVICE AGREEMENT

This Agreement is made between:
CLIENT: %s
PROVIDER: %s

1. SERVICES
The Provider agrees to perform services on %s as requested.

2. PAYMENT
The Client agrees to pay the rate of $%s per hour/day.

3. CANCELLATION
Cancellations made less than 24 hours before the booking time may incur a fee.
        `

// RenderContract fills the service agreement for b. The Client and
// Creative.User associations must be loaded.
func RenderContract(b *domain.Booking) string {
	var client, creative, rate string
	if b.Client != nil {
		client = b.Client.Username
	}
	if b.Creative != nil {
		rate = b.Creative.HourlyRate.StringFixed(2)
		if b.Creative.User != nil {
			creative = b.Creative.User.Username
		}
	}
	date := time.Time(b.BookingDate).Format("2006-01-02")
	return fmt.Sprintf(contractTemplate, client, creative, date, rate)
}

// ContractService manages the service agreement attached to each booking.
type ContractService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *ContractService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ForBooking returns the contract of a booking, generating it from the
// template on first access. Later changes to the booking or the creative's
// rate do not alter an existing contract.
func (s *ContractService) ForBooking(ctx context.Context, actor Actor, bookingID uint) (*domain.Contract, error) {
	tr := otel.Tracer("services/ContractService")
	ctx, span := tr.Start(ctx, "ForBooking", trace.WithAttributes(attribute.Int64("booking.id", int64(bookingID))))
	defer span.End()

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

	c, err := repo.GetContractByBooking(ctx, s.DB, bookingID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	c = &domain.Contract{BookingID: bookingID, BodyText: RenderContract(b)}
	if err := repo.CreateContract(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// A concurrent request generated it first.
			return repo.GetContractByBooking(ctx, s.DB, bookingID)
		}
		return nil, err
	}
	return c, nil
}

// Sign records the signature of one party. role must be "client" or
// "creative", and non-admin actors may only sign for their own side of the
// booking. Signing twice refreshes the timestamp.
func (s *ContractService) Sign(ctx context.Context, actor Actor, contractID uint, role string) (*domain.Contract, error) {
	tr := otel.Tracer("services/ContractService")
	ctx, span := tr.Start(ctx, "Sign", trace.WithAttributes(
		attribute.Int64("contract.id", int64(contractID)),
		attribute.String("role", role),
	))
	defer span.End()

	c, err := repo.GetContract(ctx, s.DB, contractID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	if role != repo.PartyClient && role != repo.PartyCreative {
		return nil, invalid("role", "Role must be \"client\" or \"creative\".")
	}

	if !actor.IsAdmin() {
		b, err := repo.GetBooking(ctx, s.DB, c.BookingID)
		if err != nil {
			return nil, err
		}
		switch {
		case role == repo.PartyClient && b.ClientID == actor.UserID:
		case role == repo.PartyCreative && b.Creative != nil && b.Creative.UserID == actor.UserID:
		default:
			return nil, ErrForbidden
		}
	}

	if err := repo.SignContract(ctx, s.DB, contractID, role, s.now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	observability.ContractsSigned.WithLabelValues(role).Inc()
	return repo.GetContract(ctx, s.DB, contractID)
}
