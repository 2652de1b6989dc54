package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// DefaultProjectType is used when a booking does not name one.
const DefaultProjectType = "Hourly"

// BookingInput carries the writable fields of a booking. For creation and
// full updates the required fields must be present; for partial updates nil
// fields are left unchanged.
type BookingInput struct {
	ClientID     *uint
	CreativeID   *uint
	PackageID    *uint
	BookingDate  *string // YYYY-MM-DD
	BookingTime  *string // HH:MM or HH:MM:SS
	ProjectType  *string
	Requirements *string
	Status       *string
}

// BookingService manages bookings.
type BookingService struct {
	DB *gorm.DB
}

func parseBookingDate(s string) (datatypes.Date, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return datatypes.Date{}, false
	}
	return datatypes.Date(t), true
}

func parseBookingTime(s string) (datatypes.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0), true
		}
	}
	return 0, false
}

// apply validates in and copies it onto b. When full is set, the required
// fields must be present.
func (s *BookingService) apply(ctx context.Context, actor Actor, b *domain.Booking, in BookingInput, full bool) error {
	fe := fieldErrors{}
	required := func(field string, present bool) {
		if full && !present {
			fe.add(field, "This field is required.")
		}
	}
	required("client", in.ClientID != nil)
	required("creative", in.CreativeID != nil)
	required("booking_date", in.BookingDate != nil)
	required("booking_time", in.BookingTime != nil)
	required("requirements", in.Requirements != nil)

	if in.ClientID != nil {
		switch ok, err := repo.UserExists(ctx, s.DB, *in.ClientID); {
		case err != nil:
			return err
		case !ok:
			fe.add("client", "Invalid pk - object does not exist.")
		case !actor.Is(*in.ClientID):
			return ErrForbidden
		default:
			b.ClientID = *in.ClientID
		}
	}
	if in.CreativeID != nil {
		if _, err := repo.GetProfileOwner(ctx, s.DB, *in.CreativeID); errors.Is(err, repo.ErrNotFound) {
			fe.add("creative", "Invalid pk - object does not exist.")
		} else if err != nil {
			return err
		} else {
			b.CreativeID = *in.CreativeID
		}
	}
	if in.PackageID != nil {
		pkg, err := repo.GetPackage(ctx, s.DB, *in.PackageID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			fe.add("package", "Invalid pk - object does not exist.")
		case err != nil:
			return err
		case b.CreativeID != 0 && pkg.CreativeID != b.CreativeID:
			fe.add("package", "Package does not belong to this creative.")
		default:
			id := pkg.ID
			b.PackageID = &id
		}
	} else if in.CreativeID != nil && b.PackageID != nil {
		// The kept package must still belong to the new creative.
		pkg, err := repo.GetPackage(ctx, s.DB, *b.PackageID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
		case err != nil:
			return err
		case pkg.CreativeID != b.CreativeID:
			fe.add("package", "Package does not belong to this creative.")
		}
	}
	if in.BookingDate != nil {
		if d, ok := parseBookingDate(*in.BookingDate); ok {
			b.BookingDate = d
		} else {
			fe.add("booking_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
	}
	if in.BookingTime != nil {
		if t, ok := parseBookingTime(*in.BookingTime); ok {
			b.BookingTime = t
		} else {
			fe.add("booking_time", "Time has wrong format. Use one of these formats instead: hh:mm[:ss].")
		}
	}
	if in.ProjectType != nil {
		pt := strings.TrimSpace(*in.ProjectType)
		checkMaxLen(fe, "project_type", pt, 50)
		if pt == "" {
			pt = DefaultProjectType
		}
		b.ProjectType = pt
	}
	if in.Requirements != nil {
		b.Requirements = checkRequired(fe, "requirements", *in.Requirements)
	}
	if in.Status != nil {
		if domain.ValidBookingStatus(*in.Status) {
			b.Status = *in.Status
		} else {
			fe.add("status", "\""+*in.Status+"\" is not a valid choice.")
		}
	}
	return fe.err()
}

// Create books a creative. The client defaults to the actor; a non-admin may
// only book for themselves. Status defaults to pending, project type to
// Hourly.
func (s *BookingService) Create(ctx context.Context, actor Actor, in BookingInput) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(attribute.Int64("actor.id", int64(actor.UserID))))
	defer span.End()

	if in.ClientID == nil && actor.UserID != 0 {
		id := actor.UserID
		in.ClientID = &id
	}
	b := &domain.Booking{ProjectType: DefaultProjectType, Status: domain.BookingPending}
	if err := s.apply(ctx, actor, b, in, true); err != nil {
		return nil, err
	}
	if err := repo.CreateBooking(ctx, s.DB, b); err != nil {
		return nil, err
	}
	observability.BookingsCreated.Inc()
	return s.load(ctx, b.ID)
}

// List returns bookings newest first. Admins see everything matching f; other
// users are confined to bookings they are party to, defaulting to their
// side of the marketplace when f names nobody.
func (s *BookingService) List(ctx context.Context, actor Actor, f repo.BookingFilter) ([]domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(
		attribute.Int64("client.id", int64(f.ClientID)),
		attribute.Int64("creative_user.id", int64(f.CreativeUserID)),
	))
	defer span.End()

	if !actor.IsAdmin() {
		if f.ClientID == 0 && f.CreativeUserID == 0 {
			if actor.Role == domain.RoleCreative {
				f.CreativeUserID = actor.UserID
			} else {
				f.ClientID = actor.UserID
			}
		}
		if (f.ClientID != 0 && f.ClientID != actor.UserID && f.CreativeUserID != actor.UserID) ||
			(f.CreativeUserID != 0 && f.CreativeUserID != actor.UserID && f.ClientID != actor.UserID) {
			return nil, ErrForbidden
		}
	}
	return repo.ListBookings(ctx, s.DB, f)
}

func (s *BookingService) load(ctx context.Context, id uint) (*domain.Booking, error) {
	b, err := repo.GetBooking(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// Get returns a booking the actor is party to.
func (s *BookingService) Get(ctx context.Context, actor Actor, id uint) (*domain.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.bookingParty(b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// Update modifies a booking the actor is party to. full selects PUT
// semantics (required fields must be supplied).
func (s *BookingService) Update(ctx context.Context, actor Actor, id uint, in BookingInput, full bool) (*domain.Booking, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.Int64("booking.id", int64(id))))
	defer span.End()

	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, actor, b, in, full); err != nil {
		return nil, err
	}
	if err := repo.SaveBooking(ctx, s.DB, b); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete removes a booking the actor is party to, with its contract and chat.
func (s *BookingService) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := repo.DeleteBooking(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return nil
}
