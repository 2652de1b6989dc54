package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// Moderation actions.
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
)

var (
	defaultHourlyRate = decimal.RequireFromString("0.00")
	defaultRating     = decimal.RequireFromString("5.00")
)

// ProfileInput carries the writable fields of a creative profile.
type ProfileInput struct {
	UserID        uint
	SubCategoryID uint
	Bio           string
	HourlyRate    *decimal.Decimal
	Rating        *decimal.Decimal
	PortfolioURL  *string
	ProfileImage  string
}

// PackageInput carries the fields of a new service package.
type PackageInput struct {
	CreativeID   uint
	Title        string
	Description  string
	Price        decimal.Decimal
	DeliveryTime string
}

// CreativeService manages creative profiles, their service packages,
// moderation and interest-based recommendations.
type CreativeService struct {
	DB *gorm.DB
}

// ListVerified returns publicly listed (verified) profiles.
func (s *CreativeService) ListVerified(ctx context.Context, subCategoryID uint, search string) ([]domain.CreativeProfile, error) {
	tr := otel.Tracer("services/CreativeService")
	ctx, span := tr.Start(ctx, "ListVerified", trace.WithAttributes(
		attribute.Int64("sub_category.id", int64(subCategoryID)),
		attribute.String("search", search),
	))
	defer span.End()

	return repo.ListVerifiedProfiles(ctx, s.DB, subCategoryID, search)
}

// GetByUser returns the profile of userID whatever its verification state.
func (s *CreativeService) GetByUser(ctx context.Context, userID uint) (*domain.CreativeProfile, error) {
	p, err := repo.GetProfileByUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// CreateProfile creates an unverified profile for in.UserID. When the user
// already has one, nothing is written and created is false.
func (s *CreativeService) CreateProfile(ctx context.Context, actor Actor, in ProfileInput) (p *domain.CreativeProfile, created bool, err error) {
	tr := otel.Tracer("services/CreativeService")
	ctx, span := tr.Start(ctx, "CreateProfile", trace.WithAttributes(attribute.Int64("user.id", int64(in.UserID))))
	defer span.End()

	if in.UserID == 0 {
		return nil, false, invalid("user", "This field is required.")
	}
	if !actor.Is(in.UserID) {
		return nil, false, ErrForbidden
	}

	exists, err := repo.ProfileExistsForUser(ctx, s.DB, in.UserID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	fe := fieldErrors{}
	if ok, err := repo.UserExists(ctx, s.DB, in.UserID); err != nil {
		return nil, false, err
	} else if !ok {
		fe.add("user", "Invalid pk - object does not exist.")
	}
	if in.SubCategoryID == 0 {
		fe.add("sub_category_id", "This field is required.")
	} else if _, err := repo.GetSubCategory(ctx, s.DB, in.SubCategoryID); errors.Is(err, repo.ErrNotFound) {
		fe.add("sub_category_id", "Invalid pk - object does not exist.")
	} else if err != nil {
		return nil, false, err
	}
	bio := checkRequired(fe, "bio", in.Bio)

	rate, rating := defaultHourlyRate, defaultRating
	if in.HourlyRate != nil {
		rate = *in.HourlyRate
		checkMoney(fe, "hourly_rate", rate, 10)
	}
	if in.Rating != nil {
		rating = *in.Rating
		checkMoney(fe, "rating", rating, 3)
	}
	if in.PortfolioURL != nil && *in.PortfolioURL != "" {
		checkURL(fe, "portfolio_url", *in.PortfolioURL)
		checkMaxLen(fe, "portfolio_url", *in.PortfolioURL, 200)
	}
	checkMaxLen(fe, "profile_image", in.ProfileImage, 255)
	if err := fe.err(); err != nil {
		return nil, false, err
	}

	row := &domain.CreativeProfile{
		UserID:        in.UserID,
		SubCategoryID: in.SubCategoryID,
		Bio:           bio,
		PortfolioURL:  in.PortfolioURL,
		ProfileImage:  in.ProfileImage,
		HourlyRate:    rate,
		Rating:        rating,
		IsVerified:    false,
	}
	if err := repo.CreateProfile(ctx, s.DB, row); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race with a concurrent create for the same user.
			return nil, false, nil
		}
		return nil, false, err
	}

	p, err = repo.GetProfile(ctx, s.DB, row.ID)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// ListPending returns unverified profiles, newest first.
func (s *CreativeService) ListPending(ctx context.Context) ([]domain.CreativeProfile, error) {
	return repo.ListPendingProfiles(ctx, s.DB)
}

// Moderate approves (verifies) or declines (deletes, with everything that
// depends on the profile) profile id.
func (s *CreativeService) Moderate(ctx context.Context, id uint, action string) error {
	tr := otel.Tracer("services/CreativeService")
	ctx, span := tr.Start(ctx, "Moderate", trace.WithAttributes(
		attribute.Int64("profile.id", int64(id)),
		attribute.String("action", action),
	))
	defer span.End()

	if _, err := repo.GetProfileOwner(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	var err error
	switch action {
	case ActionApprove:
		err = repo.SetProfileVerified(ctx, s.DB, id)
	case ActionDecline:
		err = repo.DeleteProfile(ctx, s.DB, id)
	default:
		return invalid("action", "Invalid action")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return ErrProfileNotFound
	}
	return err
}

// Recommend returns the profiles in the sub categories userID is interested
// in, excluding userID's own profile. Verification is not required. A zero
// userID or a user without interests yields an empty list.
func (s *CreativeService) Recommend(ctx context.Context, userID uint) ([]domain.CreativeProfile, error) {
	tr := otel.Tracer("services/CreativeService")
	ctx, span := tr.Start(ctx, "Recommend", trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	if userID == 0 {
		return []domain.CreativeProfile{}, nil
	}
	subIDs, err := repo.InterestSubCategoryIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return repo.ListProfilesInSubCategories(ctx, s.DB, subIDs, userID)
}

// Packages lists service packages, optionally for one profile.
func (s *CreativeService) Packages(ctx context.Context, creativeID uint) ([]domain.ServicePackage, error) {
	return repo.ListPackages(ctx, s.DB, creativeID)
}

// CreatePackage adds a package to a profile owned by the actor.
func (s *CreativeService) CreatePackage(ctx context.Context, actor Actor, in PackageInput) (*domain.ServicePackage, error) {
	tr := otel.Tracer("services/CreativeService")
	ctx, span := tr.Start(ctx, "CreatePackage", trace.WithAttributes(attribute.Int64("profile.id", int64(in.CreativeID))))
	defer span.End()

	fe := fieldErrors{}
	if in.CreativeID == 0 {
		fe.add("creative", "This field is required.")
	}
	title := checkRequired(fe, "title", in.Title)
	checkMaxLen(fe, "title", title, 200)
	desc := checkRequired(fe, "description", in.Description)
	delivery := checkRequired(fe, "delivery_time", in.DeliveryTime)
	checkMaxLen(fe, "delivery_time", delivery, 100)
	checkMoney(fe, "price", in.Price, 10)
	if err := fe.err(); err != nil {
		return nil, err
	}

	owner, err := repo.GetProfileOwner(ctx, s.DB, in.CreativeID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, invalid("creative", "Invalid pk - object does not exist.")
	}
	if err != nil {
		return nil, err
	}
	if !actor.Is(owner) {
		return nil, ErrForbidden
	}

	p := &domain.ServicePackage{
		CreativeID:   in.CreativeID,
		Title:        title,
		Description:  desc,
		Price:        in.Price,
		DeliveryTime: delivery,
	}
	if err := repo.CreatePackage(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}
