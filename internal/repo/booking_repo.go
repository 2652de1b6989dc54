package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// BookingFilter narrows ListBookings. Zero fields are ignored.
type BookingFilter struct {
	ClientID       uint
	CreativeUserID uint   // user owning the booked creative profile
	Search         string // creative username/names, sub category, industry
}

func withBookingGraph(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Client").
		Preload("Creative.User").
		Preload("Creative.SubCategory").
		Preload("Package")
}

// CreateBooking inserts a booking.
func CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

// ListBookings returns bookings matching f, newest first, with the client,
// the creative (user and sub category) and the package loaded.
func ListBookings(ctx context.Context, db *gorm.DB, f BookingFilter) ([]domain.Booking, error) {
	q := db.WithContext(ctx).Model(&domain.Booking{}).Select("bookings.*")

	needProfile := f.CreativeUserID != 0 || len(searchTerms(f.Search)) > 0
	if needProfile {
		q = q.Joins("JOIN creative_profiles ON creative_profiles.id = bookings.creative_id")
	}
	if f.ClientID != 0 {
		q = q.Where("bookings.client_id = ?", f.ClientID)
	}
	if f.CreativeUserID != 0 {
		q = q.Where("creative_profiles.user_id = ?", f.CreativeUserID)
	}
	if len(searchTerms(f.Search)) > 0 {
		q = q.
			Joins("JOIN users ON users.id = creative_profiles.user_id").
			Joins("JOIN sub_categories ON sub_categories.id = creative_profiles.sub_category_id").
			Joins("JOIN industry_categories ON industry_categories.id = sub_categories.industry_id")
		q = applySearch(q, f.Search,
			"users.username", "users.first_name", "users.last_name",
			"sub_categories.name", "industry_categories.name")
	}

	var out []domain.Booking
	err := withBookingGraph(q).
		Order("bookings.created_at DESC").Order("bookings.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBooking loads one booking with its associations, or ErrNotFound.
func GetBooking(ctx context.Context, db *gorm.DB, id uint) (*domain.Booking, error) {
	var b domain.Booking
	if err := withBookingGraph(db.WithContext(ctx)).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveBooking writes every column of b back to its row.
func SaveBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

// DeleteBooking removes a booking with its contract and chat messages.
// Returns ErrNotFound if the booking does not exist.
func DeleteBooking(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&domain.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", id).Delete(&domain.Contract{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Booking{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
