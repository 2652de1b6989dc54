package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// GetOTP returns the OTP record of a user, or ErrNotFound.
func GetOTP(ctx context.Context, db *gorm.DB, userID uint) (*domain.EmailOTP, error) {
	var o domain.EmailOTP
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOTPCode stores code as the user's current passcode generated at now,
// creating the record on first use. The verification flag is left as is.
func SaveOTPCode(ctx context.Context, db *gorm.DB, userID uint, code string, now time.Time) (*domain.EmailOTP, error) {
	o, err := GetOTP(ctx, db, userID)
	if errors.Is(err, ErrNotFound) {
		o = &domain.EmailOTP{UserID: userID, Code: code, CreatedAt: now}
		if err := db.WithContext(ctx).Create(o).Error; err != nil {
			return nil, err
		}
		return o, nil
	}
	if err != nil {
		return nil, err
	}

	res := db.WithContext(ctx).Model(&domain.EmailOTP{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{"code": code, "created_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	o.Code = code
	o.CreatedAt = now
	return o, nil
}

// MarkOTPVerified sets the verification flag of the user's OTP record.
// Returns ErrNotFound if the user has none.
func MarkOTPVerified(ctx context.Context, db *gorm.DB, userID uint) error {
	res := db.WithContext(ctx).Model(&domain.EmailOTP{}).
		Where("user_id = ?", userID).
		Update("is_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
