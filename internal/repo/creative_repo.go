package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// withProfileGraph preloads everything a creative profile view renders.
func withProfileGraph(q *gorm.DB) *gorm.DB {
	return q.
		Preload("User.EmailOTP").
		Preload("SubCategory.Industry").
		Preload("Packages", func(db *gorm.DB) *gorm.DB { return db.Order("service_packages.id ASC") }).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.id ASC") })
}

// CreateProfile inserts p without touching its associations.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CreativeProfile) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ProfileExistsForUser reports whether userID already owns a profile.
func ProfileExistsForUser(ctx context.Context, db *gorm.DB, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.CreativeProfile{}).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}

// GetProfile loads a profile with its user, taxonomy, packages and products.
func GetProfile(ctx context.Context, db *gorm.DB, id uint) (*domain.CreativeProfile, error) {
	var p domain.CreativeProfile
	if err := withProfileGraph(db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByUser loads the profile owned by userID, or ErrNotFound.
func GetProfileByUser(ctx context.Context, db *gorm.DB, userID uint) (*domain.CreativeProfile, error) {
	var p domain.CreativeProfile
	if err := withProfileGraph(db.WithContext(ctx)).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileOwner returns the user id owning profile id, or ErrNotFound.
func GetProfileOwner(ctx context.Context, db *gorm.DB, id uint) (uint, error) {
	var p domain.CreativeProfile
	if err := db.WithContext(ctx).Select("id", "user_id").First(&p, id).Error; err != nil {
		return 0, err
	}
	return p.UserID, nil
}

// ListVerifiedProfiles returns verified profiles ordered by id. A non-zero
// subCategoryID filters by sub category; search matches the owner's
// username, first and last name, the sub category and the industry name.
func ListVerifiedProfiles(ctx context.Context, db *gorm.DB, subCategoryID uint, search string) ([]domain.CreativeProfile, error) {
	q := db.WithContext(ctx).Model(&domain.CreativeProfile{}).
		Select("creative_profiles.*").
		Where("creative_profiles.is_verified = ?", true)
	if subCategoryID != 0 {
		q = q.Where("creative_profiles.sub_category_id = ?", subCategoryID)
	}
	if len(searchTerms(search)) > 0 {
		q = q.
			Joins("JOIN users ON users.id = creative_profiles.user_id").
			Joins("JOIN sub_categories ON sub_categories.id = creative_profiles.sub_category_id").
			Joins("JOIN industry_categories ON industry_categories.id = sub_categories.industry_id")
		q = applySearch(q, search,
			"users.username", "users.first_name", "users.last_name",
			"sub_categories.name", "industry_categories.name")
	}

	var out []domain.CreativeProfile
	if err := withProfileGraph(q).Order("creative_profiles.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListProfilesInSubCategories returns profiles in any of subIDs, verified or
// not, leaving out the one owned by excludeUserID.
func ListProfilesInSubCategories(ctx context.Context, db *gorm.DB, subIDs []uint, excludeUserID uint) ([]domain.CreativeProfile, error) {
	if len(subIDs) == 0 {
		return []domain.CreativeProfile{}, nil
	}
	q := db.WithContext(ctx).
		Where("sub_category_id IN ?", subIDs).
		Where("user_id <> ?", excludeUserID)

	var out []domain.CreativeProfile
	if err := withProfileGraph(q).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingProfiles returns unverified profiles, newest first.
func ListPendingProfiles(ctx context.Context, db *gorm.DB) ([]domain.CreativeProfile, error) {
	q := db.WithContext(ctx).Where("is_verified = ?", false)

	var out []domain.CreativeProfile
	if err := withProfileGraph(q).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetProfileVerified marks profile id as verified. Returns ErrNotFound if it
// does not exist.
func SetProfileVerified(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Model(&domain.CreativeProfile{}).Where("id = ?", id).Update("is_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProfile removes profile id together with everything hanging off it:
// its bookings (with their contracts and chat messages), its products (with
// their orders) and its service packages. Bookings of other creatives that
// referenced one of the packages keep existing with the reference cleared.
// Everything happens in one transaction; ErrNotFound if the profile is missing.
func DeleteProfile(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.CreativeProfile
		if err := tx.Select("id").First(&p, id).Error; err != nil {
			return err
		}

		bookings := tx.Model(&domain.Booking{}).Select("id").Where("creative_id = ?", id)
		if err := tx.Where("booking_id IN (?)", bookings).Delete(&domain.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id IN (?)", bookings).Delete(&domain.Contract{}).Error; err != nil {
			return err
		}
		if err := tx.Where("creative_id = ?", id).Delete(&domain.Booking{}).Error; err != nil {
			return err
		}

		products := tx.Model(&domain.Product{}).Select("id").Where("creative_id = ?", id)
		if err := tx.Where("product_id IN (?)", products).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("creative_id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return err
		}

		packages := tx.Model(&domain.ServicePackage{}).Select("id").Where("creative_id = ?", id)
		if err := tx.Model(&domain.Booking{}).Where("package_id IN (?)", packages).
			Update("package_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("creative_id = ?", id).Delete(&domain.ServicePackage{}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.CreativeProfile{}, id).Error
	})
}
