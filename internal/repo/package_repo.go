package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// CreatePackage inserts a service package.
func CreatePackage(ctx context.Context, db *gorm.DB, p *domain.ServicePackage) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// ListPackages returns packages ordered by id, limited to one creative
// profile when creativeID is non-zero.
func ListPackages(ctx context.Context, db *gorm.DB, creativeID uint) ([]domain.ServicePackage, error) {
	q := db.WithContext(ctx).Model(&domain.ServicePackage{})
	if creativeID != 0 {
		q = q.Where("creative_id = ?", creativeID)
	}
	var out []domain.ServicePackage
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetPackage loads one package, or ErrNotFound.
func GetPackage(ctx context.Context, db *gorm.DB, id uint) (*domain.ServicePackage, error) {
	var p domain.ServicePackage
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
