package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// CreateProduct inserts a product.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// ListProducts returns products ordered by id, optionally limited to one
// creative profile and narrowed by a name search.
func ListProducts(ctx context.Context, db *gorm.DB, creativeID uint, search string) ([]domain.Product, error) {
	q := db.WithContext(ctx).Model(&domain.Product{})
	if creativeID != 0 {
		q = q.Where("creative_id = ?", creativeID)
	}
	q = applySearch(q, search, "products.name")

	var out []domain.Product
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct loads one product, or ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProduct writes every column of p back to its row.
func SaveProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// DeleteProduct removes a product and the orders placed for it.
// Returns ErrNotFound if the product does not exist.
func DeleteProduct(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
