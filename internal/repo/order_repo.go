package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// OrderFilter narrows ListOrders. Zero fields are ignored.
type OrderFilter struct {
	ClientID       uint
	CreativeUserID uint // owner of the ordered product's creative profile
}

// CreateOrder inserts an order.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

// ListOrders returns orders matching f, newest first, with client and
// product loaded.
func ListOrders(ctx context.Context, db *gorm.DB, f OrderFilter) ([]domain.Order, error) {
	q := db.WithContext(ctx).Model(&domain.Order{})
	if f.ClientID != 0 {
		q = q.Where("orders.client_id = ?", f.ClientID)
	}
	if f.CreativeUserID != 0 {
		owned := db.Model(&domain.Product{}).
			Select("products.id").
			Joins("JOIN creative_profiles ON creative_profiles.id = products.creative_id").
			Where("creative_profiles.user_id = ?", f.CreativeUserID)
		q = q.Where("orders.product_id IN (?)", owned)
	}

	var out []domain.Order
	err := q.Preload("Client").Preload("Product").
		Order("orders.created_at DESC").Order("orders.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrder loads one order with client and product, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Preload("Client").Preload("Product").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOrder writes every column of o back to its row.
func SaveOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

// DeleteOrder removes an order. Returns ErrNotFound if it does not exist.
func DeleteOrder(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
