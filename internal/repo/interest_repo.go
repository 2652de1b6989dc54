package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// ReplaceInterests swaps the declared interests of userID for subIDs in a
// single transaction. Ids naming no sub category are skipped and duplicates
// are stored once. It returns the ids actually stored.
func ReplaceInterests(ctx context.Context, db *gorm.DB, userID uint, subIDs []uint) ([]uint, error) {
	var stored []uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.UserInterest{}).Error; err != nil {
			return err
		}
		valid, err := ExistingSubCategoryIDs(ctx, tx, dedupe(subIDs))
		if err != nil {
			return err
		}
		if len(valid) == 0 {
			return nil
		}
		rows := make([]domain.UserInterest, 0, len(valid))
		for _, id := range valid {
			rows = append(rows, domain.UserInterest{UserID: userID, SubCategoryID: id})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return err
		}
		stored = valid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// InterestSubCategoryIDs returns the sub category ids userID declared.
func InterestSubCategoryIDs(ctx context.Context, db *gorm.DB, userID uint) ([]uint, error) {
	var out []uint
	err := db.WithContext(ctx).Model(&domain.UserInterest{}).
		Where("user_id = ?", userID).
		Order("sub_category_id ASC").
		Pluck("sub_category_id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
