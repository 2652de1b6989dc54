package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

const industryChildNameMatch = `EXISTS (SELECT 1 FROM sub_categories sc ` +
	`WHERE sc.industry_id = industry_categories.id AND LOWER(sc.name) LIKE ? ESCAPE '\')`

// ListIndustries returns all industries ordered by id. A non-empty search
// keeps industries whose name, or the name of one of their sub categories,
// contains every search term.
func ListIndustries(ctx context.Context, db *gorm.DB, search string) ([]domain.IndustryCategory, error) {
	q := db.WithContext(ctx).Model(&domain.IndustryCategory{})
	q = applySearch(q, search, "industry_categories.name", industryChildNameMatch)

	var out []domain.IndustryCategory
	if err := q.Order("industry_categories.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListSubCategories returns sub categories ordered by id, optionally limited
// to one industry and narrowed by a name search.
func ListSubCategories(ctx context.Context, db *gorm.DB, industryID uint, search string) ([]domain.SubCategory, error) {
	q := db.WithContext(ctx).Model(&domain.SubCategory{})
	if industryID != 0 {
		q = q.Where("industry_id = ?", industryID)
	}
	q = applySearch(q, search, "sub_categories.name")

	var out []domain.SubCategory
	if err := q.Order("sub_categories.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetSubCategory loads a sub category with its industry, or ErrNotFound.
func GetSubCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.SubCategory, error) {
	var sc domain.SubCategory
	if err := db.WithContext(ctx).Preload("Industry").First(&sc, id).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

// ExistingSubCategoryIDs returns the subset of ids that name existing sub
// categories, in ascending order.
func ExistingSubCategoryIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []uint
	err := db.WithContext(ctx).Model(&domain.SubCategory{}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SeedIndustry describes one industry and the sub categories it starts with.
type SeedIndustry struct {
	Name          string
	IconCode      string
	Description   string
	SubCategories []string
}

// SeedCatalog inserts the industries of seed that do not exist yet (matched
// by name) together with their sub categories. Existing industries are left
// untouched. It returns the number of industries created.
func SeedCatalog(ctx context.Context, db *gorm.DB, seed []SeedIndustry) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range seed {
			var existing domain.IndustryCategory
			err := tx.Where("name = ?", s.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			icon := s.IconCode
			if icon == "" {
				icon = "circle"
			}
			ind := &domain.IndustryCategory{Name: s.Name, IconCode: icon, Description: s.Description}
			if err := tx.Omit(clause.Associations).Create(ind).Error; err != nil {
				return err
			}
			for _, name := range s.SubCategories {
				sc := &domain.SubCategory{IndustryID: ind.ID, Name: name}
				if err := tx.Omit(clause.Associations).Create(sc).Error; err != nil {
					return err
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
