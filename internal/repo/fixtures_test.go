package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// newTestDB opens a unique in-memory database per test (foreign keys on) and
// migrates the given models, or every model when none are given.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) == 0 {
		migrate = domain.All()
	}
	if err := db.AutoMigrate(migrate...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newBareDB opens an in-memory database with no tables.
func newBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s_bare?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func mkUser(t *testing.T, db *gorm.DB, username, role string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		Role:         role,
		PasswordHash: "x",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mkIndustry(t *testing.T, db *gorm.DB, name string, subs ...string) (*domain.IndustryCategory, []domain.SubCategory) {
	t.Helper()
	ind := &domain.IndustryCategory{Name: name, IconCode: "circle"}
	if err := db.Create(ind).Error; err != nil {
		t.Fatalf("create industry: %v", err)
	}
	out := make([]domain.SubCategory, 0, len(subs))
	for _, s := range subs {
		sc := domain.SubCategory{IndustryID: ind.ID, Name: s}
		if err := db.Create(&sc).Error; err != nil {
			t.Fatalf("create sub category: %v", err)
		}
		out = append(out, sc)
	}
	return ind, out
}

func mkProfile(t *testing.T, db *gorm.DB, userID, subID uint, verified bool) *domain.CreativeProfile {
	t.Helper()
	p := &domain.CreativeProfile{
		UserID:        userID,
		SubCategoryID: subID,
		Bio:           "bio",
		HourlyRate:    decimal.RequireFromString("50.00"),
		Rating:        decimal.RequireFromString("5.00"),
		IsVerified:    verified,
	}
	if err := CreateProfile(context.Background(), db, p); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p
}

func mkBooking(t *testing.T, db *gorm.DB, clientID, creativeID uint, pkgID *uint, created time.Time) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		ClientID:     clientID,
		CreativeID:   creativeID,
		PackageID:    pkgID,
		BookingDate:  datatypes.Date(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		BookingTime:  datatypes.NewTime(10, 0, 0, 0),
		ProjectType:  "Hourly",
		Requirements: "req",
		Status:       domain.BookingPending,
		CreatedAt:    created,
	}
	if err := CreateBooking(context.Background(), db, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func mkProduct(t *testing.T, db *gorm.DB, creativeID uint, name, price string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		CreativeID:  creativeID,
		Name:        name,
		Description: "d",
		Price:       decimal.RequireFromString(price),
		Stock:       1,
	}
	if err := CreateProduct(context.Background(), db, p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
