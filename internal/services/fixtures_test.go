package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/notify"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
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
	if err := db.AutoMigrate(domain.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func actorOf(u *domain.User) Actor { return Actor{UserID: u.ID, Role: u.Role} }

var admin = Actor{UserID: 9999, Role: domain.RoleAdmin}

func mkUser(t *testing.T, db *gorm.DB, username, role string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Role: role, PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mkSub(t *testing.T, db *gorm.DB, industry, name string) *domain.SubCategory {
	t.Helper()
	var ind domain.IndustryCategory
	if err := db.Where(domain.IndustryCategory{Name: industry}).
		Attrs(domain.IndustryCategory{IconCode: "circle"}).
		FirstOrCreate(&ind).Error; err != nil {
		t.Fatalf("create industry: %v", err)
	}
	sc := &domain.SubCategory{IndustryID: ind.ID, Name: name}
	if err := db.Create(sc).Error; err != nil {
		t.Fatalf("create sub category: %v", err)
	}
	return sc
}

func mkProfile(t *testing.T, db *gorm.DB, u *domain.User, sub *domain.SubCategory, rate string, verified bool) *domain.CreativeProfile {
	t.Helper()
	p := &domain.CreativeProfile{
		UserID:        u.ID,
		SubCategoryID: sub.ID,
		Bio:           "bio of " + u.Username,
		HourlyRate:    dec(rate),
		Rating:        dec("5.00"),
		IsVerified:    verified,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p
}

// marketplace is the usual cast: a client, a creative with a profile and an
// admin-free world.
type marketplace struct {
	client   *domain.User
	creative *domain.User
	other    *domain.User
	sub      *domain.SubCategory
	profile  *domain.CreativeProfile
}

func newMarketplace(t *testing.T, db *gorm.DB) marketplace {
	t.Helper()
	m := marketplace{
		client:   mkUser(t, db, "alice", domain.RoleClient),
		creative: mkUser(t, db, "bob", domain.RoleCreative),
		other:    mkUser(t, db, "eve", domain.RoleClient),
		sub:      mkSub(t, db, "Photography", "Photographer"),
	}
	m.profile = mkProfile(t, db, m.creative, m.sub, "75.50", true)
	return m
}

func mkBooking(t *testing.T, db *gorm.DB, m marketplace) *domain.Booking {
	t.Helper()
	svc := &BookingService{DB: db}
	b, err := svc.Create(context.Background(), actorOf(m.client), BookingInput{
		CreativeID:   ptr(m.profile.ID),
		BookingDate:  ptr("2025-06-01"),
		BookingTime:  ptr("10:30"),
		Requirements: ptr("two hour shoot"),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func fieldError(t *testing.T, err error, field string) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want *ValidationError, got %T (%v)", err, err)
	}
	msg, ok := ve.Fields[field]
	if !ok {
		t.Fatalf("no error for field %q in %v", field, ve.Fields)
	}
	return msg
}

// ----- Fakes -----

type sentMail struct {
	to, code string
	ttl      time.Duration
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, code, ttl})
	return nil
}

type fakePublisher struct {
	events []notify.ChatMessageEvent
	err    error
}

func (f *fakePublisher) PublishChatMessage(_ context.Context, ev notify.ChatMessageEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }
