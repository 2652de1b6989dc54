package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-creative-marketplace/internal/auth"
	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/services"
)

const testMediaBase = "https://cdn.example.com"

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string // to -> last code
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[to] = code
	return nil
}

func (f *fakeMailer) last(to string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[to]
}

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	r      *gin.Engine
	tokens *auth.Manager
	mail   *fakeMailer

	client, creative, other, admin *domain.User
	sub                            *domain.SubCategory
	profile                        *domain.CreativeProfile
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
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

func mkUser(t *testing.T, db *gorm.DB, username, first, role string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", FirstName: first, Role: role, PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// newTestAPI wires real services over an in-memory database behind the same
// auth and idempotency middleware the server uses.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	a := &testAPI{
		t:      t,
		db:     db,
		tokens: auth.NewManager("handlers-test-secret-handlers-test", "test", time.Hour),
		mail:   &fakeMailer{},
	}

	a.client = mkUser(t, db, "alice", "Alice", domain.RoleClient)
	a.creative = mkUser(t, db, "bob", "Bob", domain.RoleCreative)
	a.other = mkUser(t, db, "eve", "Eve", domain.RoleClient)
	a.admin = mkUser(t, db, "root", "Root", domain.RoleAdmin)

	ind := &domain.IndustryCategory{Name: "Media", IconCode: "camera", Description: "Photo and video"}
	if err := db.Create(ind).Error; err != nil {
		t.Fatalf("create industry: %v", err)
	}
	a.sub = &domain.SubCategory{IndustryID: ind.ID, Name: "Photographer"}
	if err := db.Create(a.sub).Error; err != nil {
		t.Fatalf("create sub: %v", err)
	}
	a.profile = &domain.CreativeProfile{
		UserID:        a.creative.ID,
		SubCategoryID: a.sub.ID,
		Bio:           "Portraits",
		ProfileImage:  "profiles/bob.jpg",
		HourlyRate:    decimal.RequireFromString("75.5"),
		Rating:        decimal.RequireFromString("5"),
		IsVerified:    true,
	}
	if err := db.Create(a.profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	idem := &services.IdempotencyService{DB: db}
	h := New(Deps{
		Accounts: &services.AccountService{
			DB:      db,
			Mailer:  a.mail,
			Tokens:  a.tokens,
			NewCode: func() (string, error) { return "482913", nil },
		},
		Catalog:      &services.CatalogService{DB: db},
		Creatives:    &services.CreativeService{DB: db},
		Interests:    &services.InterestService{DB: db},
		Bookings:     &services.BookingService{DB: db},
		Contracts:    &services.ContractService{DB: db},
		Chat:         services.NewChatService(db, nil),
		Commerce:     &services.CommerceService{DB: db},
		Idempotency:  idem,
		MediaBaseURL: testMediaBase,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Authenticate(a.tokens))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.Lookup))

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/verify-email", h.VerifyEmail)
	r.POST("/resend-otp", h.ResendOTP)
	r.GET("/industries", h.ListIndustries)
	r.GET("/subcategories", h.ListSubCategories)
	r.GET("/creatives", h.ListCreatives)
	r.GET("/creatives/recommended", h.RecommendedCreatives)
	r.GET("/creative-profile", h.GetCreativeProfile)
	r.GET("/service-packages", h.ListServicePackages)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	authed := r.Group("", middleware.RequireAuth())
	authed.POST("/save-interests", h.SaveInterests)
	authed.POST("/create-profile", h.CreateProfile)
	authed.POST("/service-packages", h.CreateServicePackage)
	authed.POST("/products", h.CreateProduct)
	authed.PUT("/products/:id", h.UpdateProduct)
	authed.PATCH("/products/:id", h.UpdateProduct)
	authed.DELETE("/products/:id", h.DeleteProduct)
	authed.GET("/orders", h.ListOrders)
	authed.POST("/orders", h.CreateOrder)
	authed.GET("/orders/:id", h.GetOrder)
	authed.PUT("/orders/:id", h.UpdateOrder)
	authed.PATCH("/orders/:id", h.UpdateOrder)
	authed.DELETE("/orders/:id", h.DeleteOrder)
	authed.POST("/bookings", h.CreateBooking)
	authed.GET("/my-bookings", h.ListBookings)
	authed.GET("/bookings/:id", h.GetBooking)
	authed.PUT("/bookings/:id", h.UpdateBooking)
	authed.PATCH("/bookings/:id", h.UpdateBooking)
	authed.DELETE("/bookings/:id", h.DeleteBooking)
	authed.GET("/bookings/:id/messages", h.ListBookingMessages)
	authed.POST("/bookings/:id/messages", h.PostBookingMessage)
	authed.GET("/messages", h.ListMessages)
	authed.POST("/messages", h.PostMessage)
	authed.GET("/contract/booking/:booking_id", h.GetContract)
	authed.POST("/contract/sign/:contract_id", h.SignContract)

	adm := r.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	adm.GET("/pending-creatives", h.PendingCreatives)
	adm.POST("/manage-creative/:id", h.ManageCreative)

	a.r = r
	return a
}

// do sends a JSON request as user u (nil for anonymous). Extra headers are
// given as key, value pairs.
func (a *testAPI) do(method, path string, body any, u *domain.User, hdr ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		tok, _, err := a.tokens.Issue(u.ID, u.Role)
		if err != nil {
			a.t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body=%s)", w.Code, status, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	wantStatus(t, w, status)
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q; want %q (body=%s)", er.Code, code, w.Body.String())
	}
	if er.RequestID == "" {
		t.Fatalf("error without request_id: %s", w.Body.String())
	}
	return er
}

// book creates a booking of the fixture creative by the fixture client.
func (a *testAPI) book() BookingView {
	a.t.Helper()
	w := a.do(http.MethodPost, "/bookings", gin.H{
		"creative":     a.profile.ID,
		"booking_date": "2025-07-01",
		"booking_time": "10:30",
		"requirements": "Outdoor portraits",
	}, a.client)
	wantStatus(a.t, w, http.StatusCreated)
	return decode[BookingView](a.t, w)
}
