package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
	"github.com/tbourn/go-creative-marketplace/internal/services"
	"github.com/tbourn/go-creative-marketplace/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService covers registration, login and email verification.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	VerifyEmail(ctx context.Context, userID uint, code string) (alreadyVerified bool, err error)
	ResendOTP(ctx context.Context, userID uint) error
}

// CatalogService exposes the industry taxonomy.
type CatalogService interface {
	Industries(ctx context.Context, search string) ([]domain.IndustryCategory, error)
	SubCategories(ctx context.Context, industryID uint, search string) ([]domain.SubCategory, error)
}

// CreativeService covers profiles, packages, moderation and recommendations.
type CreativeService interface {
	ListVerified(ctx context.Context, subCategoryID uint, search string) ([]domain.CreativeProfile, error)
	GetByUser(ctx context.Context, userID uint) (*domain.CreativeProfile, error)
	CreateProfile(ctx context.Context, actor services.Actor, in services.ProfileInput) (*domain.CreativeProfile, bool, error)
	ListPending(ctx context.Context) ([]domain.CreativeProfile, error)
	Moderate(ctx context.Context, id uint, action string) error
	Recommend(ctx context.Context, userID uint) ([]domain.CreativeProfile, error)
	Packages(ctx context.Context, creativeID uint) ([]domain.ServicePackage, error)
	CreatePackage(ctx context.Context, actor services.Actor, in services.PackageInput) (*domain.ServicePackage, error)
}

// InterestService replaces a user's declared interests.
type InterestService interface {
	Replace(ctx context.Context, actor services.Actor, userID uint, subIDs []uint) ([]uint, error)
}

// BookingService manages bookings.
type BookingService interface {
	Create(ctx context.Context, actor services.Actor, in services.BookingInput) (*domain.Booking, error)
	List(ctx context.Context, actor services.Actor, f repo.BookingFilter) ([]domain.Booking, error)
	Get(ctx context.Context, actor services.Actor, id uint) (*domain.Booking, error)
	Update(ctx context.Context, actor services.Actor, id uint, in services.BookingInput, full bool) (*domain.Booking, error)
	Delete(ctx context.Context, actor services.Actor, id uint) error
}

// ContractService manages booking contracts.
type ContractService interface {
	ForBooking(ctx context.Context, actor services.Actor, bookingID uint) (*domain.Contract, error)
	Sign(ctx context.Context, actor services.Actor, contractID uint, role string) (*domain.Contract, error)
}

// ChatService manages booking chat threads.
type ChatService interface {
	List(ctx context.Context, actor services.Actor, bookingID uint) ([]domain.ChatMessage, error)
	Stats(ctx context.Context, actor services.Actor, bookingID uint) (int64, *time.Time, error)
	Post(ctx context.Context, actor services.Actor, bookingID uint, text string) (*domain.ChatMessage, error)
}

// CommerceService manages products and orders.
type CommerceService interface {
	Products(ctx context.Context, creativeID uint, search string) ([]domain.Product, error)
	Product(ctx context.Context, id uint) (*domain.Product, error)
	CreateProduct(ctx context.Context, actor services.Actor, in services.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, actor services.Actor, id uint, in services.ProductInput, full bool) (*domain.Product, error)
	DeleteProduct(ctx context.Context, actor services.Actor, id uint) error
	CreateOrder(ctx context.Context, actor services.Actor, in services.OrderInput) (*domain.Order, error)
	Orders(ctx context.Context, actor services.Actor, f repo.OrderFilter) ([]domain.Order, error)
	Order(ctx context.Context, actor services.Actor, id uint) (*domain.Order, error)
	UpdateOrder(ctx context.Context, actor services.Actor, id uint, in services.OrderInput, full bool) (*domain.Order, error)
	DeleteOrder(ctx context.Context, actor services.Actor, id uint) error
}

// IdempotencyRecorder remembers the resource created under an
// Idempotency-Key so a retry can be answered without a second insert.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, userID, scope, key string, resourceID uint, status int) error
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. MediaBaseURL, when empty, is
// derived from each request's scheme and host.
type Deps struct {
	Accounts     AccountService
	Catalog      CatalogService
	Creatives    CreativeService
	Interests    InterestService
	Bookings     BookingService
	Contracts    ContractService
	Chat         ChatService
	Commerce     CommerceService
	Idempotency  IdempotencyRecorder
	MediaBaseURL string
}

// Handlers groups the HTTP endpoints of the marketplace. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	accounts  AccountService
	catalog   CatalogService
	creatives CreativeService
	interests InterestService
	bookings  BookingService
	contracts ContractService
	chat      ChatService
	commerce  CommerceService
	idem      IdempotencyRecorder
	mediaBase string
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		accounts:  d.Accounts,
		catalog:   d.Catalog,
		creatives: d.Creatives,
		interests: d.Interests,
		bookings:  d.Bookings,
		contracts: d.Contracts,
		chat:      d.Chat,
		commerce:  d.Commerce,
		idem:      d.Idempotency,
		mediaBase: strings.TrimSpace(d.MediaBaseURL),
	}
}

//
// Helpers
//

// actor returns the caller resolved by the auth middleware. Anonymous
// callers get the zero Actor, which services treat as nobody.
func actor(c *gin.Context) services.Actor {
	id, role, ok := middleware.Identity(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{UserID: id, Role: role}
}

// pathID parses the named path parameter, failing the request with 404 when
// it is not a positive integer (no such resource can exist).
func pathID(c *gin.Context, name string) (uint, bool) {
	id, valid := utils.ParseID(c.Param(name))
	if !valid {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query filter, failing the request with
// 400 when it is present but malformed.
func queryID(c *gin.Context, name string) (uint, bool) {
	id, valid := utils.OptionalID(c.Query(name))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst, answering 400 on malformed
// input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// mediaBaseURL returns the base against which stored media paths resolve.
func (h *Handlers) mediaBaseURL(c *gin.Context) string {
	if h.mediaBase != "" {
		return h.mediaBase
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// remember records a successful idempotent create. Failures are logged and
// otherwise ignored: the resource exists either way.
func (h *Handlers) remember(c *gin.Context, resourceID uint) {
	key, has := middleware.GetIdempotencyKey(c)
	a := actor(c)
	if !has || h.idem == nil || a.UserID == 0 {
		return
	}
	uid := utils.FormatID(a.UserID)
	if err := h.idem.Remember(c.Request.Context(), uid, c.FullPath(), key, resourceID, http.StatusCreated); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Uint("resource_id", resourceID).Msg("idempotency record failed")
	}
}
