// Package domain defines the persistence models of the marketplace: users
// and their email verification codes, the two-level service catalog,
// creative profiles with their packages and products, bookings with their
// contracts and chat threads, orders, and declared interests. These types are
// mapped with GORM and shared by the repository and service layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// User roles.
const (
	RoleClient   = "client"
	RoleCreative = "creative"
	RoleAdmin    = "admin"
)

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
	BookingDisputed  = "disputed"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// ValidRole reports whether r is one of the known user roles.
func ValidRole(r string) bool {
	switch r {
	case RoleClient, RoleCreative, RoleAdmin:
		return true
	}
	return false
}

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingDisputed:
		return true
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// User is an account on the marketplace. The role decides which side of the
// marketplace the user acts on; a user owns at most one EmailOTP and at most
// one CreativeProfile.
type User struct {
	ID           uint      `json:"id"           gorm:"primaryKey"`
	Username     string    `json:"username"     gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string    `json:"email"        gorm:"type:varchar(254);not null"`
	FirstName    string    `json:"first_name"   gorm:"type:varchar(150)"`
	LastName     string    `json:"last_name"    gorm:"type:varchar(150)"`
	Role         string    `json:"role"         gorm:"type:varchar(20);not null;check:chk_users_role,role IN ('client','creative','admin')"`
	PhoneNumber  *string   `json:"phone_number" gorm:"type:varchar(15)"`
	PasswordHash string    `json:"-"            gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	EmailOTP *EmailOTP `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// EmailVerified reports whether the user's email OTP has been confirmed.
// The OTP association must be loaded for a meaningful answer.
func (u *User) EmailVerified() bool {
	return u != nil && u.EmailOTP != nil && u.EmailOTP.IsVerified
}

// EmailOTP holds the current one-time passcode of a user. Regenerating the
// code overwrites Code and CreatedAt in place; no history is kept.
type EmailOTP struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	UserID     uint      `json:"user_id"     gorm:"not null;uniqueIndex"`
	Code       string    `json:"-"           gorm:"type:varchar(6);not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"not null"`
	IsVerified bool      `json:"is_verified" gorm:"not null;default:false"`
}

// TableName returns the database table name for EmailOTP.
func (EmailOTP) TableName() string { return "email_otps" }

// IsExpired reports whether more than ttl has elapsed between the last code
// generation and now.
func (o *EmailOTP) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.CreatedAt) > ttl
}

// IndustryCategory is the top level of the catalog taxonomy.
type IndustryCategory struct {
	ID          uint   `json:"id"          gorm:"primaryKey"`
	Name        string `json:"name"        gorm:"type:varchar(100);not null;uniqueIndex"`
	IconCode    string `json:"icon_code"   gorm:"type:varchar(50);not null;default:'circle'"`
	Description string `json:"description" gorm:"type:text"`

	SubCategories []SubCategory `json:"-" gorm:"foreignKey:IndustryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for IndustryCategory.
func (IndustryCategory) TableName() string { return "industry_categories" }

// SubCategory is a role within an industry (e.g. "Photographer").
type SubCategory struct {
	ID         uint   `json:"id"       gorm:"primaryKey"`
	IndustryID uint   `json:"industry" gorm:"not null;index"`
	Name       string `json:"name"     gorm:"type:varchar(100);not null"`

	Industry *IndustryCategory `json:"-" gorm:"foreignKey:IndustryID"`
}

// TableName returns the database table name for SubCategory.
func (SubCategory) TableName() string { return "sub_categories" }

// CreativeProfile extends a User with the information clients browse. A
// profile starts unverified; only an admin approval lists it publicly.
// Deleting a sub category is restricted while profiles reference it.
type CreativeProfile struct {
	ID            uint            `json:"id"              gorm:"primaryKey"`
	UserID        uint            `json:"user_id"         gorm:"not null;uniqueIndex"`
	SubCategoryID uint            `json:"sub_category_id" gorm:"not null;index"`
	Bio           string          `json:"bio"             gorm:"type:text;not null"`
	PortfolioURL  *string         `json:"portfolio_url"   gorm:"type:varchar(200)"`
	ProfileImage  string          `json:"profile_image"   gorm:"type:varchar(255)"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"     gorm:"type:decimal(10,2);not null"`
	Rating        decimal.Decimal `json:"rating"          gorm:"type:decimal(3,2);not null"`
	IsVerified    bool            `json:"is_verified"     gorm:"not null;default:false;index"`
	CreatedAt     time.Time       `json:"created_at"      gorm:"index"`

	User        *User            `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	SubCategory *SubCategory     `json:"-" gorm:"foreignKey:SubCategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Packages    []ServicePackage `json:"-" gorm:"foreignKey:CreativeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Products    []Product        `json:"-" gorm:"foreignKey:CreativeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CreativeProfile.
func (CreativeProfile) TableName() string { return "creative_profiles" }

// ServicePackage is a fixed-price offer published by a creative.
type ServicePackage struct {
	ID           uint            `json:"id"            gorm:"primaryKey"`
	CreativeID   uint            `json:"creative"      gorm:"not null;index"`
	Title        string          `json:"title"         gorm:"type:varchar(200);not null"`
	Description  string          `json:"description"   gorm:"type:text;not null"`
	Price        decimal.Decimal `json:"price"         gorm:"type:decimal(10,2);not null"`
	DeliveryTime string          `json:"delivery_time" gorm:"type:varchar(100);not null"`
}

// TableName returns the database table name for ServicePackage.
func (ServicePackage) TableName() string { return "service_packages" }

// Product is a physical item sold by a creative. Stock is informational and
// never decremented by orders.
type Product struct {
	ID          uint            `json:"id"          gorm:"primaryKey"`
	CreativeID  uint            `json:"creative"    gorm:"not null;index"`
	Name        string          `json:"name"        gorm:"type:varchar(200);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price"       gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock"       gorm:"not null"`
	Image       string          `json:"image"       gorm:"type:varchar(255)"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Booking is a scheduled engagement of a client with a creative. The
// package reference is cleared (not cascaded) when the package disappears.
type Booking struct {
	ID           uint           `json:"id"            gorm:"primaryKey"`
	ClientID     uint           `json:"client"        gorm:"not null;index"`
	CreativeID   uint           `json:"creative"      gorm:"not null;index"`
	PackageID    *uint          `json:"package"       gorm:"index"`
	BookingDate  datatypes.Date `json:"booking_date"  gorm:"not null"`
	BookingTime  datatypes.Time `json:"booking_time"  gorm:"not null"`
	ProjectType  string         `json:"project_type"  gorm:"type:varchar(50);not null"`
	Requirements string         `json:"requirements"  gorm:"type:text;not null"`
	Status       string         `json:"status"        gorm:"type:varchar(20);not null;check:chk_bookings_status,status IN ('pending','confirmed','completed','cancelled','disputed')"`
	CreatedAt    time.Time      `json:"created_at"    gorm:"index"`

	Client   *User            `json:"-" gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Creative *CreativeProfile `json:"-" gorm:"foreignKey:CreativeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Package  *ServicePackage  `json:"-" gorm:"foreignKey:PackageID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// Contract is the service agreement of a booking. Both parties sign
// independently; a fully executed contract is one where both flags are set.
type Contract struct {
	ID               uint       `json:"id"                 gorm:"primaryKey"`
	BookingID        uint       `json:"booking"            gorm:"not null;uniqueIndex"`
	BodyText         string     `json:"body_text"          gorm:"type:text;not null"`
	IsClientSigned   bool       `json:"is_client_signed"   gorm:"not null;default:false"`
	ClientSignedAt   *time.Time `json:"client_signed_at"`
	IsCreativeSigned bool       `json:"is_creative_signed" gorm:"not null;default:false"`
	CreativeSignedAt *time.Time `json:"creative_signed_at"`
	CreatedAt        time.Time  `json:"created_at"`

	Booking *Booking `json:"-" gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Contract.
func (Contract) TableName() string { return "contracts" }

// Executed reports whether both parties have signed.
func (c *Contract) Executed() bool { return c.IsClientSigned && c.IsCreativeSigned }

// ChatMessage is one entry of a booking's chat thread.
type ChatMessage struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	BookingID uint      `json:"booking"    gorm:"not null;index:idx_booking_msgs,priority:1"`
	SenderID  uint      `json:"sender"     gorm:"not null;index"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_booking_msgs,priority:2"`

	Booking *Booking `json:"-" gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sender  *User    `json:"-" gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// UserInterest records a user's affinity to a sub category. A (user, sub
// category) pair is stored at most once.
type UserInterest struct {
	ID            uint `json:"id"           gorm:"primaryKey"`
	UserID        uint `json:"user"         gorm:"not null;uniqueIndex:ux_user_interest,priority:1"`
	SubCategoryID uint `json:"sub_category" gorm:"not null;uniqueIndex:ux_user_interest,priority:2;index"`

	User        *User        `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	SubCategory *SubCategory `json:"-" gorm:"foreignKey:SubCategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserInterest.
func (UserInterest) TableName() string { return "user_interests" }

// Order is a client's purchase of a product. TotalPrice is fixed when the
// order is written and does not follow later product price changes.
type Order struct {
	ID         uint                `json:"id"          gorm:"primaryKey"`
	ClientID   uint                `json:"client"      gorm:"not null;index"`
	ProductID  uint                `json:"product"     gorm:"not null;index"`
	Quantity   int                 `json:"quantity"    gorm:"not null"`
	TotalPrice decimal.NullDecimal `json:"total_price" gorm:"type:decimal(10,2)"`
	Status     string              `json:"status"      gorm:"type:varchar(50);not null;check:chk_orders_status,status IN ('pending','shipped','delivered','cancelled')"`
	CreatedAt  time.Time           `json:"created_at"  gorm:"index"`

	Client  *User    `json:"-" gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Product *Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// All returns every persistent model in migration order.
func All() []any {
	return []any{
		&User{},
		&EmailOTP{},
		&IndustryCategory{},
		&SubCategory{},
		&CreativeProfile{},
		&ServicePackage{},
		&Product{},
		&Booking{},
		&Contract{},
		&ChatMessage{},
		&UserInterest{},
		&Order{},
		&Idempotency{},
	}
}
