package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/media"
)

// Views are the JSON shapes returned by the API. Money is rendered as a
// fixed two-decimal string.

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// UserView is the public face of an account.
type UserView struct {
	ID              uint   `json:"id"                example:"7"`
	Username        string `json:"username"          example:"alice"`
	Email           string `json:"email"             example:"alice@example.com"`
	FirstName       string `json:"first_name"        example:"Alice"`
	LastName        string `json:"last_name"         example:"Smith"`
	IsEmailVerified bool   `json:"is_email_verified" example:"true"`
}

func userView(u *domain.User) UserView {
	if u == nil {
		return UserView{}
	}
	return UserView{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsEmailVerified: u.EmailVerified(),
	}
}

// AccountView is returned by registration.
type AccountView struct {
	ID          uint    `json:"id"           example:"7"`
	Username    string  `json:"username"     example:"alice"`
	Email       string  `json:"email"        example:"alice@example.com"`
	FirstName   string  `json:"first_name"   example:"Alice"`
	LastName    string  `json:"last_name"    example:"Smith"`
	Role        string  `json:"role"         example:"client"`
	PhoneNumber *string `json:"phone_number" example:"+15550100"`
}

func accountView(u *domain.User) AccountView {
	return AccountView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		PhoneNumber: u.PhoneNumber,
	}
}

// LoginResponse carries the session token of a successful login.
type LoginResponse struct {
	ID        uint      `json:"id"         example:"7"`
	Username  string    `json:"username"   example:"alice"`
	Role      string    `json:"role"       example:"client"`
	Token     string    `json:"token"      example:"eyJhbGciOiJIUzI1NiJ9..."`
	ExpiresAt time.Time `json:"expires_at"`
}

// PackageView is a service package.
type PackageView struct {
	ID           uint   `json:"id"            example:"3"`
	Creative     uint   `json:"creative"      example:"2"`
	Title        string `json:"title"         example:"Wedding shoot"`
	Description  string `json:"description"   example:"Full day coverage"`
	Price        string `json:"price"         example:"450.00"`
	DeliveryTime string `json:"delivery_time" example:"2 weeks"`
}

func packageView(p *domain.ServicePackage) PackageView {
	return PackageView{
		ID:           p.ID,
		Creative:     p.CreativeID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        money(p.Price),
		DeliveryTime: p.DeliveryTime,
	}
}

func packageViews(in []domain.ServicePackage) []PackageView {
	out := make([]PackageView, 0, len(in))
	for i := range in {
		out = append(out, packageView(&in[i]))
	}
	return out
}

// ProductView is a product with its image resolved to an absolute URL.
type ProductView struct {
	ID          uint   `json:"id"          example:"5"`
	Creative    uint   `json:"creative"    example:"2"`
	Name        string `json:"name"        example:"Print A3"`
	Description string `json:"description" example:"Signed fine art print"`
	Price       string `json:"price"       example:"35.00"`
	Stock       int    `json:"stock"       example:"1"`
	ImageURL    string `json:"image_url"   example:"https://cdn.example.com/media/products/a3.jpg"`
}

func productView(base string, p *domain.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Creative:    p.CreativeID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Stock:       p.Stock,
		ImageURL:    media.AbsoluteURL(base, p.Image),
	}
}

func productViews(base string, in []domain.Product) []ProductView {
	out := make([]ProductView, 0, len(in))
	for i := range in {
		out = append(out, productView(base, &in[i]))
	}
	return out
}

// ProfileView is a creative profile with its user, taxonomy and offers.
type ProfileView struct {
	ID              uint                `json:"id"                example:"2"`
	User            UserView            `json:"user"`
	RoleName        string              `json:"role_name"         example:"Photographer"`
	IndustryName    string              `json:"industry_name"     example:"Media"`
	SubCategory     *domain.SubCategory `json:"sub_category"`
	Bio             string              `json:"bio"               example:"Portraits and weddings"`
	HourlyRate      string              `json:"hourly_rate"       example:"80.00"`
	Rating          string              `json:"rating"            example:"5.00"`
	PortfolioURL    *string             `json:"portfolio_url"     example:"https://alice.example.com"`
	ProfileImageURL string              `json:"profile_image_url" example:"https://cdn.example.com/media/profiles/alice.jpg"`
	IsVerified      bool                `json:"is_verified"       example:"true"`
	Packages        []PackageView       `json:"packages"`
	Products        []ProductView       `json:"products"`
}

func profileView(base string, p *domain.CreativeProfile) ProfileView {
	v := ProfileView{
		ID:              p.ID,
		User:            userView(p.User),
		SubCategory:     p.SubCategory,
		Bio:             p.Bio,
		HourlyRate:      money(p.HourlyRate),
		Rating:          money(p.Rating),
		PortfolioURL:    p.PortfolioURL,
		ProfileImageURL: media.AbsoluteURL(base, p.ProfileImage),
		IsVerified:      p.IsVerified,
		Packages:        packageViews(p.Packages),
		Products:        productViews(base, p.Products),
	}
	if p.SubCategory != nil {
		v.RoleName = p.SubCategory.Name
		if p.SubCategory.Industry != nil {
			v.IndustryName = p.SubCategory.Industry.Name
		}
	}
	return v
}

func profileViews(base string, in []domain.CreativeProfile) []ProfileView {
	out := make([]ProfileView, 0, len(in))
	for i := range in {
		out = append(out, profileView(base, &in[i]))
	}
	return out
}

// BookingView is a booking with the names clients and creatives display.
type BookingView struct {
	ID           uint      `json:"id"            example:"11"`
	Client       uint      `json:"client"        example:"7"`
	ClientName   string    `json:"client_name"   example:"alice"`
	Creative     uint      `json:"creative"      example:"2"`
	CreativeName string    `json:"creative_name" example:"Bob"`
	CreativeRole string    `json:"creative_role" example:"Photographer"`
	Package      *uint     `json:"package"       example:"3"`
	BookingDate  string    `json:"booking_date"  example:"2025-07-01"`
	BookingTime  string    `json:"booking_time"  example:"10:30:00"`
	ProjectType  string    `json:"project_type"  example:"Hourly"`
	Requirements string    `json:"requirements"  example:"Outdoor portraits"`
	Status       string    `json:"status"        example:"pending"`
	CreatedAt    time.Time `json:"created_at"`
}

func bookingView(b *domain.Booking) BookingView {
	v := BookingView{
		ID:           b.ID,
		Client:       b.ClientID,
		Creative:     b.CreativeID,
		Package:      b.PackageID,
		BookingDate:  time.Time(b.BookingDate).Format("2006-01-02"),
		BookingTime:  b.BookingTime.String(),
		ProjectType:  b.ProjectType,
		Requirements: b.Requirements,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
	}
	if b.Client != nil {
		v.ClientName = b.Client.Username
	}
	if b.Creative != nil {
		if b.Creative.User != nil {
			v.CreativeName = b.Creative.User.FirstName
		}
		if b.Creative.SubCategory != nil {
			v.CreativeRole = b.Creative.SubCategory.Name
		}
	}
	return v
}

func bookingViews(in []domain.Booking) []BookingView {
	out := make([]BookingView, 0, len(in))
	for i := range in {
		out = append(out, bookingView(&in[i]))
	}
	return out
}

// ContractView is a booking's agreement and its signature state.
type ContractView struct {
	ID               uint       `json:"id"                 example:"4"`
	Booking          uint       `json:"booking"            example:"11"`
	BodyText         string     `json:"body_text"`
	IsClientSigned   bool       `json:"is_client_signed"   example:"true"`
	ClientSignedAt   *time.Time `json:"client_signed_at"`
	IsCreativeSigned bool       `json:"is_creative_signed" example:"false"`
	CreativeSignedAt *time.Time `json:"creative_signed_at"`
	Executed         bool       `json:"executed"           example:"false"`
	CreatedAt        time.Time  `json:"created_at"`
}

func contractView(c *domain.Contract) ContractView {
	return ContractView{
		ID:               c.ID,
		Booking:          c.BookingID,
		BodyText:         c.BodyText,
		IsClientSigned:   c.IsClientSigned,
		ClientSignedAt:   c.ClientSignedAt,
		IsCreativeSigned: c.IsCreativeSigned,
		CreativeSignedAt: c.CreativeSignedAt,
		Executed:         c.Executed(),
		CreatedAt:        c.CreatedAt,
	}
}

// MessageView is one chat message.
type MessageView struct {
	ID         uint      `json:"id"          example:"90"`
	Booking    uint      `json:"booking"     example:"11"`
	Sender     uint      `json:"sender"      example:"7"`
	SenderID   uint      `json:"sender_id"   example:"7"`
	SenderName string    `json:"sender_name" example:"alice"`
	Message    string    `json:"message"     example:"See you at 10"`
	CreatedAt  time.Time `json:"created_at"`
}

func messageView(m *domain.ChatMessage) MessageView {
	v := MessageView{
		ID:        m.ID,
		Booking:   m.BookingID,
		Sender:    m.SenderID,
		SenderID:  m.SenderID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
	if m.Sender != nil {
		v.SenderName = m.Sender.Username
	}
	return v
}

func messageViews(in []domain.ChatMessage) []MessageView {
	out := make([]MessageView, 0, len(in))
	for i := range in {
		out = append(out, messageView(&in[i]))
	}
	return out
}

// OrderView is an order with the names of its client and product.
type OrderView struct {
	ID          uint      `json:"id"           example:"21"`
	Client      uint      `json:"client"       example:"7"`
	ClientName  string    `json:"client_name"  example:"alice"`
	Product     uint      `json:"product"      example:"5"`
	ProductName string    `json:"product_name" example:"Print A3"`
	Quantity    int       `json:"quantity"     example:"2"`
	TotalPrice  *string   `json:"total_price"  example:"70.00"`
	Status      string    `json:"status"       example:"pending"`
	CreatedAt   time.Time `json:"created_at"`
}

func orderView(o *domain.Order) OrderView {
	v := OrderView{
		ID:        o.ID,
		Client:    o.ClientID,
		Product:   o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
	if o.TotalPrice.Valid {
		s := money(o.TotalPrice.Decimal)
		v.TotalPrice = &s
	}
	if o.Client != nil {
		v.ClientName = o.Client.Username
	}
	if o.Product != nil {
		v.ProductName = o.Product.Name
	}
	return v
}

func orderViews(in []domain.Order) []OrderView {
	out := make([]OrderView, 0, len(in))
	for i := range in {
		out = append(out, orderView(&in[i]))
	}
	return out
}
