package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// DefaultStock is the stock of a product created without one.
const DefaultStock = 1

// ProductInput carries the writable fields of a product. Nil fields are
// left unchanged on partial updates.
type ProductInput struct {
	CreativeID  *uint
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Image       *string
}

// OrderInput carries the writable fields of an order.
type OrderInput struct {
	ClientID   *uint
	ProductID  *uint
	Quantity   *int
	TotalPrice *decimal.Decimal
	Status     *string
}

// CommerceService manages products and the orders placed for them.
type CommerceService struct {
	DB *gorm.DB
}

// ownsProfile reports whether actor may manage the goods of profile id.
func (s *CommerceService) ownsProfile(ctx context.Context, actor Actor, profileID uint) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	owner, err := repo.GetProfileOwner(ctx, s.DB, profileID)
	if err != nil {
		return false, err
	}
	return actor.Is(owner), nil
}

// Products lists products, optionally of one profile and narrowed by name.
func (s *CommerceService) Products(ctx context.Context, creativeID uint, search string) ([]domain.Product, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "Products", trace.WithAttributes(attribute.Int64("profile.id", int64(creativeID))))
	defer span.End()

	return repo.ListProducts(ctx, s.DB, creativeID, search)
}

// Product returns one product.
func (s *CommerceService) Product(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *CommerceService) applyProduct(ctx context.Context, actor Actor, p *domain.Product, in ProductInput, full bool) error {
	fe := fieldErrors{}
	if full {
		if in.CreativeID == nil {
			fe.add("creative", "This field is required.")
		}
		if in.Name == nil {
			fe.add("name", "This field is required.")
		}
		if in.Description == nil {
			fe.add("description", "This field is required.")
		}
		if in.Price == nil {
			fe.add("price", "This field is required.")
		}
	}
	if in.CreativeID != nil && *in.CreativeID != p.CreativeID {
		ok, err := s.ownsProfile(ctx, actor, *in.CreativeID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			fe.add("creative", "Invalid pk - object does not exist.")
		case err != nil:
			return err
		case !ok:
			return ErrForbidden
		default:
			p.CreativeID = *in.CreativeID
		}
	}
	if in.Name != nil {
		p.Name = checkRequired(fe, "name", *in.Name)
		checkMaxLen(fe, "name", p.Name, 200)
	}
	if in.Description != nil {
		p.Description = checkRequired(fe, "description", *in.Description)
	}
	if in.Price != nil {
		checkMoney(fe, "price", *in.Price, 10)
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			fe.add("stock", "Ensure this value is greater than or equal to 0.")
		}
		p.Stock = *in.Stock
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
		checkMaxLen(fe, "image", p.Image, 255)
	}
	return fe.err()
}

// CreateProduct adds a product to a profile owned by the actor.
func (s *CommerceService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*domain.Product, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "CreateProduct")
	defer span.End()

	p := &domain.Product{Stock: DefaultStock}
	if err := s.applyProduct(ctx, actor, p, in, true); err != nil {
		return nil, err
	}
	if err := repo.CreateProduct(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct modifies a product of the actor. full selects PUT semantics.
func (s *CommerceService) UpdateProduct(ctx context.Context, actor Actor, id uint, in ProductInput, full bool) (*domain.Product, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "UpdateProduct", trace.WithAttributes(attribute.Int64("product.id", int64(id))))
	defer span.End()

	p, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok, err := s.ownsProfile(ctx, actor, p.CreativeID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrForbidden
	}
	if err := s.applyProduct(ctx, actor, p, in, full); err != nil {
		return nil, err
	}
	if err := repo.SaveProduct(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product of the actor together with its orders.
func (s *CommerceService) DeleteProduct(ctx context.Context, actor Actor, id uint) error {
	p, err := s.Product(ctx, id)
	if err != nil {
		return err
	}
	if ok, err := s.ownsProfile(ctx, actor, p.CreativeID); err != nil {
		return err
	} else if !ok {
		return ErrForbidden
	}
	if err := repo.DeleteProduct(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

// orderParty reports whether actor may see or change o: its client, the
// owner of the ordered product, or an admin.
func (s *CommerceService) orderParty(ctx context.Context, actor Actor, o *domain.Order) (bool, error) {
	if actor.Is(o.ClientID) {
		return true, nil
	}
	if o.Product == nil {
		return false, nil
	}
	ok, err := s.ownsProfile(ctx, actor, o.Product.CreativeID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

func (s *CommerceService) applyOrder(ctx context.Context, actor Actor, o *domain.Order, in OrderInput, full bool) (*domain.Product, error) {
	fe := fieldErrors{}
	if full {
		if in.ClientID == nil {
			fe.add("client", "This field is required.")
		}
		if in.ProductID == nil {
			fe.add("product", "This field is required.")
		}
	}
	if in.ClientID != nil && *in.ClientID != o.ClientID {
		switch ok, err := repo.UserExists(ctx, s.DB, *in.ClientID); {
		case err != nil:
			return nil, err
		case !ok:
			fe.add("client", "Invalid pk - object does not exist.")
		case !actor.Is(*in.ClientID):
			return nil, ErrForbidden
		default:
			o.ClientID = *in.ClientID
		}
	}
	var product *domain.Product
	if in.ProductID != nil {
		p, err := repo.GetProduct(ctx, s.DB, *in.ProductID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			fe.add("product", "Invalid pk - object does not exist.")
		case err != nil:
			return nil, err
		default:
			product = p
			o.ProductID = p.ID
		}
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			fe.add("quantity", "Ensure this value is greater than or equal to 1.")
		}
		o.Quantity = *in.Quantity
	}
	if in.TotalPrice != nil {
		checkMoney(fe, "total_price", *in.TotalPrice, 10)
		o.TotalPrice = decimal.NewNullDecimal(*in.TotalPrice)
	}
	if in.Status != nil {
		if domain.ValidOrderStatus(*in.Status) {
			o.Status = *in.Status
		} else {
			fe.add("status", "\""+*in.Status+"\" is not a valid choice.")
		}
	}
	return product, fe.err()
}

// CreateOrder places an order. The client defaults to the actor; quantity to
// 1; status to pending. When no total is given it is computed as the
// product's current price times the quantity and never recomputed later.
func (s *CommerceService) CreateOrder(ctx context.Context, actor Actor, in OrderInput) (*domain.Order, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "CreateOrder")
	defer span.End()

	if in.ClientID == nil && actor.UserID != 0 {
		id := actor.UserID
		in.ClientID = &id
	}
	o := &domain.Order{Quantity: 1, Status: domain.OrderPending}
	product, err := s.applyOrder(ctx, actor, o, in, true)
	if err != nil {
		return nil, err
	}
	if !o.TotalPrice.Valid {
		o.TotalPrice = decimal.NewNullDecimal(product.Price.Mul(decimal.NewFromInt(int64(o.Quantity))))
	}
	if err := repo.CreateOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	observability.OrdersCreated.Inc()
	return s.loadOrder(ctx, o.ID)
}

func (s *CommerceService) loadOrder(ctx context.Context, id uint) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// Orders lists orders newest first. Non-admin actors are confined to orders
// they placed or that target their products.
func (s *CommerceService) Orders(ctx context.Context, actor Actor, f repo.OrderFilter) ([]domain.Order, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "Orders", trace.WithAttributes(
		attribute.Int64("client.id", int64(f.ClientID)),
		attribute.Int64("creative_user.id", int64(f.CreativeUserID)),
	))
	defer span.End()

	if !actor.IsAdmin() {
		if f.ClientID == 0 && f.CreativeUserID == 0 {
			if actor.Role == domain.RoleCreative {
				f.CreativeUserID = actor.UserID
			} else {
				f.ClientID = actor.UserID
			}
		}
		if (f.ClientID != 0 && f.ClientID != actor.UserID && f.CreativeUserID != actor.UserID) ||
			(f.CreativeUserID != 0 && f.CreativeUserID != actor.UserID && f.ClientID != actor.UserID) {
			return nil, ErrForbidden
		}
	}
	return repo.ListOrders(ctx, s.DB, f)
}

// Order returns one order visible to the actor.
func (s *CommerceService) Order(ctx context.Context, actor Actor, id uint) (*domain.Order, error) {
	o, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok, err := s.orderParty(ctx, actor, o); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrForbidden
	}
	return o, nil
}

// UpdateOrder modifies an order. The stored total is kept unless a new one
// is supplied explicitly.
func (s *CommerceService) UpdateOrder(ctx context.Context, actor Actor, id uint, in OrderInput, full bool) (*domain.Order, error) {
	tr := otel.Tracer("services/CommerceService")
	ctx, span := tr.Start(ctx, "UpdateOrder", trace.WithAttributes(attribute.Int64("order.id", int64(id))))
	defer span.End()

	o, err := s.Order(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyOrder(ctx, actor, o, in, full); err != nil {
		return nil, err
	}
	if err := repo.SaveOrder(ctx, s.DB, o); err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, id)
}

// DeleteOrder removes an order visible to the actor.
func (s *CommerceService) DeleteOrder(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.Order(ctx, actor, id); err != nil {
		return err
	}
	if err := repo.DeleteOrder(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}
