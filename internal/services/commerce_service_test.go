package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

func mkShopProduct(t *testing.T, svc *CommerceService, m marketplace, price string) *domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), actorOf(m.creative), ProductInput{
		CreativeID:  ptr(m.profile.ID),
		Name:        ptr("Print A3"),
		Description: ptr("Signed fine-art print"),
		Price:       ptr(dec(price)),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}

func TestProducts_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := &CommerceService{DB: db}
	m := newMarketplace(t, db)

	p := mkShopProduct(t, svc, m, "40.00")
	if p.Stock != DefaultStock {
		t.Fatalf("stock default = %d", p.Stock)
	}

	if _, err := svc.CreateProduct(ctx, actorOf(m.client), ProductInput{
		CreativeID: ptr(m.profile.ID), Name: ptr("x"), Description: ptr("x"), Price: ptr(dec("1")),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner create: %v", err)
	}
	_, err := svc.CreateProduct(ctx, actorOf(m.creative), ProductInput{CreativeID: ptr(m.profile.ID), Price: ptr(dec("-3")), Stock: ptr(-1)})
	fieldError(t, err, "name")
	fieldError(t, err, "price")
	fieldError(t, err, "stock")

	list, err := svc.Products(ctx, m.profile.ID, "print")
	if err != nil || len(list) != 1 {
		t.Fatalf("Products = %d, %v", len(list), err)
	}
	if none, _ := svc.Products(ctx, 0, "mug"); len(none) != 0 {
		t.Fatalf("search mismatch returned %d", len(none))
	}

	upd, err := svc.UpdateProduct(ctx, actorOf(m.creative), p.ID, ProductInput{Stock: ptr(7)}, false)
	if err != nil || upd.Stock != 7 || upd.Name != "Print A3" {
		t.Fatalf("partial update = %+v, %v", upd, err)
	}
	if _, err := svc.UpdateProduct(ctx, actorOf(m.creative), p.ID, ProductInput{Stock: ptr(1)}, true); fieldError(t, err, "price") == "" {
		t.Fatalf("full update without price accepted")
	}
	if _, err := svc.UpdateProduct(ctx, actorOf(m.other), p.ID, ProductInput{Stock: ptr(1)}, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner update: %v", err)
	}

	if err := svc.DeleteProduct(ctx, actorOf(m.other), p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner delete: %v", err)
	}
	if err := svc.DeleteProduct(ctx, actorOf(m.creative), p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.Product(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("deleted product: %v", err)
	}
}

func TestCreateOrder_TotalAndDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := &CommerceService{DB: db}
	m := newMarketplace(t, db)
	p := mkShopProduct(t, svc, m, "12.50")
	before := testutil.ToFloat64(observability.OrdersCreated)

	o, err := svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(p.ID), Quantity: ptr(3)})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ClientID != m.client.ID || o.Status != domain.OrderPending || o.Quantity != 3 {
		t.Fatalf("unexpected order %+v", o)
	}
	if !o.TotalPrice.Valid || o.TotalPrice.Decimal.StringFixed(2) != "37.50" {
		t.Fatalf("total = %v", o.TotalPrice)
	}
	if got := testutil.ToFloat64(observability.OrdersCreated); got != before+1 {
		t.Fatalf("orders counter = %v", got)
	}

	one, err := svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(p.ID)})
	if err != nil || one.Quantity != 1 || one.TotalPrice.Decimal.StringFixed(2) != "12.50" {
		t.Fatalf("default quantity order = %+v, %v", one, err)
	}

	explicit, err := svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(p.ID), Quantity: ptr(2), TotalPrice: ptr(dec("20.00"))})
	if err != nil || explicit.TotalPrice.Decimal.StringFixed(2) != "20.00" {
		t.Fatalf("explicit total = %+v, %v", explicit, err)
	}

	_, err = svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(uint(4242)), Quantity: ptr(0)})
	fieldError(t, err, "product")
	fieldError(t, err, "quantity")
}

func TestUpdateOrder_KeepsTotal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := &CommerceService{DB: db}
	m := newMarketplace(t, db)
	p := mkShopProduct(t, svc, m, "10.00")

	o, err := svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(p.ID), Quantity: ptr(2)})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.UpdateProduct(ctx, actorOf(m.creative), p.ID, ProductInput{Price: ptr(dec("99.00"))}, false); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	upd, err := svc.UpdateOrder(ctx, actorOf(m.creative), o.ID, OrderInput{Quantity: ptr(5), Status: ptr(domain.OrderShipped)}, false)
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if upd.Quantity != 5 || upd.Status != domain.OrderShipped || upd.TotalPrice.Decimal.StringFixed(2) != "20.00" {
		t.Fatalf("total must not be recomputed: %+v", upd)
	}

	if _, err := svc.UpdateOrder(ctx, actorOf(m.client), o.ID, OrderInput{Status: ptr("lost")}, false); fieldError(t, err, "status") == "" {
		t.Fatalf("bad status accepted")
	}
	if _, err := svc.Order(ctx, actorOf(m.other), o.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider Order: %v", err)
	}
	if err := svc.DeleteOrder(ctx, actorOf(m.client), o.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := svc.Order(ctx, admin, o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("deleted order: %v", err)
	}
}

func TestOrders_Scoping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := &CommerceService{DB: db}
	m := newMarketplace(t, db)
	p := mkShopProduct(t, svc, m, "5.00")

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateOrder(ctx, actorOf(m.client), OrderInput{ProductID: ptr(p.ID)}); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	if _, err := svc.CreateOrder(ctx, actorOf(m.other), OrderInput{ProductID: ptr(p.ID)}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	mine, err := svc.Orders(ctx, actorOf(m.client), repo.OrderFilter{})
	if err != nil || len(mine) != 2 {
		t.Fatalf("client orders = %d, %v", len(mine), err)
	}
	sold, err := svc.Orders(ctx, actorOf(m.creative), repo.OrderFilter{})
	if err != nil || len(sold) != 3 {
		t.Fatalf("creative orders = %d, %v", len(sold), err)
	}
	if _, err := svc.Orders(ctx, actorOf(m.other), repo.OrderFilter{ClientID: m.client.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign orders: %v", err)
	}
	if all, _ := svc.Orders(ctx, admin, repo.OrderFilter{}); len(all) != 3 {
		t.Fatalf("admin orders = %d", len(all))
	}
}
