package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

func TestListOrders_FiltersAndNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, subs := mkIndustry(t, db, "Craft", "Potter")
	c1 := mkUser(t, db, "c1", domain.RoleClient)
	c2 := mkUser(t, db, "c2", domain.RoleClient)
	s1 := mkUser(t, db, "s1", domain.RoleCreative)
	s2 := mkUser(t, db, "s2", domain.RoleCreative)
	p1 := mkProfile(t, db, s1.ID, subs[0].ID, true)
	p2 := mkProfile(t, db, s2.ID, subs[0].ID, true)
	vase := mkProduct(t, db, p1.ID, "Vase", "30.00")
	bowl := mkProduct(t, db, p2.ID, "Bowl", "12.50")

	now := time.Now()
	mk := func(client, product uint, at time.Time) *domain.Order {
		o := &domain.Order{ClientID: client, ProductID: product, Quantity: 1, Status: domain.OrderPending, CreatedAt: at}
		if err := CreateOrder(ctx, db, o); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		return o
	}
	o1 := mk(c1.ID, vase.ID, now.Add(-3*time.Hour))
	o2 := mk(c1.ID, bowl.ID, now.Add(-2*time.Hour))
	o3 := mk(c2.ID, vase.ID, now.Add(-1*time.Hour))

	all, err := ListOrders(ctx, db, OrderFilter{})
	if err != nil || len(all) != 3 || all[0].ID != o3.ID {
		t.Fatalf("list all: %+v err=%v", all, err)
	}
	if all[0].Client == nil || all[0].Product == nil || all[0].Product.Name != "Vase" {
		t.Fatalf("associations not loaded: %+v", all[0])
	}

	byClient, _ := ListOrders(ctx, db, OrderFilter{ClientID: c1.ID})
	if len(byClient) != 2 || byClient[0].ID != o2.ID || byClient[1].ID != o1.ID {
		t.Fatalf("client filter: %+v", byClient)
	}

	bySeller, _ := ListOrders(ctx, db, OrderFilter{CreativeUserID: s1.ID})
	if len(bySeller) != 2 || bySeller[0].ID != o3.ID || bySeller[1].ID != o1.ID {
		t.Fatalf("creative filter: %+v", bySeller)
	}
}

func TestSaveOrder_KeepsTotalAndDeleteOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, subs := mkIndustry(t, db, "Craft", "Potter")
	c := mkUser(t, db, "c", domain.RoleClient)
	s := mkUser(t, db, "s", domain.RoleCreative)
	p := mkProfile(t, db, s.ID, subs[0].ID, true)
	prod := mkProduct(t, db, p.ID, "Vase", "30.00")

	o := &domain.Order{
		ClientID: c.ID, ProductID: prod.ID, Quantity: 2, Status: domain.OrderPending,
		TotalPrice: decimal.NewNullDecimal(decimal.RequireFromString("60.00")),
	}
	if err := CreateOrder(ctx, db, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	o.Status = domain.OrderShipped
	if err := SaveOrder(ctx, db, o); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	got, err := GetOrder(ctx, db, o.ID)
	if err != nil || got.Status != domain.OrderShipped || !got.TotalPrice.Valid || !got.TotalPrice.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("readback: %+v err=%v", got, err)
	}

	if err := DeleteOrder(ctx, db, o.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if err := DeleteOrder(ctx, db, o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProducts_ListSearchSaveDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, subs := mkIndustry(t, db, "Craft", "Potter")
	c := mkUser(t, db, "c", domain.RoleClient)
	s1 := mkUser(t, db, "s1", domain.RoleCreative)
	s2 := mkUser(t, db, "s2", domain.RoleCreative)
	p1 := mkProfile(t, db, s1.ID, subs[0].ID, true)
	p2 := mkProfile(t, db, s2.ID, subs[0].ID, true)
	vase := mkProduct(t, db, p1.ID, "Blue Vase", "30")
	mkProduct(t, db, p1.ID, "Mug", "8")
	mkProduct(t, db, p2.ID, "Red Vase", "25")

	got, err := ListProducts(ctx, db, p1.ID, "")
	if err != nil || len(got) != 2 {
		t.Fatalf("creative filter: %d err=%v", len(got), err)
	}
	got, _ = ListProducts(ctx, db, 0, "vase")
	if len(got) != 2 {
		t.Fatalf("search: %+v", got)
	}
	got, _ = ListProducts(ctx, db, p2.ID, "vase")
	if len(got) != 1 || got[0].Name != "Red Vase" {
		t.Fatalf("filter+search: %+v", got)
	}

	vase.Stock = 0
	vase.Price = decimal.RequireFromString("35.50")
	if err := SaveProduct(ctx, db, vase); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	re, _ := GetProduct(ctx, db, vase.ID)
	if re.Stock != 0 || !re.Price.Equal(decimal.RequireFromString("35.5")) {
		t.Fatalf("readback: %+v", re)
	}

	if err := CreateOrder(ctx, db, &domain.Order{ClientID: c.ID, ProductID: vase.ID, Quantity: 1, Status: domain.OrderPending}); err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := DeleteProduct(ctx, db, vase.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if n := count(t, db, &domain.Order{}); n != 0 {
		t.Fatalf("orders of deleted product left: %d", n)
	}
	if err := DeleteProduct(ctx, db, vase.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
