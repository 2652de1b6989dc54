package services

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestIdempotencyService_RememberAndLookup(t *testing.T) {
	db := newTestDB(t)
	svc := &IdempotencyService{DB: db, TTL: time.Hour}
	ctx := context.Background()

	if _, ok, err := svc.Lookup(ctx, "1", "/api/v1/bookings", "k1", time.Now().UTC()); err != nil || ok {
		t.Fatalf("lookup before remember: ok=%v err=%v", ok, err)
	}

	if err := svc.Remember(ctx, "1", "/api/v1/bookings", "k1", 42, http.StatusCreated); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	// Second writer for the same tuple is not an error.
	if err := svc.Remember(ctx, "1", "/api/v1/bookings", "k1", 43, http.StatusCreated); err != nil {
		t.Fatalf("Remember duplicate: %v", err)
	}

	id, ok, err := svc.Lookup(ctx, "1", "/api/v1/bookings", "k1", time.Now().UTC())
	if err != nil || !ok || id != 42 {
		t.Fatalf("Lookup = %d, %v, %v; want 42, true", id, ok, err)
	}

	// Scoped per user and per route.
	if _, ok, _ := svc.Lookup(ctx, "2", "/api/v1/bookings", "k1", time.Now().UTC()); ok {
		t.Fatalf("other user must not see the record")
	}
	if _, ok, _ := svc.Lookup(ctx, "1", "/api/v1/orders", "k1", time.Now().UTC()); ok {
		t.Fatalf("other route must not see the record")
	}

	// Past the window.
	if _, ok, _ := svc.Lookup(ctx, "1", "/api/v1/bookings", "k1", time.Now().UTC().Add(2*time.Hour)); ok {
		t.Fatalf("expired record must not replay")
	}
}

func TestIdempotencyService_DefaultTTL(t *testing.T) {
	db := newTestDB(t)
	svc := &IdempotencyService{DB: db}
	ctx := context.Background()

	if err := svc.Remember(ctx, "1", "/api/v1/orders", "k", 7, http.StatusCreated); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if _, ok, _ := svc.Lookup(ctx, "1", "/api/v1/orders", "k", time.Now().UTC().Add(DefaultIdempotencyTTL-time.Minute)); !ok {
		t.Fatalf("expected record inside default window")
	}
	if _, ok, _ := svc.Lookup(ctx, "1", "/api/v1/orders", "k", time.Now().UTC().Add(DefaultIdempotencyTTL+time.Minute)); ok {
		t.Fatalf("expected record to expire after default window")
	}
}
