package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChatService_PostAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewChatService(db, pub)
	m := newMarketplace(t, db)
	b := mkBooking(t, db, m)

	first, err := svc.Post(ctx, actorOf(m.client), b.ID, "  hello  ")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if first.Message != "hello" || first.SenderID != m.client.ID || first.Sender == nil {
		t.Fatalf("unexpected message %+v", first)
	}
	if _, err := svc.Post(ctx, actorOf(m.creative), b.ID, "hi back"); err != nil {
		t.Fatalf("creative Post: %v", err)
	}

	msgs, err := svc.List(ctx, actorOf(m.creative), b.ID)
	if err != nil || len(msgs) != 2 || msgs[0].Message != "hello" || msgs[1].Message != "hi back" {
		t.Fatalf("List = %+v, %v", msgs, err)
	}

	n, latest, err := svc.Stats(ctx, actorOf(m.client), b.ID)
	if err != nil || n != 2 || latest == nil {
		t.Fatalf("Stats = %d, %v, %v", n, latest, err)
	}
	if _, _, err := svc.Stats(ctx, actorOf(m.other), b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider Stats: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events", len(pub.events))
	}
	ev := pub.events[0]
	if ev.BookingID != b.ID || ev.SenderName != "alice" || ev.Message != "hello" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestChatService_Rules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewChatService(db, nil)
	m := newMarketplace(t, db)
	b := mkBooking(t, db, m)

	if _, err := svc.Post(ctx, actorOf(m.client), b.ID, " \n "); fieldError(t, err, "message") != "This field may not be blank." {
		t.Fatalf("blank message: %v", err)
	}
	if _, err := svc.Post(ctx, actorOf(m.client), b.ID, strings.Repeat("é", svc.MaxRunes+1)); fieldError(t, err, "message") == "" {
		t.Fatalf("overlong message accepted")
	}
	if _, err := svc.Post(ctx, actorOf(m.other), b.ID, "let me in"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider Post: %v", err)
	}
	if _, err := svc.List(ctx, actorOf(m.other), b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider List: %v", err)
	}
	if _, err := svc.Post(ctx, actorOf(m.client), 4242, "x"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("missing booking: %v", err)
	}
	if _, err := svc.List(ctx, admin, b.ID); err != nil {
		t.Fatalf("admin List: %v", err)
	}
}

func TestChatService_PublishFailureIsIgnored(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("redis down")}
	svc := NewChatService(db, pub)
	m := newMarketplace(t, db)
	b := mkBooking(t, db, m)

	if _, err := svc.Post(ctx, actorOf(m.client), b.ID, "still stored"); err != nil {
		t.Fatalf("Post with failing publisher: %v", err)
	}
	msgs, _ := svc.List(ctx, actorOf(m.client), b.ID)
	if len(msgs) != 1 {
		t.Fatalf("message not stored")
	}
}
