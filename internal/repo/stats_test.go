package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

func TestChatMessagesStats_Error_NoTable(t *testing.T) {
	db := newBareDB(t)
	if _, _, err := ChatMessagesStats(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error due to missing chat_messages table")
	}
}

func TestChatMessagesStats_ZeroRows(t *testing.T) {
	db := newTestDB(t)
	n, latest, err := ChatMessagesStats(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("ChatMessagesStats error: %v", err)
	}
	if n != 0 || latest != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, latest)
	}
}

func TestChatMessagesStats_FilterAndMax(t *testing.T) {
	db := newTestDB(t)
	client := mkUser(t, db, "client", domain.RoleClient)
	creator := mkUser(t, db, "creator", domain.RoleCreative)
	_, subs := mkIndustry(t, db, "Media", "Photographer")
	p := mkProfile(t, db, creator.ID, subs[0].ID, true)
	b1 := mkBooking(t, db, client.ID, p.ID, nil, time.Now().UTC())
	b2 := mkBooking(t, db, client.ID, p.ID, nil, time.Now().UTC())

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, m := range []domain.ChatMessage{
		{BookingID: b1.ID, SenderID: client.ID, Message: "a", CreatedAt: t1},
		{BookingID: b1.ID, SenderID: creator.ID, Message: "b", CreatedAt: t2},
		{BookingID: b2.ID, SenderID: client.ID, Message: "c", CreatedAt: t3},
	} {
		m := m
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	n, latest, err := ChatMessagesStats(context.Background(), db, b1.ID)
	if err != nil {
		t.Fatalf("ChatMessagesStats: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 messages, got %d", n)
	}
	if latest == nil || !latest.Equal(t2) {
		t.Fatalf("expected latest=%v, got %v", t2, latest)
	}
}
