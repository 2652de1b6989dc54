package services

import "github.com/tbourn/go-creative-marketplace/internal/domain"

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// Is reports whether the actor is userID or an admin.
func (a Actor) Is(userID uint) bool { return a.IsAdmin() || (a.UserID != 0 && a.UserID == userID) }

// bookingParty reports whether a may act on booking b: its client, the user
// owning the booked creative profile, or an admin. The Creative association
// must be loaded.
func (a Actor) bookingParty(b *domain.Booking) bool {
	if a.IsAdmin() {
		return true
	}
	if a.UserID == 0 {
		return false
	}
	if b.ClientID == a.UserID {
		return true
	}
	return b.Creative != nil && b.Creative.UserID == a.UserID
}
