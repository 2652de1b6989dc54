package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// Contract signing parties.
const (
	PartyClient   = "client"
	PartyCreative = "creative"
)

// ErrUnknownParty is returned by SignContract for a party other than
// PartyClient or PartyCreative.
var ErrUnknownParty = errors.New("unknown signing party")

// GetContractByBooking returns the contract of a booking, or ErrNotFound.
func GetContractByBooking(ctx context.Context, db *gorm.DB, bookingID uint) (*domain.Contract, error) {
	var c domain.Contract
	if err := db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContract loads a contract by id, or ErrNotFound.
func GetContract(ctx context.Context, db *gorm.DB, id uint) (*domain.Contract, error) {
	var c domain.Contract
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContract inserts c. A second contract for the same booking is
// reported as ErrDuplicate.
func CreateContract(ctx context.Context, db *gorm.DB, c *domain.Contract) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// SignContract records the signature of one party at the given time and
// leaves the other party's fields untouched. party must be PartyClient or
// PartyCreative. Returns ErrNotFound if the contract does not exist.
func SignContract(ctx context.Context, db *gorm.DB, id uint, party string, at time.Time) error {
	var cols map[string]any
	switch party {
	case PartyClient:
		cols = map[string]any{"is_client_signed": true, "client_signed_at": at}
	case PartyCreative:
		cols = map[string]any{"is_creative_signed": true, "creative_signed_at": at}
	default:
		return ErrUnknownParty
	}
	res := db.WithContext(ctx).Model(&domain.Contract{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
