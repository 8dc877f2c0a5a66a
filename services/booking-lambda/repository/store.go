package repository

import (
	"context"
	"errors"

	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/services/booking-lambda/models"
)

var (
	// ErrConflict means a guarded update matched no row because another
	// transaction got there first. The booking engine retries it.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrDuplicateBookingID means the minted booking id is already taken.
	ErrDuplicateBookingID = errors.New("booking id already exists")
)

// Store is the persistence boundary of the booking engine and check-in gate.
// Lookups return (nil, nil) when the row does not exist.
type Store interface {
	// WithinTx runs fn in one atomic unit. Everything fn does through tx
	// commits together or not at all.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error)

	// MarkCheckedIn moves a confirmed booking to checked_in. It reports false
	// when the booking was not confirmed at the time of the update.
	MarkCheckedIn(ctx context.Context, bookingID string) (bool, error)
}

// Tx is the set of operations that must run inside the booking transaction.
// LockTicketType must be called before LockPromoCode.
type Tx interface {
	LockTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error)
	// ReserveSeats adds quantity to sold_quantity only if capacity allows.
	ReserveSeats(ctx context.Context, ticketTypeID int64, quantity int) (bool, error)

	LockPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	// ConsumePromoCode adds one use only if used_count < max_uses.
	ConsumePromoCode(ctx context.Context, promoID int64) (bool, error)

	// InsertBooking returns ErrDuplicateBookingID on a booking_id collision.
	InsertBooking(ctx context.Context, b *models.Booking) error
}
