package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Booking Models - reservation, promo redemption, check-in
// ============================================================

// Payment statuses
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Booking statuses
const (
	BookingConfirmed = "confirmed"
	BookingCheckedIn = "checked_in"
	BookingCancelled = "cancelled"
)

// MaxTotalAmount is the largest amount bookings.total_amount DECIMAL(10,2) holds.
var MaxTotalAmount = decimal.RequireFromString("99999999.99")

// Booking is a committed purchase of Quantity tickets of one ticket type.
// TotalAmount is a snapshot taken at booking time.
type Booking struct {
	ID            int64           `json:"-" db:"id"`
	BookingID     string          `json:"bookingId" db:"booking_id"`
	UserID        int64           `json:"userId" db:"user_id"`
	EventID       int64           `json:"eventId" db:"event_id"`
	TicketTypeID  int64           `json:"ticketTypeId" db:"ticket_type_id"`
	Quantity      int             `json:"quantity" db:"quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount" db:"total_amount"`
	AttendeeName  string          `json:"attendeeName" db:"attendee_name"`
	AttendeeEmail string          `json:"attendeeEmail" db:"attendee_email"`
	AttendeePhone *string         `json:"attendeePhone,omitempty" db:"attendee_phone"`
	PromoCode     *string         `json:"promoCode,omitempty" db:"promo_code"`
	PaymentStatus string          `json:"paymentStatus" db:"payment_status"`
	BookingStatus string          `json:"bookingStatus" db:"booking_status"`
	CheckInToken  string          `json:"-" db:"check_in_token"`
	CheckedInAt   *time.Time      `json:"checkedInAt,omitempty" db:"checked_in_at"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// PromoCode is a discount voucher, optionally scoped to one event.
// Exactly one of DiscountPercent and DiscountAmount is set.
type PromoCode struct {
	ID              int64           `json:"id" db:"id"`
	EventID         *int64          `json:"eventId,omitempty" db:"event_id"`
	Code            string          `json:"code" db:"code"`
	DiscountPercent int             `json:"discountPercent" db:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	MaxUses         int             `json:"maxUses" db:"max_uses"`
	UsedCount       int             `json:"usedCount" db:"used_count"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty" db:"valid_until"`
	IsActive        bool            `json:"isActive" db:"is_active"`
}

// Validate enforces the write-time rules for a promo code.
func (p *PromoCode) Validate() error {
	if p.Code == "" {
		return errors.New("promo code must not be empty")
	}
	hasPercent := p.DiscountPercent != 0
	hasAmount := !p.DiscountAmount.IsZero()
	if hasPercent == hasAmount {
		return errors.New("exactly one of discount percent and discount amount must be set")
	}
	if hasPercent && (p.DiscountPercent < 1 || p.DiscountPercent > 100) {
		return errors.New("discount percent must be between 1 and 100")
	}
	if hasAmount && p.DiscountAmount.IsNegative() {
		return errors.New("discount amount must be positive")
	}
	if p.MaxUses < 1 {
		return errors.New("max uses must be at least 1")
	}
	if p.UsedCount < 0 || p.UsedCount > p.MaxUses {
		return errors.New("used count must be between 0 and max uses")
	}
	return nil
}

// ============================================================
// Promotion ledger results
// ============================================================

// PromoOutcome distinguishes "no code" from "code rejected" from "applied".
type PromoOutcome string

const (
	PromoNone    PromoOutcome = "none"
	PromoInvalid PromoOutcome = "invalid"
	PromoApplied PromoOutcome = "applied"
)

// Reasons a promo code was rejected.
const (
	PromoReasonNotFound   = "not_found"
	PromoReasonInactive   = "inactive"
	PromoReasonExhausted  = "exhausted"
	PromoReasonExpired    = "expired"
	PromoReasonWrongEvent = "wrong_event"
	PromoReasonNoDiscount = "no_discount"
)

// PromoResult is what the ledger decided. A rejected code never fails the
// booking; FinalAmount is then the undiscounted amount.
type PromoResult struct {
	Outcome     PromoOutcome    `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Code        string          `json:"code,omitempty"`
	Discount    decimal.Decimal `json:"discount"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
}

// ============================================================
// Requests / responses
// ============================================================

// CreateBookingRequest - body of POST /api/bookings
type CreateBookingRequest struct {
	EventID       int64   `json:"eventId"`
	TicketTypeID  int64   `json:"ticketTypeId"`
	Quantity      int     `json:"quantity"`
	AttendeeName  string  `json:"attendeeName"`
	AttendeeEmail string  `json:"attendeeEmail"`
	AttendeePhone *string `json:"attendeePhone,omitempty"`
	PromoCode     *string `json:"promoCode,omitempty"`
}

// CreateBookingResult - response of POST /api/bookings
type CreateBookingResult struct {
	BookingID    string          `json:"bookingId"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CheckInToken string          `json:"checkInToken"`
	QRCode       string          `json:"qrCode"`
	EventTitle   string          `json:"eventTitle"`
	Promo        *PromoResult    `json:"promo,omitempty"`
	// Replayed is set when an Idempotency-Key matched an earlier booking.
	Replayed bool `json:"replayed,omitempty"`
}

// BookingDetail - response of GET /api/bookings/{id}
type BookingDetail struct {
	Booking
	EventTitle     string    `json:"eventTitle"`
	EventStart     time.Time `json:"eventStart"`
	Location       string    `json:"location"`
	TicketTypeName string    `json:"ticketTypeName"`
	CheckInToken   string    `json:"checkInToken"`
	QRCode         string    `json:"qrCode,omitempty"`
}

// BookingSummary - one row of GET /api/bookings/my-bookings
type BookingSummary struct {
	BookingID      string          `json:"bookingId"`
	EventID        int64           `json:"eventId"`
	EventTitle     string          `json:"eventTitle"`
	EventStart     time.Time       `json:"eventStart"`
	TicketTypeName string          `json:"ticketTypeName"`
	Quantity       int             `json:"quantity"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	BookingStatus  string          `json:"bookingStatus"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// CheckInByTokenRequest - body of POST /api/bookings/check-in
type CheckInByTokenRequest struct {
	Token string `json:"token"`
}

// CheckInResult - response of both check-in endpoints
type CheckInResult struct {
	BookingID        string    `json:"bookingId"`
	EventID          int64     `json:"eventId"`
	AttendeeName     string    `json:"attendeeName"`
	Quantity         int       `json:"quantity"`
	CheckedInAt      time.Time `json:"checkedInAt"`
	AlreadyCheckedIn bool      `json:"alreadyCheckedIn"`
	Message          string    `json:"message"`
}
