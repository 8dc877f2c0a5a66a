package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/eventhive-services/common/authz"
	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/common/metrics"
	"github.com/eventhive-services/common/ticket"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository"
)

// CheckInUseCase admits a confirmed booking at the gate exactly once.
// It never touches inventory or promo counters.
type CheckInUseCase struct {
	store   repository.Store
	catalog Catalog
	signer  *ticket.Signer
	log     *logger.Logger
}

// NewCheckInUseCase creates a new check-in use case
func NewCheckInUseCase(store repository.Store, cat Catalog, signer *ticket.Signer) *CheckInUseCase {
	return &CheckInUseCase{
		store:   store,
		catalog: cat,
		signer:  signer,
		log:     logger.Default().With("component", "checkin"),
	}
}

// CheckIn checks a booking in by its id.
func (uc *CheckInUseCase) CheckIn(ctx context.Context, p authz.Principal, bookingID string) (*models.CheckInResult, error) {
	return uc.checkIn(ctx, p, strings.TrimSpace(bookingID), 0)
}

// CheckInByToken checks in the booking a scanned token is bound to.
func (uc *CheckInUseCase) CheckInByToken(ctx context.Context, p authz.Principal, token string) (*models.CheckInResult, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated("Login required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.MissingField("token")
	}
	claims, err := uc.signer.Verify(token)
	if err != nil {
		metrics.CheckIn("invalid_token")
		return nil, apperrors.InvalidInput("token", "Check-in token is not valid").WithCause(err)
	}
	return uc.checkIn(ctx, p, claims.BookingID, claims.EventID)
}

// checkIn runs lookup, authorization and the confirmed -> checked_in CAS.
// tokenEventID is 0 when no token is involved.
func (uc *CheckInUseCase) checkIn(ctx context.Context, p authz.Principal, bookingID string, tokenEventID int64) (*models.CheckInResult, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated("Login required")
	}

	b, err := uc.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if b == nil {
		metrics.CheckIn("not_found")
		return nil, apperrors.BookingNotFound()
	}

	event, err := uc.catalog.GetEvent(ctx, b.EventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if event == nil || !authz.CanCheckIn(p, event.OrganizerID) {
		metrics.CheckIn("denied")
		return nil, apperrors.NotAuthorized("Only the event organizer or an admin can check in attendees")
	}

	if tokenEventID != 0 && tokenEventID != b.EventID {
		metrics.CheckIn("token_mismatch")
		return nil, apperrors.TokenMismatch()
	}

	result, err := uc.transition(ctx, b)
	if err != nil {
		return nil, err
	}

	action := "checked_in"
	if result.AlreadyCheckedIn {
		action = "already_checked_in"
	}
	uc.log.WithContext(ctx).LogEvent(logger.EventLog{
		Event:    "checkin",
		UserID:   p.UserID,
		Entity:   "booking",
		EntityID: b.BookingID,
		Action:   action,
		Success:  true,
		Metadata: map[string]interface{}{"event_id": b.EventID},
	})
	return result, nil
}

func (uc *CheckInUseCase) transition(ctx context.Context, b *models.Booking) (*models.CheckInResult, error) {
	switch b.BookingStatus {
	case models.BookingCheckedIn:
		metrics.CheckIn("already_checked_in")
		return checkInResult(b, true), nil
	case models.BookingCancelled:
		metrics.CheckIn("cancelled")
		return nil, apperrors.InvalidState("Booking has been cancelled")
	}

	ok, err := uc.store.MarkCheckedIn(ctx, b.BookingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if ok {
		metrics.CheckIn("checked_in")
		current, err := uc.store.GetBooking(ctx, b.BookingID)
		if err != nil || current == nil {
			now := time.Now().UTC()
			b.BookingStatus = models.BookingCheckedIn
			b.CheckedInAt = &now
			return checkInResult(b, false), nil
		}
		return checkInResult(current, false), nil
	}

	// Lost the CAS: someone else moved the booking first.
	current, err := uc.store.GetBooking(ctx, b.BookingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if current != nil && current.BookingStatus == models.BookingCheckedIn {
		metrics.CheckIn("already_checked_in")
		return checkInResult(current, true), nil
	}
	metrics.CheckIn("cancelled")
	return nil, apperrors.InvalidState("Booking is no longer valid for check-in")
}

func checkInResult(b *models.Booking, already bool) *models.CheckInResult {
	r := &models.CheckInResult{
		BookingID:        b.BookingID,
		EventID:          b.EventID,
		AttendeeName:     b.AttendeeName,
		Quantity:         b.Quantity,
		AlreadyCheckedIn: already,
		Message:          "Check-in successful",
	}
	if already {
		r.Message = "Booking was already checked in"
	}
	if b.CheckedInAt != nil {
		r.CheckedInAt = *b.CheckedInAt
	}
	return r
}
