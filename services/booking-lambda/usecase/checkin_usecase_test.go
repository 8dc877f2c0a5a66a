package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhive-services/common/authz"
	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/services/booking-lambda/models"
)

func bookOne(t *testing.T, f *fixture) *models.CreateBookingResult {
	t.Helper()
	result, err := f.bookings.CreateBooking(context.Background(), attendee, bookingRequest(2), "")
	require.NoError(t, err)
	return result
}

func TestCheckIn_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booked := bookOne(t, f)

	first, err := f.checkins.CheckIn(ctx, organizer, booked.BookingID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCheckedIn)
	assert.Equal(t, booked.BookingID, first.BookingID)
	assert.Equal(t, publishedID, first.EventID)
	assert.Equal(t, "Ada Lovelace", first.AttendeeName)
	assert.Equal(t, 2, first.Quantity)
	assert.False(t, first.CheckedInAt.IsZero())

	second, err := f.checkins.CheckIn(ctx, admin, booked.BookingID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCheckedIn)
	assert.Equal(t, first.CheckedInAt, second.CheckedInAt)

	b, _ := f.store.GetBooking(ctx, booked.BookingID)
	assert.Equal(t, models.BookingCheckedIn, b.BookingStatus)

	// Check-in never touches inventory.
	tt, _ := f.store.TicketType(generalTypeID)
	assert.Equal(t, 2, tt.SoldQuantity)
}

func TestCheckIn_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booked := bookOne(t, f)

	_, err := f.checkins.CheckIn(ctx, authz.Principal{}, booked.BookingID)
	requireKind(t, err, apperrors.KindUnauthenticated)

	for _, p := range []authz.Principal{stranger, attendee} {
		_, err = f.checkins.CheckIn(ctx, p, booked.BookingID)
		requireKind(t, err, apperrors.KindAuthorization)
	}

	_, err = f.checkins.CheckIn(ctx, organizer, "EVT000000000000")
	requireKind(t, err, apperrors.KindNotFound)

	b, _ := f.store.GetBooking(ctx, booked.BookingID)
	assert.Equal(t, models.BookingConfirmed, b.BookingStatus)
}

func TestCheckIn_CancelledBooking(t *testing.T) {
	f := newFixture(t)
	booked := bookOne(t, f)
	f.store.UpdateBooking(booked.BookingID, func(b *models.Booking) { b.BookingStatus = models.BookingCancelled })

	_, err := f.checkins.CheckIn(context.Background(), organizer, booked.BookingID)
	appErr := requireKind(t, err, apperrors.KindUnavailable)
	assert.Equal(t, apperrors.ErrCodeInvalidState, appErr.Code)
}

func TestCheckInByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booked := bookOne(t, f)

	result, err := f.checkins.CheckInByToken(ctx, organizer, booked.CheckInToken)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCheckedIn)
	assert.Equal(t, booked.BookingID, result.BookingID)

	again, err := f.checkins.CheckInByToken(ctx, organizer, booked.CheckInToken)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCheckedIn)
}

func TestCheckInByToken_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booked := bookOne(t, f)

	_, err := f.checkins.CheckInByToken(ctx, organizer, "")
	requireKind(t, err, apperrors.KindValidation)

	_, err = f.checkins.CheckInByToken(ctx, organizer, "not-a-token")
	requireKind(t, err, apperrors.KindValidation)

	forged, err := f.signer.Sign(otherEventID, booked.BookingID)
	require.NoError(t, err)
	_, err = f.checkins.CheckInByToken(ctx, organizer, forged)
	appErr := requireKind(t, err, apperrors.KindValidation)
	assert.Equal(t, apperrors.ErrCodeTokenMismatch, appErr.Code)

	_, err = f.checkins.CheckInByToken(ctx, stranger, booked.CheckInToken)
	requireKind(t, err, apperrors.KindAuthorization)

	b, _ := f.store.GetBooking(ctx, booked.BookingID)
	assert.Equal(t, models.BookingConfirmed, b.BookingStatus)
}

func TestCheckIn_ConcurrentScansAdmitOnce(t *testing.T) {
	f := newFixture(t)
	booked := bookOne(t, f)
	const scanners = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		already  int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.checkins.CheckIn(context.Background(), organizer, booked.BookingID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if result.AlreadyCheckedIn {
				already++
			} else {
				admitted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, scanners-1, already)
}
