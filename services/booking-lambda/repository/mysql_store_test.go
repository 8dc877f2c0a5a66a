package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhive-services/services/booking-lambda/models"
)

var bookingRowColumns = []string{
	"id", "booking_id", "user_id", "event_id", "ticket_type_id", "quantity", "total_amount",
	"attendee_name", "attendee_email", "attendee_phone", "promo_code",
	"payment_status", "booking_status", "check_in_token", "checked_in_at", "created_at",
}

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewMySQLStore(conn), mock
}

func TestMySQLStore_GetBooking(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE booking_id = ?")).
		WithArgs("EVT0123456789AB").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
			7, "EVT0123456789AB", 50, 1, 100, 2, "675.00",
			"Ada Lovelace", "ada@example.com", nil, "SAVE10",
			models.PaymentPaid, models.BookingConfirmed, "tok", nil, created,
		))

	b, err := store.GetBooking(context.Background(), "EVT0123456789AB")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, int64(7), b.ID)
	assert.True(t, decimal.RequireFromString("675.00").Equal(b.TotalAmount))
	assert.Nil(t, b.AttendeePhone)
	require.NotNil(t, b.PromoCode)
	assert.Equal(t, "SAVE10", *b.PromoCode)
	assert.Nil(t, b.CheckedInAt)
	assert.Equal(t, created, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_GetBookingMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE booking_id = ?")).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	b, err := store.GetBooking(context.Background(), "EVT000000000000")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMySQLStore_ListBookingsByUser(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow(9, "EVT00000000000B", 50, 1, 100, 1, "375.00", "Ada", "ada@example.com", "+84901234567", nil,
				models.PaymentPaid, models.BookingCheckedIn, "tok-b", now, now).
			AddRow(8, "EVT00000000000A", 50, 1, 100, 1, "375.00", "Ada", "ada@example.com", nil, nil,
				models.PaymentPaid, models.BookingConfirmed, "tok-a", nil, now.Add(-time.Hour)))

	list, err := store.ListBookingsByUser(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "EVT00000000000B", list[0].BookingID)
	require.NotNil(t, list[0].CheckedInAt)
	require.NotNil(t, list[0].AttendeePhone)
	assert.Nil(t, list[1].CheckedInAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_MarkCheckedIn(t *testing.T) {
	store, mock := newMockStore(t)
	update := regexp.QuoteMeta("WHERE booking_id = ? AND booking_status = 'confirmed'")

	mock.ExpectExec(update).WithArgs("EVT0123456789AB").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).WithArgs("EVT0123456789AB").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.MarkCheckedIn(context.Background(), "EVT0123456789AB")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkCheckedIn(context.Background(), "EVT0123456789AB")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_BookingTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM ticket_types") + `\s+WHERE id = \?\s+FOR UPDATE`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "name", "price", "max_quantity", "sold_quantity", "is_active", "sale_start", "sale_end"}).
			AddRow(100, 1, "General", "375.00", 20, 19, true, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND sold_quantity + ? <= max_quantity")).
		WithArgs(1, int64(100), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM promo_codes") + `\s+WHERE code = \?\s+FOR UPDATE`).
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "code", "discount_percent", "discount_amount", "max_uses", "used_count", "valid_until", "is_active"}).
			AddRow(3, 1, "SAVE10", 10, "0.00", 5, 0, nil, true))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND used_count < max_uses")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	booking := &models.Booking{
		BookingID: "EVT0123456789AB", UserID: 50, EventID: 1, TicketTypeID: 100, Quantity: 1,
		TotalAmount: decimal.RequireFromString("337.50"), AttendeeName: "Ada", AttendeeEmail: "ada@example.com",
		PaymentStatus: models.PaymentPaid, BookingStatus: models.BookingConfirmed, CheckInToken: "tok",
		CreatedAt: time.Now().UTC(),
	}
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		tt, err := tx.LockTicketType(ctx, 100)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, tt.Available())

		ok, err := tx.ReserveSeats(ctx, tt.ID, 1)
		if err != nil || !ok {
			return errors.New("reserve failed")
		}

		promo, err := tx.LockPromoCode(ctx, "SAVE10")
		if err != nil {
			return err
		}
		require.NotNil(t, promo.EventID)
		assert.Equal(t, int64(1), *promo.EventID)
		if ok, err = tx.ConsumePromoCode(ctx, promo.ID); err != nil || !ok {
			return errors.New("consume failed")
		}
		return tx.InsertBooking(ctx, booking)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ReserveSeatsLosesRace(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ticket_types")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		ok, err := tx.ReserveSeats(ctx, 100, 5)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_LockMissingRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM ticket_types")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM promo_codes")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		tt, err := tx.LockTicketType(ctx, 404)
		if err != nil {
			return err
		}
		assert.Nil(t, tt)
		p, err := tx.LockPromoCode(ctx, "NOPE")
		if err != nil {
			return err
		}
		assert.Nil(t, p)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertDuplicateBookingID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertBooking(ctx, &models.Booking{BookingID: "EVT0123456789AB"})
	})
	assert.ErrorIs(t, err, ErrDuplicateBookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertFailureRollsBackRedemption(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND sold_quantity + ? <= max_quantity")).
		WithArgs(2, int64(100), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND used_count < max_uses")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		if ok, err := tx.ReserveSeats(ctx, 100, 2); err != nil || !ok {
			return errors.New("reserve failed")
		}
		if ok, err := tx.ConsumePromoCode(ctx, 3); err != nil || !ok {
			return errors.New("consume failed")
		}
		return tx.InsertBooking(ctx, &models.Booking{BookingID: "EVT0123456789AB"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert booking")
	assert.NotErrorIs(t, err, ErrDuplicateBookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
