package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhive-services/common/db"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/services/booking-lambda/models"
)

// MySQLStore implements Store on InnoDB. Counters are protected by
// SELECT ... FOR UPDATE row locks plus guarded UPDATEs checked through
// RowsAffected, all inside one REPEATABLE READ transaction.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(conn *sql.DB) *MySQLStore {
	return &MySQLStore{db: conn}
}

const bookingColumns = `
	id, booking_id, user_id, event_id, ticket_type_id, quantity, total_amount,
	attendee_name, attendee_email, attendee_phone, promo_code,
	payment_status, booking_status, check_in_token, checked_in_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b           models.Booking
		phone       sql.NullString
		promoCode   sql.NullString
		checkedInAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.EventID, &b.TicketTypeID, &b.Quantity, &b.TotalAmount,
		&b.AttendeeName, &b.AttendeeEmail, &phone, &promoCode,
		&b.PaymentStatus, &b.BookingStatus, &b.CheckInToken, &checkedInAt, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		b.AttendeePhone = &phone.String
	}
	if promoCode.Valid {
		b.PromoCode = &promoCode.String
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time
		b.CheckedInAt = &t
	}
	return &b, nil
}

func (s *MySQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTransaction(ctx, s.db, db.BookingTxOptions, func(sqlTx *sql.Tx) error {
		return fn(ctx, &mysqlTx{tx: sqlTx})
	})
}

func (s *MySQLStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	b, err := scanBooking(s.db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (s *MySQLStore) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *MySQLStore) MarkCheckedIn(ctx context.Context, bookingID string) (bool, error) {
	query := `
		UPDATE bookings
		SET booking_status = 'checked_in', checked_in_at = UTC_TIMESTAMP()
		WHERE booking_id = ? AND booking_status = 'confirmed'
	`
	res, err := s.db.ExecContext(ctx, query, bookingID)
	if err != nil {
		return false, fmt.Errorf("mark checked in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark checked in: %w", err)
	}
	return n == 1, nil
}

// ============================================================
// Transactional operations
// ============================================================

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) LockTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error) {
	query := `
		SELECT id, event_id, name, price, max_quantity, sold_quantity, is_active, sale_start, sale_end
		FROM ticket_types
		WHERE id = ?
		FOR UPDATE
	`
	var (
		tt        catalog.TicketType
		saleStart sql.NullTime
		saleEnd   sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, query, ticketTypeID).Scan(
		&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.MaxQuantity, &tt.SoldQuantity, &tt.IsActive, &saleStart, &saleEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock ticket type %d: %w", ticketTypeID, err)
	}
	if saleStart.Valid {
		tt.SaleStart = &saleStart.Time
	}
	if saleEnd.Valid {
		tt.SaleEnd = &saleEnd.Time
	}
	return &tt, nil
}

func (t *mysqlTx) ReserveSeats(ctx context.Context, ticketTypeID int64, quantity int) (bool, error) {
	query := `
		UPDATE ticket_types
		SET sold_quantity = sold_quantity + ?
		WHERE id = ? AND sold_quantity + ? <= max_quantity
	`
	res, err := t.tx.ExecContext(ctx, query, quantity, ticketTypeID, quantity)
	if err != nil {
		return false, fmt.Errorf("reserve seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seats: %w", err)
	}
	return n == 1, nil
}

func (t *mysqlTx) LockPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `
		SELECT id, event_id, code, discount_percent, discount_amount, max_uses, used_count, valid_until, is_active
		FROM promo_codes
		WHERE code = ?
		FOR UPDATE
	`
	var (
		p          models.PromoCode
		eventID    sql.NullInt64
		validUntil sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, query, code).Scan(
		&p.ID, &eventID, &p.Code, &p.DiscountPercent, &p.DiscountAmount, &p.MaxUses, &p.UsedCount, &validUntil, &p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock promo code: %w", err)
	}
	if eventID.Valid {
		p.EventID = &eventID.Int64
	}
	if validUntil.Valid {
		p.ValidUntil = &validUntil.Time
	}
	return &p, nil
}

func (t *mysqlTx) ConsumePromoCode(ctx context.Context, promoID int64) (bool, error) {
	query := `UPDATE promo_codes SET used_count = used_count + 1 WHERE id = ? AND used_count < max_uses`
	res, err := t.tx.ExecContext(ctx, query, promoID)
	if err != nil {
		return false, fmt.Errorf("consume promo code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume promo code: %w", err)
	}
	return n == 1, nil
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			booking_id, user_id, event_id, ticket_type_id, quantity, total_amount,
			attendee_name, attendee_email, attendee_phone, promo_code,
			payment_status, booking_status, check_in_token, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := t.tx.ExecContext(ctx, query,
		b.BookingID, b.UserID, b.EventID, b.TicketTypeID, b.Quantity, b.TotalAmount.StringFixed(2),
		b.AttendeeName, b.AttendeeEmail, nullString(b.AttendeePhone), nullString(b.PromoCode),
		b.PaymentStatus, b.BookingStatus, b.CheckInToken, b.CreatedAt,
	)
	if db.IsDuplicateKey(err) {
		return ErrDuplicateBookingID
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		b.ID = id
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
