package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventhive-services/common/authz"
	"github.com/eventhive-services/common/db"
	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/common/idempotency"
	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/common/metrics"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/common/pdf"
	"github.com/eventhive-services/common/qrcode"
	"github.com/eventhive-services/common/ticket"
	"github.com/eventhive-services/common/validator"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository"
)

// Catalog is the read-only view of events and ticket types the booking
// services depend on. Lookups return (nil, nil) when nothing matches.
type Catalog interface {
	GetEvent(ctx context.Context, eventID int64) (*catalog.Event, error)
	GetPublishedEvent(ctx context.Context, eventID int64) (*catalog.Event, error)
	GetTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error)
	GetActiveTicketType(ctx context.Context, ticketTypeID, eventID int64) (*catalog.TicketType, error)
}

// maxIDAttempts bounds booking id regeneration on collisions within one attempt.
const maxIDAttempts = 5

// Options tune the booking engine. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int
	Backoff     time.Duration
	QRSize      int
	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency idempotency.Store
	Now         func() time.Time
}

// BookingUseCase admits bookings against ticket type capacity.
type BookingUseCase struct {
	store       repository.Store
	catalog     Catalog
	ledger      *Ledger
	signer      *ticket.Signer
	idem        idempotency.Store
	maxAttempts int
	backoff     time.Duration
	qrSize      int
	now         func() time.Time
	log         *logger.Logger
}

// NewBookingUseCase creates a new booking use case
func NewBookingUseCase(store repository.Store, cat Catalog, signer *ticket.Signer, opts Options) *BookingUseCase {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 25 * time.Millisecond
	}
	if opts.QRSize <= 0 {
		opts.QRSize = qrcode.DefaultSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BookingUseCase{
		store:       store,
		catalog:     cat,
		ledger:      NewLedger(opts.Now),
		signer:      signer,
		idem:        opts.Idempotency,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		qrSize:      opts.QRSize,
		now:         opts.Now,
		log:         logger.Default().With("component", "booking"),
	}
}

// CreateBooking reserves req.Quantity tickets for the principal and returns
// the committed booking. idempotencyKey may be empty.
func (uc *BookingUseCase) CreateBooking(ctx context.Context, p authz.Principal, req models.CreateBookingRequest, idempotencyKey string) (*models.CreateBookingResult, error) {
	start := time.Now()
	result, err := uc.createBooking(ctx, p, req, idempotencyKey)

	outcome := metrics.OutcomeCreated
	switch {
	case err == nil && result.Replayed:
		outcome = metrics.OutcomeReplayed
	case err == nil:
	case apperrors.IsKind(err, apperrors.KindUnavailable):
		outcome = metrics.OutcomeUnavailable
	case apperrors.IsKind(err, apperrors.KindInternal):
		outcome = metrics.OutcomeError
	default:
		outcome = metrics.OutcomeRejected
	}
	metrics.ObserveBooking(outcome, time.Since(start))

	log := uc.log.WithContext(ctx)
	if err != nil {
		log.LogEvent(logger.EventLog{
			Event:    "booking.rejected",
			UserID:   p.UserID,
			Entity:   "ticket_type",
			EntityID: fmt.Sprintf("%d", req.TicketTypeID),
			Action:   "create",
			Success:  false,
			Metadata: map[string]interface{}{"event_id": req.EventID, "quantity": req.Quantity},
			Error:    err.Error(),
		})
		return nil, err
	}
	return result, nil
}

func (uc *BookingUseCase) createBooking(ctx context.Context, p authz.Principal, req models.CreateBookingRequest, idempotencyKey string) (*models.CreateBookingResult, error) {
	if !authz.CanBook(p) {
		return nil, apperrors.Unauthenticated("Login required to book tickets")
	}
	if err := validateBookingRequest(&req); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && uc.idem != nil {
		key := idempotency.Key(p.UserID, idempotencyKey)
		existing, err := uc.idem.Reserve(ctx, key)
		if errors.Is(err, idempotency.ErrInFlight) {
			return nil, apperrors.RequestInFlight()
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindInternal, apperrors.ErrCodeInternal, "Idempotency store unavailable")
		}
		if existing != "" {
			return uc.replay(ctx, p, existing)
		}

		result, err := uc.admit(ctx, p, req)
		if err != nil {
			if relErr := uc.idem.Release(ctx, key); relErr != nil {
				uc.log.WithError(relErr).Warn("[BOOKING] failed to release idempotency key")
			}
			return nil, err
		}
		// The booking is committed either way. A key left pending answers
		// RequestInFlight until its TTL expires, so try the write twice.
		if err := uc.idem.Complete(ctx, key, result.BookingID); err != nil {
			uc.log.WithError(err).Warn("[BOOKING] retrying idempotency record for %s", result.BookingID)
			if err := uc.idem.Complete(ctx, key, result.BookingID); err != nil {
				uc.log.WithError(err).Error("[BOOKING] failed to record idempotency key for %s", result.BookingID)
			}
		}
		return result, nil
	}

	return uc.admit(ctx, p, req)
}

func validateBookingRequest(req *models.CreateBookingRequest) error {
	if req.EventID <= 0 {
		return apperrors.MissingField("eventId")
	}
	if req.TicketTypeID <= 0 {
		return apperrors.MissingField("ticketTypeId")
	}
	if msg := validator.GetQuantityError(req.Quantity); msg != "" {
		return apperrors.InvalidInput("quantity", msg)
	}

	req.AttendeeName = strings.TrimSpace(req.AttendeeName)
	req.AttendeeEmail = strings.TrimSpace(req.AttendeeEmail)
	if msg := validator.GetNameError(req.AttendeeName); msg != "" {
		return apperrors.InvalidInput("attendeeName", msg)
	}
	if msg := validator.GetEmailError(req.AttendeeEmail); msg != "" {
		return apperrors.InvalidEmail()
	}
	if req.AttendeePhone != nil {
		phone := strings.TrimSpace(*req.AttendeePhone)
		if phone == "" {
			req.AttendeePhone = nil
		} else if validator.GetPhoneError(phone) != "" {
			return apperrors.InvalidPhone()
		} else {
			req.AttendeePhone = &phone
		}
	}
	if req.PromoCode != nil && strings.TrimSpace(*req.PromoCode) == "" {
		req.PromoCode = nil
	}
	return nil
}

// admit runs the pre-checks once and then the reservation transaction with
// retries on contention.
func (uc *BookingUseCase) admit(ctx context.Context, p authz.Principal, req models.CreateBookingRequest) (*models.CreateBookingResult, error) {
	event, err := uc.catalog.GetPublishedEvent(ctx, req.EventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if event == nil {
		return nil, apperrors.EventUnavailable()
	}

	tt, err := uc.catalog.GetActiveTicketType(ctx, req.TicketTypeID, req.EventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if tt == nil {
		return nil, apperrors.TicketTypeNotFound()
	}
	if !tt.OnSale(uc.now()) {
		return nil, apperrors.SalesClosed()
	}
	if available := tt.Available(); req.Quantity > available {
		return nil, apperrors.InsufficientInventory(available)
	}
	if _, err := orderTotal(tt.Price, req.Quantity); err != nil {
		return nil, err
	}

	var (
		booking *models.Booking
		promo   models.PromoResult
	)
	for attempt := 1; ; attempt++ {
		booking, promo, err = uc.reserve(ctx, p, req)
		if err == nil {
			break
		}
		reason, retryable := retryReason(err)
		if !retryable {
			return nil, err
		}
		if attempt >= uc.maxAttempts {
			uc.log.WithContext(ctx).WithError(err).Warn("[BOOKING] giving up after %d attempts", attempt)
			return nil, apperrors.HighDemand().WithCause(err)
		}
		metrics.BookingRetry(reason)
		if err := sleepCtx(ctx, uc.backoff<<(attempt-1)); err != nil {
			return nil, apperrors.HighDemand().WithCause(err)
		}
	}

	metrics.TicketsReserved(booking.Quantity)
	if req.PromoCode != nil {
		metrics.PromoResult(string(promo.Outcome), promo.Reason)
	}

	log := uc.log.WithContext(ctx)
	log.LogEvent(logger.EventLog{
		Event:    "booking.created",
		UserID:   p.UserID,
		Entity:   "booking",
		EntityID: booking.BookingID,
		Action:   "create",
		Success:  true,
		Metadata: map[string]interface{}{
			"event_id":       booking.EventID,
			"ticket_type_id": booking.TicketTypeID,
			"quantity":       booking.Quantity,
			"total_amount":   booking.TotalAmount.StringFixed(2),
		},
	})
	if req.PromoCode != nil {
		log.LogEvent(logger.EventLog{
			Event:    "promo.result",
			UserID:   p.UserID,
			Entity:   "booking",
			EntityID: booking.BookingID,
			Action:   string(promo.Outcome),
			Success:  promo.Outcome == models.PromoApplied,
			Metadata: map[string]interface{}{"code": promo.Code, "reason": promo.Reason, "discount": promo.Discount.StringFixed(2)},
		})
	}

	return uc.buildResult(booking, event.Title, &promo)
}

// reserve is one transactional attempt: lock, re-check, reserve, price,
// redeem, insert.
func (uc *BookingUseCase) reserve(ctx context.Context, p authz.Principal, req models.CreateBookingRequest) (*models.Booking, models.PromoResult, error) {
	var (
		booking *models.Booking
		promo   models.PromoResult
	)

	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		tt, err := tx.LockTicketType(ctx, req.TicketTypeID)
		if err != nil {
			return err
		}
		if tt == nil || tt.EventID != req.EventID || !tt.IsActive {
			return apperrors.TicketTypeNotFound()
		}
		if available := tt.Available(); req.Quantity > available {
			return apperrors.InsufficientInventory(available)
		}

		ok, err := tx.ReserveSeats(ctx, tt.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrConflict
		}

		base, err := orderTotal(tt.Price, req.Quantity)
		if err != nil {
			return err
		}
		total := base
		promo = models.PromoResult{Outcome: models.PromoNone, Discount: decimal.Zero, FinalAmount: base}
		var appliedCode *string
		if req.PromoCode != nil {
			promo, err = uc.ledger.Redeem(ctx, tx, *req.PromoCode, req.EventID, base)
			if err != nil {
				return err
			}
			total = promo.FinalAmount
			if promo.Outcome == models.PromoApplied {
				code := promo.Code
				appliedCode = &code
			}
		}

		b := &models.Booking{
			UserID:        p.UserID,
			EventID:       req.EventID,
			TicketTypeID:  tt.ID,
			Quantity:      req.Quantity,
			TotalAmount:   total.Round(2),
			AttendeeName:  req.AttendeeName,
			AttendeeEmail: req.AttendeeEmail,
			AttendeePhone: req.AttendeePhone,
			PromoCode:     appliedCode,
			PaymentStatus: models.PaymentPaid,
			BookingStatus: models.BookingConfirmed,
			CreatedAt:     uc.now().UTC().Truncate(time.Second),
		}
		for i := 0; ; i++ {
			b.BookingID = ticket.NewBookingID()
			b.CheckInToken, err = uc.signer.Sign(b.EventID, b.BookingID)
			if err != nil {
				return err
			}
			err = tx.InsertBooking(ctx, b)
			if err == nil {
				break
			}
			if !errors.Is(err, repository.ErrDuplicateBookingID) || i+1 >= maxIDAttempts {
				return err
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, promo, err
		}
		if _, retryable := retryReason(err); retryable {
			return nil, promo, err
		}
		return nil, promo, apperrors.DatabaseError(err)
	}
	return booking, promo, nil
}

// orderTotal prices quantity tickets and rejects totals the bookings table
// cannot store.
func orderTotal(price decimal.Decimal, quantity int) (decimal.Decimal, error) {
	total := price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if total.GreaterThan(models.MaxTotalAmount) {
		return total, apperrors.InvalidInput("quantity",
			fmt.Sprintf("Order total %s exceeds the maximum of %s", total.StringFixed(2), models.MaxTotalAmount.StringFixed(2)))
	}
	return total, nil
}

func retryReason(err error) (string, bool) {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return "conflict", true
	case db.IsRetryable(err):
		return "lock_contention", true
	}
	return "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *BookingUseCase) buildResult(b *models.Booking, eventTitle string, promo *models.PromoResult) (*models.CreateBookingResult, error) {
	qr, err := qrcode.GenerateCheckInQR(b.CheckInToken, uc.qrSize)
	if err != nil {
		// The booking is committed; a missing image must not fail it.
		uc.log.WithError(err).Warn("[BOOKING] QR rendering failed for %s", b.BookingID)
	}
	return &models.CreateBookingResult{
		BookingID:    b.BookingID,
		TotalAmount:  b.TotalAmount,
		CheckInToken: b.CheckInToken,
		QRCode:       qr,
		EventTitle:   eventTitle,
		Promo:        promo,
	}, nil
}

// replay answers a repeated Idempotency-Key with the booking it produced.
func (uc *BookingUseCase) replay(ctx context.Context, p authz.Principal, bookingID string) (*models.CreateBookingResult, error) {
	b, err := uc.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if b == nil || !authz.CanViewBooking(p, b.UserID) {
		return nil, apperrors.BookingNotFound()
	}
	title := ""
	if event, err := uc.catalog.GetEvent(ctx, b.EventID); err == nil && event != nil {
		title = event.Title
	}
	result, err := uc.buildResult(b, title, nil)
	if err != nil {
		return nil, err
	}
	result.Replayed = true
	return result, nil
}

// ============================================================
// Reads
// ============================================================

// GetBooking returns one of the principal's bookings. Other users' bookings
// are reported as not found.
func (uc *BookingUseCase) GetBooking(ctx context.Context, p authz.Principal, bookingID string) (*models.BookingDetail, error) {
	b, err := uc.ownedBooking(ctx, p, bookingID)
	if err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{Booking: *b, CheckInToken: b.CheckInToken}
	if event, err := uc.catalog.GetEvent(ctx, b.EventID); err != nil {
		return nil, apperrors.DatabaseError(err)
	} else if event != nil {
		detail.EventTitle = event.Title
		detail.EventStart = event.StartDate
		detail.Location = event.Location
	}
	if tt, err := uc.catalog.GetTicketType(ctx, b.TicketTypeID); err != nil {
		return nil, apperrors.DatabaseError(err)
	} else if tt != nil {
		detail.TicketTypeName = tt.Name
	}
	if b.BookingStatus == models.BookingConfirmed {
		if qr, err := qrcode.GenerateCheckInQR(b.CheckInToken, uc.qrSize); err == nil {
			detail.QRCode = qr
		}
	}
	return detail, nil
}

// ListMyBookings returns the principal's bookings, newest first.
func (uc *BookingUseCase) ListMyBookings(ctx context.Context, p authz.Principal) ([]models.BookingSummary, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated("Login required")
	}
	bookings, err := uc.store.ListBookingsByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	events := make(map[int64]*catalog.Event)
	ticketTypes := make(map[int64]*catalog.TicketType)
	summaries := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		event, ok := events[b.EventID]
		if !ok {
			if event, err = uc.catalog.GetEvent(ctx, b.EventID); err != nil {
				return nil, apperrors.DatabaseError(err)
			}
			events[b.EventID] = event
		}
		tt, ok := ticketTypes[b.TicketTypeID]
		if !ok {
			if tt, err = uc.catalog.GetTicketType(ctx, b.TicketTypeID); err != nil {
				return nil, apperrors.DatabaseError(err)
			}
			ticketTypes[b.TicketTypeID] = tt
		}

		s := models.BookingSummary{
			BookingID:     b.BookingID,
			EventID:       b.EventID,
			Quantity:      b.Quantity,
			TotalAmount:   b.TotalAmount,
			BookingStatus: b.BookingStatus,
			CreatedAt:     b.CreatedAt,
		}
		if event != nil {
			s.EventTitle = event.Title
			s.EventStart = event.StartDate
		}
		if tt != nil {
			s.TicketTypeName = tt.Name
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// TicketPDF re-derives the check-in token and renders a printable ticket.
func (uc *BookingUseCase) TicketPDF(ctx context.Context, p authz.Principal, bookingID string) ([]byte, error) {
	detail, err := uc.GetBooking(ctx, p, bookingID)
	if err != nil {
		return nil, err
	}
	if detail.BookingStatus == models.BookingCancelled {
		return nil, apperrors.InvalidState("Booking has been cancelled")
	}

	token, err := uc.signer.Sign(detail.EventID, detail.BookingID)
	if err != nil {
		return nil, apperrors.Internal("Failed to sign ticket").WithCause(err)
	}
	qrPng, err := qrcode.GenerateQRCodePngBytes(token, uc.qrSize)
	if err != nil {
		return nil, apperrors.Internal("Failed to render QR code").WithCause(err)
	}

	var end time.Time
	if event, err := uc.catalog.GetEvent(ctx, detail.EventID); err == nil && event != nil {
		end = event.EndDate
	}
	out, err := pdf.GenerateBookingPDF(pdf.BookingPDFData{
		BookingID:      detail.BookingID,
		EventTitle:     detail.EventTitle,
		EventStart:     detail.EventStart,
		EventEnd:       end,
		Location:       detail.Location,
		TicketTypeName: detail.TicketTypeName,
		Quantity:       detail.Quantity,
		TotalAmount:    detail.TotalAmount.StringFixed(2),
		AttendeeName:   detail.AttendeeName,
		AttendeeEmail:  detail.AttendeeEmail,
		QRCodePngBytes: qrPng,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to render ticket").WithCause(err)
	}
	return out, nil
}

func (uc *BookingUseCase) ownedBooking(ctx context.Context, p authz.Principal, bookingID string) (*models.Booking, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated("Login required")
	}
	b, err := uc.store.GetBooking(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if b == nil || !authz.CanViewBooking(p, b.UserID) {
		return nil, apperrors.BookingNotFound()
	}
	return b, nil
}
