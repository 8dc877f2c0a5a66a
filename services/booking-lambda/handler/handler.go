package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventhive-services/common/authz"
	"github.com/eventhive-services/common/config"
	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/common/idempotency"
	"github.com/eventhive-services/common/jwt"
	"github.com/eventhive-services/common/response"
	"github.com/eventhive-services/common/ticket"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository"
	"github.com/eventhive-services/services/booking-lambda/usecase"
	eventrepo "github.com/eventhive-services/services/event-lambda/repository"
)

const basePath = "/api/bookings"

type BookingHandler struct {
	bookings *usecase.BookingUseCase
	checkins *usecase.CheckInUseCase
}

func NewBookingHandler(bookings *usecase.BookingUseCase, checkins *usecase.CheckInUseCase) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		checkins: checkins,
	}
}

// Route dispatches every /api/bookings request. It is the Lambda entry point.
func (h *BookingHandler) Route(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return response.JSON(http.StatusOK, map[string]string{})
	}

	rest := strings.Trim(strings.TrimPrefix(request.Path, basePath), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "" && request.HTTPMethod == http.MethodPost:
		return h.HandleCreateBooking(ctx, request)
	case rest == "my-bookings" && request.HTTPMethod == http.MethodGet:
		return h.HandleMyBookings(ctx, request)
	case rest == "check-in" && request.HTTPMethod == http.MethodPost:
		return h.HandleCheckInByToken(ctx, request)
	case len(parts) == 2 && parts[0] == "check-in" && request.HTTPMethod == http.MethodPost:
		return h.HandleCheckIn(ctx, request, parts[1])
	case len(parts) == 2 && parts[1] == "ticket" && request.HTTPMethod == http.MethodGet:
		return h.HandleTicketPDF(ctx, request, parts[0])
	case len(parts) == 1 && rest != "" && request.HTTPMethod == http.MethodGet:
		return h.HandleGetBooking(ctx, request, parts[0])
	}
	return response.Message(http.StatusNotFound, "Route not found")
}

// principal authenticates the Authorization header. Handlers never trust
// identity headers forwarded by the caller.
func principal(request events.APIGatewayProxyRequest) (authz.Principal, error) {
	return jwt.Authenticate(header(request, "Authorization"))
}

func header(request events.APIGatewayProxyRequest, name string) string {
	if v, ok := request.Headers[name]; ok {
		return v
	}
	for k, v := range request.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HandleCreateBooking - POST /api/bookings
func (h *BookingHandler) HandleCreateBooking(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}

	var req models.CreateBookingRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.Error(apperrors.ValidationError("Invalid request body"))
	}

	result, err := h.bookings.CreateBooking(ctx, p, req, strings.TrimSpace(header(request, "Idempotency-Key")))
	if err != nil {
		return response.Error(err)
	}
	if result.Replayed {
		return response.JSON(http.StatusOK, result)
	}
	return response.JSON(http.StatusCreated, result)
}

// HandleMyBookings - GET /api/bookings/my-bookings
func (h *BookingHandler) HandleMyBookings(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}
	list, err := h.bookings.ListMyBookings(ctx, p)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleGetBooking - GET /api/bookings/{bookingId}
func (h *BookingHandler) HandleGetBooking(ctx context.Context, request events.APIGatewayProxyRequest, bookingID string) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}
	detail, err := h.bookings.GetBooking(ctx, p, bookingID)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, detail)
}

// HandleTicketPDF - GET /api/bookings/{bookingId}/ticket
func (h *BookingHandler) HandleTicketPDF(ctx context.Context, request events.APIGatewayProxyRequest, bookingID string) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}
	out, err := h.bookings.TicketPDF(ctx, p, bookingID)
	if err != nil {
		return response.Error(err)
	}
	return response.Binary("application/pdf", bookingID+".pdf", out)
}

// HandleCheckIn - POST /api/bookings/check-in/{bookingId}
func (h *BookingHandler) HandleCheckIn(ctx context.Context, request events.APIGatewayProxyRequest, bookingID string) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}
	result, err := h.checkins.CheckIn(ctx, p, bookingID)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleCheckInByToken - POST /api/bookings/check-in
// Body: {"token": "<scanned QR payload>"}
func (h *BookingHandler) HandleCheckInByToken(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := principal(request)
	if err != nil {
		return response.Error(err)
	}

	var req models.CheckInByTokenRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.Error(apperrors.ValidationError("Invalid request body"))
	}

	result, err := h.checkins.CheckInByToken(ctx, p, req.Token)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, result)
}

// NewBookingHandlerFromDB wires the MySQL stores, the catalog and the ticket
// signer. idem may be nil.
func NewBookingHandlerFromDB(cfg *config.Config, conn *sql.DB, idem idempotency.Store) (*BookingHandler, error) {
	signer, err := ticket.NewSigner(cfg.CheckInSecret())
	if err != nil {
		return nil, err
	}

	store := repository.NewMySQLStore(conn)
	cat := eventrepo.NewEventRepository(conn)
	opts := usecase.Options{
		MaxAttempts: cfg.BookingMaxAttempts,
		Backoff:     cfg.BookingBackoff,
		QRSize:      cfg.QRSize,
		Idempotency: idem,
	}
	return NewBookingHandler(
		usecase.NewBookingUseCase(store, cat, signer, opts),
		usecase.NewCheckInUseCase(store, cat, signer),
	), nil
}
