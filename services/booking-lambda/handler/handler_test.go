package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhive-services/common/jwt"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/common/ticket"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository/memstore"
	"github.com/eventhive-services/services/booking-lambda/usecase"
)

func newTestHandler(t *testing.T) *BookingHandler {
	t.Helper()
	jwt.SetSecret("handler-test-secret")

	store := memstore.New()
	store.AddEvent(catalog.Event{ID: 1, OrganizerID: 10, Title: "Jazz Night", Status: catalog.EventStatusPublished, StartDate: time.Now().Add(48 * time.Hour)})
	store.AddTicketType(catalog.TicketType{ID: 100, EventID: 1, Name: "General", Price: decimal.RequireFromString("375.00"), MaxQuantity: 20, IsActive: true})

	signer, err := ticket.NewSigner("handler-test-secret")
	require.NoError(t, err)
	return NewBookingHandler(
		usecase.NewBookingUseCase(store, store, signer, usecase.Options{Backoff: time.Millisecond}),
		usecase.NewCheckInUseCase(store, store, signer),
	)
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, "user@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func call(t *testing.T, h *BookingHandler, method, path, auth, body string) events.APIGatewayProxyResponse {
	t.Helper()
	req := events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{},
		Body:       body,
	}
	if auth != "" {
		req.Headers["Authorization"] = auth
	}
	resp, err := h.Route(context.Background(), req)
	require.NoError(t, err)
	return resp
}

const bookingBody = `{"eventId":1,"ticketTypeId":100,"quantity":2,"attendeeName":"Ada Lovelace","attendeeEmail":"ada@example.com"}`

func TestRoute_BookingLifecycle(t *testing.T) {
	h := newTestHandler(t)
	attendee := bearer(t, 50, "attendee")
	organizer := bearer(t, 10, "organizer")

	resp := call(t, h, http.MethodPost, "/api/bookings", attendee, bookingBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	var created models.CreateBookingResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &created))
	assert.True(t, decimal.RequireFromString("750").Equal(created.TotalAmount))
	assert.NotEmpty(t, created.CheckInToken)

	resp = call(t, h, http.MethodGet, "/api/bookings/"+created.BookingID, attendee, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, resp.Body, `"userId":0`)

	resp = call(t, h, http.MethodGet, "/api/bookings/my-bookings", attendee, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, created.BookingID)

	resp = call(t, h, http.MethodGet, "/api/bookings/"+created.BookingID+"/ticket", attendee, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, "application/pdf", resp.Headers["Content-Type"])
	pdfBytes, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdfBytes), "%PDF"))

	resp = call(t, h, http.MethodPost, "/api/bookings/check-in", organizer, `{"token":"`+created.CheckInToken+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.Contains(t, resp.Body, `"alreadyCheckedIn":false`)

	resp = call(t, h, http.MethodPost, "/api/bookings/check-in/"+created.BookingID, organizer, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `"alreadyCheckedIn":true`)
}

func TestRoute_ErrorMapping(t *testing.T) {
	h := newTestHandler(t)
	attendee := bearer(t, 50, "attendee")

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		status int
	}{
		{"no credential", http.MethodPost, "/api/bookings", "", bookingBody, http.StatusUnauthorized},
		{"bad credential", http.MethodPost, "/api/bookings", "Bearer nope", bookingBody, http.StatusUnauthorized},
		{"malformed body", http.MethodPost, "/api/bookings", attendee, "{", http.StatusBadRequest},
		{"too many tickets", http.MethodPost, "/api/bookings", attendee, strings.Replace(bookingBody, `"quantity":2`, `"quantity":21`, 1), http.StatusBadRequest},
		{"unknown booking", http.MethodGet, "/api/bookings/EVT000000000000", attendee, "", http.StatusNotFound},
		{"check in unknown booking", http.MethodPost, "/api/bookings/check-in/EVT000000000000", attendee, "", http.StatusNotFound},
		{"bad token", http.MethodPost, "/api/bookings/check-in", attendee, `{"token":"garbage"}`, http.StatusBadRequest},
		{"unknown route", http.MethodDelete, "/api/bookings/abc", attendee, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, h, tt.method, tt.path, tt.auth, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, resp.Body)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		})
	}
}

func TestRoute_OrganizerOfAnotherEventIsForbidden(t *testing.T) {
	h := newTestHandler(t)

	resp := call(t, h, http.MethodPost, "/api/bookings", bearer(t, 50, "attendee"), bookingBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.CreateBookingResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &created))

	resp = call(t, h, http.MethodPost, "/api/bookings/check-in/"+created.BookingID, bearer(t, 77, "organizer"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHeaderLookupIsCaseInsensitive(t *testing.T) {
	req := events.APIGatewayProxyRequest{Headers: map[string]string{"idempotency-key": "abc"}}
	assert.Equal(t, "abc", header(req, "Idempotency-Key"))
	assert.Equal(t, "", header(req, "Authorization"))
}
