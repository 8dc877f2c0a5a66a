package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusByKind(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{MissingField("quantity"), http.StatusBadRequest},
		{EventUnavailable(), http.StatusBadRequest},
		{InsufficientInventory(3), http.StatusBadRequest},
		{Unauthenticated("Missing credential"), http.StatusUnauthorized},
		{NotAuthorized("no"), http.StatusForbidden},
		{BookingNotFound(), http.StatusNotFound},
		{RequestInFlight(), http.StatusConflict},
		{Internal("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus, string(tt.err.Code))
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", BookingNotFound())
	assert.True(t, errors.Is(wrapped, BookingNotFound()))
	assert.False(t, errors.Is(wrapped, TicketTypeNotFound()))
	assert.True(t, IsKind(wrapped, KindNotFound))
}

func TestToAppErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("deadlock")
	appErr := ToAppError(cause)
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.ErrorIs(t, appErr, cause)

	same := EventUnavailable()
	assert.Same(t, same, ToAppError(same))
}

func TestBodyOmitsCause(t *testing.T) {
	appErr := DatabaseError(errors.New("password=hunter2"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(appErr.Body()), &body))
	assert.Equal(t, "Internal storage error", body["message"])
	assert.NotContains(t, appErr.Body(), "hunter2")
	assert.Contains(t, appErr.Error(), "hunter2")
}
