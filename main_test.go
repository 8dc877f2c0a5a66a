package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/bookings?x=1", strings.NewReader(`{"quantity":1}`))
	r.Header.Set("Authorization", "Bearer abc")
	r.Header.Set("Idempotency-Key", "k1")

	req, err := adaptRequest(r)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.HTTPMethod)
	assert.Equal(t, "/api/bookings", req.Path)
	assert.Equal(t, "Bearer abc", req.Headers["Authorization"])
	assert.Equal(t, "k1", req.Headers["Idempotency-Key"])
	assert.Equal(t, "1", req.QueryStringParameters["x"])
	assert.Equal(t, `{"quantity":1}`, req.Body)
}

func TestWriteResponse_DecodesBinaryBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	writeResponse(rec, events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Headers:         map[string]string{"Content-Type": "application/pdf"},
		Body:            base64.StdEncoding.EncodeToString([]byte("%PDF-1.3")),
		IsBase64Encoded: true,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestMiddleware(t *testing.T) {
	var seen events.APIGatewayProxyRequest
	route := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		seen = req
		return events.APIGatewayProxyResponse{StatusCode: http.StatusCreated, Body: "{}"}, nil
	}
	h := requestLogMiddleware(corsMiddleware(lambdaHandler(route)))

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/bookings", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("forwards to route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{}"))
		r.Header.Set("X-Request-Id", "req-1")
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
		assert.Equal(t, "/api/bookings", seen.Path)
	})
}
