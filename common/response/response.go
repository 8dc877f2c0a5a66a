package response

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/common/logger"
)

// CORS Headers for API responses
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,Idempotency-Key",
}

func headers(contentType string) map[string]string {
	h := make(map[string]string, len(CORSHeaders)+1)
	for k, v := range CORSHeaders {
		h[k] = v
	}
	h["Content-Type"] = contentType
	return h
}

// JSON marshals data as the response body.
func JSON(statusCode int, data interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers("application/json"),
			Body:       `{"status":"error","message":"failed to encode response"}`,
		}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers("application/json"),
		Body:       string(body),
	}, nil
}

// Message writes {"message": ...}.
func Message(statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	return JSON(statusCode, map[string]string{"message": message})
}

// Error maps any error onto its HTTP status and AppError body. Internal
// causes are logged here and never written to the client.
func Error(err error) (events.APIGatewayProxyResponse, error) {
	appErr := apperrors.ToAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Default().WithError(err).Error("[RESPONSE] %s", appErr.Message)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: appErr.HTTPStatus,
		Headers:    headers("application/json"),
		Body:       appErr.Body(),
	}, nil
}

// Binary returns a base64-encoded body as API Gateway expects for binary media.
func Binary(contentType, filename string, data []byte) (events.APIGatewayProxyResponse, error) {
	h := headers(contentType)
	if filename != "" {
		h["Content-Disposition"] = fmt.Sprintf("inline; filename=%q", filename)
	}
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Headers:         h,
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}, nil
}
