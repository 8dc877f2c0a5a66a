package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventhive-services/common/errors"
	"github.com/eventhive-services/common/jwt"
	"github.com/eventhive-services/common/response"
	"github.com/eventhive-services/services/event-lambda/models"
	"github.com/eventhive-services/services/event-lambda/usecase"
)

// EventHandler handles catalog requests. Only /api/events/my-events needs a
// credential.
type EventHandler struct {
	useCase *usecase.EventUseCase
}

// NewEventHandler creates a new event handler
func NewEventHandler(useCase *usecase.EventUseCase) *EventHandler {
	return &EventHandler{useCase: useCase}
}

// Route dispatches /api/events* and /api/category-tickets. It is the Lambda entry point.
func (h *EventHandler) Route(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return response.JSON(http.StatusOK, map[string]string{})
	}
	if request.HTTPMethod != http.MethodGet {
		return response.Message(http.StatusMethodNotAllowed, "Method not allowed")
	}

	path := strings.TrimSuffix(request.Path, "/")
	switch {
	case path == "/api/category-tickets":
		return h.HandleGetTicketTypes(ctx, request)
	case path == "/api/events":
		return h.HandleGetEvents(ctx, request)
	case path == "/api/events/featured":
		return h.HandleGetFeaturedEvents(ctx, request)
	case path == "/api/events/categories":
		return h.HandleGetCategories(ctx, request)
	case path == "/api/events/my-events":
		return h.HandleGetMyEvents(ctx, request)
	case strings.HasPrefix(path, "/api/events/"):
		return h.HandleGetEventDetail(ctx, request, strings.TrimPrefix(path, "/api/events/"))
	}
	return response.Message(http.StatusNotFound, "Route not found")
}

// HandleGetEvents handles GET /api/events
// Query: category, location, featured (true|false), search, limit (max 100)
func (h *EventHandler) HandleGetEvents(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters
	filter := models.EventFilter{
		Category: strings.TrimSpace(params["category"]),
		Location: strings.TrimSpace(params["location"]),
		Search:   strings.TrimSpace(params["search"]),
	}

	if v := params["featured"]; v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return response.Error(apperrors.InvalidInput("featured", "featured must be true or false"))
		}
		filter.Featured = &featured
	}
	if v := params["limit"]; v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return response.Error(apperrors.InvalidInput("limit", "limit must be a positive number"))
		}
		filter.Limit = limit
	}

	list, err := h.useCase.ListEvents(ctx, filter)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleGetFeaturedEvents handles GET /api/events/featured?limit=
func (h *EventHandler) HandleGetFeaturedEvents(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	limit := 0
	if v := request.QueryStringParameters["limit"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return response.Error(apperrors.InvalidInput("limit", "limit must be a positive number"))
		}
		limit = n
	}

	list, err := h.useCase.FeaturedEvents(ctx, limit)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleGetEventDetail handles GET /api/events/{id}
func (h *EventHandler) HandleGetEventDetail(ctx context.Context, request events.APIGatewayProxyRequest, rawID string) (events.APIGatewayProxyResponse, error) {
	eventID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || eventID < 1 {
		return response.Error(apperrors.InvalidInput("id", "Invalid event id"))
	}

	event, err := h.useCase.GetEvent(ctx, eventID)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, event)
}

// HandleGetMyEvents handles GET /api/events/my-events
func (h *EventHandler) HandleGetMyEvents(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := jwt.Authenticate(authorization(request))
	if err != nil {
		return response.Error(err)
	}

	list, err := h.useCase.MyEvents(ctx, p)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, list)
}

func authorization(request events.APIGatewayProxyRequest) string {
	for k, v := range request.Headers {
		if strings.EqualFold(k, "Authorization") {
			return v
		}
	}
	return ""
}

// HandleGetCategories handles GET /api/events/categories
func (h *EventHandler) HandleGetCategories(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	categories, err := h.useCase.Categories(ctx)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, categories)
}

// HandleGetTicketTypes handles GET /api/category-tickets?eventId=
func (h *EventHandler) HandleGetTicketTypes(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	eventIDStr := request.QueryStringParameters["eventId"]
	if eventIDStr == "" {
		return response.Error(apperrors.MissingField("eventId"))
	}
	eventID, err := strconv.ParseInt(eventIDStr, 10, 64)
	if err != nil || eventID < 1 {
		return response.Error(apperrors.InvalidInput("eventId", "Invalid event id"))
	}

	tickets, err := h.useCase.TicketTypes(ctx, eventID)
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(http.StatusOK, tickets)
}
