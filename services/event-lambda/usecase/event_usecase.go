package usecase

import (
	"context"

	"github.com/eventhive-services/common/authz"
	apperrors "github.com/eventhive-services/common/errors"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/services/event-lambda/models"
)

// EventStore is the read side EventUseCase needs. *repository.EventRepository
// implements it.
type EventStore interface {
	GetPublishedEvent(ctx context.Context, eventID int64) (*catalog.Event, error)
	ListPublishedEvents(ctx context.Context, filter models.EventFilter) ([]catalog.Event, error)
	ListFeaturedEvents(ctx context.Context, limit int) ([]catalog.Event, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListTicketTypes(ctx context.Context, eventIDs ...int64) (map[int64][]catalog.TicketType, error)
	ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]catalog.Event, error)
}

// EventUseCase handles catalog browsing. Only published events are visible,
// except to their own organizer through MyEvents.
type EventUseCase struct {
	store EventStore
}

// NewEventUseCase creates a new event use case
func NewEventUseCase(store EventStore) *EventUseCase {
	return &EventUseCase{store: store}
}

// ListEvents - published events matching filter, with their ticket types
func (uc *EventUseCase) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.EventResponse, error) {
	filter.Limit = clampLimit(filter.Limit, models.DefaultEventLimit, models.MaxEventLimit)
	events, err := uc.store.ListPublishedEvents(ctx, filter)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return uc.withTickets(ctx, events)
}

// FeaturedEvents - published featured events, with their ticket types
func (uc *EventUseCase) FeaturedEvents(ctx context.Context, limit int) ([]models.EventResponse, error) {
	events, err := uc.store.ListFeaturedEvents(ctx, clampLimit(limit, models.DefaultFeaturedLimit, models.MaxFeaturedLimit))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return uc.withTickets(ctx, events)
}

// GetEvent - one published event. Drafts and cancelled events are not found.
func (uc *EventUseCase) GetEvent(ctx context.Context, eventID int64) (*models.EventResponse, error) {
	event, err := uc.store.GetPublishedEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if event == nil {
		return nil, apperrors.NotFound("Event")
	}
	out, err := uc.withTickets(ctx, []catalog.Event{*event})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// MyEvents - every event the principal organizes, drafts and cancelled included
func (uc *EventUseCase) MyEvents(ctx context.Context, p authz.Principal) ([]models.EventResponse, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated("Login required to list your events")
	}
	events, err := uc.store.ListEventsByOrganizer(ctx, p.UserID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return uc.withTickets(ctx, events)
}

func (uc *EventUseCase) Categories(ctx context.Context) ([]catalog.Category, error) {
	categories, err := uc.store.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return categories, nil
}

// TicketTypes - active ticket types of one published event, cheapest first
func (uc *EventUseCase) TicketTypes(ctx context.Context, eventID int64) ([]models.TicketTypeResponse, error) {
	event, err := uc.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.Tickets, nil
}

func (uc *EventUseCase) withTickets(ctx context.Context, events []catalog.Event) ([]models.EventResponse, error) {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	grouped, err := uc.store.ListTicketTypes(ctx, ids...)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	out := make([]models.EventResponse, len(events))
	for i, e := range events {
		tickets := make([]models.TicketTypeResponse, 0, len(grouped[e.ID]))
		for _, tt := range grouped[e.ID] {
			tickets = append(tickets, models.NewTicketTypeResponse(tt))
		}
		out[i] = models.EventResponse{Event: e, Tickets: tickets}
	}
	return out, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
