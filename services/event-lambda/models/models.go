package models

import (
	catalog "github.com/eventhive-services/common/models"
)

// Listing limits for GET /api/events and GET /api/events/featured
const (
	DefaultEventLimit    = 20
	MaxEventLimit        = 100
	DefaultFeaturedLimit = 10
	MaxFeaturedLimit     = 50
)

// EventFilter - query parameters of GET /api/events
// Empty strings and a nil Featured mean "no filter".
type EventFilter struct {
	Category string
	Location string
	Featured *bool
	Search   string
	Limit    int
}

// EventResponse - one published event with its ticket types.
// Used for the list, featured and detail endpoints.
type EventResponse struct {
	catalog.Event
	Tickets []TicketTypeResponse `json:"tickets"`
}

// TicketTypeResponse - ticket type as shown to buyers.
// Available is derived from max - sold at read time.
type TicketTypeResponse struct {
	catalog.TicketType
	Available int `json:"available"`
}

// NewTicketTypeResponse wraps a catalog ticket type for output
func NewTicketTypeResponse(tt catalog.TicketType) TicketTypeResponse {
	return TicketTypeResponse{TicketType: tt, Available: tt.Available()}
}
