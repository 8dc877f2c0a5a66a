package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Event is a catalog entry owned by an organizer.
type Event struct {
	ID          int64     `json:"id" db:"id"`
	OrganizerID int64     `json:"organizerId" db:"organizer_id"`
	CategoryID  *int64    `json:"categoryId,omitempty" db:"category_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Location    string    `json:"location" db:"location"`
	StartDate   time.Time `json:"startDate" db:"start_date"`
	EndDate     time.Time `json:"endDate" db:"end_date"`
	Status      string    `json:"status" db:"status"`
	IsFeatured  bool      `json:"isFeatured" db:"is_featured"`
	ImageURL    *string   `json:"imageUrl,omitempty" db:"image_url"`
}

// IsPublished reports whether the event accepts bookings.
func (e *Event) IsPublished() bool {
	return e != nil && e.Status == EventStatusPublished
}

// TicketType is a priced, capacity-limited class of admission to one event.
type TicketType struct {
	ID           int64           `json:"id" db:"id"`
	EventID      int64           `json:"eventId" db:"event_id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description,omitempty" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	MaxQuantity  int             `json:"maxQuantity" db:"max_quantity"`
	SoldQuantity int             `json:"soldQuantity" db:"sold_quantity"`
	IsActive     bool            `json:"isActive" db:"is_active"`
	SaleStart    *time.Time      `json:"saleStart,omitempty" db:"sale_start"`
	SaleEnd      *time.Time      `json:"saleEnd,omitempty" db:"sale_end"`
}

// Available is the remaining capacity, never negative.
func (t *TicketType) Available() int {
	if n := t.MaxQuantity - t.SoldQuantity; n > 0 {
		return n
	}
	return 0
}

// OnSale reports whether now falls inside the optional sale window.
func (t *TicketType) OnSale(now time.Time) bool {
	if t.SaleStart != nil && now.Before(*t.SaleStart) {
		return false
	}
	if t.SaleEnd != nil && now.After(*t.SaleEnd) {
		return false
	}
	return true
}

// Category groups events for browsing.
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}
