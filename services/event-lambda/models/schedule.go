package models

import (
	"time"

	catalog "github.com/eventhive-services/common/models"
)

// Schedule bounds for events written by the seed tool
const (
	MinEventDuration = 30 * time.Minute
	MaxEventDuration = 14 * 24 * time.Hour
)

// ScheduleError is returned by ValidateSchedule and ValidateSaleWindow
type ScheduleError struct {
	Message string
}

func (e *ScheduleError) Error() string {
	return e.Message
}

// ValidateSchedule checks an event's start and end dates.
//
// Rules:
// 1. Both dates are set
// 2. End is after start
// 3. Duration is at least MinEventDuration
// 4. Duration does not exceed MaxEventDuration
func ValidateSchedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ScheduleError{Message: "event start and end dates are required"}
	}
	if !end.After(start) {
		return &ScheduleError{Message: "event end must be after its start"}
	}

	duration := end.Sub(start)
	if duration < MinEventDuration {
		return &ScheduleError{Message: "event must last at least 30 minutes"}
	}
	if duration > MaxEventDuration {
		return &ScheduleError{Message: "event must not last longer than 14 days"}
	}
	return nil
}

// ValidateSaleWindow checks a ticket type's optional sale window against
// its event. Sales may open any time but must close by the event's end.
func ValidateSaleWindow(tt catalog.TicketType, event catalog.Event) error {
	if tt.SaleStart != nil && tt.SaleEnd != nil && !tt.SaleEnd.After(*tt.SaleStart) {
		return &ScheduleError{Message: "ticket sale end must be after sale start"}
	}
	if tt.SaleEnd != nil && tt.SaleEnd.After(event.EndDate) {
		return &ScheduleError{Message: "ticket sales must close before the event ends"}
	}
	if tt.SaleStart != nil && !tt.SaleStart.Before(event.EndDate) {
		return &ScheduleError{Message: "ticket sales must open before the event ends"}
	}
	if tt.MaxQuantity < 1 {
		return &ScheduleError{Message: "ticket type needs a capacity of at least 1"}
	}
	if tt.SoldQuantity < 0 || tt.SoldQuantity > tt.MaxQuantity {
		return &ScheduleError{Message: "sold quantity must be between 0 and capacity"}
	}
	if tt.Price.IsNegative() {
		return &ScheduleError{Message: "ticket price must not be negative"}
	}
	return nil
}
