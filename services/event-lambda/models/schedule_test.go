package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/eventhive-services/common/models"
)

func TestValidateSchedule(t *testing.T) {
	start := time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start       time.Time
		end         time.Time
		shouldError bool
		errorMsg    string
	}{
		{name: "Valid evening event", start: start, end: start.Add(3 * time.Hour)},
		{name: "Valid multi-day festival", start: start, end: start.Add(72 * time.Hour)},
		{name: "Missing start", end: start, shouldError: true, errorMsg: "required"},
		{name: "End before start", start: start, end: start.Add(-time.Hour), shouldError: true, errorMsg: "after its start"},
		{name: "End equals start", start: start, end: start, shouldError: true, errorMsg: "after its start"},
		{name: "Too short", start: start, end: start.Add(10 * time.Minute), shouldError: true, errorMsg: "at least 30 minutes"},
		{name: "Too long", start: start, end: start.Add(15 * 24 * time.Hour), shouldError: true, errorMsg: "14 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.start, tt.end)

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateSaleWindow(t *testing.T) {
	eventEnd := time.Date(2026, 11, 20, 22, 0, 0, 0, time.UTC)
	event := catalog.Event{StartDate: eventEnd.Add(-3 * time.Hour), EndDate: eventEnd}
	at := func(d time.Duration) *time.Time {
		v := eventEnd.Add(d)
		return &v
	}
	base := catalog.TicketType{Price: decimal.RequireFromString("10.00"), MaxQuantity: 100}

	tests := []struct {
		name        string
		mutate      func(*catalog.TicketType)
		shouldError bool
	}{
		{name: "No window", mutate: func(*catalog.TicketType) {}},
		{name: "Window before event end", mutate: func(tt *catalog.TicketType) { tt.SaleStart, tt.SaleEnd = at(-720*time.Hour), at(-3*time.Hour) }},
		{name: "Inverted window", mutate: func(tt *catalog.TicketType) { tt.SaleStart, tt.SaleEnd = at(-time.Hour), at(-2*time.Hour) }, shouldError: true},
		{name: "Sales close after event", mutate: func(tt *catalog.TicketType) { tt.SaleEnd = at(time.Hour) }, shouldError: true},
		{name: "Sales open after event", mutate: func(tt *catalog.TicketType) { tt.SaleStart = at(time.Minute) }, shouldError: true},
		{name: "Zero capacity", mutate: func(tt *catalog.TicketType) { tt.MaxQuantity = 0 }, shouldError: true},
		{name: "Oversold", mutate: func(tt *catalog.TicketType) { tt.SoldQuantity = 101 }, shouldError: true},
		{name: "Negative price", mutate: func(tt *catalog.TicketType) { tt.Price = decimal.RequireFromString("-1") }, shouldError: true},
		{name: "Free ticket", mutate: func(tt *catalog.TicketType) { tt.Price = decimal.Zero }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := base
			tc.mutate(&tt)
			err := ValidateSaleWindow(tt, event)
			if tc.shouldError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tc.shouldError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}
