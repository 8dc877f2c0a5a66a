package models

import (
	"testing"
	"time"
)

func TestTicketTypeAvailable(t *testing.T) {
	tests := []struct {
		max, sold, want int
	}{
		{20, 19, 1},
		{20, 20, 0},
		{10, 0, 10},
	}
	for _, tt := range tests {
		tt2 := TicketType{MaxQuantity: tt.max, SoldQuantity: tt.sold}
		if got := tt2.Available(); got != tt.want {
			t.Errorf("Available(max=%d, sold=%d) = %d, want %d", tt.max, tt.sold, got, tt.want)
		}
	}
}

func TestTicketTypeOnSale(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name       string
		start, end *time.Time
		want       bool
	}{
		{"no window", nil, nil, true},
		{"inside", &before, &after, true},
		{"not started", &after, nil, false},
		{"ended", nil, &before, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt2 := TicketType{SaleStart: tt.start, SaleEnd: tt.end}
			if got := tt2.OnSale(now); got != tt.want {
				t.Errorf("OnSale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventIsPublished(t *testing.T) {
	var nilEvent *Event
	if nilEvent.IsPublished() {
		t.Error("nil event is not published")
	}
	if (&Event{Status: EventStatusDraft}).IsPublished() {
		t.Error("draft event is not published")
	}
	if !(&Event{Status: EventStatusPublished}).IsPublished() {
		t.Error("published event should be published")
	}
}
