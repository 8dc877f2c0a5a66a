package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventhive-services/common/authz"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/common/validator"
	bookingModels "github.com/eventhive-services/services/booking-lambda/models"
	eventModels "github.com/eventhive-services/services/event-lambda/models"
)

type seedUser struct {
	Email    string
	FullName string
	Role     authz.Role
}

type seedEvent struct {
	Event       catalog.Event
	Category    string
	TicketTypes []catalog.TicketType
	// PromoCodes are bound to this event.
	PromoCodes []bookingModels.PromoCode
}

type seedData struct {
	Users      []seedUser
	Categories []catalog.Category
	// Organizer is the email of the user that owns every seeded event.
	Organizer string
	Events    []seedEvent
	// GlobalPromos apply to any event.
	GlobalPromos []bookingModels.PromoCode
}

func timePtr(t time.Time) *time.Time { return &t }

// buildSeed returns the demo catalog, dated relative to now.
func buildSeed(now time.Time) seedData {
	day := now.Truncate(24 * time.Hour)
	jazzStart := day.Add(14*24*time.Hour + 19*time.Hour)
	confStart := day.Add(30*24*time.Hour + 9*time.Hour)
	draftStart := day.Add(60*24*time.Hour + 18*time.Hour)

	return seedData{
		Users: []seedUser{
			{Email: "admin@eventhive.local", FullName: "System Administrator", Role: authz.RoleAdmin},
			{Email: "organizer@eventhive.local", FullName: "Demo Organizer", Role: authz.RoleOrganizer},
			{Email: "attendee@eventhive.local", FullName: "Demo Attendee", Role: authz.RoleAttendee},
		},
		Categories: []catalog.Category{
			{Name: "Music", Description: "Concerts and live sets"},
			{Name: "Technology", Description: "Conferences and meetups"},
			{Name: "Arts", Description: "Exhibitions and theatre"},
		},
		Organizer: "organizer@eventhive.local",
		Events: []seedEvent{
			{
				Category: "Music",
				Event: catalog.Event{
					Title:       "Jazz Night",
					Description: "An evening of live jazz.",
					Location:    "Main Hall",
					StartDate:   jazzStart,
					EndDate:     jazzStart.Add(3 * time.Hour),
					Status:      catalog.EventStatusPublished,
					IsFeatured:  true,
				},
				TicketTypes: []catalog.TicketType{
					{Name: "General", Price: decimal.RequireFromString("375.00"), MaxQuantity: 200, IsActive: true},
					{Name: "VIP", Description: "Front rows and a drink", Price: decimal.RequireFromString("900.00"), MaxQuantity: 20, IsActive: true,
						SaleEnd: timePtr(jazzStart)},
				},
				PromoCodes: []bookingModels.PromoCode{
					{Code: "jazz10", DiscountPercent: 10, MaxUses: 100, IsActive: true},
				},
			},
			{
				Category: "Technology",
				Event: catalog.Event{
					Title:       "Cloud Summit",
					Description: "Two days of talks on distributed systems.",
					Location:    "Convention Center",
					StartDate:   confStart,
					EndDate:     confStart.Add(33 * time.Hour),
					Status:      catalog.EventStatusPublished,
				},
				TicketTypes: []catalog.TicketType{
					{Name: "Early Bird", Price: decimal.RequireFromString("1200.00"), MaxQuantity: 50, IsActive: true,
						SaleEnd: timePtr(day.Add(7 * 24 * time.Hour))},
					{Name: "Standard", Price: decimal.RequireFromString("1800.00"), MaxQuantity: 300, IsActive: true},
				},
				PromoCodes: []bookingModels.PromoCode{
					{Code: "FIRST3", DiscountAmount: decimal.RequireFromString("500.00"), MaxUses: 3, IsActive: true},
				},
			},
			{
				Category: "Arts",
				Event: catalog.Event{
					Title:     "Gallery Preview",
					Location:  "Studio 4",
					StartDate: draftStart,
					EndDate:   draftStart.Add(2 * time.Hour),
					Status:    catalog.EventStatusDraft,
				},
				TicketTypes: []catalog.TicketType{
					{Name: "Entry", Price: decimal.Zero, MaxQuantity: 40, IsActive: true},
				},
			},
		},
		GlobalPromos: []bookingModels.PromoCode{
			{Code: "welcome", DiscountAmount: decimal.RequireFromString("50.00"), MaxUses: 1000, IsActive: true,
				ValidUntil: timePtr(day.Add(90 * 24 * time.Hour))},
		},
	}
}

// validate checks every fixture with the same rules the services enforce,
// and normalizes promo codes to their stored form.
func (s *seedData) validate() error {
	for i := range s.Events {
		se := &s.Events[i]
		if err := eventModels.ValidateSchedule(se.Event.StartDate, se.Event.EndDate); err != nil {
			return fmt.Errorf("event %q: %w", se.Event.Title, err)
		}
		for _, tt := range se.TicketTypes {
			if err := eventModels.ValidateSaleWindow(tt, se.Event); err != nil {
				return fmt.Errorf("event %q ticket type %q: %w", se.Event.Title, tt.Name, err)
			}
		}
		if err := normalizePromos(se.PromoCodes); err != nil {
			return fmt.Errorf("event %q: %w", se.Event.Title, err)
		}
	}
	return normalizePromos(s.GlobalPromos)
}

func normalizePromos(promos []bookingModels.PromoCode) error {
	for i := range promos {
		promos[i].Code = validator.NormalizePromoCode(promos[i].Code)
		if !validator.IsValidPromoCode(promos[i].Code) {
			return fmt.Errorf("promo code %q is malformed", promos[i].Code)
		}
		if err := promos[i].Validate(); err != nil {
			return fmt.Errorf("promo code %q: %w", promos[i].Code, err)
		}
	}
	return nil
}
