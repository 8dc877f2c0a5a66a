package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eventhive-services/common/authz"
	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/common/ticket"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository/memstore"
)

const (
	organizerID   int64 = 10
	publishedID   int64 = 1
	draftID       int64 = 2
	otherEventID  int64 = 3
	generalTypeID int64 = 100
	draftTypeID   int64 = 200
	otherTypeID   int64 = 300
)

var (
	attendee  = authz.Principal{UserID: 50, Role: authz.RoleAttendee}
	attendee2 = authz.Principal{UserID: 51, Role: authz.RoleAttendee}
	organizer = authz.Principal{UserID: organizerID, Role: authz.RoleOrganizer}
	admin     = authz.Principal{UserID: 1, Role: authz.RoleAdmin}
	stranger  = authz.Principal{UserID: 99, Role: authz.RoleOrganizer}

	fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	store    *memstore.Store
	signer   *ticket.Signer
	bookings *BookingUseCase
	checkins *CheckInUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	store.AddEvent(catalog.Event{
		ID: publishedID, OrganizerID: organizerID, Title: "Jazz Night", Location: "Main Hall",
		StartDate: fixedNow.Add(72 * time.Hour), EndDate: fixedNow.Add(75 * time.Hour),
		Status: catalog.EventStatusPublished,
	})
	store.AddEvent(catalog.Event{
		ID: draftID, OrganizerID: organizerID, Title: "Unannounced", Status: catalog.EventStatusDraft,
	})
	store.AddEvent(catalog.Event{
		ID: otherEventID, OrganizerID: 77, Title: "Other Show", Status: catalog.EventStatusPublished,
	})
	store.AddTicketType(catalog.TicketType{
		ID: generalTypeID, EventID: publishedID, Name: "General",
		Price: decimal.RequireFromString("375.00"), MaxQuantity: 20, IsActive: true,
	})
	store.AddTicketType(catalog.TicketType{
		ID: draftTypeID, EventID: draftID, Name: "General",
		Price: decimal.RequireFromString("10.00"), MaxQuantity: 5, SoldQuantity: 5, IsActive: true,
	})
	store.AddTicketType(catalog.TicketType{
		ID: otherTypeID, EventID: otherEventID, Name: "Standing",
		Price: decimal.RequireFromString("20.00"), MaxQuantity: 100, IsActive: true,
	})

	signer, err := ticket.NewSigner("test-secret")
	require.NoError(t, err)

	opts := Options{MaxAttempts: 3, Backoff: time.Millisecond, QRSize: 128, Now: func() time.Time { return fixedNow }}
	return &fixture{
		store:    store,
		signer:   signer,
		bookings: NewBookingUseCase(store, store, signer, opts),
		checkins: NewCheckInUseCase(store, store, signer),
	}
}

func bookingRequest(quantity int) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		EventID:       publishedID,
		TicketTypeID:  generalTypeID,
		Quantity:      quantity,
		AttendeeName:  "Ada Lovelace",
		AttendeeEmail: "ada@example.com",
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }
