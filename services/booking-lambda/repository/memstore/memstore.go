package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository"
)

// Store is an in-process repository.Store and catalog. A single mutex serializes
// transactions; a failed transaction restores the snapshot taken at its start.
// It backs the engine and handler tests.
type Store struct {
	mu          sync.Mutex
	events      map[int64]catalog.Event
	ticketTypes map[int64]catalog.TicketType
	promos      map[string]models.PromoCode
	bookings    map[string]models.Booking
	nextID      int64

	// forcedConflicts makes the next N ReserveSeats calls lose the race.
	forcedConflicts int
	// forcedDuplicates makes the next N InsertBooking calls collide.
	forcedDuplicates int
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		events:      make(map[int64]catalog.Event),
		ticketTypes: make(map[int64]catalog.TicketType),
		promos:      make(map[string]models.PromoCode),
		bookings:    make(map[string]models.Booking),
	}
}

// ============================================================
// Seeding
// ============================================================

func (s *Store) AddEvent(e catalog.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) AddTicketType(tt catalog.TicketType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticketTypes[tt.ID] = tt
}

func (s *Store) AddPromoCode(p models.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if p.ID == 0 {
		p.ID = s.nextID
	}
	s.promos[p.Code] = p
}

// UpdateTicketType applies fn to a stored ticket type, e.g. a price change.
func (s *Store) UpdateTicketType(id int64, fn func(*catalog.TicketType)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tt, ok := s.ticketTypes[id]; ok {
		fn(&tt)
		s.ticketTypes[id] = tt
	}
}

func (s *Store) UpdateBooking(bookingID string, fn func(*models.Booking)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[bookingID]; ok {
		fn(&b)
		s.bookings[bookingID] = b
	}
}

func (s *Store) ForceConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedConflicts = n
}

func (s *Store) ForceDuplicateIDs(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedDuplicates = n
}

// ============================================================
// Inspection
// ============================================================

func (s *Store) TicketType(id int64) (catalog.TicketType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt, ok := s.ticketTypes[id]
	return tt, ok
}

func (s *Store) PromoCode(code string) (models.PromoCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	return p, ok
}

func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// ============================================================
// Catalog
// ============================================================

func (s *Store) GetEvent(ctx context.Context, eventID int64) (*catalog.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) GetPublishedEvent(ctx context.Context, eventID int64) (*catalog.Event, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil || !e.IsPublished() {
		return nil, err
	}
	return e, nil
}

func (s *Store) GetTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt, ok := s.ticketTypes[ticketTypeID]
	if !ok {
		return nil, nil
	}
	return &tt, nil
}

func (s *Store) GetActiveTicketType(ctx context.Context, ticketTypeID, eventID int64) (*catalog.TicketType, error) {
	tt, err := s.GetTicketType(ctx, ticketTypeID)
	if err != nil || tt == nil || tt.EventID != eventID || !tt.IsActive {
		return nil, err
	}
	return tt, nil
}

// ============================================================
// Store
// ============================================================

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticketTypes := make(map[int64]catalog.TicketType, len(s.ticketTypes))
	for k, v := range s.ticketTypes {
		ticketTypes[k] = v
	}
	promos := make(map[string]models.PromoCode, len(s.promos))
	for k, v := range s.promos {
		promos[k] = v
	}
	bookings := make(map[string]models.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookings[k] = v
	}

	if err := fn(ctx, &memoryTx{s: s}); err != nil {
		s.ticketTypes = ticketTypes
		s.promos = promos
		s.bookings = bookings
		return err
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkCheckedIn(ctx context.Context, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || b.BookingStatus != models.BookingConfirmed {
		return false, nil
	}
	now := time.Now().UTC()
	b.BookingStatus = models.BookingCheckedIn
	b.CheckedInAt = &now
	s.bookings[bookingID] = b
	return true, nil
}

// memoryTx runs with Store.mu held.
type memoryTx struct {
	s *Store
}

func (t *memoryTx) LockTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error) {
	tt, ok := t.s.ticketTypes[ticketTypeID]
	if !ok {
		return nil, nil
	}
	return &tt, nil
}

func (t *memoryTx) ReserveSeats(ctx context.Context, ticketTypeID int64, quantity int) (bool, error) {
	if t.s.forcedConflicts > 0 {
		t.s.forcedConflicts--
		return false, nil
	}
	tt, ok := t.s.ticketTypes[ticketTypeID]
	if !ok || tt.SoldQuantity+quantity > tt.MaxQuantity {
		return false, nil
	}
	tt.SoldQuantity += quantity
	t.s.ticketTypes[ticketTypeID] = tt
	return true, nil
}

func (t *memoryTx) LockPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	p, ok := t.s.promos[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memoryTx) ConsumePromoCode(ctx context.Context, promoID int64) (bool, error) {
	for code, p := range t.s.promos {
		if p.ID != promoID {
			continue
		}
		if p.UsedCount >= p.MaxUses {
			return false, nil
		}
		p.UsedCount++
		t.s.promos[code] = p
		return true, nil
	}
	return false, nil
}

func (t *memoryTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	if t.s.forcedDuplicates > 0 {
		t.s.forcedDuplicates--
		return repository.ErrDuplicateBookingID
	}
	if _, exists := t.s.bookings[b.BookingID]; exists {
		return repository.ErrDuplicateBookingID
	}
	t.s.nextID++
	b.ID = t.s.nextID
	t.s.bookings[b.BookingID] = *b
	return nil
}
