package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	catalog "github.com/eventhive-services/common/models"
	"github.com/eventhive-services/services/event-lambda/models"
)

// EventRepository handles read-only catalog access: events, categories and
// ticket types. Lookups return (nil, nil) when no row matches.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(conn *sql.DB) *EventRepository {
	return &EventRepository{db: conn}
}

const eventColumns = `
	e.id, e.organizer_id, e.category_id, e.title, e.description, e.location,
	e.start_date, e.end_date, e.status, e.is_featured, e.image_url`

const ticketTypeColumns = `
	id, event_id, name, description, price, max_quantity, sold_quantity, is_active, sale_start, sale_end`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*catalog.Event, error) {
	var (
		e           catalog.Event
		categoryID  sql.NullInt64
		description sql.NullString
		imageURL    sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.OrganizerID, &categoryID, &e.Title, &description, &e.Location,
		&e.StartDate, &e.EndDate, &e.Status, &e.IsFeatured, &imageURL,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		e.CategoryID = &categoryID.Int64
	}
	e.Description = description.String
	if imageURL.Valid {
		e.ImageURL = &imageURL.String
	}
	return &e, nil
}

func scanTicketType(row rowScanner) (*catalog.TicketType, error) {
	var (
		tt          catalog.TicketType
		description sql.NullString
		saleStart   sql.NullTime
		saleEnd     sql.NullTime
	)
	err := row.Scan(
		&tt.ID, &tt.EventID, &tt.Name, &description, &tt.Price,
		&tt.MaxQuantity, &tt.SoldQuantity, &tt.IsActive, &saleStart, &saleEnd,
	)
	if err != nil {
		return nil, err
	}
	tt.Description = description.String
	if saleStart.Valid {
		tt.SaleStart = &saleStart.Time
	}
	if saleEnd.Valid {
		tt.SaleEnd = &saleEnd.Time
	}
	return &tt, nil
}

// ============================================================
// Single-row lookups used by the booking services
// ============================================================

// GetEvent returns an event in any status.
func (r *EventRepository) GetEvent(ctx context.Context, eventID int64) (*catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return e, nil
}

// GetPublishedEvent returns the event only when it accepts bookings.
func (r *EventRepository) GetPublishedEvent(ctx context.Context, eventID int64) (*catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = ? AND e.status = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID, catalog.EventStatusPublished))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get published event %d: %w", eventID, err)
	}
	return e, nil
}

func (r *EventRepository) GetTicketType(ctx context.Context, ticketTypeID int64) (*catalog.TicketType, error) {
	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE id = ?`
	tt, err := scanTicketType(r.db.QueryRowContext(ctx, query, ticketTypeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket type %d: %w", ticketTypeID, err)
	}
	return tt, nil
}

// GetActiveTicketType returns the ticket type only if it is active and
// belongs to eventID.
func (r *EventRepository) GetActiveTicketType(ctx context.Context, ticketTypeID, eventID int64) (*catalog.TicketType, error) {
	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE id = ? AND event_id = ? AND is_active = TRUE`
	tt, err := scanTicketType(r.db.QueryRowContext(ctx, query, ticketTypeID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active ticket type %d: %w", ticketTypeID, err)
	}
	return tt, nil
}

// ============================================================
// Browse queries
// ============================================================

// ListPublishedEvents returns published events matching filter, newest first.
// Text filters are case-insensitive substring matches.
func (r *EventRepository) ListPublishedEvents(ctx context.Context, filter models.EventFilter) ([]catalog.Event, error) {
	var (
		joins      string
		conditions = []string{"e.status = ?"}
		args       = []interface{}{catalog.EventStatusPublished}
	)

	if filter.Category != "" {
		joins = ` JOIN categories c ON c.id = e.category_id`
		conditions = append(conditions, "LOWER(c.name) LIKE ?")
		args = append(args, likePattern(filter.Category))
	}
	if filter.Location != "" {
		conditions = append(conditions, "LOWER(e.location) LIKE ?")
		args = append(args, likePattern(filter.Location))
	}
	if filter.Featured != nil {
		conditions = append(conditions, "e.is_featured = ?")
		args = append(args, *filter.Featured)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(e.title) LIKE ? OR LOWER(e.description) LIKE ?)")
		args = append(args, likePattern(filter.Search), likePattern(filter.Search))
	}
	args = append(args, filter.Limit)

	query := `SELECT ` + eventColumns + ` FROM events e` + joins +
		` WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY e.created_at DESC, e.id DESC LIMIT ?`
	return r.queryEvents(ctx, query, args...)
}

// ListFeaturedEvents returns published, featured events, newest first.
func (r *EventRepository) ListFeaturedEvents(ctx context.Context, limit int) ([]catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e
		WHERE e.status = ? AND e.is_featured = TRUE
		ORDER BY e.created_at DESC, e.id DESC LIMIT ?`
	return r.queryEvents(ctx, query, catalog.EventStatusPublished, limit)
}

// ListEventsByOrganizer returns every event organizerID owns, in any status,
// newest first.
func (r *EventRepository) ListEventsByOrganizer(ctx context.Context, organizerID int64) ([]catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e
		WHERE e.organizer_id = ?
		ORDER BY e.created_at DESC, e.id DESC`
	return r.queryEvents(ctx, query, organizerID)
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]catalog.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []catalog.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (r *EventRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []catalog.Category{}
	for rows.Next() {
		var (
			c    catalog.Category
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Description = desc.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListTicketTypes returns the active ticket types of the given events,
// grouped by event id and ordered by price.
func (r *EventRepository) ListTicketTypes(ctx context.Context, eventIDs ...int64) (map[int64][]catalog.TicketType, error) {
	grouped := make(map[int64][]catalog.TicketType, len(eventIDs))
	if len(eventIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(eventIDs)), ",")
	args := make([]interface{}, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}

	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types
		WHERE event_id IN (` + placeholders + `) AND is_active = TRUE
		ORDER BY event_id ASC, price ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket type: %w", err)
		}
		grouped[tt.EventID] = append(grouped[tt.EventID], *tt)
	}
	return grouped, rows.Err()
}

// likePattern lowercases s and escapes LIKE wildcards.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
