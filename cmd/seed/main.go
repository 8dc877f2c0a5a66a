// Command seed loads a demo catalog: users, categories, events, ticket types
// and promo codes. Events that already exist for the organizer are skipped.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/db"
	"github.com/eventhive-services/common/logger"
	bookingModels "github.com/eventhive-services/services/booking-lambda/models"
)

func main() {
	var migrate, dryRun bool

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.BoolVar(&migrate, "migrate", false, "create the schema before seeding")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the fixtures without touching the database")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	data := buildSeed(time.Now().UTC())
	if err := data.validate(); err != nil {
		logger.Fatal("Invalid seed data: %v", err)
	}
	if dryRun {
		fmt.Printf("Seed data valid: %d users, %d categories, %d events\n", len(data.Users), len(data.Categories), len(data.Events))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := db.InitDB(cfg); err != nil {
		logger.Fatal("Failed to init DB: %v", err)
	}
	defer db.CloseDB()

	ctx := context.Background()
	if migrate {
		if err := db.InitializeSchema(ctx, db.GetDB()); err != nil {
			logger.Fatal("Failed to initialize schema: %v", err)
		}
	}

	if err := db.WithTransaction(ctx, db.GetDB(), nil, func(tx *sql.Tx) error {
		return seed(ctx, tx, data)
	}); err != nil {
		logger.Fatal("Seeding failed: %v", err)
	}
	fmt.Println("✅ Seed completed")
}

func seed(ctx context.Context, tx *sql.Tx, data seedData) error {
	userIDs := make(map[string]int64, len(data.Users))
	for _, u := range data.Users {
		// LAST_INSERT_ID(id) makes an existing row report its id.
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, full_name, role) VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), full_name = VALUES(full_name), role = VALUES(role)`,
			u.Email, u.FullName, string(u.Role))
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
		if userIDs[u.Email], err = res.LastInsertId(); err != nil {
			return err
		}
		fmt.Printf("  user     %-28s id=%d (%s)\n", u.Email, userIDs[u.Email], u.Role)
	}

	categoryIDs := make(map[string]int64, len(data.Categories))
	for _, c := range data.Categories {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, description) VALUES (?, ?)
			 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), description = VALUES(description)`,
			c.Name, c.Description)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
		if categoryIDs[c.Name], err = res.LastInsertId(); err != nil {
			return err
		}
	}

	organizerID, ok := userIDs[data.Organizer]
	if !ok {
		return fmt.Errorf("organizer %s is not in the seed users", data.Organizer)
	}

	for _, se := range data.Events {
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM events WHERE organizer_id = ? AND title = ?`,
			organizerID, se.Event.Title).Scan(&existing); err != nil {
			return err
		}
		if existing > 0 {
			fmt.Printf("  event    %-28s skipped (exists)\n", se.Event.Title)
			continue
		}

		var categoryID sql.NullInt64
		if id, ok := categoryIDs[se.Category]; ok {
			categoryID = sql.NullInt64{Int64: id, Valid: true}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO events (organizer_id, category_id, title, description, location, start_date, end_date, status, is_featured)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			organizerID, categoryID, se.Event.Title, se.Event.Description, se.Event.Location,
			se.Event.StartDate, se.Event.EndDate, se.Event.Status, se.Event.IsFeatured)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", se.Event.Title, err)
		}
		eventID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		fmt.Printf("  event    %-28s id=%d (%s)\n", se.Event.Title, eventID, se.Event.Status)

		for _, tt := range se.TicketTypes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_types (event_id, name, description, price, max_quantity, sold_quantity, is_active, sale_start, sale_end)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				eventID, tt.Name, tt.Description, tt.Price.StringFixed(2), tt.MaxQuantity, tt.SoldQuantity, tt.IsActive,
				tt.SaleStart, tt.SaleEnd); err != nil {
				return fmt.Errorf("insert ticket type %s: %w", tt.Name, err)
			}
		}
		for _, p := range se.PromoCodes {
			if err := insertPromo(ctx, tx, &eventID, p); err != nil {
				return err
			}
		}
	}

	for _, p := range data.GlobalPromos {
		if err := insertPromo(ctx, tx, nil, p); err != nil {
			return err
		}
	}
	return nil
}

// insertPromo leaves an existing code and its used_count untouched.
func insertPromo(ctx context.Context, tx *sql.Tx, eventID *int64, p bookingModels.PromoCode) error {
	_, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO promo_codes (event_id, code, discount_percent, discount_amount, max_uses, used_count, valid_until, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		eventID, p.Code, p.DiscountPercent, p.DiscountAmount.StringFixed(2), p.MaxUses, p.UsedCount, p.ValidUntil, p.IsActive)
	if err != nil {
		return fmt.Errorf("insert promo code %s: %w", p.Code, err)
	}
	fmt.Printf("  promo    %s\n", p.Code)
	return nil
}
