package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the tables the booking services read and write.
// Ordered so foreign keys resolve.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		email       VARCHAR(255) NOT NULL UNIQUE,
		full_name   VARCHAR(255) NOT NULL,
		role        ENUM('admin','organizer','attendee') NOT NULL DEFAULT 'attendee',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS categories (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS events (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		organizer_id BIGINT NOT NULL,
		category_id  BIGINT NULL,
		title        VARCHAR(255) NOT NULL,
		description  TEXT NULL,
		location     VARCHAR(255) NOT NULL DEFAULT '',
		start_date   DATETIME NOT NULL,
		end_date     DATETIME NOT NULL,
		status       ENUM('draft','published','cancelled') NOT NULL DEFAULT 'draft',
		is_featured  BOOLEAN NOT NULL DEFAULT FALSE,
		image_url    VARCHAR(500) NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_events_status_start (status, start_date),
		CONSTRAINT fk_events_organizer FOREIGN KEY (organizer_id) REFERENCES users(id),
		CONSTRAINT fk_events_category FOREIGN KEY (category_id) REFERENCES categories(id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS ticket_types (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		event_id      BIGINT NOT NULL,
		name          VARCHAR(100) NOT NULL,
		description   TEXT NULL,
		price         DECIMAL(10,2) NOT NULL,
		max_quantity  INT NOT NULL,
		sold_quantity INT NOT NULL DEFAULT 0,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		sale_start    DATETIME NULL,
		sale_end      DATETIME NULL,
		CONSTRAINT chk_ticket_types_sold CHECK (sold_quantity >= 0 AND sold_quantity <= max_quantity),
		CONSTRAINT fk_ticket_types_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS promo_codes (
		id               BIGINT AUTO_INCREMENT PRIMARY KEY,
		event_id         BIGINT NULL,
		code             VARCHAR(50) NOT NULL UNIQUE,
		discount_percent INT NOT NULL DEFAULT 0,
		discount_amount  DECIMAL(10,2) NOT NULL DEFAULT 0,
		max_uses         INT NOT NULL,
		used_count       INT NOT NULL DEFAULT 0,
		valid_until      DATETIME NULL,
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT chk_promo_codes_used CHECK (used_count >= 0 AND used_count <= max_uses),
		CONSTRAINT fk_promo_codes_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id             BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id     VARCHAR(20) NOT NULL,
		user_id        BIGINT NOT NULL,
		event_id       BIGINT NOT NULL,
		ticket_type_id BIGINT NOT NULL,
		quantity       INT NOT NULL,
		total_amount   DECIMAL(10,2) NOT NULL,
		attendee_name  VARCHAR(255) NOT NULL,
		attendee_email VARCHAR(255) NOT NULL,
		attendee_phone VARCHAR(30) NULL,
		promo_code     VARCHAR(50) NULL,
		payment_status ENUM('pending','paid','failed') NOT NULL DEFAULT 'pending',
		booking_status ENUM('confirmed','checked_in','cancelled') NOT NULL DEFAULT 'confirmed',
		check_in_token TEXT NOT NULL,
		checked_in_at  DATETIME NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE INDEX ux_bookings_booking_id (booking_id),
		INDEX idx_bookings_user (user_id, created_at),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_bookings_event FOREIGN KEY (event_id) REFERENCES events(id),
		CONSTRAINT fk_bookings_ticket_type FOREIGN KEY (ticket_type_id) REFERENCES ticket_types(id)
	) ENGINE=InnoDB`,
}

// InitializeSchema creates any missing tables. Existing tables are left alone.
func InitializeSchema(ctx context.Context, conn *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
