package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/logger"
)

var db *sql.DB

// MySQL server error numbers the booking engine reacts to.
const (
	ErrNumDuplicateEntry   uint16 = 1062
	ErrNumLockWaitTimeout  uint16 = 1205
	ErrNumDeadlockDetected uint16 = 1213
)

// Config holds database configuration
type Config struct {
	Server   string
	Port     int
	Database string
	User     string
	Password string
}

// ConfigFrom extracts the database settings from the service config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Server:   cfg.DBServer,
		Port:     cfg.DBPort,
		Database: cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
	}
}

// DSN builds the go-sql-driver DSN. Times are stored and read as UTC.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Server, c.Port)
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// InitDB initializes the global connection pool from the service config
func InitDB(cfg *config.Config) error {
	return InitDBWithConfig(ConfigFrom(cfg))
}

// InitDBWithConfig initializes database with custom config
func InitDBWithConfig(config Config) error {
	conn, err := Open(config)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// Open creates and pings a pool without touching the global one.
func Open(config Config) (*sql.DB, error) {
	conn, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Default().WithFields(map[string]interface{}{
		"server":   config.Server,
		"port":     config.Port,
		"database": config.Database,
	}).Info("[DB] Connected")

	return conn, nil
}

// GetDB returns the database connection
func GetDB() *sql.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// Transaction helpers

// BookingTxOptions is the isolation the booking engine runs under. Row locks
// taken with SELECT ... FOR UPDATE do the real work.
var BookingTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// WithTransaction executes fn within a transaction on conn. A panic or an
// error from fn rolls the transaction back.
func WithTransaction(ctx context.Context, conn *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Error classification

func mysqlErrNumber(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number, true
	}
	return 0, false
}

// IsDuplicateKey reports a unique index violation.
func IsDuplicateKey(err error) bool {
	n, ok := mysqlErrNumber(err)
	return ok && n == ErrNumDuplicateEntry
}

// IsRetryable reports contention errors after which the whole transaction
// can be replayed: deadlocks and lock wait timeouts.
func IsRetryable(err error) bool {
	n, ok := mysqlErrNumber(err)
	return ok && (n == ErrNumDeadlockDetected || n == ErrNumLockWaitTimeout)
}
