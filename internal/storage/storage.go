package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/suspectuso/clip-review-bot/internal/payment"
)

var ErrNotFound = errors.New("not found")

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

// Storage handles all database operations
type Storage struct {
	db     *sql.DB
	driver string
}

// New opens the store and creates the schema. Postgres URLs use lib/pq,
// anything else is treated as a SQLite file path.
func New(ctx context.Context, dsn string) (*Storage, error) {
	driver := driverSQLite
	source := dsn + "?_journal_mode=WAL&_busy_timeout=5000"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = driverPostgres
		source = dsn
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == driverPostgres {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Storage{db: db, driver: driver}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		payment_method TEXT NOT NULL,
		payment_details TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

// --- Payment profiles ---

// UpsertProfile inserts or replaces the profile for p.UserID
func (s *Storage) UpsertProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, payment_method, payment_details)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
			payment_method = excluded.payment_method,
			payment_details = excluded.payment_details`,
		p.UserID, string(p.Method), p.Details,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile of a user
func (s *Storage) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var (
		p      Profile
		method string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, payment_method, payment_details FROM users WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &method, &p.Details)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.Method = payment.Method(method)
	return &p, nil
}

// HasProfile reports whether a user has registered a payout method
func (s *Storage) HasProfile(ctx context.Context, userID int64) (bool, error) {
	_, err := s.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CountProfiles returns the number of stored profiles
func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

// ClearProfiles removes every profile and returns how many were stored
func (s *Storage) ClearProfiles(ctx context.Context) (int64, error) {
	count, err := s.CountProfiles(ctx)
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM users"
	if s.driver == driverPostgres {
		query = "TRUNCATE TABLE users"
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("clear profiles: %w", err)
	}
	return int64(count), nil
}
