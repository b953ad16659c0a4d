package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/fadhlanhapp/egov-portal/config"
	_ "github.com/lib/pq"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// OpenDB opens the PostgreSQL pool and waits for it to answer
func OpenDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	for i := 0; i < maxRetries; i++ {
		err = db.Ping()
		if err == nil {
			log.Printf("Successfully connected to the database %s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
			return db, nil
		}
		log.Printf("Failed to ping database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	db.Close()
	return nil, fmt.Errorf("failed to ping database: %w", err)
}

// SQLStore is the PostgreSQL-backed Store
type SQLStore struct {
	db    *sql.DB
	repos *Repositories
}

// NewSQLStore creates a store over an open pool
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, repos: NewRepositories(db)}
}

// NewRepositories binds every repository to q
func NewRepositories(q DBTX) *Repositories {
	return &Repositories{
		Verifications: &VerificationRepo{q: q},
		Payments:      &PaymentRecordRepo{q: q},
		Applications:  &ApplicationRepo{q: q},
		Rent:          &RentRepo{q: q},
		Tax:           &TaxRepo{q: q},
		Assessments:   &AssessmentRepo{q: q},
		Audit:         &AuditRepo{q: q},
		Notifications: &NotificationRepo{q: q},
	}
}

// Repos returns repositories outside of any transaction
func (s *SQLStore) Repos() *Repositories {
	return s.repos
}

// RunInTx runs fn inside a single database transaction
func (s *SQLStore) RunInTx(ctx context.Context, fn func(r *Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the pool is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func lockClause(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
