package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// FinanceDB wraps the Postgres connection used by every store operation.
type FinanceDB struct {
	DB  *sql.DB
	Log *zerolog.Logger
}

// NewFinanceDB opens the database connection and verifies it with a ping.
func NewFinanceDB(log *zerolog.Logger) (*FinanceDB, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Error().Msg("DATABASE_URL environment variable is not set")
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}

	// Check we are actually connected
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Database connection failed during ping")
		return nil, err
	}

	return &FinanceDB{DB: db, Log: log}, nil
}

func (f *FinanceDB) Close() error {
	if err := f.DB.Close(); err != nil {
		return err
	}
	f.Log.Info().Msg("database connection closed")
	return nil
}

// Migrate runs the embedded goose migrations.
func (f *FinanceDB) Migrate() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}

	if err := goose.Up(f.DB, "migrations"); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	f.Log.Info().Msg("Migrations applied successfully")
	return nil
}

func (f *FinanceDB) execQuery(tx *sql.Tx, query string, args ...interface{}) error {
	if f.DB == nil {
		return fmt.Errorf("database connection is not established")
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// CommitTransaction commits the given transaction, rolling back on error.
func (f *FinanceDB) CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
