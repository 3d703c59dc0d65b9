package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/landscout/internal/models"
)

// Repository archives finished runs in PostgreSQL.
type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is what the jobs and the web interface need from the archive.
type Interface interface {
	EnsureSchema(ctx context.Context) error
	SaveRun(ctx context.Context, run models.RunRecord, rows []models.Row) error
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	Ping(ctx context.Context) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
