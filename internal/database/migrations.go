package database

import (
	"bookschema/internal/logger"
	"bookschema/internal/models"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrator executes planned statements against a pool.
type Migrator struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewMigrator(pool *pgxpool.Pool, log *logger.Logger) *Migrator {
	return &Migrator{pool: pool, log: log.With("component", "Migrator")}
}

// Run executes all statements in order inside one transaction. PostgreSQL
// DDL is transactional, so a failure leaves the schema untouched.
func (m *Migrator) Run(ctx context.Context, statements []models.Statement) error {
	if len(statements) == 0 {
		return nil
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range statements {
		m.log.Info("Running migration statement",
			"step", fmt.Sprintf("%d/%d", i+1, len(statements)),
			"kind", stmt.Kind,
			"table", stmt.Table,
		)
		if _, err := tx.Exec(ctx, stmt.SQL); err != nil {
			return fmt.Errorf("migration %d (%s on %s) failed: %w", i+1, stmt.Kind, stmt.Table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	m.log.Info("All migrations completed successfully", "statements", len(statements))
	return nil
}
