package database

import (
	"bookschema/internal/config"
	"bookschema/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureDatabaseExists connects as the admin user and creates cfg.Name if it
// is missing.
func EnsureDatabaseExists(ctx context.Context, cfg config.DBConfig, log *logger.Logger) error {
	if cfg.AdminUser == "" {
		return fmt.Errorf("DB_ADMIN_USER environment variable is required")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("DB_ADMIN_PASSWORD environment variable is required")
	}

	log.Info("Checking if database exists", "database", cfg.Name)

	poolCfg, err := pgxpool.ParseConfig(cfg.AdminDSN())
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	if err := pool.QueryRow(ctx, query, cfg.Name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		log.Info("Database already exists", "database", cfg.Name)
		return nil
	}

	log.Info("Database does not exist, creating it", "database", cfg.Name)

	// CREATE DATABASE cannot run inside a transaction.
	createQuery := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{cfg.Name}.Sanitize())
	if _, err := pool.Exec(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	log.Info("Database created", "database", cfg.Name)
	return nil
}

func Connect(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	log.Info("Connecting to database", "dsn", cfg.Redacted())
	pool, err := ConnectDSN(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}
	log.Info("Database connection pool established")
	return pool, nil
}

func ConnectDSN(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string (check your .env file): %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 5 * time.Minute
	poolCfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
