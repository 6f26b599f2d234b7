package main

import (
	"bookschema/internal/config"
	"bookschema/internal/database"
	"bookschema/internal/logger"
	"bookschema/internal/models"
	"bookschema/internal/repositories"
	"bookschema/internal/schema"
	"bookschema/internal/server"
	"bookschema/internal/utils"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	createDB := flag.Bool("create-db", false, "create DB_DATABASE using DB_ADMIN_USER if it does not exist")
	apply := flag.Bool("apply", false, "apply pending statements; without it the plan is only printed")
	issueFor := flag.String("issue-token", "", "print an access token for this subject and exit")
	role := flag.String("role", "admin", "role claim for -issue-token")
	ttl := flag.Duration("ttl", 12*time.Hour, "lifetime of the token from -issue-token")
	flag.Parse()

	var err error
	if *issueFor != "" {
		err = issueToken(os.Stdout, config.TokenSecret(), *issueFor, *role, *ttl)
	} else {
		err = run(*createDB, *apply)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

// issueToken signs a token with ACCESS_TOKEN_SECRET, the same secret the API
// verifies against.
func issueToken(w io.Writer, secret []byte, subject, role string, ttl time.Duration) error {
	if len(secret) == 0 {
		return errors.New("ACCESS_TOKEN_SECRET environment variable is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	token, err := utils.GenerateToken(subject, role, ttl, secret)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func run(createDB, apply bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := schema.Default()
	if err != nil {
		return fmt.Errorf("invalid schema catalog: %w", err)
	}

	if createDB {
		if err := database.EnsureDatabaseExists(ctx, cfg.DB, log); err != nil {
			return err
		}
	}

	stores, err := server.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	svc := stores.MigrationService(registry, cfg.DB.Schema, log)

	if !apply {
		return printPlan(ctx, os.Stdout, svc, repositories.NewMigrationRunRepository(stores.DB))
	}

	if err := stores.PrepareRunHistory(); err != nil {
		return err
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "cli"
	}
	migrationRun, err := svc.Apply(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %s (%d statements)\n", migrationRun.ID, migrationRun.Status, migrationRun.StatementCount)
	return nil
}

type planner interface {
	Plan(ctx context.Context) (*models.MigrationPlan, error)
}

type runHistory interface {
	HasTable() bool
	Latest(ctx context.Context, status string) (*models.MigrationRun, error)
}

// printPlan only reads: a database that never had a run has no history
// table, and none is created here.
func printPlan(ctx context.Context, w io.Writer, p planner, history runHistory) error {
	plan, err := p.Plan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "-- catalog %s\n", plan.Fingerprint)

	if history.HasTable() {
		last, err := history.Latest(ctx, models.RunStatusApplied)
		if err != nil {
			return err
		}
		if last != nil {
			fmt.Fprintf(w, "-- last applied %s at %s (catalog %s)\n", last.ID, last.FinishedAt.Format(time.RFC3339), last.Fingerprint)
		}
	} else {
		fmt.Fprintln(w, "-- no migration has been applied yet")
	}

	if plan.Empty() {
		fmt.Fprintln(w, "-- database is up to date")
	} else {
		for _, stmt := range plan.SQL() {
			fmt.Fprintln(w, stmt)
		}
	}
	for _, d := range plan.Drift {
		fmt.Fprintf(w, "-- drift: %s %s.%s: %s\n", d.Kind, d.Table, d.Column, d.Detail)
	}
	return nil
}
