package services

import (
	"bookschema/internal/logger"
	"bookschema/internal/models"
	"bookschema/internal/schema"
	"context"
	"errors"
	"fmt"
	"time"
)

const migrationLockTTL = 5 * time.Minute

var ErrMigrationInProgress = errors.New("another migration is in progress")

type LiveSchemaReader interface {
	ReadTables(ctx context.Context, schema string) ([]models.DBTable, error)
}

type StatementRunner interface {
	Run(ctx context.Context, statements []models.Statement) error
}

type RunStore interface {
	Create(ctx context.Context, run *models.MigrationRun) error
	ListRecent(ctx context.Context, limit int) ([]models.MigrationRun, error)
}

type MigrationLock interface {
	AcquireMigrationLock(ctx context.Context, ttl time.Duration) (string, bool, error)
	ReleaseMigrationLock(ctx context.Context, token string) error
}

type MigrationService struct {
	registry *schema.Registry
	live     LiveSchemaReader
	runner   StatementRunner
	runs     RunStore
	lock     MigrationLock
	dbSchema string
	log      *logger.Logger
}

// NewMigrationService wires the migrator. lock may be nil when only one
// process ever migrates.
func NewMigrationService(
	registry *schema.Registry,
	live LiveSchemaReader,
	runner StatementRunner,
	runs RunStore,
	lock MigrationLock,
	dbSchema string,
	log *logger.Logger,
) *MigrationService {
	if dbSchema == "" {
		dbSchema = "public"
	}
	return &MigrationService{
		registry: registry,
		live:     live,
		runner:   runner,
		runs:     runs,
		lock:     lock,
		dbSchema: dbSchema,
		log:      log.With("service", "MigrationService"),
	}
}

// Plan diffs the catalog against the live database without changing it.
func (s *MigrationService) Plan(ctx context.Context) (*models.MigrationPlan, error) {
	if !s.registry.Closed() {
		return nil, errors.New("schema registry has not been validated")
	}
	live, err := s.live.ReadTables(ctx, s.dbSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to read live schema: %w", err)
	}
	plan := DiffSchema(s.registry.AllTables(), live)
	plan.Fingerprint = s.registry.Fingerprint()
	return &plan, nil
}

// Apply brings the database up to the catalog and records the run. The run
// is recorded for failures too.
func (s *MigrationService) Apply(ctx context.Context, triggeredBy string) (*models.MigrationRun, error) {
	if s.lock != nil {
		token, ok, err := s.lock.AcquireMigrationLock(ctx, migrationLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !ok {
			return nil, ErrMigrationInProgress
		}
		defer func() {
			// Release even if ctx was cancelled mid-run.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.ReleaseMigrationLock(releaseCtx, token); err != nil {
				s.log.Warn("Failed to release migration lock", "error", err)
			}
		}()
	}

	run := &models.MigrationRun{
		Fingerprint: s.registry.Fingerprint(),
		TriggeredBy: triggeredBy,
	}
	run.Prepare()

	plan, err := s.Plan(ctx)
	if err == nil {
		run.StatementCount = len(plan.Statements)
		for _, d := range plan.Drift {
			s.log.Warn("Schema drift", "kind", d.Kind, "table", d.Table, "column", d.Column, "detail", d.Detail)
		}
		err = s.runner.Run(ctx, plan.Statements)
	}

	run.FinishedAt = time.Now().UTC()
	switch {
	case err != nil:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	case run.StatementCount == 0:
		run.Status = models.RunStatusNoop
	default:
		run.Status = models.RunStatusApplied
	}

	if recErr := s.runs.Create(ctx, run); recErr != nil {
		s.log.Error("Failed to record migration run", "run_id", run.ID, "error", recErr)
		if err == nil {
			err = fmt.Errorf("failed to record migration run: %w", recErr)
		}
	}

	if err != nil {
		s.log.Error("Migration failed", "run_id", run.ID, "error", err)
		return run, err
	}
	s.log.Info("Migration finished", "run_id", run.ID, "status", run.Status, "statements", run.StatementCount)
	return run, nil
}

func (s *MigrationService) Runs(ctx context.Context, limit int) ([]models.MigrationRun, error) {
	return s.runs.ListRecent(ctx, limit)
}
