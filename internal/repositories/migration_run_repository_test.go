package repositories

import (
	"bookschema/internal/models"
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRunRepo(t *testing.T) *MigrationRunRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewMigrationRunRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return repo
}

func TestMigrationRunRepositoryCreateAndList(t *testing.T) {
	repo := newRunRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []string{models.RunStatusApplied, models.RunStatusFailed, models.RunStatusNoop} {
		run := &models.MigrationRun{
			Fingerprint: "abc",
			Status:      status,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if run.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Fatalf("Create did not assign an ID")
		}
	}

	runs, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len: want=3 got=%d", len(runs))
	}
	if runs[0].Status != models.RunStatusNoop {
		t.Fatalf("newest first: want=%q got=%q", models.RunStatusNoop, runs[0].Status)
	}

	limited, err := repo.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecent(1): %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit: want=1 got=%d", len(limited))
	}
}

func TestMigrationRunRepositoryLatest(t *testing.T) {
	repo := newRunRepo(t)
	ctx := context.Background()

	got, err := repo.Latest(ctx, models.RunStatusApplied)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != nil {
		t.Fatalf("Latest on empty table: want=nil got=%+v", got)
	}

	run := &models.MigrationRun{Fingerprint: "f1", Status: models.RunStatusApplied, StatementCount: 4}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err = repo.Latest(ctx, models.RunStatusApplied)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got == nil || got.ID != run.ID || got.StatementCount != 4 {
		t.Fatalf("Latest: want=%+v got=%+v", run, got)
	}
}

func TestMigrationRunRepositoryHasTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewMigrationRunRepository(db)
	if repo.HasTable() {
		t.Fatalf("HasTable: want=false before AutoMigrate")
	}
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if !repo.HasTable() {
		t.Fatalf("HasTable: want=true after AutoMigrate")
	}
}
