package repositories

import (
	"bookschema/internal/models"
	"context"

	"gorm.io/gorm"
)

const defaultRunLimit = 20

type MigrationRunRepository struct {
	db *gorm.DB
}

func NewMigrationRunRepository(db *gorm.DB) *MigrationRunRepository {
	return &MigrationRunRepository{db: db}
}

// AutoMigrate creates the run history table. It is bookkeeping for the
// migrator and not part of the declared catalog.
func (r *MigrationRunRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.MigrationRun{})
}

// HasTable reports whether the run history table exists. Read-only callers
// check it instead of calling AutoMigrate.
func (r *MigrationRunRepository) HasTable() bool {
	return r.db.Migrator().HasTable(&models.MigrationRun{})
}

func (r *MigrationRunRepository) Create(ctx context.Context, run *models.MigrationRun) error {
	run.Prepare()
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *MigrationRunRepository) ListRecent(ctx context.Context, limit int) ([]models.MigrationRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	var runs []models.MigrationRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// Latest returns the most recent run with the given status, or nil.
func (r *MigrationRunRepository) Latest(ctx context.Context, status string) (*models.MigrationRun, error) {
	var runs []models.MigrationRun
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("started_at DESC").
		Limit(1).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
