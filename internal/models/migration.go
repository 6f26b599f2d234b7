package models

import (
	"time"

	"github.com/google/uuid"
)

type StatementKind string

const (
	StatementCreateTable   StatementKind = "create_table"
	StatementAddColumn     StatementKind = "add_column"
	StatementAddUnique     StatementKind = "add_unique"
	StatementCreateIndex   StatementKind = "create_index"
	StatementAddForeignKey StatementKind = "add_foreign_key"
)

type Statement struct {
	Kind  StatementKind `json:"kind"`
	Table string        `json:"table"`
	SQL   string        `json:"sql"`
}

type DriftKind string

const (
	DriftTypeMismatch      DriftKind = "type_mismatch"
	DriftNullability       DriftKind = "nullability_mismatch"
	DriftMissingPrimaryKey DriftKind = "missing_primary_key"
	DriftUnmanagedColumn   DriftKind = "unmanaged_column"
)

// Drift is a difference between the catalog and the live database that the
// migrator reports but never repairs.
type Drift struct {
	Kind   DriftKind `json:"kind"`
	Table  string    `json:"table"`
	Column string    `json:"column,omitempty"`
	Detail string    `json:"detail"`
}

type MigrationPlan struct {
	Fingerprint string      `json:"fingerprint"`
	Statements  []Statement `json:"statements"`
	Drift       []Drift     `json:"drift"`
}

func (p *MigrationPlan) Empty() bool {
	return p == nil || len(p.Statements) == 0
}

func (p *MigrationPlan) SQL() []string {
	out := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		out[i] = s.SQL
	}
	return out
}

const (
	RunStatusApplied = "applied"
	RunStatusNoop    = "noop"
	RunStatusFailed  = "failed"
)

type MigrationRun struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Fingerprint    string    `json:"fingerprint" gorm:"size:64;not null;index"`
	StatementCount int       `json:"statement_count" gorm:"not null"`
	Status         string    `json:"status" gorm:"size:16;not null"`
	Error          string    `json:"error,omitempty"`
	TriggeredBy    string    `json:"triggered_by"`
	StartedAt      time.Time `json:"started_at" gorm:"not null;index"`
	FinishedAt     time.Time `json:"finished_at"`
}

func (MigrationRun) TableName() string {
	return "schema_migration_runs"
}

func (r *MigrationRun) Prepare() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
}
