package services

import (
	"bookschema/internal/database"
	"bookschema/internal/models"
	"fmt"
	"slices"
)

// DiffSchema compares the declared catalog with a live database and returns
// the statements that bring the database up to the catalog. It only ever
// adds: differences it cannot fix by adding are reported as drift.
//
// Statement order: tables and columns in catalog order, then unique
// constraints, then indexes, then foreign keys (which may need a unique
// constraint on their target).
func DiffSchema(declared []models.Table, live []models.DBTable) models.MigrationPlan {
	liveByName := make(map[string]models.DBTable, len(live))
	for _, t := range live {
		liveByName[t.Name] = t
	}

	var structure, uniques, indexes, foreignKeys []models.Statement
	var drift []models.Drift

	for _, table := range declared {
		current, exists := liveByName[table.Name]

		if !exists {
			structure = append(structure, models.Statement{
				Kind:  models.StatementCreateTable,
				Table: table.Name,
				SQL:   database.CreateTableSQL(table),
			})
		} else {
			for _, col := range table.Columns {
				liveCol, ok := current.Column(col.Name)
				if !ok {
					structure = append(structure, models.Statement{
						Kind:  models.StatementAddColumn,
						Table: table.Name,
						SQL:   database.AddColumnSQL(table.Name, col),
					})
					continue
				}
				drift = append(drift, columnDrift(table.Name, col, liveCol)...)
			}
			for _, liveCol := range current.Columns {
				if _, ok := table.Column(liveCol.Name); !ok {
					drift = append(drift, models.Drift{
						Kind:   models.DriftUnmanagedColumn,
						Table:  table.Name,
						Column: liveCol.Name,
						Detail: fmt.Sprintf("column %s exists in the database but is not declared", liveCol.Name),
					})
				}
			}
			if len(current.PrimaryKeys) == 0 {
				drift = append(drift, models.Drift{
					Kind:   models.DriftMissingPrimaryKey,
					Table:  table.Name,
					Detail: fmt.Sprintf("table has no primary key, declared %v", table.PrimaryKey()),
				})
			}

			for _, k := range table.Constraints {
				if k.Kind != models.ConstraintUnique || slices.Contains(current.UniqueConstraints, k.Name) {
					continue
				}
				uniques = append(uniques, models.Statement{
					Kind:  models.StatementAddUnique,
					Table: table.Name,
					SQL:   database.AddUniqueConstraintSQL(table.Name, k),
				})
			}
		}

		for _, col := range table.Columns {
			if !col.Indexed {
				continue
			}
			if exists && slices.Contains(current.Indexes, database.IndexName(table.Name, col.Name)) {
				continue
			}
			indexes = append(indexes, models.Statement{
				Kind:  models.StatementCreateIndex,
				Table: table.Name,
				SQL:   database.CreateIndexSQL(table.Name, col.Name),
			})
		}

		for _, col := range table.Columns {
			if col.References == nil {
				continue
			}
			if exists && hasForeignKey(current.ForeignKeys, col.Name, *col.References) {
				continue
			}
			foreignKeys = append(foreignKeys, models.Statement{
				Kind:  models.StatementAddForeignKey,
				Table: table.Name,
				SQL:   database.AddForeignKeySQL(table.Name, col.Name, *col.References),
			})
		}
	}

	statements := make([]models.Statement, 0, len(structure)+len(uniques)+len(indexes)+len(foreignKeys))
	statements = append(statements, structure...)
	statements = append(statements, uniques...)
	statements = append(statements, indexes...)
	statements = append(statements, foreignKeys...)

	return models.MigrationPlan{Statements: statements, Drift: drift}
}

func columnDrift(table string, want models.Column, got models.DBColumn) []models.Drift {
	var out []models.Drift
	if wantType := database.InformationSchemaType(want.Type); got.DataType != wantType {
		out = append(out, models.Drift{
			Kind:   models.DriftTypeMismatch,
			Table:  table,
			Column: want.Name,
			Detail: fmt.Sprintf("declared %s (%s), database has %s", want.Type, wantType, got.DataType),
		})
	}
	if want.Nullable != got.Nullable {
		out = append(out, models.Drift{
			Kind:   models.DriftNullability,
			Table:  table,
			Column: want.Name,
			Detail: fmt.Sprintf("declared nullable=%t, database has nullable=%t", want.Nullable, got.Nullable),
		})
	}
	return out
}

func hasForeignKey(fks []models.DBForeignKey, column string, ref models.ColumnRef) bool {
	for _, fk := range fks {
		if fk.FromColumn == column && fk.ToTable == ref.Table && fk.ToColumn == ref.Column {
			return true
		}
	}
	return false
}
