package repositories

import (
	"bookschema/internal/models"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaRepository reads the live structure of a database from
// information_schema and pg_indexes.
type SchemaRepository struct {
	pool *pgxpool.Pool
}

func NewSchemaRepository(pool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{pool: pool}
}

// ReadTables loads every base table in schema with its columns, keys,
// indexes and unique constraints.
func (r *SchemaRepository) ReadTables(ctx context.Context, schema string) ([]models.DBTable, error) {
	names, err := r.GetTables(ctx, schema)
	if err != nil {
		return nil, err
	}

	tables := make([]models.DBTable, 0, len(names))
	for _, name := range names {
		table := models.DBTable{Name: name}

		if table.Columns, err = r.GetColumns(ctx, schema, name); err != nil {
			return nil, fmt.Errorf("failed to get columns for %s: %w", name, err)
		}
		if table.PrimaryKeys, err = r.GetPrimaryKeys(ctx, schema, name); err != nil {
			return nil, fmt.Errorf("failed to get primary keys for %s: %w", name, err)
		}
		if table.ForeignKeys, err = r.GetForeignKeys(ctx, schema, name); err != nil {
			return nil, fmt.Errorf("failed to get foreign keys for %s: %w", name, err)
		}
		if table.Indexes, err = r.GetIndexes(ctx, schema, name); err != nil {
			return nil, fmt.Errorf("failed to get indexes for %s: %w", name, err)
		}
		if table.UniqueConstraints, err = r.GetUniqueConstraints(ctx, schema, name); err != nil {
			return nil, fmt.Errorf("failed to get unique constraints for %s: %w", name, err)
		}

		tables = append(tables, table)
	}
	return tables, nil
}

// GetTables returns all table names in the specified schema
func (r *SchemaRepository) GetTables(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	return r.queryStrings(ctx, query, schema)
}

// GetColumns returns all columns for a specific table in a schema
func (r *SchemaRepository) GetColumns(ctx context.Context, schema, table string) ([]models.DBColumn, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := r.pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.DBColumn
	for rows.Next() {
		var col models.DBColumn
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// GetPrimaryKeys returns all primary key column names for a specific table
func (r *SchemaRepository) GetPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`
	return r.queryStrings(ctx, query, schema, table)
}

// GetForeignKeys returns all foreign keys for a specific table
func (r *SchemaRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.DBForeignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
	`

	rows, err := r.pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.DBForeignKey
	for rows.Next() {
		var fk models.DBForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.FromColumn, &fk.ToTable, &fk.ToColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// GetIndexes returns the index names defined on a table
func (r *SchemaRepository) GetIndexes(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY indexname
	`
	return r.queryStrings(ctx, query, schema, table)
}

// GetUniqueConstraints returns the names of UNIQUE constraints on a table
func (r *SchemaRepository) GetUniqueConstraints(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE constraint_type = 'UNIQUE'
			AND table_schema = $1
			AND table_name = $2
		ORDER BY constraint_name
	`
	return r.queryStrings(ctx, query, schema, table)
}

func (r *SchemaRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
