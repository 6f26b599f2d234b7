package database

import (
	"bookschema/internal/models"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// SQLType is the PostgreSQL column type used for a semantic type.
func SQLType(t models.ColumnType) string {
	switch t {
	case models.TypeInteger:
		return "INTEGER"
	case models.TypeString:
		return "VARCHAR"
	case models.TypeBoolean:
		return "BOOLEAN"
	case models.TypeDate:
		return "DATE"
	case models.TypeDateTime:
		return "TIMESTAMP WITHOUT TIME ZONE"
	default:
		return string(t)
	}
}

// InformationSchemaType is how information_schema.columns.data_type spells
// SQLType(t).
func InformationSchemaType(t models.ColumnType) string {
	switch t {
	case models.TypeInteger:
		return "integer"
	case models.TypeString:
		return "character varying"
	case models.TypeBoolean:
		return "boolean"
	case models.TypeDate:
		return "date"
	case models.TypeDateTime:
		return "timestamp without time zone"
	default:
		return strings.ToLower(string(t))
	}
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

func IndexName(table, column string) string {
	return "ix_" + table + "_" + column
}

func ForeignKeyName(table, column string) string {
	return table + "_" + column + "_fkey"
}

func columnDefinition(c models.Column) string {
	def := fmt.Sprintf("%s %s", quote(c.Name), SQLType(c.Type))
	if c.AutoIncrement {
		def += " GENERATED BY DEFAULT AS IDENTITY"
	}
	if !c.Nullable {
		def += " NOT NULL"
	}
	if c.Unique {
		def += " UNIQUE"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def
}

// CreateTableSQL renders the table with its primary key and named unique
// constraints. Foreign keys are left to AddForeignKeySQL so that tables can
// be created in any order.
func CreateTableSQL(t models.Table) string {
	lines := make([]string, 0, len(t.Columns)+len(t.Constraints)+1)
	for _, c := range t.Columns {
		lines = append(lines, "  "+columnDefinition(c))
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(pk)))
	}
	for _, k := range t.Constraints {
		if k.Kind != models.ConstraintUnique {
			continue
		}
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s UNIQUE (%s)", quote(k.Name), quoteList(k.Columns)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", quote(t.Name), strings.Join(lines, ",\n"))
}

func AddColumnSQL(table string, c models.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s;", quote(table), columnDefinition(c))
}

func CreateIndexSQL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", quote(IndexName(table, column)), quote(table), quote(column))
}

func AddUniqueConstraintSQL(table string, k models.KeyConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", quote(table), quote(k.Name), quoteList(k.Columns))
}

func AddForeignKeySQL(table, column string, ref models.ColumnRef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
		quote(table),
		quote(ForeignKeyName(table, column)),
		quote(column),
		quote(ref.Table),
		quote(ref.Column),
	)
}
