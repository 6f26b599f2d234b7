package schema

import (
	"bookschema/internal/models"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Registry is an ordered catalog of table definitions.
//
// A registry starts open. Validate checks foreign keys across the whole
// catalog and closes it; from then on it is read-only and may be shared by
// concurrent readers. Registration itself is not synchronized.
//
// Foreign keys are recorded when their table is registered and outlive a
// Remove of that table, so removing a referenced table is caught by
// Validate even when the only reference came from the removed table itself.
type Registry struct {
	tables      map[string]models.Table
	order       []string
	foreignKeys []foreignKey
	closed      bool
}

type foreignKey struct {
	table string
	key   models.KeyConstraint
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]models.Table)}
}

// Register adds a table definition. Foreign key targets are not checked
// here so that tables may reference themselves or tables registered later.
func (r *Registry) Register(table models.Table) error {
	if r.closed {
		return ErrRegistryClosed
	}
	if err := checkTable(table); err != nil {
		return err
	}
	if _, exists := r.tables[table.Name]; exists {
		return &DuplicateTableError{Table: table.Name}
	}

	r.tables[table.Name] = table.Clone()
	r.order = append(r.order, table.Name)
	r.recordForeignKeys(table)
	return nil
}

// recordForeignKeys replaces whatever was recorded under the table's name,
// which is only left over from a removed registration.
func (r *Registry) recordForeignKeys(table models.Table) {
	kept := r.foreignKeys[:0]
	for _, fk := range r.foreignKeys {
		if fk.table != table.Name {
			kept = append(kept, fk)
		}
	}
	r.foreignKeys = kept
	for _, k := range table.KeyConstraints() {
		if k.Kind == models.ConstraintForeignKey {
			r.foreignKeys = append(r.foreignKeys, foreignKey{table: table.Name, key: k.Clone()})
		}
	}
}

func (r *Registry) RegisterAll(tables ...models.Table) error {
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (models.Table, error) {
	t, ok := r.tables[name]
	if !ok {
		return models.Table{}, &UnknownTableError{Table: name}
	}
	return t.Clone(), nil
}

// AllTables returns every table in registration order.
func (r *Registry) AllTables() []models.Table {
	out := make([]models.Table, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tables[name].Clone())
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Remove drops a registration. Only allowed before Validate. Foreign keys
// declared by the removed table stay recorded and must still resolve.
func (r *Registry) Remove(name string) error {
	if r.closed {
		return ErrRegistryClosed
	}
	if _, ok := r.tables[name]; !ok {
		return &UnknownTableError{Table: name}
	}
	delete(r.tables, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Validate resolves every recorded foreign key and closes the registry. A
// failed validation leaves the registry open. Validating a closed registry
// is a no-op.
func (r *Registry) Validate() error {
	if r.closed {
		return nil
	}
	for _, fk := range r.foreignKeys {
		k := fk.key
		for i, col := range k.Columns {
			refCol := k.RefColumns[i]
			target, ok := r.tables[k.RefTable]
			if !ok {
				return &UnresolvedForeignKeyError{Table: fk.table, Column: col, RefTable: k.RefTable, RefColumn: refCol}
			}
			if _, ok := target.Column(refCol); !ok {
				return &UnresolvedForeignKeyError{Table: fk.table, Column: col, RefTable: k.RefTable, RefColumn: refCol}
			}
		}
	}
	r.closed = true
	return nil
}

func (r *Registry) Closed() bool {
	return r.closed
}

// Fingerprint is a sha256 digest of the ordered catalog. Any change to a
// table, column, flag or constraint changes it.
func (r *Registry) Fingerprint() string {
	raw, err := json.Marshal(r.AllTables())
	if err != nil {
		// models.Table holds only strings, bools and slices of them.
		panic(fmt.Sprintf("schema: marshal catalog: %v", err))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func checkTable(t models.Table) error {
	if t.Name == "" {
		return &InvalidTableError{Table: t.Name, Reason: "table name is empty"}
	}
	if len(t.Columns) == 0 {
		return &InvalidTableError{Table: t.Name, Reason: "table has no columns"}
	}

	seen := make(map[string]bool, len(t.Columns))
	pkCount := 0
	for _, c := range t.Columns {
		if c.Name == "" {
			return &InvalidTableError{Table: t.Name, Reason: "column name is empty"}
		}
		if seen[c.Name] {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true

		if !c.Type.Valid() {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("column %q has unknown type %q", c.Name, c.Type)}
		}
		if c.PrimaryKey {
			pkCount++
			if c.Type != models.TypeInteger || !c.AutoIncrement {
				return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("primary key %q must be an auto-incrementing Integer", c.Name)}
			}
			if c.Nullable {
				return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("primary key %q cannot be nullable", c.Name)}
			}
		}
		if c.References != nil && (c.References.Table == "" || c.References.Column == "") {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("column %q has an incomplete foreign key", c.Name)}
		}
	}
	if pkCount != 1 {
		return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("expected exactly one primary key column, found %d", pkCount)}
	}

	names := make(map[string]bool, len(t.Constraints))
	for _, k := range t.Constraints {
		if k.Kind != models.ConstraintUnique {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("table-level %s constraints are declared on columns", k.Kind)}
		}
		if k.Name == "" {
			return &InvalidTableError{Table: t.Name, Reason: "unique constraint needs a name"}
		}
		if names[k.Name] {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("duplicate constraint %q", k.Name)}
		}
		names[k.Name] = true
		if len(k.Columns) == 0 {
			return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("constraint %q has no columns", k.Name)}
		}
		for _, col := range k.Columns {
			if !seen[col] {
				return &InvalidTableError{Table: t.Name, Reason: fmt.Sprintf("constraint %q names unknown column %q", k.Name, col)}
			}
		}
	}
	return nil
}
