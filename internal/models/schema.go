package models

// ColumnType is the semantic type of a declared column. Physical types are
// chosen by whoever renders DDL for a given database.
type ColumnType string

const (
	TypeInteger  ColumnType = "Integer"
	TypeString   ColumnType = "String"
	TypeBoolean  ColumnType = "Boolean"
	TypeDate     ColumnType = "Date"
	TypeDateTime ColumnType = "DateTime"
)

func (t ColumnType) Valid() bool {
	switch t {
	case TypeInteger, TypeString, TypeBoolean, TypeDate, TypeDateTime:
		return true
	}
	return false
}

// ColumnRef points at a column of a (possibly the same) table.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

type Column struct {
	Name          string     `json:"name"`
	Type          ColumnType `json:"type"`
	PrimaryKey    bool       `json:"primary_key,omitempty"`
	AutoIncrement bool       `json:"auto_increment,omitempty"`
	Nullable      bool       `json:"nullable"`
	Unique        bool       `json:"unique,omitempty"`
	Indexed       bool       `json:"indexed,omitempty"`
	Default       string     `json:"default,omitempty"`
	References    *ColumnRef `json:"references,omitempty"`
}

// Clone returns a copy that shares no pointers with c.
func (c Column) Clone() Column {
	if c.References != nil {
		ref := *c.References
		c.References = &ref
	}
	return c
}

type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
)

type KeyConstraint struct {
	Kind       ConstraintKind `json:"kind"`
	Name       string         `json:"name,omitempty"`
	Columns    []string       `json:"columns"`
	RefTable   string         `json:"ref_table,omitempty"`
	RefColumns []string       `json:"ref_columns,omitempty"`
}

func (k KeyConstraint) Clone() KeyConstraint {
	k.Columns = append([]string(nil), k.Columns...)
	if k.RefColumns != nil {
		k.RefColumns = append([]string(nil), k.RefColumns...)
	}
	return k
}

// Table is a declared table. Constraints holds table-level constraints only;
// primary and foreign keys live on the columns.
type Table struct {
	Name        string          `json:"name"`
	Columns     []Column        `json:"columns"`
	Constraints []KeyConstraint `json:"constraints,omitempty"`
}

func (t Table) Clone() Table {
	out := Table{Name: t.Name}
	out.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	if len(t.Constraints) > 0 {
		out.Constraints = make([]KeyConstraint, len(t.Constraints))
		for i, k := range t.Constraints {
			out.Constraints[i] = k.Clone()
		}
	}
	return out
}

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the names of the primary key columns in declared order.
func (t Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// KeyConstraints returns the primary key, then one foreign key per
// referencing column, then the table-level constraints.
func (t Table) KeyConstraints() []KeyConstraint {
	var out []KeyConstraint
	if pk := t.PrimaryKey(); len(pk) > 0 {
		out = append(out, KeyConstraint{
			Kind:    ConstraintPrimaryKey,
			Name:    t.Name + "_pkey",
			Columns: pk,
		})
	}
	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		out = append(out, KeyConstraint{
			Kind:       ConstraintForeignKey,
			Name:       t.Name + "_" + c.Name + "_fkey",
			Columns:    []string{c.Name},
			RefTable:   c.References.Table,
			RefColumns: []string{c.References.Column},
		})
	}
	for _, k := range t.Constraints {
		out = append(out, k.Clone())
	}
	return out
}

// DBColumn, DBForeignKey and DBTable describe what is actually present in a
// live database, as read from information_schema.
type DBColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

type DBForeignKey struct {
	ConstraintName string `json:"constraint_name"`
	FromColumn     string `json:"from_column"`
	ToTable        string `json:"to_table"`
	ToColumn       string `json:"to_column"`
}

type DBTable struct {
	Name              string         `json:"name"`
	Columns           []DBColumn     `json:"columns"`
	PrimaryKeys       []string       `json:"primary_keys"`
	ForeignKeys       []DBForeignKey `json:"foreign_keys"`
	Indexes           []string       `json:"indexes"`
	UniqueConstraints []string       `json:"unique_constraints"`
}

func (t DBTable) Column(name string) (DBColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return DBColumn{}, false
}

type Relationship struct {
	FromTable string
	ToTable   string
	Type      string // "||--o{", "||--||", etc.
}
