package schema

import (
	"bookschema/internal/models"
	"fmt"
)

// TableFamily describes tables that share one column shape. Each member gets
// Base, followed by its own Extensions entry if it has one.
type TableFamily struct {
	Names      []string
	Base       []models.Column
	Extensions map[string][]models.Column
}

// BuildAnswerTableFamily is TableFamily{names, base, extensions}.Build().
func BuildAnswerTableFamily(names []string, base []models.Column, extensions map[string][]models.Column) ([]models.Table, error) {
	return TableFamily{Names: names, Base: base, Extensions: extensions}.Build()
}

func (f TableFamily) Build() ([]models.Table, error) {
	members := make(map[string]bool, len(f.Names))
	for _, name := range f.Names {
		if members[name] {
			return nil, &DuplicateTableError{Table: name}
		}
		members[name] = true
	}
	for name := range f.Extensions {
		if !members[name] {
			return nil, &UnknownTableError{Table: name}
		}
	}

	tables := make([]models.Table, 0, len(f.Names))
	for _, name := range f.Names {
		tables = append(tables, models.Table{Name: name, Columns: f.columnsFor(name)})
	}
	return tables, nil
}

// Verify checks that every member registered in r has exactly the family
// shape for its name.
func (f TableFamily) Verify(r *Registry) error {
	for _, name := range f.Names {
		t, err := r.Get(name)
		if err != nil {
			return err
		}
		want := f.columnsFor(name)
		if len(t.Columns) != len(want) {
			return &InvalidTableError{Table: name, Reason: fmt.Sprintf("family member has %d columns, want %d", len(t.Columns), len(want))}
		}
		for i := range want {
			if !sameColumn(t.Columns[i], want[i]) {
				return &InvalidTableError{Table: name, Reason: fmt.Sprintf("column %d is %q, want %q", i, t.Columns[i].Name, want[i].Name)}
			}
		}
	}
	return nil
}

func (f TableFamily) columnsFor(name string) []models.Column {
	ext := f.Extensions[name]
	cols := make([]models.Column, 0, len(f.Base)+len(ext))
	for _, c := range f.Base {
		cols = append(cols, c.Clone())
	}
	for _, c := range ext {
		cols = append(cols, c.Clone())
	}
	return cols
}

func sameColumn(a, b models.Column) bool {
	if (a.References == nil) != (b.References == nil) {
		return false
	}
	if a.References != nil && *a.References != *b.References {
		return false
	}
	a.References, b.References = nil, nil
	return a == b
}
