package schema

import (
	"bookschema/internal/models"
	"errors"
	"testing"
)

func simpleTable(name string) models.Table {
	return models.Table{
		Name:    name,
		Columns: []models.Column{idColumn(), col("label", models.TypeString)},
	}
}

func TestRegisterDuplicateTable(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(simpleTable("things")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(simpleTable("things"))
	var dup *DuplicateTableError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateTableError, got=%T (%v)", err, err)
	}
	if dup.Table != "things" {
		t.Fatalf("Table: want=%q got=%q", "things", dup.Table)
	}
	if r.Len() != 1 {
		t.Fatalf("Len: want=1 got=%d", r.Len())
	}
}

func TestGetUnknownTable(t *testing.T) {
	r, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	_, err = r.Get("nonexistent_table")
	var unknown *UnknownTableError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownTableError, got=%T (%v)", err, err)
	}
	if unknown.Table != "nonexistent_table" {
		t.Fatalf("Table: want=%q got=%q", "nonexistent_table", unknown.Table)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Courses()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, _ := r.Get("courses")
	got.Columns[1].Name = "mutated"
	got.Columns[4].References.Table = "mutated"

	again, _ := r.Get("courses")
	if again.Columns[1].Name != "course_name" {
		t.Fatalf("registry was mutated through Get: %q", again.Columns[1].Name)
	}
	if again.Columns[4].References.Table != "courses" {
		t.Fatalf("registry reference was mutated through Get: %q", again.Columns[4].References.Table)
	}
}

func TestAllTablesKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := r.Register(simpleTable(n)); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}
	all := r.AllTables()
	if len(all) != len(names) {
		t.Fatalf("len: want=%d got=%d", len(names), len(all))
	}
	for i, n := range names {
		if all[i].Name != n {
			t.Fatalf("AllTables[%d]: want=%q got=%q", i, n, all[i].Name)
		}
	}
}

func TestRegisterRejectsInvalidTables(t *testing.T) {
	noPK := models.Table{Name: "nopk", Columns: []models.Column{col("a", models.TypeString)}}
	twoPK := models.Table{Name: "twopk", Columns: []models.Column{idColumn(), func() models.Column {
		c := idColumn()
		c.Name = "other_id"
		return c
	}()}}
	stringPK := models.Table{Name: "strpk", Columns: []models.Column{{Name: "id", Type: models.TypeString, PrimaryKey: true, AutoIncrement: true}}}
	dupCol := models.Table{Name: "dupcol", Columns: []models.Column{idColumn(), col("a", models.TypeString), col("a", models.TypeInteger)}}
	badType := models.Table{Name: "badtype", Columns: []models.Column{idColumn(), col("a", models.ColumnType("Float"))}}
	badConstraint := models.Table{
		Name:        "badcons",
		Columns:     []models.Column{idColumn()},
		Constraints: []models.KeyConstraint{{Kind: models.ConstraintUnique, Name: "u", Columns: []string{"missing"}}},
	}

	cases := []models.Table{noPK, twoPK, stringPK, dupCol, badType, badConstraint, {Name: ""}}
	for _, tc := range cases {
		r := NewRegistry()
		err := r.Register(tc)
		var invalid *InvalidTableError
		if !errors.As(err, &invalid) {
			t.Fatalf("Register(%q): expected *InvalidTableError, got=%T (%v)", tc.Name, err, err)
		}
		if r.Len() != 0 {
			t.Fatalf("Register(%q): invalid table was stored", tc.Name)
		}
	}
}

func TestSelfReferencingForeignKeyValidates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Courses()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !r.Closed() {
		t.Fatalf("registry should be closed after Validate")
	}
}

func TestForwardReferenceResolvesAtValidation(t *testing.T) {
	child := simpleTable("child")
	child.Columns = append(child.Columns, col("parent_label", models.TypeString, references("parent", "label")))

	r := NewRegistry()
	if err := r.Register(child); err != nil {
		t.Fatalf("Register(child): %v", err)
	}
	if err := r.Register(simpleTable("parent")); err != nil {
		t.Fatalf("Register(parent): %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRemovingCoursesBreaksValidation(t *testing.T) {
	r := NewRegistry()
	if err := registerCatalog(r); err != nil {
		t.Fatalf("registerCatalog: %v", err)
	}
	if err := r.Remove("courses"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	err := r.Validate()
	var unresolved *UnresolvedForeignKeyError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *UnresolvedForeignKeyError, got=%T (%v)", err, err)
	}
	if r.Closed() {
		t.Fatalf("failed validation must leave the registry open")
	}
}

func TestRemovedTableKeepsItsForeignKeys(t *testing.T) {
	r := NewRegistry()
	if err := registerCatalog(r); err != nil {
		t.Fatalf("registerCatalog: %v", err)
	}
	if err := r.Remove("courses"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	var unresolved *UnresolvedForeignKeyError
	if err := r.Validate(); !errors.As(err, &unresolved) {
		t.Fatalf("expected *UnresolvedForeignKeyError, got=%T (%v)", err, err)
	}
	if unresolved.Table != "courses" || unresolved.Column != "base_course" {
		t.Fatalf("source: want=courses.base_course got=%s.%s", unresolved.Table, unresolved.Column)
	}
	if unresolved.RefTable != "courses" || unresolved.RefColumn != "course_name" {
		t.Fatalf("target: want=courses.course_name got=%s.%s", unresolved.RefTable, unresolved.RefColumn)
	}

	// Registering the table again supersedes the recorded keys.
	if err := r.Register(Courses()); err != nil {
		t.Fatalf("Register(courses): %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate after re-register: %v", err)
	}
	if r.Len() != 12 {
		t.Fatalf("Len: want=12 got=%d", r.Len())
	}
}

func TestRemovingReferencedTableBreaksValidation(t *testing.T) {
	child := simpleTable("child")
	child.Columns = append(child.Columns, col("parent_label", models.TypeString, references("parent", "label")))

	r := NewRegistry()
	if err := r.RegisterAll(child, simpleTable("parent")); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if err := r.Remove("parent"); err != nil {
		t.Fatalf("Remove(parent): %v", err)
	}
	var unresolved *UnresolvedForeignKeyError
	if err := r.Validate(); !errors.As(err, &unresolved) || unresolved.Table != "child" {
		t.Fatalf("expected child's key unresolved, got=%T (%v)", err, err)
	}

	if err := r.Register(simpleTable("parent")); err != nil {
		t.Fatalf("Register(parent): %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestUnknownReferencedColumn(t *testing.T) {
	child := simpleTable("child")
	child.Columns = append(child.Columns, col("ref", models.TypeString, references("child", "nope")))
	r := NewRegistry()
	if err := r.Register(child); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Validate()
	var unresolved *UnresolvedForeignKeyError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *UnresolvedForeignKeyError, got=%T (%v)", err, err)
	}
	if unresolved.RefColumn != "nope" {
		t.Fatalf("RefColumn: want=%q got=%q", "nope", unresolved.RefColumn)
	}
}

func TestClosedRegistry(t *testing.T) {
	r, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("second Validate should be a no-op, got %v", err)
	}
	if err := r.Register(simpleTable("late")); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("Register after close: want=%v got=%v", ErrRegistryClosed, err)
	}
	if err := r.Remove("useinfo"); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("Remove after close: want=%v got=%v", ErrRegistryClosed, err)
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := NewCatalog()
	b, _ := NewCatalog()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprint is not stable")
	}
	if len(a.Fingerprint()) != 64 {
		t.Fatalf("fingerprint length: want=64 got=%d", len(a.Fingerprint()))
	}

	c := NewRegistry()
	if err := registerCatalog(c); err != nil {
		t.Fatalf("registerCatalog: %v", err)
	}
	if err := c.Remove("code"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Fingerprint() == a.Fingerprint() {
		t.Fatalf("fingerprint did not change when a table was removed")
	}
}
