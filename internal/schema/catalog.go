package schema

import (
	"bookschema/internal/models"
	"sync"
)

// AnswerTableNames lists the per-component answer tables. Most gradable
// components share one shape; see AnswerFamily.
var AnswerTableNames = []string{
	"mchoice_answers",
	"clickablearea_answers",
	"codelens_answers",
	"dragndrop_answers",
	"fitb_answers",
	"lp_answers",
	"parsons_answers",
	"shortanswer_answers",
	"unittest_answers",
}

type columnOption func(*models.Column)

func col(name string, t models.ColumnType, opts ...columnOption) models.Column {
	c := models.Column{Name: name, Type: t, Nullable: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func indexed(c *models.Column) { c.Indexed = true }

func notNull(c *models.Column) { c.Nullable = false }

func withDefault(sql string) columnOption {
	return func(c *models.Column) { c.Default = sql }
}

func references(table, column string) columnOption {
	return func(c *models.Column) {
		c.References = &models.ColumnRef{Table: table, Column: column}
	}
}

func idColumn() models.Column {
	return models.Column{
		Name:          "id",
		Type:          models.TypeInteger,
		PrimaryKey:    true,
		AutoIncrement: true,
		Indexed:       true,
	}
}

// UseInfo logs nearly every click a student makes. It grows large, hence
// the indexes.
func UseInfo() models.Table {
	return models.Table{
		Name: "useinfo",
		Columns: []models.Column{
			idColumn(),
			col("timestamp", models.TypeDateTime, indexed),
			col("sid", models.TypeString, indexed),
			col("event", models.TypeString, indexed),
			col("act", models.TypeString),
			col("div_id", models.TypeString, indexed),
			// String here but Integer in code.course_id; kept as deployed.
			col("course_id", models.TypeString, indexed),
			col("chapter", models.TypeString),
			col("sub_chapter", models.TypeString),
		},
	}
}

func answerBaseColumns() []models.Column {
	return []models.Column{
		idColumn(),
		col("timestamp", models.TypeDateTime, indexed),
		col("sid", models.TypeString, indexed),
		col("div_id", models.TypeString, indexed),
		col("course_name", models.TypeString, indexed),
		col("correct", models.TypeBoolean),
		col("answer", models.TypeString),
	}
}

// AnswerFamily is the shape of the answer tables. parsons_answers also
// records the blocks left out of the answer in source.
func AnswerFamily() TableFamily {
	return TableFamily{
		Names: append([]string(nil), AnswerTableNames...),
		Base:  answerBaseColumns(),
		Extensions: map[string][]models.Column{
			"parsons_answers": {col("source", models.TypeString)},
		},
	}
}

// Code keeps every run of a student's code for the activecode history
// slider.
func Code() models.Table {
	return models.Table{
		Name: "code",
		Columns: []models.Column{
			idColumn(),
			col("timestamp", models.TypeDateTime, indexed),
			col("sid", models.TypeString, indexed),
			col("acid", models.TypeString, indexed),
			col("course_name", models.TypeString, indexed),
			col("course_id", models.TypeInteger),
			col("code", models.TypeString),
			col("language", models.TypeString),
			col("emessage", models.TypeString),
			col("comment", models.TypeString),
		},
	}
}

// Courses has one row per course. course_name is the real key; id is kept
// for older tooling that joins on it.
func Courses() models.Table {
	return models.Table{
		Name: "courses",
		Columns: []models.Column{
			idColumn(),
			col("course_name", models.TypeString, notNull),
			col("term_start_date", models.TypeDate),
			col("institution", models.TypeString),
			col("base_course", models.TypeString, notNull, references("courses", "course_name")),
			col("login_required", models.TypeBoolean, withDefault("false")),
			col("allow_pairs", models.TypeBoolean),
			col("student_price", models.TypeInteger),
			col("downloads_enabled", models.TypeBoolean),
			col("courselevel", models.TypeString),
		},
		Constraints: []models.KeyConstraint{
			{Kind: models.ConstraintUnique, Name: "unique_course_name", Columns: []string{"course_name"}},
		},
	}
}

// NewCatalog registers every table of the platform and validates the result.
func NewCatalog() (*Registry, error) {
	r := NewRegistry()
	if err := registerCatalog(r); err != nil {
		return nil, err
	}
	if err := closeCatalog(r); err != nil {
		return nil, err
	}
	return r, nil
}

// closeCatalog checks that the answer tables still share the family shape,
// then validates and closes r.
func closeCatalog(r *Registry) error {
	if err := AnswerFamily().Verify(r); err != nil {
		return err
	}
	return r.Validate()
}

func registerCatalog(r *Registry) error {
	if err := r.Register(UseInfo()); err != nil {
		return err
	}
	answers, err := AnswerFamily().Build()
	if err != nil {
		return err
	}
	if err := r.RegisterAll(answers...); err != nil {
		return err
	}
	return r.RegisterAll(Code(), Courses())
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide catalog, building it on first use.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewCatalog()
	})
	return defaultRegistry, defaultErr
}
