package services

import (
	"bookschema/internal/logger"
	"bookschema/internal/models"
	"bookschema/internal/schema"
	"context"
	"fmt"
	"strings"
)

type DiagramCache interface {
	GetDiagram(ctx context.Context, fingerprint string) (string, bool, error)
	SetDiagram(ctx context.Context, fingerprint, diagram string) error
}

// SchemaService exposes the validated catalog to the HTTP layer.
type SchemaService struct {
	registry *schema.Registry
	cache    DiagramCache
	log      *logger.Logger
}

// NewSchemaService creates a new SchemaService. cache may be nil.
func NewSchemaService(registry *schema.Registry, cache DiagramCache, log *logger.Logger) *SchemaService {
	return &SchemaService{
		registry: registry,
		cache:    cache,
		log:      log.With("service", "SchemaService"),
	}
}

func (s *SchemaService) ListTables() []models.Table {
	return s.registry.AllTables()
}

func (s *SchemaService) GetTable(name string) (models.Table, error) {
	return s.registry.Get(name)
}

func (s *SchemaService) Fingerprint() string {
	return s.registry.Fingerprint()
}

// VisualizeSchema renders the catalog as a Mermaid ER diagram. Diagrams are
// cached by fingerprint; cache errors only cost a re-render.
func (s *SchemaService) VisualizeSchema(ctx context.Context) (string, error) {
	fingerprint := s.registry.Fingerprint()

	if s.cache != nil {
		diagram, ok, err := s.cache.GetDiagram(ctx, fingerprint)
		if err != nil {
			s.log.Warn("Diagram cache read failed", "error", err)
		} else if ok {
			return diagram, nil
		}
	}

	tables := s.registry.AllTables()
	diagram := generateMermaid(tables, buildRelationships(tables))

	if s.cache != nil {
		if err := s.cache.SetDiagram(ctx, fingerprint, diagram); err != nil {
			s.log.Warn("Diagram cache write failed", "error", err)
		}
	}
	return diagram, nil
}

func buildRelationships(tables []models.Table) []models.Relationship {
	var relationships []models.Relationship
	for _, table := range tables {
		for _, col := range table.Columns {
			if col.References == nil {
				continue
			}
			relType := "||--o{" // one-to-many
			if col.Unique || uniqueOn(table, col.Name) {
				relType = "||--||"
			}
			relationships = append(relationships, models.Relationship{
				FromTable: table.Name,
				ToTable:   col.References.Table,
				Type:      relType,
			})
		}
	}
	return relationships
}

func uniqueOn(table models.Table, column string) bool {
	for _, k := range table.Constraints {
		if k.Kind == models.ConstraintUnique && len(k.Columns) == 1 && k.Columns[0] == column {
			return true
		}
	}
	return false
}

func generateMermaid(tables []models.Table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.Type, rel.ToTable)
			if seen[key] {
				continue
			}
			seen[key] = true

			// Mermaid requires a label; an empty one hides it.
			sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n",
				strings.ToUpper(rel.FromTable),
				rel.Type,
				strings.ToUpper(rel.ToTable)))
		}
		sb.WriteString("\n")
	}

	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", strings.ToUpper(table.Name)))

		for _, col := range table.Columns {
			annotations := ""
			switch {
			case col.PrimaryKey:
				annotations = " PK"
			case col.References != nil:
				annotations = " FK"
			case col.Unique || uniqueOn(table, col.Name):
				annotations = " UK"
			}

			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				mermaidType(col.Type),
				col.Name,
				annotations))
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

func mermaidType(t models.ColumnType) string {
	switch t {
	case models.TypeInteger:
		return "int"
	case models.TypeString:
		return "varchar"
	case models.TypeBoolean:
		return "boolean"
	case models.TypeDate:
		return "date"
	case models.TypeDateTime:
		return "timestamp"
	default:
		return strings.ToLower(string(t))
	}
}
