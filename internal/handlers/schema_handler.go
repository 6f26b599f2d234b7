package handlers

import (
	"bookschema/internal/responses"
	"bookschema/internal/schema"
	"bookschema/internal/services"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// ListTables handles GET /api/v1/schema/tables
func (h *SchemaHandler) ListTables(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{
		"fingerprint": h.schemaService.Fingerprint(),
		"tables":      h.schemaService.ListTables(),
	}, "Schema catalog")
}

// GetTable handles GET /api/v1/schema/tables/:name
func (h *SchemaHandler) GetTable(c *gin.Context) {
	name := c.Param("name")

	table, err := h.schemaService.GetTable(name)
	if err != nil {
		var unknown *schema.UnknownTableError
		if errors.As(err, &unknown) {
			responses.FailCode(c, http.StatusNotFound, "unknown_table", err, "Table not found")
			return
		}
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to load table")
		return
	}

	responses.Success(c, http.StatusOK, table, "Table definition")
}

// VisualizeSchema handles GET /api/v1/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Request.Context())
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid":     mermaidDiagram,
		"fingerprint": h.schemaService.Fingerprint(),
	}, "Schema visualization generated successfully")
}
