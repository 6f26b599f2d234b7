package routes

import (
	"bookschema/internal/handlers"

	"github.com/gin-gonic/gin"
)

type SchemaRoutes struct {
	handler *handlers.SchemaHandler
}

func NewSchemaRoutes(handler *handlers.SchemaHandler) *SchemaRoutes {
	return &SchemaRoutes{handler: handler}
}

// The catalog is public: it is the same for every caller.
func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/schema")
	{
		schema.GET("/tables", r.handler.ListTables)
		schema.GET("/tables/:name", r.handler.GetTable)
		schema.GET("/visualize", r.handler.VisualizeSchema)
	}
}
