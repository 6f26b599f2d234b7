package routes

import (
	"bookschema/internal/handlers"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine, secret []byte, schemaHandler *handlers.SchemaHandler, migrationHandler *handlers.MigrationHandler) {
	api := router.Group("/api/v1")

	schemaRoutes := NewSchemaRoutes(schemaHandler)
	schemaRoutes.RegisterRoutes(api)

	migrationRoutes := NewMigrationRoutes(migrationHandler, secret)
	migrationRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
