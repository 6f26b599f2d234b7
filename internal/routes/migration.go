package routes

import (
	"bookschema/internal/handlers"
	"bookschema/internal/middlewares"

	"github.com/gin-gonic/gin"
)

const adminRole = "admin"

type MigrationRoutes struct {
	handler *handlers.MigrationHandler
	secret  []byte
}

func NewMigrationRoutes(handler *handlers.MigrationHandler, secret []byte) *MigrationRoutes {
	return &MigrationRoutes{handler: handler, secret: secret}
}

func (r *MigrationRoutes) RegisterRoutes(router *gin.RouterGroup) {
	migrations := router.Group("/migrations")
	migrations.Use(middlewares.Authenticate(r.secret))
	{
		migrations.GET("/plan", r.handler.GetPlan)
		migrations.GET("/runs", r.handler.ListRuns)
		migrations.POST("/apply", middlewares.RequireRole(adminRole), r.handler.Apply)
	}
}
