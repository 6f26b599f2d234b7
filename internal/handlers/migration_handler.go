package handlers

import (
	"bookschema/internal/middlewares"
	"bookschema/internal/responses"
	"bookschema/internal/services"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MigrationHandler struct {
	migrationService *services.MigrationService
}

func NewMigrationHandler(migrationService *services.MigrationService) *MigrationHandler {
	return &MigrationHandler{
		migrationService: migrationService,
	}
}

// GetPlan handles GET /api/v1/migrations/plan
func (h *MigrationHandler) GetPlan(c *gin.Context) {
	plan, err := h.migrationService.Plan(c.Request.Context())
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to plan migrations")
		return
	}

	message := "Database is up to date"
	if !plan.Empty() {
		message = "Pending migrations"
	}
	responses.Success(c, http.StatusOK, plan, message)
}

// Apply handles POST /api/v1/migrations/apply
func (h *MigrationHandler) Apply(c *gin.Context) {
	run, err := h.migrationService.Apply(c.Request.Context(), c.GetString(middlewares.ContextSubject))
	if err != nil {
		if errors.Is(err, services.ErrMigrationInProgress) {
			responses.FailCode(c, http.StatusConflict, "migration_in_progress", err, "Another migration is running")
			return
		}
		responses.Fail(c, http.StatusInternalServerError, err, "Migration failed")
		return
	}

	responses.Success(c, http.StatusOK, run, "Migration "+run.Status)
}

// ListRuns handles GET /api/v1/migrations/runs
func (h *MigrationHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			responses.Fail(c, http.StatusBadRequest, err, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.migrationService.Runs(c.Request.Context(), limit)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to load migration runs")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"runs": runs}, "Migration runs")
}
