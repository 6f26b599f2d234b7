package handlers

import (
	"bookschema/internal/logger"
	"bookschema/internal/middlewares"
	"bookschema/internal/models"
	"bookschema/internal/responses"
	"bookschema/internal/schema"
	"bookschema/internal/services"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type emptyLive struct{}

func (emptyLive) ReadTables(ctx context.Context, schema string) ([]models.DBTable, error) {
	return nil, nil
}

type countingRunner struct{ calls int }

func (r *countingRunner) Run(ctx context.Context, statements []models.Statement) error {
	r.calls++
	return nil
}

type sliceRuns struct{ runs []models.MigrationRun }

func (s *sliceRuns) Create(ctx context.Context, run *models.MigrationRun) error {
	run.Prepare()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *sliceRuns) ListRecent(ctx context.Context, limit int) ([]models.MigrationRun, error) {
	if limit > 0 && len(s.runs) > limit {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

type heldLock struct{}

func (heldLock) AcquireMigrationLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	return "", false, nil
}

func (heldLock) ReleaseMigrationLock(ctx context.Context, token string) error { return nil }

func newTestRouter(t *testing.T, lock services.MigrationLock) (*gin.Engine, *sliceRuns) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := schema.NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	runs := &sliceRuns{}
	schemaHandler := NewSchemaHandler(services.NewSchemaService(reg, nil, logger.Nop()))
	migrationHandler := NewMigrationHandler(services.NewMigrationService(
		reg, emptyLive{}, &countingRunner{}, runs, lock, "public", logger.Nop(),
	))

	r := gin.New()
	r.GET("/tables", schemaHandler.ListTables)
	r.GET("/tables/:name", schemaHandler.GetTable)
	r.GET("/visualize", schemaHandler.VisualizeSchema)
	r.GET("/plan", migrationHandler.GetPlan)
	r.POST("/apply", func(c *gin.Context) { c.Set(middlewares.ContextSubject, "ops") }, migrationHandler.Apply)
	r.GET("/runs", migrationHandler.ListRuns)
	return r, runs
}

func serve(r *gin.Engine, method, path string) (*httptest.ResponseRecorder, responses.APIResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var body responses.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestGetTable(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, body := serve(r, http.MethodGet, "/tables/courses")
	if w.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("courses: code=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"base_course"`) {
		t.Fatalf("courses body missing base_course: %s", w.Body.String())
	}

	w, body = serve(r, http.MethodGet, "/tables/nope")
	if w.Code != http.StatusNotFound || body.Code != "unknown_table" {
		t.Fatalf("unknown: code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListTablesAndVisualize(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, _ := serve(r, http.MethodGet, "/tables")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"fingerprint"`) {
		t.Fatalf("tables: code=%d body=%s", w.Code, w.Body.String())
	}

	w, _ = serve(r, http.MethodGet, "/visualize")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "erDiagram") {
		t.Fatalf("visualize: code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestApplyAndListRuns(t *testing.T) {
	r, runs := newTestRouter(t, nil)

	w, body := serve(r, http.MethodGet, "/plan")
	if w.Code != http.StatusOK || body.Message != "Pending migrations" {
		t.Fatalf("plan: code=%d body=%s", w.Code, w.Body.String())
	}

	w, _ = serve(r, http.MethodPost, "/apply")
	if w.Code != http.StatusOK {
		t.Fatalf("apply: code=%d body=%s", w.Code, w.Body.String())
	}
	if len(runs.runs) != 1 || runs.runs[0].TriggeredBy != "ops" {
		t.Fatalf("recorded runs: %+v", runs.runs)
	}

	w, _ = serve(r, http.MethodGet, "/runs?limit=5")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"triggered_by":"ops"`) {
		t.Fatalf("runs: code=%d body=%s", w.Code, w.Body.String())
	}

	w, _ = serve(r, http.MethodGet, "/runs?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: want=%d got=%d", http.StatusBadRequest, w.Code)
	}
}

func TestApplyConflict(t *testing.T) {
	r, runs := newTestRouter(t, heldLock{})

	w, body := serve(r, http.MethodPost, "/apply")
	if w.Code != http.StatusConflict || body.Code != "migration_in_progress" {
		t.Fatalf("conflict: code=%d body=%s", w.Code, w.Body.String())
	}
	if len(runs.runs) != 0 {
		t.Fatalf("no run should be recorded while locked, got %d", len(runs.runs))
	}
}
