package server

import (
	"bookschema/internal/config"
	"bookschema/internal/database"
	"bookschema/internal/handlers"
	"bookschema/internal/logger"
	"bookschema/internal/middlewares"
	"bookschema/internal/repositories"
	"bookschema/internal/routes"
	"bookschema/internal/schema"
	"bookschema/internal/services"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Stores holds the connections shared by the API server and the migrate
// command. Redis is nil when REDIS_ADDR is unset. Opening the stores does
// not write to the database; see PrepareRunHistory.
type Stores struct {
	Pool  *pgxpool.Pool
	DB    *gorm.DB
	Redis *redis.Client
}

func OpenStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, error) {
	pool, err := database.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := &Stores{Pool: pool, DB: db}

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		// Fail fast with a clear message
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			st.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("Connected to Redis", "addr", cfg.Redis.Addr)
		st.Redis = rdb
	} else {
		log.Warn("REDIS_ADDR not set; diagram cache and migration lock disabled")
	}
	return st, nil
}

func (st *Stores) Close() {
	if st.Redis != nil {
		_ = st.Redis.Close()
	}
	if st.DB != nil {
		if sqlDB, err := st.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if st.Pool != nil {
		st.Pool.Close()
	}
}

// PrepareRunHistory creates the run history table. Only callers that record
// runs need it.
func (st *Stores) PrepareRunHistory() error {
	if err := repositories.NewMigrationRunRepository(st.DB).AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate run history table: %w", err)
	}
	return nil
}

// redisRepo returns nil when redis is disabled. Callers must not store the
// result in an interface directly.
func (st *Stores) redisRepo() *repositories.RedisRepository {
	if st.Redis == nil {
		return nil
	}
	return repositories.NewRedisRepository(st.Redis)
}

func (st *Stores) MigrationService(registry *schema.Registry, dbSchema string, log *logger.Logger) *services.MigrationService {
	var lock services.MigrationLock
	if repo := st.redisRepo(); repo != nil {
		lock = repo
	}
	return services.NewMigrationService(
		registry,
		repositories.NewSchemaRepository(st.Pool),
		database.NewMigrator(st.Pool, log),
		repositories.NewMigrationRunRepository(st.DB),
		lock,
		dbSchema,
		log,
	)
}

func (st *Stores) SchemaService(registry *schema.Registry, log *logger.Logger) *services.SchemaService {
	var cache services.DiagramCache
	if repo := st.redisRepo(); repo != nil {
		cache = repo
	}
	return services.NewSchemaService(registry, cache, log)
}

type Server struct {
	HTTP   *http.Server
	stores *Stores
	log    *logger.Logger
}

// NewServer validates the catalog, opens the stores and builds the router.
// With MIGRATE_ON_START it brings the database up to date before serving.
func NewServer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	registry, err := schema.Default()
	if err != nil {
		return nil, fmt.Errorf("invalid schema catalog: %w", err)
	}
	if len(cfg.AccessTokenSecret) == 0 {
		log.Warn("ACCESS_TOKEN_SECRET not set; migration endpoints will reject every request")
	}

	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := stores.PrepareRunHistory(); err != nil {
		stores.Close()
		return nil, err
	}

	// Dependency injection
	schemaService := stores.SchemaService(registry, log)
	migrationService := stores.MigrationService(registry, cfg.DB.Schema, log)

	if cfg.MigrateOnStart {
		if _, err := migrationService.Apply(ctx, "startup"); err != nil {
			stores.Close()
			return nil, fmt.Errorf("startup migration failed: %w", err)
		}
	}

	schemaHandler := handlers.NewSchemaHandler(schemaService)
	migrationHandler := handlers.NewMigrationHandler(migrationService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(log), middlewares.CORS(cfg.CORSOrigins))
	routes.RegisterRoutes(router, cfg.AccessTokenSecret, schemaHandler, migrationHandler)

	// Create and configure the HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &Server{HTTP: srv, stores: stores, log: log}, nil
}

// Shutdown stops accepting requests, then closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)
	s.stores.Close()
	return err
}
