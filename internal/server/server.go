package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	database "github.com/tractorbazar/marketplace/internal/db"
	"github.com/tractorbazar/marketplace/internal/pkg/config"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
	"github.com/tractorbazar/marketplace/internal/pkg/storage"
)

// Server holds the process-wide dependencies for the HTTP server.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	dbPool *pgxpool.Pool
	redis  *redis.Client
	store  *storage.ObjectStore
	hub    *realtime.Hub
	router http.Handler
}

// New creates a Server with its database, Redis, object store and change
// feed ready to serve.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	ctx := context.Background()
	dbPool, err := s.setupDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}
	s.dbPool = dbPool

	rdb, err := s.setupRedis(ctx)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}
	s.redis = rdb
	s.hub = realtime.NewHub(rdb, logger)

	store, err := storage.New(ctx, cfg.S3, logger)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to setup object store: %w", err)
	}
	s.store = store

	return s, nil
}

// setupDatabase initializes the database connection and runs migrations.
func (s *Server) setupDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	s.logger.Info("Setting up database connection and migrations")

	dbConfig, err := database.NewDatabaseConfig(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database configuration: %w", err)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	if err := database.WaitForDB(ctx, pool, s.logger); err != nil {
		pool.Close()
		return nil, err
	}
	s.logger.Info("Connected to Postgres",
		zap.String("host", s.cfg.Repositories.Postgres.Host),
		zap.String("port", s.cfg.Repositories.Postgres.Port),
		zap.String("database", s.cfg.Repositories.Postgres.DB))

	if err = database.RunMigrations(dbConfig.ConnectionURL, s.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.logger.Info("Database setup completed successfully")
	return pool, nil
}

func (s *Server) setupRedis(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(s.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if s.cfg.Redis.Password != "" {
		opts.Password = s.cfg.Redis.Password
	}
	opts.DB = s.cfg.Redis.DB

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	s.logger.Info("Connected to Redis", zap.String("url", s.cfg.Redis.URL))
	return rdb, nil
}

// HTTPServer creates and configures the HTTP server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler.
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

func (s *Server) GetDBPool() *pgxpool.Pool { return s.dbPool }

func (s *Server) GetRedis() *redis.Client { return s.redis }

func (s *Server) GetObjectStore() *storage.ObjectStore { return s.store }

func (s *Server) GetHub() *realtime.Hub { return s.hub }

func (s *Server) GetLogger() *zap.Logger { return s.logger }

func (s *Server) GetConfig() *config.Config { return s.cfg }

// Close closes all server resources.
func (s *Server) Close() {
	if s.hub != nil {
		if err := s.hub.Close(); err != nil {
			s.logger.Warn("Hub close failed", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
}
