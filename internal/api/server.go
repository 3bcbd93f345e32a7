package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lenskeep/lenskeep/internal/backup"
	"github.com/lenskeep/lenskeep/internal/config"
	"github.com/lenskeep/lenskeep/internal/database"
	"github.com/rs/zerolog"
)

// Server is the admin HTTP surface over the lifecycle manager: login,
// snapshot management, and restore. Gallery pages and client access are
// served elsewhere; this server only exposes operator operations.
type Server struct {
	router     *gin.Engine
	config     *config.Config
	db         *database.Database
	manager    *backup.Manager
	runner     *database.MigrationRunner
	logger     zerolog.Logger
	httpServer *http.Server
}

func NewServer(cfg *config.Config, db *database.Database, manager *backup.Manager, runner *database.MigrationRunner, logger zerolog.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins
	} else {
		// Default origins for development
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	server := &Server{
		router:  router,
		config:  cfg,
		db:      db,
		manager: manager,
		runner:  runner,
		logger:  logger,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api")
	{
		api.POST("/login", s.loginHandler)

		protected := api.Group("")
		protected.Use(s.authMiddleware())
		{
			snapshots := protected.Group("/snapshots")
			{
				snapshots.GET("", s.listSnapshotsHandler)
				snapshots.POST("", s.createSnapshotHandler)
				snapshots.DELETE("/:name", s.deleteSnapshotHandler)
				snapshots.POST("/bulk-delete", s.bulkDeleteSnapshotsHandler)
				snapshots.POST("/bulk-download", s.bulkDownloadSnapshotsHandler)
			}

			restore := protected.Group("/restore")
			{
				restore.POST("/upload", s.restoreFromUploadHandler)
				restore.POST("/:name", s.restoreFromStoredHandler)
			}

			migrations := protected.Group("/migrations")
			{
				migrations.POST("/run", s.runMigrationsHandler)
				migrations.POST("/revert-last", s.revertLastMigrationHandler)
			}
		}
	}
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	if err := s.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
