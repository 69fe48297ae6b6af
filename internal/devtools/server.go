// Package devtools serves a local HTTP API over the running app's progress
// store. It is meant for scripting, demos and end-to-end checks.
package devtools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"academy/internal/catalog"
	"academy/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Addr     string
	Catalog  *catalog.Catalog
	Progress Progress
	// Accounts and Sync are optional.
	Accounts Accounts
	Sync     SyncStatus
	Logger   *telemetry.Logger
	// AllowOrigins defaults to local dev servers.
	AllowOrigins []string
}

type Server struct {
	addr     string
	catalog  *catalog.Catalog
	progress Progress
	accounts Accounts
	syncer   SyncStatus
	logger   *telemetry.Logger

	engine    *gin.Engine
	hub       *hub
	unsub     func()
	closeOnce sync.Once
}

func New(opts Options) *Server {
	s := &Server{
		addr:     opts.Addr,
		catalog:  opts.Catalog,
		progress: opts.Progress,
		accounts: opts.Accounts,
		syncer:   opts.Sync,
		logger:   opts.Logger,
		hub:      newHub(opts.Logger),
	}
	s.engine = s.routes(opts.AllowOrigins)
	s.unsub = s.progress.Subscribe(func() {
		s.hub.broadcast(s.progress.Summary())
	})
	return s
}

// Handler exposes the router, mostly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled, then drains
// open requests and closes event streams.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen dev api: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev_api.listening", map[string]any{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve dev api: %w", err)
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("dev_api.shutdown_failed", map[string]any{"error": err.Error()})
	}
	<-errCh
	return nil
}

// Close stops forwarding progress updates and ends open event streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.unsub()
		s.hub.closeAll()
	})
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.Use(corsMiddleware(origins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.GET("/progress", s.getProgress)
		api.DELETE("/progress", s.resetProgress)
		api.GET("/levels", s.listLevels)
		api.GET("/levels/:levelID", s.getLevel)
		api.POST("/lessons/:lessonID/toggle", s.toggleLesson)
		api.POST("/lessons/:lessonID/complete", s.completeLesson)
		api.GET("/identity", s.getIdentity)
		api.GET("/events", s.streamEvents)
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		}
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Last-Event-ID"},
		MaxAge:       12 * time.Hour,
	})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("dev_api.request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
