// Package deskserver is the reference backend for the five desk resources:
// auth, chats, messages, employees and history.
package deskserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/notify"
	"gorm.io/gorm"
)

// Publisher accepts chat lifecycle events for delivery to staff channels.
type Publisher interface {
	Publish(evt notify.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(notify.Event) {}

// StartOpts holds configuration for the desk server.
type StartOpts struct {
	DB        *gorm.DB
	Port      int
	API       config.APIConfig // resource paths; zero value uses defaults
	Publisher Publisher
	Out       io.Writer
}

// Start launches the desk HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("deskserver: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8095
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.DB, opts.API, opts.Publisher)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Desk server listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("deskserver: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine serving the desk resources.
func NewRouter(db *gorm.DB, paths config.APIConfig, pub Publisher) *gin.Engine {
	if pub == nil {
		pub = nopPublisher{}
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestID())
	registerRoutes(router, db, pub, paths.WithDefaultPaths())
	return router
}

// requestID tags every request with an X-Request-ID (kept when the caller
// sent one) and logs failed requests with it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)

		start := time.Now()
		c.Next()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			log.Printf("deskserver: %s %s -> %d in %s (request %s)",
				c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond), id)
		}
	}
}
