// Package httpapi is the HTTP front end: a plain JSON-RPC endpoint, the MCP
// streamable endpoint, debug routes and Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/httpapi/middleware"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/server"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/streamable"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// RouterConfig holds what the router needs.
type RouterConfig struct {
	Handler *tools.Handler
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	HTTP    config.HTTPConfig
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.RequestLogger(logger))

	h := &handlers{
		tools: cfg.Handler,
		rpc: server.New(cfg.Handler,
			server.WithLogger(logger),
			server.WithInfo(server.HTTPName, server.Version)),
	}

	router.GET("/test", h.test)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := router.Group("")
	protected.Use(middleware.RequireBearer(cfg.HTTP.AuthToken))
	protected.Use(middleware.RateLimitByIP(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst))
	{
		protected.POST("/mcp-api", h.rpcCall)

		mcpHandler := gin.WrapH(streamable.NewHandler(cfg.Handler, server.HTTPName, server.Version))
		protected.GET(streamable.EndpointPath, mcpHandler)
		protected.POST(streamable.EndpointPath, mcpHandler)
		protected.DELETE(streamable.EndpointPath, mcpHandler)

		debug := protected.Group("/debug")
		debug.GET("/tools", h.debugTools)
		debug.POST("/call", h.debugCall)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not found: " + c.Request.URL.Path})
	})
	return router
}

// Serve runs the engine on addr until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, engine http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
