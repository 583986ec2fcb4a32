package cmd

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/httpapi"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/server"
)

func stdioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(true)
			if err != nil {
				return err
			}
			defer a.close()
			return runStdio(cmd.Context(), a)
		},
	}
}

func runStdio(ctx context.Context, a *app) error {
	srv := server.New(a.handler,
		server.WithLogger(a.log),
		server.WithInfo(server.StdioName, server.Version))

	// Reads from stdin cannot be interrupted, so a signal ends the command
	// without waiting for the loop.
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, os.Stdin, os.Stdout) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		a.log.Info("stdio server stopped", zap.Error(context.Cause(ctx)))
		return nil
	}
}

func httpCmd(opts *options) *cobra.Command {
	var (
		addr        string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the JSON-RPC, streamable MCP and debug endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(true)
			if err != nil {
				return err
			}
			defer a.close()

			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return runHTTP(cmd.Context(), a, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides CML_MCP_HOST/CML_MCP_PORT)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Also serve /metrics on a separate listener")
	return cmd
}

func runHTTP(ctx context.Context, a *app, metricsAddr string) error {
	gin.SetMode(gin.ReleaseMode)

	engine := httpapi.NewRouter(httpapi.RouterConfig{
		Handler: a.handler,
		Logger:  a.log,
		Metrics: a.metrics,
		HTTP:    a.cfg.HTTP,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.Serve(ctx, a.cfg.HTTP.Addr, engine, a.log)
	})
	if metricsAddr != "" {
		g.Go(func() error {
			return httpapi.Serve(ctx, metricsAddr, a.metrics.Handler(), a.log.With(zap.String(logging.FieldComponent, "metrics")))
		})
	}
	return g.Wait()
}
