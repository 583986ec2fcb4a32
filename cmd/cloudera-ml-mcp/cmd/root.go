// Package cmd holds the cobra commands of the cloudera-ml-mcp binary.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/server"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/tools"
)

type options struct {
	configPath string
	envFile    string
	logLevel   string
}

// app is everything a command needs once configuration has been resolved.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	handler *tools.Handler
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// RootCmd is the root cobra command. Without a subcommand it serves MCP
// over stdio.
func RootCmd() *cobra.Command {
	opts := &options{}
	stdio := stdioCmd(opts)

	cmd := &cobra.Command{
		Use:   "cloudera-ml-mcp",
		Short: "MCP server exposing Cloudera AI/ML projects, jobs, experiments, models and applications as tools.",
		Long: `cloudera-ml-mcp exposes the Cloudera AI/ML REST API as MCP tools.

Connection settings come from the environment (CLOUDERA_ML_HOST,
CLOUDERA_ML_API_KEY, CLOUDERA_ML_PROJECT_ID), from secret files under
/run/secrets, or from a YAML file passed with --config.`,
		SilenceUsage: true,
		Version:      server.Version,
		RunE:         stdio.RunE,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	cmd.AddCommand(
		stdio,
		httpCmd(opts),
		toolsCmd(opts),
		callCmd(opts),
	)
	return cmd
}

// load resolves configuration and builds the tool handler. Servers pass
// requireCredentials so a missing host or API key fails at startup rather
// than on the first call.
func (o *options) load(requireCredentials bool) (*app, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", o.envFile, err)
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	if requireCredentials {
		if err := cfg.Validate(); err != nil {
			log.Error("configuration error", zap.Error(err))
			return nil, err
		}
	}

	m := metrics.New()
	client := cml.New(cfg,
		cml.WithLogger(log),
		cml.WithMetrics(m),
		cml.WithRetry(uint(cfg.Upstream.Retries), cml.DefaultRetryDelay),
		cml.WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst),
	)
	handler := tools.NewHandler(client, tools.WithLogger(log), tools.WithMetrics(m))

	log.Info("configuration loaded",
		zap.String("host", cfg.BaseURL()),
		zap.String("api_key", logging.Redact(cfg.APIKey)),
		zap.String(logging.FieldProjectID, cfg.ProjectID),
		zap.Duration("timeout", cfg.Timeout),
		zap.Bool("http_cache", cfg.Cache.Enabled),
		zap.Int("tools", len(handler.Tools())))

	return &app{cfg: cfg, log: log, metrics: m, handler: handler}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// callTimeout bounds one-shot CLI calls that have no server lifetime.
func (a *app) callTimeout() time.Duration {
	// uploads and delete_all_jobs issue several requests
	return 10 * a.cfg.Timeout
}
