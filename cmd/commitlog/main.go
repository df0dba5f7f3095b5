package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	internallog "github.com/rmacdonaldsmith/commitlog-go/internal/commitlog"
	"github.com/rmacdonaldsmith/commitlog-go/internal/config"
	"github.com/rmacdonaldsmith/commitlog-go/internal/grpcapi"
	"github.com/rmacdonaldsmith/commitlog-go/internal/httpapi"
	"github.com/rmacdonaldsmith/commitlog-go/internal/logging"
	"github.com/rmacdonaldsmith/commitlog-go/internal/telemetry"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

const (
	// Application info
	appName    = "commitlog"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serverFlags mirror the config keys that can be overridden on the command line
type serverFlags struct {
	configPath string
	httpAddr   string
	grpcAddr   string
	engine     string
	dataDir    string
	fsync      string
	auth       bool
	secret     string
	logLevel   string
	logFormat  string
	telemetry  bool
}

func newRootCommand() *cobra.Command {
	var flags serverFlags

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Append-only commit log server",
		Long:          "commitlog serves an append-only commit log over JSON/HTTP and gRPC.",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}

	bindFlags(cmd, &flags)

	return cmd
}

func bindFlags(cmd *cobra.Command, flags *serverFlags) {
	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	f.StringVar(&flags.httpAddr, "http-addr", "", "HTTP listen address")
	f.StringVar(&flags.grpcAddr, "grpc-addr", "", "gRPC listen address (empty disables gRPC)")
	f.StringVar(&flags.engine, "engine", "", "Storage engine: memory or pebble")
	f.StringVar(&flags.dataDir, "data-dir", "", "Data directory for the pebble engine")
	f.StringVar(&flags.fsync, "fsync", "", "Fsync mode for the pebble engine: always, interval or never")
	f.BoolVar(&flags.auth, "auth", false, "Require JWT authentication on record endpoints")
	f.StringVar(&flags.secret, "secret", "", "JWT signing secret")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	f.BoolVar(&flags.telemetry, "telemetry", false, "Enable OpenTelemetry tracing to stdout")
}

// loadConfig layers defaults, file, environment and explicitly set flags
func loadConfig(cmd *cobra.Command, flags serverFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	config.FromEnv(&cfg)

	f := cmd.Flags()
	if f.Changed("http-addr") {
		cfg.Server.HTTPAddress = flags.httpAddr
	}
	if f.Changed("grpc-addr") {
		cfg.Server.GRPCAddress = flags.grpcAddr
	}
	if f.Changed("engine") {
		cfg.Storage.Engine = flags.engine
	}
	if f.Changed("data-dir") {
		cfg.Storage.DataDir = flags.dataDir
	}
	if f.Changed("fsync") {
		cfg.Storage.Fsync = flags.fsync
	}
	if f.Changed("auth") {
		cfg.Auth.Enabled = flags.auth
	}
	if f.Changed("secret") {
		cfg.Auth.Secret = flags.secret
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if f.Changed("telemetry") {
		cfg.Telemetry.Enabled = flags.telemetry
		cfg.Telemetry.Stdout = flags.telemetry
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLog opens the configured storage engine
func openLog(cfg config.StorageConfig, logger logrus.FieldLogger) (commitlog.CommitLog, error) {
	switch cfg.Engine {
	case config.EnginePebble:
		opts, err := cfg.PebbleOptions()
		if err != nil {
			return nil, err
		}
		return internallog.OpenPebbleLog(opts, logger.WithField(logging.ComponentKey, "pebble"))
	case config.EngineMemory:
		return internallog.NewInMemoryLog(), nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}

// app holds the open log and bound listeners of a running server
type app struct {
	cfg      config.Config
	logger   *logrus.Logger
	log      commitlog.CommitLog
	http     *httpapi.Server
	httpLis  net.Listener
	grpc     *grpcapi.Server
	grpcLis  net.Listener
	shutdown telemetry.ShutdownFunc
}

// newApp opens the log and binds listeners without serving yet
func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*app, error) {
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	log, err := openLog(cfg.Storage, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, log: log, shutdown: shutdown}

	a.httpLis, err = net.Listen("tcp", cfg.Server.HTTPAddress)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Server.HTTPAddress, err)
	}
	a.http = httpapi.NewServer(log, httpapi.Config{
		Address:        cfg.Server.HTTPAddress,
		AuthEnabled:    cfg.Auth.Enabled,
		SecretKey:      cfg.Auth.Secret,
		TokenTTL:       cfg.Auth.TokenTTL,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRecordBytes: cfg.Server.MaxRecordBytes,
	}, logger)

	if cfg.Server.GRPCAddress != "" {
		a.grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddress)
		if err != nil {
			_ = a.httpLis.Close()
			a.close(ctx)
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCAddress, err)
		}
		a.grpc = grpcapi.New(log, grpcapi.Config{MaxRecordBytes: cfg.Server.MaxRecordBytes}, logger)
	}

	return a, nil
}

// serve runs both servers until ctx is done or one of them fails
func (a *app) serve(ctx context.Context) error {
	a.logger.WithFields(logrus.Fields{
		"version": appVersion,
		"engine":  a.cfg.Storage.Engine,
		"auth":    a.cfg.Auth.Enabled,
	}).Infof("starting %s", appName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.http.Serve(a.httpLis) })
	if a.grpc != nil {
		g.Go(func() error { return a.grpc.Serve(a.grpcLis) })
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if a.grpc != nil {
			a.grpc.Stop(stopCtx)
		}
		return a.http.Stop(stopCtx)
	})

	err := g.Wait()
	a.close(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Infof("%s stopped", appName)
	return nil
}

// close releases the log and telemetry; listeners are closed by their servers
func (a *app) close(ctx context.Context) {
	if err := a.log.Close(); err != nil {
		a.logger.WithError(err).Warn("error closing log")
	}
	if err := a.shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("error shutting down telemetry")
	}
}

// run serves cfg until ctx is cancelled
func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return a.serve(ctx)
}
