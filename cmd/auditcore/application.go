package main

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/blob"
	"auditcore/internal/core"
	"auditcore/internal/export/h2k"
	"auditcore/internal/export/report"
	"auditcore/internal/photos"
	"auditcore/internal/platform/config"
	"auditcore/internal/platform/logging"
	"auditcore/internal/platform/metrics"
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	configFlag    = "config"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// application wires the cobra command tree, the configuration and the logger.
type application struct {
	root       *cobra.Command
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newApplication() *application {
	app := &application{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "auditcore",
		Short:         "Residential energy audit service and tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.initialize(cmd)
		},
	}
	root.SetContext(context.Background())
	root.PersistentFlags().StringVar(&app.configPath, configFlag, "", "Optional path to a YAML configuration file.")
	root.PersistentFlags().String(logLevelFlag, "", "Override the configured log level (debug, info, warn, error).")
	root.PersistentFlags().String(logFormatFlag, "", "Override the configured log format (structured or console).")

	root.AddCommand(
		app.serveCommand(),
		app.exportCommand(),
		app.inspectCommand(),
		app.draftCommand(),
	)
	app.root = root
	return app
}

// Execute runs the command tree and flushes the logger.
func (a *application) Execute() error {
	err := a.root.Execute()
	if syncErr := a.flushLogger(); syncErr != nil && err == nil {
		return fmt.Errorf("unable to flush logger: %w", syncErr)
	}
	return err
}

func (a *application) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	logger, err := logging.New(logging.Level(cfg.Log.Level), logging.Format(cfg.Log.Format))
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration initialized",
		zap.String("log_level", cfg.Log.Level),
		zap.String("log_format", cfg.Log.Format),
		zap.String("config_file", a.configPath))
	return nil
}

func (a *application) flushLogger() error {
	err := a.logger.Sync()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ENOTSUP), errors.Is(err, syscall.EINVAL), errors.Is(err, syscall.ENOTTY):
		return nil
	default:
		return err
	}
}

// runtime holds the stores and services opened for one command.
type runtime struct {
	store   core.PersistentStore
	svc     *core.Service
	blobs   blob.Store
	photos  *photos.Index
	exports *exports.Generator
	metrics *metrics.Metrics
}

func (a *application) open(ctx context.Context) (*runtime, error) {
	m := metrics.New()
	store, err := core.OpenPersistentStore(a.cfg.Storage, nil, a.logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		_ = core.CloseStore(store)
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	svc := core.NewService(store,
		core.WithLogger(a.logger.Named("audits")),
		core.WithMetricsRecorder(m))
	ix := photos.NewIndex(svc, blobs,
		photos.WithLogger(a.logger.Named("photos")),
		photos.WithMaxBytes(a.cfg.Photos.MaxBytes),
		photos.WithRecorder(m))
	gen := exports.NewGenerator(svc, ix,
		exports.WithLogger(a.logger.Named("exports")),
		exports.WithRecorder(m),
		exports.WithReport(report.Options{
			FilenamePrefix:  a.cfg.Report.FilenamePrefix,
			Company:         a.cfg.Report.Company,
			CompanySubtitle: a.cfg.Report.CompanySubtitle,
		}),
		exports.WithCodec(h2k.Options{
			Generator: a.cfg.Codec.Generator,
			Evaluator: a.cfg.Codec.Evaluator,
		}))
	return &runtime{store: store, svc: svc, blobs: blobs, photos: ix, exports: gen, metrics: m}, nil
}

func (r *runtime) Close() error {
	return core.CloseStore(r.store)
}
