package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/export"
	"github.com/phrazzld/synthgen/internal/platform/gemini"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/redact"
	"github.com/phrazzld/synthgen/internal/registry"
	"github.com/phrazzld/synthgen/internal/service"
	"github.com/phrazzld/synthgen/internal/task"
)

// application holds the assembled dependencies of the server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	jobs     *task.JobStore
	runner   *task.TaskRunner
	service  *service.DatasetService

	// db is non-nil only for the postgres output format.
	db *sql.DB
}

// newApplication loads configuration and wires up all application
// components. It fails fast on any missing or invalid dependency.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"output_format", cfg.Output.Format,
		"schema_dir", cfg.Schemas.Dir)

	reg, err := registry.New(cfg.Schemas.Dir, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema registry: %w", err)
	}

	generator, err := gemini.NewGeminiGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	app := &application{
		config:   cfg,
		logger:   appLogger,
		registry: reg,
		jobs:     task.NewJobStore(),
	}

	sinkFor, err := app.buildSinkFactory()
	if err != nil {
		return nil, err
	}

	app.service, err = service.NewDatasetService(reg, generator, sinkFor, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset service: %w", err)
	}

	app.runner = task.NewTaskRunner(app.jobs, task.TaskRunnerConfig{
		WorkerCount: cfg.Runner.WorkerCount,
		QueueSize:   cfg.Runner.QueueSize,
	}, appLogger)

	return app, nil
}

// buildSinkFactory returns the sink factory for the configured output
// format. CSV gets one file per dataset; sqlite and postgres write one
// table per schema into a shared database.
func (app *application) buildSinkFactory() (service.SinkFactory, error) {
	switch app.config.Output.Format {
	case "csv":
		dir := app.config.Output.Dir
		return func(d *domain.Dataset) export.Sink {
			name := fmt.Sprintf("%s-%s.csv", d.SchemaName, d.ID)
			return export.NewCSVSink(filepath.Join(dir, name), app.logger)
		}, nil

	case "sqlite":
		path := app.config.Output.SQLitePath
		return func(d *domain.Dataset) export.Sink {
			return export.NewSQLiteSink(path, app.logger)
		}, nil

	case "postgres":
		db, err := sql.Open("pgx", app.config.Output.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		app.db = db

		// Keep credentials out of job destinations and logs.
		dest := redact.String(app.config.Output.PostgresURL)
		return func(d *domain.Dataset) export.Sink {
			return export.NewPostgresSink(db, dest, app.logger)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported output format %q", app.config.Output.Format)
	}
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
