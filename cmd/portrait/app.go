package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/evaluation"
	"github.com/phrazzld/portrait-generator/internal/events"
	"github.com/phrazzld/portrait-generator/internal/overlay"
	"github.com/phrazzld/portrait-generator/internal/platform/gemini"
	"github.com/phrazzld/portrait-generator/internal/platform/postgres"
	"github.com/phrazzld/portrait-generator/internal/portrait"
	"github.com/phrazzld/portrait-generator/internal/preflight"
	"github.com/phrazzld/portrait-generator/internal/prompt"
	"github.com/phrazzld/portrait-generator/internal/reference"
	"github.com/phrazzld/portrait-generator/internal/research"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"github.com/phrazzld/portrait-generator/internal/task"
	"github.com/spf13/afero"
)

// application holds the shared dependencies of every command and releases
// them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db and ledger are nil unless a database is configured.
	db     *sql.DB
	ledger *postgres.Ledger

	gemini    *gemini.Client
	store     *storage.Store
	generator *portrait.Generator

	// Set up by startBackground for the serve command only.
	bus        *events.Bus
	taskRunner *task.TaskRunner
}

// newApplication connects to the optional database and builds the portrait
// generator with every enabled stage.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}
	if err := app.init(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

func (app *application) init(ctx context.Context) error {
	cfg, logger := app.config, app.logger
	var err error

	if cfg.Database.Enabled() {
		app.db, err = postgres.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		if err = postgres.Migrate(ctx, app.db, logger); err != nil {
			return err
		}
		app.ledger = postgres.NewLedger(app.db)
	}

	app.store, err = storage.NewStore(afero.NewOsFs(), cfg.Generation.OutputDir, logger)
	if err != nil {
		return err
	}

	app.gemini, err = gemini.NewClient(ctx, logger.With("component", "gemini"), cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	app.generator, err = app.newGenerator()
	return err
}

func (app *application) newGenerator() (*portrait.Generator, error) {
	cfg := app.config.Generation
	profile := app.gemini.Profile()
	opts := portrait.OptionsFor(profile, cfg)

	researcher, err := research.NewResearcher(app.gemini, app.logger, cfg.ResearchCacheTTL())
	if err != nil {
		return nil, err
	}
	builder, err := prompt.NewBuilder(profile, app.logger)
	if err != nil {
		return nil, err
	}
	engine, err := overlay.NewEngine(app.logger)
	if err != nil {
		return nil, err
	}

	deps := portrait.Dependencies{
		Images:     app.gemini,
		Researcher: researcher,
		Prompts:    builder,
		Overlay:    engine,
		Store:      app.store,
		Logger:     app.logger,
	}

	if opts.ReferenceLimit > 0 {
		finder, err := reference.NewFinder(app.gemini, app.logger, reference.Options{
			Grounding:   profile.SupportsGrounding(),
			DownloadDir: cfg.ReferenceDownloadDir,
		})
		if err != nil {
			return nil, err
		}
		deps.References = finder
	}

	if cfg.EnablePreValidation {
		validator, err := preflight.NewValidator(app.logger,
			preflight.WithFactChecking(app.gemini),
			preflight.WithFeasibilityCheck(app.gemini))
		if err != nil {
			return nil, err
		}
		deps.Validator = validator
	}

	if cfg.EnableEvaluation {
		width, height, err := cfg.Resolution()
		if err != nil {
			return nil, err
		}
		evaluator, err := evaluation.NewEvaluator(profile, app.gemini, width, height, app.logger)
		if err != nil {
			return nil, err
		}
		deps.Evaluator = evaluator
	}

	if app.ledger != nil {
		deps.Recorder = app.ledger
	}

	app.logger.Info("portrait generator initialized",
		"model", app.gemini.ImageModel(),
		"max_attempts", opts.MaxAttempts,
		"references", opts.ReferenceLimit,
		"evaluation", cfg.EnableEvaluation,
		"pre_validation", cfg.EnablePreValidation)
	return portrait.NewGenerator(deps, opts)
}

// startBackground starts the batch job runner and subscribes it to batch
// requests published on the event bus. Jobs are kept in PostgreSQL when a
// database is configured and in memory otherwise.
func (app *application) startBackground() error {
	var store task.TaskStore = task.NewMemoryStore()
	if app.db != nil {
		store = postgres.NewTaskStore(app.db)
	}

	factory := task.NewBatchTaskFactory(app.generator, app.logger)
	app.taskRunner = task.NewTaskRunner(store, factory, task.TaskRunnerConfig{
		WorkerCount:  app.config.Task.WorkerCount,
		QueueSize:    app.config.Task.QueueSize,
		StuckTaskAge: app.config.Task.StuckTaskAge(),
	}, app.logger)

	app.bus = events.NewBus(app.logger)
	task.NewBatchEventHandler(factory, app.taskRunner, app.logger).Register(app.bus)

	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	app.logger.Info("task runner started",
		"workers", app.config.Task.WorkerCount,
		"queue_size", app.config.Task.QueueSize,
		"persistent", app.db != nil)
	return nil
}

// cleanup releases resources. It is safe to call on a partly built
// application.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
		app.taskRunner = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			app.logger.Error("failed to close database connection", "error", err)
		}
		app.db = nil
	}
}
