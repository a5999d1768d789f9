package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/albeorla/task-pri-lite-sub001/internal/assistant"
	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/classify"
	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"github.com/albeorla/task-pri-lite-sub001/internal/dispatch"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/orchestrator"
	"github.com/albeorla/task-pri-lite-sub001/internal/storage"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"github.com/albeorla/task-pri-lite-sub001/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds everything a command needs. Built by setup, released by close.
type app struct {
	cmd        *cobra.Command
	cfg        *config.Config
	logger     *logging.Logger
	tel        *telemetry.Telemetry
	store      storage.BlobStore
	repo       *storage.GraphRepository
	workflow   *orchestrator.Workflow
	classifier *classify.Chain
	dispatcher *dispatch.Chain
}

// setup loads configuration, starts logging and telemetry, and loads the
// task graph.
//
// Initialization order:
//  1. Loads and validates configuration
//  2. Initializes telemetry and logger
//  3. Opens the blob store and loads the graph
//  4. Creates the assistant and the workflow
func setup(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadWithFile(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if degraded, reason := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	a := &app{cmd: cmd, cfg: cfg, logger: logger, tel: tel}

	a.store, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	a.repo = storage.NewGraphRepository(a.store, logger)

	taskStore, projectStore := tasks.NewTaskStore(), tasks.NewProjectStore()
	if _, err := a.repo.LoadInto(ctx, taskStore, projectStore); err != nil {
		a.close()
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	collab, err := assistant.New(cfg.Assistant, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	a.workflow = orchestrator.New(taskStore, projectStore, orchestrator.Options{
		Assistant:     collab,
		UrgencyWindow: cfg.Prioritize.UrgencyWindow,
		Logger:        logger,
	})
	a.classifier = classify.NewDefaultChain(logger, nil)

	logger.Debug(ctx, "taskpri ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("assistant", cfg.Assistant.Provider),
		zap.Int("tasks", taskStore.Len()),
		zap.Int("projects", projectStore.Len()),
	)
	return a, nil
}

// dispatchChain builds the destination handlers on first use, since the
// real calendar needs saved credentials.
func (a *app) dispatchChain(ctx context.Context) (*dispatch.Chain, error) {
	if a.dispatcher != nil {
		return a.dispatcher, nil
	}
	out := a.cmd.OutOrStdout()

	var confirmer dispatch.Confirmer = dispatch.AutoConfirm(true)
	if a.cfg.Dispatch.Confirm {
		confirmer = dispatch.NewPromptConfirmer(a.cmd.InOrStdin(), out)
	}

	var creator dispatch.EventCreator = dispatch.Simulated{Logger: a.logger}
	if !a.cfg.Dispatch.Simulate {
		gcal, err := dispatch.DialGoogleCalendar(ctx, a.cfg.Dispatch.CredentialsFile, a.cfg.Dispatch.TokenFile, a.cfg.Dispatch.CalendarID)
		if err != nil {
			return nil, fmt.Errorf("connecting to google calendar (run 'taskpri auth calendar'): %w", err)
		}
		creator = gcal
	}

	a.dispatcher = dispatch.NewDefaultChain(dispatch.Handlers{
		Presenter: dispatch.NewPresenter(out),
		Confirmer: confirmer,
		Creator:   creator,
		NotesDir:  a.cfg.Dispatch.NotesDir,
		Logger:    a.logger,
	})
	return a.dispatcher, nil
}

// handleCapture classifies item, adds tasks and project ideas to the inbox,
// and dispatches it to its destination.
func (a *app) handleCapture(ctx context.Context, item capture.Item) (capture.Processed, error) {
	ctx = logging.WithCaptureID(ctx, item.ID())

	processed, err := a.classifier.Process(ctx, item)
	if err != nil {
		return processed, err
	}
	if _, err := a.workflow.Materialize(ctx, processed); err != nil && !errors.Is(err, orchestrator.ErrNotMaterializable) {
		return processed, err
	}
	chain, err := a.dispatchChain(ctx)
	if err != nil {
		return processed, err
	}
	if err := chain.Dispatch(ctx, processed); err != nil {
		return processed, err
	}
	return processed, nil
}

// save writes the task graph back to storage.
func (a *app) save(ctx context.Context) error {
	if err := a.repo.SaveAll(ctx, a.workflow.Tasks().List(), a.workflow.Projects().List()); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

// writeMetrics writes the prometheus textfile when configured.
func (a *app) writeMetrics(ctx context.Context) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.workflow.WriteMetrics(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn(ctx, "failed to write metrics textfile", zap.Error(err))
	}
}

func (a *app) close() {
	ctx := context.Background()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "closing storage", zap.Error(err))
		}
	}
	_ = a.tel.Shutdown(ctx)
	_ = a.logger.Sync() // Best-effort sync on shutdown
}

// withApp runs fn with a ready app and always releases it.
func withApp(opts *globalOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, opts)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}
