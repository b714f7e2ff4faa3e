package pdfjob

import (
	"context"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	job "github.com/goliatone/go-job"
	pdfcmd "github.com/goliatone/go-pdfgen/command"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

const (
	DefaultCleanupTaskID   = "pdf:cleanup"
	DefaultCleanupTaskPath = "pdf:cleanup"
)

// CleanupDispatch dispatches a cleanup command.
type CleanupDispatch func(ctx context.Context, msg pdfcmd.CleanupGenerations) error

// CleanupTaskConfig configures the retention sweep task.
type CleanupTaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	Logger         pdfgen.Logger
	Dispatch       CleanupDispatch
	Now            func() time.Time
}

// CleanupTask removes expired generations on a schedule.
type CleanupTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	logger         pdfgen.Logger
	dispatch       CleanupDispatch
	now            func() time.Time
}

// NewCleanupTask creates a retention sweep task.
func NewCleanupTask(cfg CleanupTaskConfig) *CleanupTask {
	logger := cfg.Logger
	if logger == nil {
		logger = pdfgen.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultCleanupTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultCleanupTaskPath
	}
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(ctx context.Context, msg pdfcmd.CleanupGenerations) error {
			return dispatcher.Dispatch(ctx, msg)
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CleanupTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		logger:         logger,
		dispatch:       dispatch,
		now:            now,
	}
}

// GetID returns the task identifier.
func (t *CleanupTask) GetID() string { return t.id }

// GetHandler returns a handler for scheduler execution.
func (t *CleanupTask) GetHandler() func() error {
	return func() error {
		if t == nil {
			return pdfgen.NewError(pdfgen.KindInternal, "task is nil", nil)
		}
		return t.Execute(context.Background(), nil)
	}
}

// GetHandlerConfig returns scheduler options for the task.
func (t *CleanupTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetConfig returns task config defaults.
func (t *CleanupTask) GetConfig() job.Config { return t.config }

// GetPath returns the task path.
func (t *CleanupTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *CleanupTask) GetEngine() job.Engine { return nil }

// Execute dispatches a cleanup command. The message is unused, the
// sweep always runs against the current clock.
func (t *CleanupTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	_ = msg
	if t == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "task is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := t.now()
	if err := t.dispatch(ctx, pdfcmd.CleanupGenerations{Now: now}); err != nil {
		t.logger.Errorf("cleanup dispatch failed: %v", err)
		return err
	}
	t.logger.Debugf("cleanup sweep dispatched at %s", now.UTC().Format(time.RFC3339))
	return nil
}
