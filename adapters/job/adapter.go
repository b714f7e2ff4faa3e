package pdfjob

import (
	"context"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to an Enqueuer.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if f == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "enqueuer is nil", nil)
	}
	return f(ctx, msg)
}

// Config configures the go-job generation scheduler.
type Config struct {
	Builder  *MessageBuilder
	Enqueuer Enqueuer
	Tracker  pdfgen.ProgressTracker
	Logger   pdfgen.Logger
}

// Scheduler enqueues PDF generation jobs.
type Scheduler struct {
	builder  *MessageBuilder
	enqueuer Enqueuer
	tracker  pdfgen.ProgressTracker
	logger   pdfgen.Logger
}

// NewScheduler creates a new job scheduler adapter.
func NewScheduler(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = pdfgen.NopLogger{}
	}
	return &Scheduler{
		builder:  cfg.Builder,
		enqueuer: cfg.Enqueuer,
		tracker:  cfg.Tracker,
		logger:   logger,
	}
}

// RequestGeneration queues a generation record and enqueues job execution.
func (s *Scheduler) RequestGeneration(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error) {
	if s == nil {
		return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindInternal, "scheduler is nil", nil)
	}
	if s.builder == nil {
		return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindNotImpl, "message builder not configured", nil)
	}
	if s.enqueuer == nil {
		return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindNotImpl, "job enqueuer not configured", nil)
	}

	result, err := s.builder.Build(ctx, actor, req)
	if err != nil {
		return result.Record, err
	}
	if result.Reused {
		return result.Record, nil
	}
	if result.Message == nil {
		return result.Record, pdfgen.NewError(pdfgen.KindValidation, "execution message is required", nil)
	}

	if err := s.enqueuer.Enqueue(ctx, result.Message); err != nil {
		if s.tracker != nil {
			if ferr := s.tracker.Fail(ctx, result.Record.ID, err, map[string]any{"stage": "enqueue"}); ferr != nil {
				s.logger.Errorf("enqueue failure tracking failed: %v", ferr)
			}
		}
		return result.Record, err
	}

	if err := s.builder.StoreIdempotency(ctx, result.Signature, result.Record.ID); err != nil {
		s.logger.Errorf("idempotency store set failed: %v", err)
	}

	return result.Record, nil
}
