package command

import (
	"context"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// Resumer executes a generation against a previously queued record.
type Resumer interface {
	Resume(ctx context.Context, actor pdfgen.Actor, id string, req pdfgen.GenerateRequest) (pdfgen.GenerationRecord, error)
}

// GeneratePDFHandler handles PDF generation requests.
type GeneratePDFHandler struct {
	Service pdfgen.Service
}

func NewGeneratePDFHandler(svc pdfgen.Service) *GeneratePDFHandler {
	return &GeneratePDFHandler{Service: svc}
}

func (h *GeneratePDFHandler) Execute(ctx context.Context, msg GeneratePDF) error {
	if h == nil || h.Service == nil {
		return errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	var (
		record pdfgen.GenerationRecord
		err    error
	)
	if msg.GenerationID != "" {
		resumer, ok := h.Service.(Resumer)
		if !ok {
			return errors.New("service does not support resuming queued generations", errors.CategoryInternal).
				WithTextCode("RESUME_UNSUPPORTED")
		}
		record, err = resumer.Resume(ctx, msg.Actor, msg.GenerationID, msg.Request)
	} else {
		record, err = h.Service.Generate(ctx, msg.Actor, msg.Request)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = record
	}
	if res := gcmd.ResultFromContext[pdfgen.GenerationRecord](ctx); res != nil {
		res.Store(record)
	}
	return nil
}

// DeleteGenerationHandler deletes a generation.
type DeleteGenerationHandler struct {
	Service pdfgen.Service
}

func NewDeleteGenerationHandler(svc pdfgen.Service) *DeleteGenerationHandler {
	return &DeleteGenerationHandler{Service: svc}
}

func (h *DeleteGenerationHandler) Execute(ctx context.Context, msg DeleteGeneration) error {
	if h == nil || h.Service == nil {
		return errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.Delete(ctx, msg.Actor, msg.GenerationID)
}

// CleanupGenerationsHandler removes expired generations.
type CleanupGenerationsHandler struct {
	Service pdfgen.Service
	Config  gcmd.HandlerConfig
	Clock   func() time.Time
}

func NewCleanupGenerationsHandler(svc pdfgen.Service) *CleanupGenerationsHandler {
	return &CleanupGenerationsHandler{Service: svc}
}

func (h *CleanupGenerationsHandler) Execute(ctx context.Context, msg CleanupGenerations) error {
	if h == nil || h.Service == nil {
		return errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	now := msg.Now
	if now.IsZero() && h.Clock != nil {
		now = h.Clock()
	}
	count, err := h.Service.CleanupExpired(ctx, now)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = count
	}
	if res := gcmd.ResultFromContext[int](ctx); res != nil {
		res.Store(count)
	}
	return nil
}

func (h *CleanupGenerationsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupGenerations{})
	}
}

func (h *CleanupGenerationsHandler) CronOptions() gcmd.HandlerConfig {
	return h.Config
}
