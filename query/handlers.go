package query

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// GenerationStatusHandler returns a single generation record.
type GenerationStatusHandler struct {
	Service pdfgen.Service
}

func NewGenerationStatusHandler(svc pdfgen.Service) *GenerationStatusHandler {
	return &GenerationStatusHandler{Service: svc}
}

func (h *GenerationStatusHandler) Query(ctx context.Context, msg GenerationStatus) (pdfgen.GenerationRecord, error) {
	if h == nil || h.Service == nil {
		return pdfgen.GenerationRecord{}, errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.Status(ctx, msg.Actor, msg.GenerationID)
}

// GenerationHistoryHandler returns generation history.
type GenerationHistoryHandler struct {
	Service pdfgen.Service
}

func NewGenerationHistoryHandler(svc pdfgen.Service) *GenerationHistoryHandler {
	return &GenerationHistoryHandler{Service: svc}
}

func (h *GenerationHistoryHandler) Query(ctx context.Context, msg GenerationHistory) ([]pdfgen.GenerationRecord, error) {
	if h == nil || h.Service == nil {
		return nil, errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.List(ctx, msg.Actor, msg.Filter)
}

// ArtifactMetadataHandler returns artifact metadata without streaming the body.
type ArtifactMetadataHandler struct {
	Service pdfgen.Service
}

func NewArtifactMetadataHandler(svc pdfgen.Service) *ArtifactMetadataHandler {
	return &ArtifactMetadataHandler{Service: svc}
}

func (h *ArtifactMetadataHandler) Query(ctx context.Context, msg ArtifactMetadata) (pdfgen.ArtifactMeta, error) {
	if h == nil || h.Service == nil {
		return pdfgen.ArtifactMeta{}, errors.New("pdf service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	rc, meta, err := h.Service.Download(ctx, msg.Actor, msg.GenerationID)
	if err != nil {
		return pdfgen.ArtifactMeta{}, err
	}
	if rc != nil {
		rc.Close()
	}
	return meta, nil
}
