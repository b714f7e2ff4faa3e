package command

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// GeneratePDF runs a PDF generation. When GenerationID is set the
// handler resumes a previously queued record instead of creating one.
type GeneratePDF struct {
	Actor        pdfgen.Actor
	GenerationID string
	Request      pdfgen.GenerateRequest
	Result       *pdfgen.GenerationRecord
}

func (GeneratePDF) Type() string { return "pdf:generate" }

func (msg GeneratePDF) Validate() error {
	if msg.Actor.ID == "" {
		return errors.New("actor ID is required", errors.CategoryValidation).
			WithTextCode("ACTOR_REQUIRED")
	}
	if len(msg.Request.HTML) == 0 && msg.Request.TemplateName == "" {
		return errors.New("document HTML or template name is required", errors.CategoryValidation).
			WithTextCode("DOCUMENT_REQUIRED")
	}
	return nil
}

// DeleteGeneration deletes a generation and its artifact.
type DeleteGeneration struct {
	Actor        pdfgen.Actor
	GenerationID string
}

func (DeleteGeneration) Type() string { return "pdf:delete" }

func (msg DeleteGeneration) Validate() error {
	if msg.Actor.ID == "" {
		return errors.New("actor ID is required", errors.CategoryValidation).
			WithTextCode("ACTOR_REQUIRED")
	}
	if msg.GenerationID == "" {
		return errors.New("generation ID is required", errors.CategoryValidation).
			WithTextCode("GENERATION_ID_REQUIRED")
	}
	return nil
}

// CleanupGenerations removes expired generations.
type CleanupGenerations struct {
	Now    time.Time
	Result *int
}

func (CleanupGenerations) Type() string { return "pdf:cleanup" }

func (CleanupGenerations) Validate() error { return nil }
