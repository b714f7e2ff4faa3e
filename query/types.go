package query

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// GenerationStatus requests a generation status record.
type GenerationStatus struct {
	Actor        pdfgen.Actor
	GenerationID string
}

func (GenerationStatus) Type() string { return "pdf:status" }

func (msg GenerationStatus) Validate() error {
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

// GenerationHistory requests generation history.
type GenerationHistory struct {
	Actor  pdfgen.Actor
	Filter pdfgen.ProgressFilter
}

func (GenerationHistory) Type() string { return "pdf:history" }

func (msg GenerationHistory) Validate() error {
	if msg.Actor.ID == "" {
		return errors.New("actor ID is required", errors.CategoryValidation).
			WithTextCode("ACTOR_REQUIRED")
	}
	return nil
}

// ArtifactMetadata requests stored artifact metadata.
type ArtifactMetadata struct {
	Actor        pdfgen.Actor
	GenerationID string
}

func (ArtifactMetadata) Type() string { return "pdf:artifact" }

func (msg ArtifactMetadata) Validate() error {
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
