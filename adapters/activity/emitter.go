package pdfactivity

import (
	"context"
	"strings"

	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/goliatone/go-users/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Config configures the activity emitter adapter.
type Config struct {
	Sink       types.ActivitySink
	Channel    string
	ObjectType string
}

// Emitter adapts ChangeEmitter events into go-users activity records.
type Emitter struct {
	sink       types.ActivitySink
	channel    string
	objectType string
}

// NewEmitter creates a new activity emitter.
func NewEmitter(cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "pdf"
	}
	objectType := strings.TrimSpace(cfg.ObjectType)
	if objectType == "" {
		objectType = "pdf_generation"
	}
	return &Emitter{
		sink:       cfg.Sink,
		channel:    channel,
		objectType: objectType,
	}
}

// Emit logs generation lifecycle events to the configured ActivitySink.
func (e *Emitter) Emit(ctx context.Context, evt pdfgen.ChangeEvent) error {
	if e == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "activity emitter is nil", nil)
	}
	if e.sink == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "activity sink not configured", nil)
	}
	verb := strings.TrimSpace(evt.Name)
	if verb == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "activity verb is required", nil)
	}
	objectID := strings.TrimSpace(evt.GenerationID)
	if objectID == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "activity object ID is required", nil)
	}

	meta := buildMetadata(evt)
	record, err := activity.BuildRecordFromUUID(
		parseUUID(evt.Actor.ID),
		verb,
		e.objectType,
		objectID,
		meta,
		activity.WithChannel(e.channel),
		activity.WithOccurredAt(evt.Timestamp),
		activity.WithTenant(parseUUID(evt.Actor.Scope.TenantID)),
		activity.WithOrg(parseUUID(evt.Actor.Scope.WorkspaceID)),
	)
	if err != nil {
		return err
	}
	return e.sink.Log(ctx, record)
}

func buildMetadata(evt pdfgen.ChangeEvent) map[string]any {
	meta := make(map[string]any, 2)
	if evt.Document != "" {
		meta["document"] = evt.Document
	}
	for k, v := range evt.Metadata {
		meta[k] = v
	}
	return meta
}

func parseUUID(value string) uuid.UUID {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
