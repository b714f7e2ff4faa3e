package pdfgen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Runner orchestrates PDF generation: track, render, store, finalize.
type Runner struct {
	Engine          Engine
	HTMLRenderer    HTMLRenderer
	Tracker         ProgressTracker
	Store           ArtifactStore
	Logger          Logger
	Emitter         ChangeEmitter
	Metrics         MetricsHook
	Retention       RetentionPolicy
	FilenamePattern string
	MaxHTMLBytes    int64
	Now             func() time.Time
	IDGenerator     func() string
}

// NewRunner creates a runner around an engine.
func NewRunner(engine Engine) *Runner {
	return &Runner{
		Engine:      engine,
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: defaultIDGenerator(),
	}
}

// Run executes a generation request synchronously.
func (r *Runner) Run(ctx context.Context, actor Actor, req GenerateRequest) (GenerateResult, error) {
	return r.run(ctx, actor, "", req)
}

// Resume executes a generation against a record previously queued for
// asynchronous execution. The record transitions to running instead of
// being created anew.
func (r *Runner) Resume(ctx context.Context, actor Actor, id string, req GenerateRequest) (GenerateResult, error) {
	if id == "" {
		return GenerateResult{}, AsGoError(NewError(KindValidation, "generation ID is required", nil))
	}
	return r.run(ctx, actor, id, req)
}

func (r *Runner) run(ctx context.Context, actor Actor, resumeID string, req GenerateRequest) (GenerateResult, error) {
	if r == nil {
		return GenerateResult{}, AsGoError(NewError(KindInternal, "runner is nil", nil))
	}
	if r.Engine == nil {
		return GenerateResult{}, AsGoError(NewError(KindInternal, "runner engine is not configured", nil))
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = NopLogger{}
	}
	if r.IDGenerator == nil {
		r.IDGenerator = defaultIDGenerator()
	}

	if len(req.HTML) == 0 && req.TemplateName == "" {
		return GenerateResult{}, AsGoError(NewError(KindValidation, "html or template name is required", nil))
	}
	if req.TemplateName != "" && r.HTMLRenderer == nil {
		return GenerateResult{}, AsGoError(NewError(KindValidation, "template requests require an html renderer", nil))
	}
	if req.OutputFolder != "" {
		info, err := os.Stat(req.OutputFolder)
		if err != nil || !info.IsDir() {
			return GenerateResult{}, AsGoError(NewError(KindValidation, fmt.Sprintf("%q is not a valid directory", req.OutputFolder), err))
		}
	}

	recordID := resumeID
	if recordID == "" {
		recordID = r.IDGenerator()
	}

	started := r.Now()
	record := GenerationRecord{
		ID:          recordID,
		Name:        req.Name,
		State:       StateRunning,
		RequestedBy: actor,
		Scope:       actor.Scope,
		Request:     req,
		Tags:        req.Tags,
		InputBytes:  int64(len(req.HTML)),
		CreatedAt:   started,
		StartedAt:   started,
	}

	if r.Retention != nil {
		ttl, err := r.Retention.TTL(ctx, actor, req)
		if err != nil {
			return GenerateResult{}, AsGoError(err)
		}
		if ttl > 0 {
			record.ExpiresAt = started.Add(ttl)
		}
	}

	if r.Tracker != nil {
		if resumeID != "" {
			if err := r.Tracker.SetState(ctx, record.ID, StateRunning, nil); err != nil {
				return GenerateResult{}, AsGoError(NewError(KindInternal, "tracker resume failed", err))
			}
		} else {
			id, err := r.Tracker.Start(ctx, record)
			if err != nil {
				return GenerateResult{}, AsGoError(NewError(KindInternal, "tracker start failed", err))
			}
			record.ID = id
		}
	}
	r.emit(ctx, "pdf.generation.started", record, nil)

	html := req.HTML
	if req.TemplateName != "" {
		buffer := newLimitedBuffer(r.MaxHTMLBytes)
		if err := r.HTMLRenderer.Render(ctx, req.TemplateName, req.TemplateContext, buffer); err != nil {
			return GenerateResult{}, r.fail(ctx, record, started, err)
		}
		html = buffer.Bytes()
		record.InputBytes = int64(len(html))
	}

	pdf, err := r.Engine.Render(ctx, RenderRequest{HTML: html, Options: req.Options})
	if err != nil {
		return GenerateResult{}, r.fail(ctx, record, started, err)
	}

	filename, err := renderArtifactName(req.Name, r.FilenamePattern, started)
	if err != nil {
		return GenerateResult{}, r.fail(ctx, record, started, NewError(KindInternal, "render artifact filename", err))
	}

	result := GenerateResult{
		ID:    record.ID,
		Name:  req.Name,
		Bytes: int64(len(pdf)),
	}

	if r.Store != nil {
		meta := ArtifactMeta{
			ContentType: "application/pdf",
			Size:        int64(len(pdf)),
			Filename:    filename,
			CreatedAt:   started,
			ExpiresAt:   record.ExpiresAt,
		}
		ref, err := r.Store.Put(ctx, record.ID+"/"+filename, bytes.NewReader(pdf), meta)
		if err != nil {
			return GenerateResult{}, r.fail(ctx, record, started, NewError(KindInternal, "store artifact", err))
		}
		record.Artifact = ref
		result.Artifact = ref
		if tracker, ok := r.Tracker.(ArtifactTracker); ok && r.Tracker != nil {
			if err := tracker.SetArtifact(ctx, record.ID, ref); err != nil {
				r.Logger.Errorf("set artifact for %s: %v", record.ID, err)
			}
		}
	}

	if req.OutputFolder != "" {
		path := filepath.Join(req.OutputFolder, filename)
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return GenerateResult{}, r.fail(ctx, record, started, NewError(KindInternal, "write output file", err))
		}
		record.OutputPath = path
		result.Path = path
	}

	record.BytesWritten = int64(len(pdf))
	if r.Tracker != nil {
		meta := map[string]any{"bytes": record.BytesWritten}
		if record.OutputPath != "" {
			meta["output_path"] = record.OutputPath
		}
		if err := r.Tracker.Complete(ctx, record.ID, meta); err != nil {
			r.Logger.Errorf("tracker complete for %s: %v", record.ID, err)
		}
	}

	result.Duration = r.Now().Sub(started)
	r.emit(ctx, "pdf.generation.completed", record, map[string]any{
		"bytes":       record.BytesWritten,
		"duration_ms": result.Duration.Milliseconds(),
	})
	r.measure(ctx, record, result.Duration, record.BytesWritten, nil)
	r.Logger.Infof("generated pdf id=%s name=%s bytes=%d", record.ID, record.Name, record.BytesWritten)

	return result, nil
}

func (r *Runner) fail(ctx context.Context, record GenerationRecord, started time.Time, err error) error {
	if r.Tracker != nil {
		trackCtx := context.WithoutCancel(ctx)
		if KindFromError(err) == KindCanceled {
			if trackErr := r.Tracker.SetState(trackCtx, record.ID, StateCanceled, nil); trackErr != nil {
				r.Logger.Errorf("tracker cancel for %s: %v", record.ID, trackErr)
			}
		} else if trackErr := r.Tracker.Fail(trackCtx, record.ID, err, nil); trackErr != nil {
			r.Logger.Errorf("tracker fail for %s: %v", record.ID, trackErr)
		}
	}
	duration := r.Now().Sub(started)
	r.emit(ctx, "pdf.generation.failed", record, map[string]any{"error": err.Error()})
	r.measure(ctx, record, duration, 0, err)
	r.Logger.Errorf("generation failed id=%s name=%s: %v", record.ID, record.Name, err)
	return AsGoError(err)
}

func (r *Runner) emit(ctx context.Context, name string, record GenerationRecord, meta map[string]any) {
	if r.Emitter == nil {
		return
	}
	evt := ChangeEvent{
		Name:         name,
		GenerationID: record.ID,
		Document:     record.Name,
		Actor:        record.RequestedBy,
		Timestamp:    r.Now(),
		Metadata:     meta,
	}
	if err := r.Emitter.Emit(ctx, evt); err != nil {
		r.Logger.Errorf("emit %s for %s: %v", name, record.ID, err)
	}
}

func (r *Runner) measure(ctx context.Context, record GenerationRecord, duration time.Duration, size int64, cause error) {
	if r.Metrics == nil {
		return
	}
	evt := MetricsEvent{
		Name:         "pdf.generate",
		GenerationID: record.ID,
		Document:     record.Name,
		Duration:     duration,
		Bytes:        size,
		Timestamp:    r.Now(),
	}
	if cause != nil {
		evt.Error = cause.Error()
	}
	if err := r.Metrics.Emit(ctx, evt); err != nil {
		r.Logger.Errorf("metrics emit for %s: %v", record.ID, err)
	}
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

func defaultIDGenerator() func() string {
	return func() string {
		return "pdf-" + uuid.NewString()
	}
}
