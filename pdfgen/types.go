package pdfgen

import (
	"context"
	"io"
	"time"
)

// AssetsPolicy controls how engines treat external asset references.
type AssetsPolicy string

const (
	AssetsAllow AssetsPolicy = "allow"
	AssetsBlock AssetsPolicy = "block"
)

// RenderOptions carries per-request rendering hints. Engines ignore
// fields they cannot honor.
type RenderOptions struct {
	PaperSize            string
	Landscape            *bool
	PrintBackground      *bool
	Scale                float64
	MarginTop            string
	MarginBottom         string
	MarginLeft           string
	MarginRight          string
	PreferCSSPageSize    *bool
	BaseURL              string
	ExternalAssetsPolicy AssetsPolicy
}

// GenerateRequest captures a PDF generation request.
type GenerateRequest struct {
	// Name is the logical document name used for artifact filenames.
	Name string
	// HTML is the document body. Mutually exclusive with TemplateName.
	HTML []byte
	// TemplateName selects a template rendered by the configured
	// HTMLRenderer before conversion.
	TemplateName string
	// TemplateContext is passed to the template.
	TemplateContext map[string]any
	// OutputFolder, when set, receives a copy of the PDF on disk. It
	// must be an existing directory.
	OutputFolder string
	// Tags participate in retention rule matching.
	Tags []string
	// Locale is forwarded to notifications.
	Locale string
	// IdempotencyKey deduplicates repeated requests when async
	// scheduling is in use.
	IdempotencyKey string
	// Options tunes the rendering engine.
	Options RenderOptions
}

// GenerationState tracks record lifecycle.
type GenerationState string

const (
	StateQueued    GenerationState = "queued"
	StateRunning   GenerationState = "running"
	StateCompleted GenerationState = "completed"
	StateFailed    GenerationState = "failed"
	StateCanceled  GenerationState = "canceled"
)

// Actor identifies the requesting principal.
type Actor struct {
	ID      string
	Scope   Scope
	Roles   []string
	Details map[string]any
}

// Scope identifies tenant/workspace scope.
type Scope struct {
	TenantID    string
	WorkspaceID string
}

// GenerationRecord captures the lifecycle of one generation.
type GenerationRecord struct {
	ID           string
	Name         string
	State        GenerationState
	RequestedBy  Actor
	Scope        Scope
	Request      GenerateRequest `json:"-"`
	Tags         []string
	InputBytes   int64
	BytesWritten int64
	Artifact     ArtifactRef
	OutputPath   string
	Error        string
	CreatedAt    time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
	ExpiresAt    time.Time
}

// GenerateResult captures a completed generation.
type GenerateResult struct {
	ID       string
	Name     string
	Path     string
	Artifact ArtifactRef
	Bytes    int64
	Duration time.Duration
}

// ArtifactMeta describes a stored artifact.
type ArtifactMeta struct {
	ContentType string
	Size        int64
	Filename    string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// ArtifactRef references a stored artifact.
type ArtifactRef struct {
	Key  string
	Meta ArtifactMeta
}

// ArtifactStore stores generated PDFs.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ProgressFilter narrows record listings.
type ProgressFilter struct {
	Name          string
	State         GenerationState
	Since         time.Time
	Until         time.Time
	ExpiredBefore time.Time
}

// ProgressTracker tracks generation lifecycle records.
type ProgressTracker interface {
	Start(ctx context.Context, record GenerationRecord) (string, error)
	SetState(ctx context.Context, id string, state GenerationState, meta map[string]any) error
	Fail(ctx context.Context, id string, err error, meta map[string]any) error
	Complete(ctx context.Context, id string, meta map[string]any) error
	Status(ctx context.Context, id string) (GenerationRecord, error)
	List(ctx context.Context, filter ProgressFilter) ([]GenerationRecord, error)
	Delete(ctx context.Context, id string) error
}

// ArtifactTracker updates stored artifact metadata.
type ArtifactTracker interface {
	SetArtifact(ctx context.Context, id string, ref ArtifactRef) error
}

// Guard authorizes generation operations.
type Guard interface {
	AuthorizeGenerate(ctx context.Context, actor Actor, req GenerateRequest) error
	AuthorizeDownload(ctx context.Context, actor Actor, generationID string) error
}

// ActorProvider extracts the actor from context.
type ActorProvider interface {
	FromContext(ctx context.Context) (Actor, error)
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// ChangeEvent describes lifecycle events.
type ChangeEvent struct {
	Name         string
	GenerationID string
	Document     string
	Actor        Actor
	Timestamp    time.Time
	Metadata     map[string]any
}

// ChangeEmitter emits lifecycle events.
type ChangeEmitter interface {
	Emit(ctx context.Context, evt ChangeEvent) error
}

// ChangeEmitterFunc adapts a function to a ChangeEmitter.
type ChangeEmitterFunc func(ctx context.Context, evt ChangeEvent) error

func (f ChangeEmitterFunc) Emit(ctx context.Context, evt ChangeEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// MetricsEvent captures a measured generation outcome.
type MetricsEvent struct {
	Name         string
	GenerationID string
	Document     string
	Duration     time.Duration
	Bytes        int64
	Error        string
	Timestamp    time.Time
	Metadata     map[string]any
}

// MetricsHook receives generation metrics.
type MetricsHook interface {
	Emit(ctx context.Context, evt MetricsEvent) error
}

// RetentionPolicy decides artifact TTLs.
type RetentionPolicy interface {
	TTL(ctx context.Context, actor Actor, req GenerateRequest) (time.Duration, error)
}

// HTMLRenderer renders a named template into HTML.
type HTMLRenderer interface {
	Render(ctx context.Context, name string, data map[string]any, w io.Writer) error
}
