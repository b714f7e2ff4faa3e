package pdfjob

import (
	"context"
	"errors"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/google/uuid"
)

var errExecutionSkipped = errors.New("generation execution skipped")

// MessageBuilderConfig configures message building for PDF generation.
type MessageBuilderConfig struct {
	Tracker          pdfgen.ProgressTracker
	Service          pdfgen.Service
	Guard            pdfgen.Guard
	Retention        pdfgen.RetentionPolicy
	IdempotencyStore IdempotencyStore
	IdempotencyTTL   time.Duration
	TaskID           string
	TaskPath         string
	Config           job.Config
	IDGenerator      func() string
	Now              func() time.Time
	Logger           pdfgen.Logger
}

// MessageBuilder builds execution messages for PDF generation. It
// queues a generation record before the job runs so callers get an ID
// immediately.
type MessageBuilder struct {
	tracker          pdfgen.ProgressTracker
	service          pdfgen.Service
	guard            pdfgen.Guard
	retention        pdfgen.RetentionPolicy
	idempotencyStore IdempotencyStore
	idempotencyTTL   time.Duration
	taskID           string
	taskPath         string
	config           job.Config
	idGenerator      func() string
	now              func() time.Time
	logger           pdfgen.Logger
}

// BuildResult captures the outcome of message building.
type BuildResult struct {
	Record    pdfgen.GenerationRecord
	Message   *job.ExecutionMessage
	Signature string
	Reused    bool
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(cfg MessageBuilderConfig) *MessageBuilder {
	logger := cfg.Logger
	if logger == nil {
		logger = pdfgen.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultGenerateTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultGenerateTaskPath
	}
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "pdf-" + uuid.NewString() }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &MessageBuilder{
		tracker:          cfg.Tracker,
		service:          cfg.Service,
		guard:            cfg.Guard,
		retention:        cfg.Retention,
		idempotencyStore: cfg.IdempotencyStore,
		idempotencyTTL:   cfg.IdempotencyTTL,
		taskID:           taskID,
		taskPath:         taskPath,
		config:           cfg.Config,
		idGenerator:      idGenerator,
		now:              now,
		logger:           logger,
	}
}

// Build queues a generation record and prepares its execution message.
func (b *MessageBuilder) Build(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (BuildResult, error) {
	if b == nil {
		return BuildResult{}, pdfgen.NewError(pdfgen.KindInternal, "message builder is nil", nil)
	}
	if b.tracker == nil {
		return BuildResult{}, pdfgen.NewError(pdfgen.KindNotImpl, "progress tracker not configured", nil)
	}
	if actor.ID == "" {
		return BuildResult{}, pdfgen.NewError(pdfgen.KindValidation, "actor ID is required", nil)
	}
	if len(req.HTML) == 0 && req.TemplateName == "" {
		return BuildResult{}, pdfgen.NewError(pdfgen.KindValidation, "html or template name is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	asyncReq := req
	// Batch and queue runs never write local copies.
	asyncReq.OutputFolder = ""

	signature := ""
	if asyncReq.IdempotencyKey != "" && b.idempotencyStore != nil {
		signature = buildIdempotencyKey(asyncReq.IdempotencyKey, actor, asyncReq)
		generationID, ok, err := b.idempotencyStore.Get(ctx, signature)
		if err != nil {
			return BuildResult{}, err
		}
		if ok && b.service != nil {
			record, err := b.service.Status(ctx, actor, generationID)
			if err == nil && isReusableState(record.State) {
				return BuildResult{Record: record, Signature: signature, Reused: true}, nil
			}
		}
	}

	if b.guard != nil {
		if err := b.guard.AuthorizeGenerate(ctx, actor, asyncReq); err != nil {
			return BuildResult{}, pdfgen.AsGoError(err)
		}
	}

	queued := b.now()
	record := pdfgen.GenerationRecord{
		ID:          b.idGenerator(),
		Name:        asyncReq.Name,
		State:       pdfgen.StateQueued,
		RequestedBy: actor,
		Scope:       actor.Scope,
		Request:     asyncReq,
		Tags:        asyncReq.Tags,
		InputBytes:  int64(len(asyncReq.HTML)),
		CreatedAt:   queued,
	}
	if b.retention != nil {
		ttl, err := b.retention.TTL(ctx, actor, asyncReq)
		if err != nil {
			return BuildResult{}, pdfgen.AsGoError(err)
		}
		if ttl > 0 {
			record.ExpiresAt = queued.Add(ttl)
		}
	}

	id, err := b.tracker.Start(ctx, record)
	if err != nil {
		return BuildResult{}, pdfgen.AsGoError(pdfgen.NewError(pdfgen.KindInternal, "tracker start failed", err))
	}
	record.ID = id

	payload := Payload{
		GenerationID: record.ID,
		Actor:        actor,
		Request:      asyncReq,
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		if ferr := b.tracker.Fail(ctx, record.ID, err, map[string]any{"stage": "payload"}); ferr != nil {
			b.logger.Errorf("payload failure tracking failed: %v", ferr)
		}
		return BuildResult{Record: record, Signature: signature}, err
	}

	msg := &job.ExecutionMessage{
		JobID:      b.taskID,
		ScriptPath: b.taskPath,
		Config:     b.config,
		Parameters: map[string]any{"payload": encoded},
	}

	if signature != "" {
		msg.IdempotencyKey = signature
		msg.DedupPolicy = job.DedupPolicyMerge
	}

	return BuildResult{Record: record, Message: msg, Signature: signature}, nil
}

// BuildMessage returns an execution message or signals a no-op when the request was reused.
func (b *MessageBuilder) BuildMessage(ctx context.Context, actor pdfgen.Actor, req pdfgen.GenerateRequest) (*job.ExecutionMessage, error) {
	result, err := b.Build(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if result.Reused {
		return nil, errExecutionSkipped
	}
	if result.Message == nil {
		return nil, pdfgen.NewError(pdfgen.KindValidation, "execution message is required", nil)
	}
	return result.Message, nil
}

// StoreIdempotency records an idempotency signature after successful enqueue.
func (b *MessageBuilder) StoreIdempotency(ctx context.Context, signature, generationID string) error {
	if signature == "" || b == nil || b.idempotencyStore == nil {
		return nil
	}
	ttl := b.idempotencyTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return b.idempotencyStore.Set(ctx, signature, generationID, ttl)
}

func isReusableState(state pdfgen.GenerationState) bool {
	switch state {
	case pdfgen.StateQueued, pdfgen.StateRunning, pdfgen.StateCompleted:
		return true
	default:
		return false
	}
}
