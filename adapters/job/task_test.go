package pdfjob

import (
	"context"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	job "github.com/goliatone/go-job"
	pdfcmd "github.com/goliatone/go-pdfgen/command"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

func TestGenerateTask_GetHandler_BuildsMessageAndExecutes(t *testing.T) {
	engine := pdfgen.EngineFunc(func(ctx context.Context, req pdfgen.RenderRequest) ([]byte, error) {
		_ = ctx
		_ = req
		return []byte("%PDF-1.4"), nil
	})
	svc := newTestService(t, engine)

	sub := dispatcher.SubscribeCommand(pdfcmd.NewGeneratePDFHandler(svc))
	defer sub.Unsubscribe()

	builder := NewMessageBuilder(MessageBuilderConfig{
		Tracker: svc.Tracker,
		Service: svc,
	})

	actor := pdfgen.Actor{ID: "actor-1"}
	req := pdfgen.GenerateRequest{
		Name: "invoice",
		HTML: []byte("<h1>Invoice</h1>"),
	}

	var generationID string
	task := NewGenerateTask(TaskConfig{
		Tracker: svc.Tracker,
		Store:   svc.Store,
		MessageBuilder: func(ctx context.Context) (*job.ExecutionMessage, error) {
			result, err := builder.Build(ctx, actor, req)
			if err != nil {
				return nil, err
			}
			generationID = result.Record.ID
			return result.Message, nil
		},
	})

	if err := task.GetHandler()(); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if generationID == "" {
		t.Fatalf("expected generation id to be set")
	}

	status, err := svc.Status(context.Background(), actor, generationID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != pdfgen.StateCompleted {
		t.Fatalf("expected completed state, got %s", status.State)
	}
}

type tempNetError struct{}

func (tempNetError) Error() string   { return "temporary" }
func (tempNetError) Timeout() bool   { return false }
func (tempNetError) Temporary() bool { return true }

func TestGenerateTask_RetriesRetryableErrors(t *testing.T) {
	var attempts int
	store := &deleteTrackingStore{}
	tracker := pdfgen.NewMemoryTracker()
	if _, err := tracker.Start(context.Background(), pdfgen.GenerationRecord{
		ID:       "pdf-1",
		Name:     "invoice",
		State:    pdfgen.StateQueued,
		Artifact: pdfgen.ArtifactRef{Key: "pdf-1/invoice.pdf"},
	}); err != nil {
		t.Fatalf("tracker start: %v", err)
	}

	policy := RetryPolicy{
		MaxRetries: 2,
		Backoff: job.BackoffConfig{
			Strategy: job.BackoffNone,
		},
	}
	task := NewGenerateTask(TaskConfig{
		RetryPolicy: policy,
		Tracker:     tracker,
		Store:       store,
		Dispatch: func(ctx context.Context, msg pdfcmd.GeneratePDF) error {
			_ = ctx
			_ = msg
			attempts++
			if attempts < 3 {
				return tempNetError{}
			}
			return nil
		},
	})

	payload := Payload{
		GenerationID: "pdf-1",
		Actor:        pdfgen.Actor{ID: "actor-1"},
		Request: pdfgen.GenerateRequest{
			Name: "invoice",
			HTML: []byte("<h1>Invoice</h1>"),
		},
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	err = task.Execute(context.Background(), &job.ExecutionMessage{
		Parameters: map[string]any{"payload": encoded},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	store.mu.Lock()
	deletes := store.deletes
	store.mu.Unlock()
	if deletes != 2 {
		t.Fatalf("expected 2 cleanup deletes, got %d", deletes)
	}
}
