package pdfjob

import (
	"context"
	"sync"

	"github.com/goliatone/go-pdfgen/pdfgen"
)

// CancelRegistry tracks running generation jobs for cancellation.
type CancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewCancelRegistry creates a new registry for job cancellation.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Register associates a cancel func with a generation ID.
func (r *CancelRegistry) Register(generationID string, cancel context.CancelFunc) func() {
	if r == nil || generationID == "" || cancel == nil {
		return func() {}
	}
	r.mu.Lock()
	r.cancels[generationID] = cancel
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.cancels, generationID)
		r.mu.Unlock()
	}
}

// Cancel triggers context cancellation for a running generation.
func (r *CancelRegistry) Cancel(ctx context.Context, generationID string) error {
	_ = ctx
	if r == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "cancel registry is nil", nil)
	}
	if generationID == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	r.mu.Lock()
	cancel, ok := r.cancels[generationID]
	r.mu.Unlock()
	if !ok {
		return pdfgen.NewError(pdfgen.KindNotFound, "generation not running", nil)
	}
	cancel()
	return nil
}
