package pdfjob

import (
	"github.com/goliatone/go-pdfgen/adapters/pdfapi"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// IdempotencyStore stores idempotency keys.
type IdempotencyStore = pdfapi.IdempotencyStore

// MemoryIdempotencyStore stores idempotency keys in memory.
type MemoryIdempotencyStore = pdfapi.MemoryIdempotencyStore

// NewMemoryIdempotencyStore creates an in-memory store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return pdfapi.NewMemoryIdempotencyStore()
}

func buildIdempotencyKey(key string, actor pdfgen.Actor, req pdfgen.GenerateRequest) string {
	return pdfapi.BuildIdempotencyKey(key, actor, req)
}
