package pdfhttp

import "github.com/goliatone/go-pdfgen/adapters/pdfapi"

// IdempotencyStore stores idempotency keys.
type IdempotencyStore = pdfapi.IdempotencyStore

// MemoryIdempotencyStore stores idempotency keys in memory.
type MemoryIdempotencyStore = pdfapi.MemoryIdempotencyStore

// NewMemoryIdempotencyStore creates an in-memory store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return pdfapi.NewMemoryIdempotencyStore()
}
