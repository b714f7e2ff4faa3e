package pdfapi

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-pdfgen/pdfgen"
)

// IdempotencyStore stores idempotency keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, generationID string, ttl time.Duration) error
}

// MemoryIdempotencyStore stores idempotency keys in memory.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]idempotencyEntry
	clock   func() time.Time
}

type idempotencyEntry struct {
	generationID string
	expiresAt    time.Time
}

// NewMemoryIdempotencyStore creates an in-memory store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		clock:   time.Now,
	}
}

// Get returns the generation ID for an idempotency key.
func (s *MemoryIdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	if s == nil {
		return "", false, pdfgen.NewError(pdfgen.KindInternal, "idempotency store is nil", nil)
	}
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.generationID, true, nil
}

// Set stores the generation ID for an idempotency key.
func (s *MemoryIdempotencyStore) Set(ctx context.Context, key, generationID string, ttl time.Duration) error {
	_ = ctx
	if s == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "idempotency store is nil", nil)
	}
	if key == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "idempotency key is required", nil)
	}
	if generationID == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = idempotencyEntry{generationID: generationID, expiresAt: expires}
	s.mu.Unlock()
	return nil
}

func (s *MemoryIdempotencyStore) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}

// BuildIdempotencyKey derives a stable signature for a generation request.
func BuildIdempotencyKey(key string, actor pdfgen.Actor, req pdfgen.GenerateRequest) string {
	return buildIdempotencyKey(key, actor, req)
}

func buildIdempotencyKey(key string, actor pdfgen.Actor, req pdfgen.GenerateRequest) string {
	tags := append([]string(nil), req.Tags...)
	sort.Strings(tags)

	payload := idempotencyPayload{
		Key:          key,
		ActorID:      actor.ID,
		Scope:        actor.Scope,
		Name:         req.Name,
		HTMLSum:      fmt.Sprintf("%x", sha256.Sum256(req.HTML)),
		TemplateName: req.TemplateName,
		Tags:         tags,
		Context:      req.TemplateContext,
	}

	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("pdf:%x", sum[:])
}

type idempotencyPayload struct {
	Key          string         `json:"key"`
	ActorID      string         `json:"actor_id,omitempty"`
	Scope        pdfgen.Scope   `json:"scope"`
	Name         string         `json:"name"`
	HTMLSum      string         `json:"html_sum,omitempty"`
	TemplateName string         `json:"template_name,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}
