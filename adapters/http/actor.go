package pdfhttp

import (
	"context"

	"github.com/goliatone/go-pdfgen/pdfgen"
)

type actorContextKey struct{}

// WithActor stores an actor in context for HTTP handlers.
func WithActor(ctx context.Context, actor pdfgen.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ContextActorProvider reads actors from request contexts.
type ContextActorProvider struct {
	Key any
}

// FromContext returns the actor stored in context.
func (p ContextActorProvider) FromContext(ctx context.Context) (pdfgen.Actor, error) {
	key := p.Key
	if key == nil {
		key = actorContextKey{}
	}
	actor, ok := ctx.Value(key).(pdfgen.Actor)
	if !ok {
		return pdfgen.Actor{}, pdfgen.NewError(pdfgen.KindValidation, "actor not found in context", nil)
	}
	return actor, nil
}

// StaticActorProvider always returns the configured actor.
type StaticActorProvider struct {
	Actor pdfgen.Actor
}

// FromContext returns the configured actor.
func (p StaticActorProvider) FromContext(ctx context.Context) (pdfgen.Actor, error) {
	_ = ctx
	return p.Actor, nil
}
