package reqctx

import (
	"context"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
)

// WithActor stores the authenticated caller.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, keyActor, actor)
}

// ActorFromContext returns false for anonymous requests.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(keyActor).(domain.Actor)
	return actor, ok
}

// MustActor panics when no actor is set. Use only behind AuthRequired.
func MustActor(ctx context.Context) domain.Actor {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		panic("reqctx: actor not found in context")
	}
	return actor
}
