// Package reqctx carries request-scoped values through context.Context.
//
// HTTP middleware sets RequestMeta on every request and the authenticated
// Actor on protected routes. Services and the logger read them back without
// depending on fiber.
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithActor(ctx, claims.Actor())
//
//	actor, ok := reqctx.ActorFromContext(ctx)
package reqctx
