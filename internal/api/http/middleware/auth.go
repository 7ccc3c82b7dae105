package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medstage_backend/internal/domain"
	pasetotoken "github.com/Alijeyrad/medstage_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/medstage_backend/pkg/redis"
	"github.com/Alijeyrad/medstage_backend/pkg/reqctx"
)

const LocalsClaims = "claims"

// AuthRequired validates a Bearer PASETO access token. When sessions is set,
// a token carrying a session id is only accepted while that session is live.
// On success the claims go to c.Locals(LocalsClaims) and the actor to the
// request context.
//
// EventSource clients cannot set headers, so text/event-stream requests may
// pass the token as ?access_token=.
func AuthRequired(mgr *pasetotoken.Manager, sessions *redispkg.Sessions) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.VerifyAccess(token)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if sessions != nil && claims.SessionID != nil {
			active, err := sessions.Active(c.Context(), claims.SessionID.String(), claims.UserID)
			if err != nil {
				slog.WarnContext(c.Context(), "auth: session lookup failed", "err", err)
				return fiber.ErrServiceUnavailable
			}
			if !active {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(LocalsClaims, claims)
		c.SetContext(reqctx.WithActor(c.Context(), claims.Actor()))
		return c.Next()
	}
}

func bearerToken(c fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		if strings.HasPrefix(c.Get(fiber.HeaderAccept), "text/event-stream") {
			t := c.Query("access_token")
			return t, t != ""
		}
		return "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.TrimSpace(parts[1])
	return t, t != ""
}

// ClaimsFromFiber returns the claims stored by AuthRequired.
func ClaimsFromFiber(c fiber.Ctx) (*pasetotoken.Claims, bool) {
	claims, ok := c.Locals(LocalsClaims).(*pasetotoken.Claims)
	return claims, ok && claims != nil
}

// ActorFromFiber returns the authenticated caller.
func ActorFromFiber(c fiber.Ctx) (domain.Actor, bool) {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return domain.Actor{}, false
	}
	return claims.Actor(), true
}
