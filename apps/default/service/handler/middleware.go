package handler

import (
	"context"
	"net/http"

	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/pitabwire/frame"
)

// PrincipalExtractor returns the authenticated user id of a request context.
type PrincipalExtractor func(ctx context.Context) (string, error)

// ClaimsPrincipal reads the subject of the verified JWT claims.
func ClaimsPrincipal(ctx context.Context) (string, error) {
	claims := frame.ClaimsFromContext(ctx)
	if claims == nil {
		return "", namespace.ErrUnauthenticated
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", namespace.ErrUnauthenticated
	}
	return sub, nil
}

// ScopeMiddleware resolves the caller's scope once per request and stores it
// in the request context.
func ScopeMiddleware(principal PrincipalExtractor, members namespace.MembershipLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			userID, err := principal(ctx)
			if err != nil {
				writeJSON(w, req, errorResponse(req, namespace.ErrUnauthenticated))
				return
			}

			scope, err := namespace.NewScope(ctx, members, userID)
			if err != nil {
				writeJSON(w, req, errorResponse(req, err))
				return
			}

			next.ServeHTTP(w, req.WithContext(namespace.ToContext(ctx, scope)))
		})
	}
}
