package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Authentication is external: the system receives an opaque identity string
// per session, never credentials.
const (
	identityHeader = "X-Identity"
	sessionHeader  = "X-Session-Id"
)

type identityKey struct{}
type sessionKey struct{}

// IdentityFromContext returns the opaque identity from context, if present.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey{}).(string)
	return identity, ok
}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// IdentityMiddleware extracts the identity and session headers. Requests
// without an identity are rejected; a missing session ID is minted so every
// client instance is distinguishable.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := r.Header.Get(identityHeader)
		if identity == "" {
			http.Error(w, "missing identity header", http.StatusUnauthorized)
			return
		}
		sessionID := r.Header.Get(sessionHeader)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		ctx = context.WithValue(ctx, sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
