package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cypher-grc/cypher/internal/api/response"
)

type contextKey string

// APIKeyIDKey carries the authenticated key's ID for audit logging.
const APIKeyIDKey contextKey = "api_key_id"

// ActorKey carries the authenticated key's display name, used as the actor
// on lifecycle transitions.
const ActorKey contextKey = "actor"

// Auth returns a middleware that validates the X-API-Key header against the
// api_keys table.
func Auth(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			hash := sha256.Sum256([]byte(key))
			keyHash := hex.EncodeToString(hash[:])

			var id, name string
			err := pool.QueryRow(r.Context(),
				`SELECT id, name FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash,
			).Scan(&id, &name)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyIDKey, id)
			ctx = context.WithValue(ctx, ActorKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor returns the authenticated actor name from the request context, or
// "system" when the request is unauthenticated (tick command, tests).
func Actor(ctx context.Context) string {
	if name, ok := ctx.Value(ActorKey).(string); ok && name != "" {
		return name
	}
	return "system"
}
