package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/repository"
)

type contextKey string

const (
	// ActorContextKey holds the authenticated actor
	ActorContextKey contextKey = "actor"
)

// GetActorFromContext retrieves the authenticated actor from request context
func GetActorFromContext(ctx context.Context) *models.Actor {
	if actor, ok := ctx.Value(ActorContextKey).(*models.Actor); ok {
		return actor
	}
	return nil
}

// WithActor returns a context carrying the actor. Exposed for tests.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorAuth resolves the requesting actor from an API key header.
// Authentication itself lives outside this service; the middleware only
// materializes the principal the upstream layer already issued a key for.
func ActorAuth(userRepo repository.UserRepo, headerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Health endpoints stay open
			if path == "/health" || path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			// Only authenticate API routes
			if !strings.HasPrefix(path, "/api") {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(headerName)
			if providedKey == "" {
				unauthorized(w, "API key is required.")
				return
			}

			user, err := userRepo.GetByAPIKey(r.Context(), providedKey)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Authentication backend unavailable."})
				return
			}
			if user == nil {
				unauthorized(w, "Invalid API key.")
				return
			}

			actor := &models.Actor{
				UserID:   user.ID,
				TenantID: user.TenantID,
				Role:     user.Role,
			}
			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
