package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/recipevault/recipevault/internal/auth"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Gate   *auth.Gate
}

// Auth returns a middleware that evaluates the authorization gate for
// each request. On an allow decision the verified identity is
// injected into the request context; on a deny decision the request
// is rejected with 401 and the same generic body regardless of the
// specific verification failure.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := cfg.Gate.Evaluate(r.Context(), r.Header.Get("Authorization"))

			if !decision.Allowed() {
				cfg.Logger.Warn("request denied",
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			cfg.Logger.Info("request authorized",
				slog.String("subject", decision.Principal),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), &auth.Identity{Subject: decision.Principal})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a generic 401 response. The body never
// distinguishes the verification failure cause.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "unauthorized",
		"code":  "UNAUTHORIZED",
	})
}
