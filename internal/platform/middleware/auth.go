package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the reviewer claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the claims the middleware needs from the validator.
type TokenClaims struct {
	ReviewerID string
}

// RequireReviewer rejects requests without a valid reviewer bearer token and
// places the reviewer identity in context for handlers and audit.
func RequireReviewer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			reviewerID, err := id.ParseReviewerID(claims.ReviewerID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed reviewer claim",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithReviewerID(ctx, reviewerID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}
