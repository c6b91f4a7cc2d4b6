// Package handler exposes the reviewer token endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Service is the reviewer operation the handler needs.
type Service interface {
	IssueToken(ctx context.Context, reviewerID, apiKey string) (string, time.Duration, error)
}

// Handler wires reviewer endpoints to the reviewer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts reviewer endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reviewers/token", h.handleIssueToken)
}

type tokenRequest struct {
	ReviewerID string `json:"reviewer_id"`
	APIKey     string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[tokenRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, ttl, err := h.service.IssueToken(ctx, req.ReviewerID, req.APIKey)
	if err != nil {
		h.logger.WarnContext(ctx, "reviewer token issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}
