// Package handler is the thin HTTP layer over the verification service. It
// delegates to the orchestrator without embedding business logic so transport
// concerns stay isolated.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/internal/platform/middleware"
	"vouch/internal/verification"
	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

const defaultQueueLimit = 50

// Service defines the verification operations the handler needs.
type Service interface {
	Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error)
	Review(ctx context.Context, req verification.ReviewRequest) (*models.VerificationRecord, error)
	Get(ctx context.Context, vid id.VerificationID) (*models.VerificationRecord, error)
	ListQueue(ctx context.Context, status models.RecordStatus, limit int) ([]*models.VerificationRecord, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{service: service, logger: logger, validator: validator}
}

// Register mounts verification endpoints on the router. Submitting and
// reading verifications is open to service callers; listing the queue and
// overriding decisions require a reviewer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.handleVerify)
	r.Get("/verifications/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireReviewer(h.validator, h.logger))
		r.Get("/verifications", h.handleList)
		r.Post("/verifications/{id}/review", h.handleReview)
	})
}

// handleVerify handles POST /verifications.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, err := httputil.Decode[*VerifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid verification request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Verify(ctx, req.Parsed())
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"subject_id", req.SubjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"verification_id", rec.ID,
		"status", rec.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// handleGet handles GET /verifications/{id}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Get(ctx, vid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// handleList handles GET /verifications?status=manual_review (reviewer only).
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statusParam := r.URL.Query().Get("status")
	if statusParam == "" {
		statusParam = string(models.StatusManualReview)
	}
	status, err := parseStatus(statusParam)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := defaultQueueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	recs, err := h.service.ListQueue(ctx, status, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Records: make([]*RecordResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Records = append(resp.Records, FromRecord(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleReview handles POST /verifications/{id}/review (reviewer only).
func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reviewerID := requestcontext.ReviewerID(ctx)
	if reviewerID.IsZero() {
		// Should never happen behind RequireReviewer.
		h.logger.ErrorContext(ctx, "reviewer missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[*ReviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Review(ctx, verification.ReviewRequest{
		VerificationID: vid,
		ReviewerID:     reviewerID,
		Approve:        req.Approve,
		Notes:          req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "manual review failed",
			"request_id", requestID,
			"verification_id", vid,
			"reviewer_id", reviewerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual review applied",
		"request_id", requestID,
		"verification_id", vid,
		"reviewer_id", reviewerID,
		"status", rec.Status,
	)

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func parseStatus(s string) (models.RecordStatus, error) {
	switch models.RecordStatus(s) {
	case models.StatusPending, models.StatusApproved, models.StatusRejected,
		models.StatusManualReview, models.StatusResubmissionRequired:
		return models.RecordStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unrecognized status filter")
}
