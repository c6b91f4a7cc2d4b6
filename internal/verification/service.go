// Package verification hosts the orchestrator: it sequences the external
// analyzers for one request, feeds their results through the scoring pipeline
// and decision engine, and owns the record's lifecycle from pending to its
// terminal state.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/audit"
	"vouch/internal/notify"
	"vouch/internal/verification/decision"
	vmetrics "vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/pendinglock"
	"vouch/internal/verification/providers"
	"vouch/internal/verification/scoring"
	"vouch/internal/verification/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Config bounds the orchestrator's interaction with slow providers. Poll
// budget and timeouts are configuration, not constants.
type Config struct {
	// PollInterval is the fixed delay between document job polls.
	PollInterval time.Duration
	// MaxPollAttempts caps the polling loop; exhaustion is a provider failure.
	MaxPollAttempts int
	// ProviderTimeout locally bounds each single provider call so a stalled
	// provider cannot block the request. Must be <= any provider-side timeout.
	ProviderTimeout time.Duration
}

// DefaultConfig returns the poll budget used when none is configured.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		MaxPollAttempts: 15,
		ProviderTimeout: 10 * time.Second,
	}
}

// Terminal persist retry policy: the decision is computed once; only the
// idempotent write is retried.
const (
	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond
)

// Service orchestrates one verification request end to end. All state is
// request-scoped; the service itself holds only collaborators.
type Service struct {
	records   store.RecordStore
	locks     pendinglock.Lock
	documents providers.DocumentAnalyzer
	addresses providers.AddressValidator
	faces     providers.FaceComparer

	auditor  *audit.Service
	notifier notify.Notifier
	metrics  *vmetrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      Config
}

// Option configures optional collaborators.
type Option func(*Service)

// WithAudit wires the audit emitter.
func WithAudit(auditor *audit.Service) Option {
	return func(s *Service) { s.auditor = auditor }
}

// WithNotifier wires the downstream notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics wires prometheus metrics.
func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConfig overrides the poll budget and provider timeouts.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// NewService wires an orchestrator for the given stores and analyzer ports.
func NewService(
	records store.RecordStore,
	locks pendinglock.Lock,
	documents providers.DocumentAnalyzer,
	addresses providers.AddressValidator,
	faces providers.FaceComparer,
	opts ...Option,
) *Service {
	s := &Service{
		records:   records,
		locks:     locks,
		documents: documents,
		addresses: addresses,
		faces:     faces,
		logger:    slog.Default(),
		tracer:    otel.Tracer("vouch/verification"),
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the full pipeline for one request and returns the terminal
// record. A document provider failure yields a resubmission_required record,
// not an error; errors are reserved for invalid input, subject contention,
// and persistence failures.
func (s *Service) Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveVerifyLatency(time.Since(start)) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "verification.verify", trace.WithAttributes(
		attribute.String("document_type", string(req.DocumentType)),
		attribute.String("purpose", string(req.Purpose)),
		attribute.String("risk_tolerance", string(req.RiskTolerance)),
	))
	defer span.End()

	if err := s.locks.Acquire(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a verification is already in progress for this subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not reserve subject for verification")
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), req.SubjectID); err != nil {
			s.logger.WarnContext(ctx, "pending lock release failed",
				"subject_id", req.SubjectID, "error", err)
		}
	}()

	rec := &models.VerificationRecord{
		ID:        id.NewVerificationID(),
		SubjectID: req.SubjectID,
		Request:   req,
		Status:    models.StatusPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.records.CreatePending(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a verification is already in progress for this subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create verification record")
	}
	s.emitAudit(ctx, audit.Event{
		VerificationID: rec.ID,
		SubjectIDHash:  audit.HashSubject(rec.SubjectID),
		Action:         audit.ActionVerificationStarted,
		StatusAfter:    string(models.StatusPending),
	})

	// Whatever happens below, the record must not stay pending: an abandoned
	// request becomes resubmission_required so the subject is unblocked.
	finalized := false
	defer func() {
		if finalized {
			return
		}
		bg := context.WithoutCancel(ctx)
		if err := s.finalize(bg, rec.ID, models.StatusResubmissionRequired, nil,
			"verification aborted before completion"); err != nil {
			s.logger.ErrorContext(ctx, "abort finalize failed",
				"verification_id", rec.ID, "error", err)
		}
	}()

	// Step 1: document analysis, sequential, possibly via an async job.
	docResult, attempts := s.analyzeDocument(ctx, req)
	s.metrics.ObservePollAttempts(attempts)
	if !docResult.Succeeded {
		// The other analyzers depend on document data; nothing useful can be
		// scored, so the whole request short-circuits.
		reason := "document analysis unavailable, please resubmit: " + docResult.Error
		if err := s.finalize(ctx, rec.ID, models.StatusResubmissionRequired, nil, reason); err != nil {
			return nil, err
		}
		finalized = true
		s.emitAudit(ctx, audit.Event{
			VerificationID: rec.ID,
			SubjectIDHash:  audit.HashSubject(rec.SubjectID),
			Action:         audit.ActionResubmissionRequired,
			StatusBefore:   string(models.StatusPending),
			StatusAfter:    string(models.StatusResubmissionRequired),
			Reason:         reason,
		})
		rec.Status = models.StatusResubmissionRequired
		rec.FailureReason = reason
		rec.Results = []models.AnalyzerResult{docResult}
		return rec, nil
	}

	// Step 2: address and photo analysis, concurrent and independent. Their
	// failures degrade to absent components; they never short-circuit.
	results := s.analyzeRemaining(ctx, req, docResult)
	if err := s.records.AttachResults(ctx, rec.ID, results); err != nil {
		s.logger.WarnContext(ctx, "attach analyzer results failed",
			"verification_id", rec.ID, "error", err)
	}

	// Step 3: the pure pipeline. All analyzer calls have joined by now.
	dec, evalErr := decision.Evaluate(decision.Input{
		Results:    results,
		Scores:     scoring.Normalize(results),
		Weights:    scoring.WeightsFor(req.DocumentType, req.Purpose, req.RiskTolerance),
		Thresholds: scoring.ThresholdsFor(req.RiskTolerance),
		Now:        requestcontext.Now(ctx),
	})
	if evalErr != nil {
		// Programmer error, not user error: surface to operators, let the
		// user see manual review.
		s.logger.ErrorContext(ctx, "scoring inconsistency",
			"verification_id", rec.ID, "error", evalErr)
		s.emitAudit(ctx, audit.Event{
			VerificationID: rec.ID,
			SubjectIDHash:  audit.HashSubject(rec.SubjectID),
			Action:         audit.ActionScoringInconsistency,
			StatusBefore:   string(models.StatusPending),
			Reason:         evalErr.Error(),
		})
	}

	status := dec.Outcome.RecordStatus()
	if err := s.finalize(ctx, rec.ID, status, &dec, ""); err != nil {
		return nil, err
	}
	finalized = true

	s.metrics.IncrementOutcome(string(dec.Outcome), string(req.Purpose))
	s.emitAudit(ctx, audit.Event{
		VerificationID: rec.ID,
		SubjectIDHash:  audit.HashSubject(rec.SubjectID),
		Action:         audit.ActionDecisionMade,
		StatusBefore:   string(models.StatusPending),
		StatusAfter:    string(status),
		Outcome:        string(dec.Outcome),
		Reason:         firstOrEmpty(dec.RiskFactors),
	})
	s.notifyOutcome(ctx, rec, dec.Outcome)

	s.logger.InfoContext(ctx, "verification decided",
		"verification_id", rec.ID,
		"outcome", dec.Outcome,
		"overall_score", dec.OverallScore,
		"confidence", dec.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	rec.Results = results
	rec.Decision = &dec
	rec.Status = status
	return rec, nil
}

// ReviewRequest is a human reviewer's override of a manual-review record.
type ReviewRequest struct {
	VerificationID id.VerificationID
	ReviewerID     id.ReviewerID
	Approve        bool
	Notes          string
}

// Review applies a manual override. Only records awaiting manual review can
// be transitioned; anything else is rejected synchronously with no state
// change.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*models.VerificationRecord, error) {
	if req.ReviewerID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reviewer id is required")
	}
	to := models.StatusRejected
	if req.Approve {
		to = models.StatusApproved
	}

	rec, err := s.records.ApplyReview(ctx, req.VerificationID, to)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "only records awaiting manual review can be overridden")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not apply review")
	}

	s.emitAudit(ctx, audit.Event{
		VerificationID: rec.ID,
		SubjectIDHash:  audit.HashSubject(rec.SubjectID),
		Action:         audit.ActionManualOverride,
		StatusBefore:   string(models.StatusManualReview),
		StatusAfter:    string(to),
		ReviewerID:     req.ReviewerID.String(),
		Notes:          req.Notes,
	})

	outcome := models.OutcomeRejectedAuto
	if req.Approve {
		outcome = models.OutcomeApprovedAuto
	}
	s.notifyOutcome(ctx, rec, outcome)

	return rec, nil
}

// Get returns one verification record.
func (s *Service) Get(ctx context.Context, vid id.VerificationID) (*models.VerificationRecord, error) {
	rec, err := s.records.FindByID(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load verification")
	}
	return rec, nil
}

// ListQueue returns records in a status, oldest first. Feeds the manual
// review queue.
func (s *Service) ListQueue(ctx context.Context, status models.RecordStatus, limit int) ([]*models.VerificationRecord, error) {
	recs, err := s.records.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list verifications")
	}
	return recs, nil
}

// finalize retries the idempotent terminal write. The decision is never
// recomputed; only the write is retried.
func (s *Service) finalize(ctx context.Context, vid id.VerificationID, status models.RecordStatus, dec *models.VerificationDecision, reason string) error {
	var err error
	for attempt := 0; attempt < persistAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "decision persist cancelled")
			case <-time.After(persistBackoff):
			}
		}
		if err = s.records.Finalize(ctx, vid, status, dec, reason); err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
			break // not transient, retrying cannot help
		}
		s.logger.WarnContext(ctx, "decision persist failed, retrying",
			"verification_id", vid, "attempt", attempt+1, "error", err)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "could not persist decision")
}

func (s *Service) notifyOutcome(ctx context.Context, rec *models.VerificationRecord, outcome models.Outcome) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.Notification{
		SubjectID:       rec.SubjectID,
		VerificationID:  rec.ID,
		Outcome:         outcome,
		Purpose:         rec.Request.Purpose,
		SubjectVerified: outcome == models.OutcomeApprovedAuto,
	})
	if err != nil {
		// Fire-and-forget: a notifier failure never rolls back the decision.
		s.logger.WarnContext(ctx, "outcome notification failed",
			"verification_id", rec.ID, "error", err)
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"verification_id", event.VerificationID,
			"action", event.Action,
			"error", err,
		)
	}
}

func firstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
