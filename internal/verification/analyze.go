package verification

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vouch/internal/verification/models"
	"vouch/internal/verification/providers"
)

// analyzeDocument runs document analysis, driving the poll loop when the
// provider answers with an async job. It never returns an error: provider
// failures, poll exhaustion, and cancellation all become a failed
// AnalyzerResult the caller short-circuits on. The second return value is the
// number of polls issued.
func (s *Service) analyzeDocument(ctx context.Context, req models.VerificationRequest) (models.AnalyzerResult, int) {
	ctx, span := s.tracer.Start(ctx, "verification.analyze_document")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveAnalyzerLatency(string(models.AnalyzerDocument), time.Since(start))
	}()

	analysis, jobID, err := s.callDocumentAnalyze(ctx, req)
	if err != nil {
		return failedResult(models.AnalyzerDocument, err), 0
	}
	if analysis != nil {
		return models.AnalyzerResult{Kind: models.AnalyzerDocument, Succeeded: true, Document: analysis}, 0
	}

	for attempt := 1; attempt <= s.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return failedResult(models.AnalyzerDocument, ctx.Err()), attempt - 1
		case <-time.After(s.cfg.PollInterval):
		}

		status, err := s.callDocumentPoll(ctx, jobID)
		if err != nil {
			return failedResult(models.AnalyzerDocument, err), attempt
		}
		switch status.State {
		case providers.JobSucceeded:
			return models.AnalyzerResult{Kind: models.AnalyzerDocument, Succeeded: true, Document: status.Result}, attempt
		case providers.JobFailed:
			return models.AnalyzerResult{Kind: models.AnalyzerDocument, Error: status.Error}, attempt
		case providers.JobProcessing:
			// keep polling
		default:
			return failedResult(models.AnalyzerDocument,
				fmt.Errorf("unrecognized job state %q", status.State)), attempt
		}
	}

	return models.AnalyzerResult{
		Kind:  models.AnalyzerDocument,
		Error: fmt.Sprintf("document analysis did not complete within %d polls", s.cfg.MaxPollAttempts),
	}, s.cfg.MaxPollAttempts
}

func (s *Service) callDocumentAnalyze(ctx context.Context, req models.VerificationRequest) (*models.DocumentAnalysis, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	return s.documents.Analyze(callCtx, req.DocumentType, req.DocumentImage)
}

func (s *Service) callDocumentPoll(ctx context.Context, jobID string) (*providers.JobStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	return s.documents.Poll(callCtx, jobID)
}

// analyzeRemaining fans out the address and photo analyzers concurrently.
// Either may be skipped when its inputs are absent, and either may fail
// independently; the scorer treats both cases as an unavailable component.
// The returned slice always starts with the document result.
func (s *Service) analyzeRemaining(ctx context.Context, req models.VerificationRequest, docResult models.AnalyzerResult) []models.AnalyzerResult {
	ctx, span := s.tracer.Start(ctx, "verification.analyze_remaining")
	defer span.End()

	extractedAddress := ""
	if docResult.Document != nil {
		extractedAddress = docResult.Document.ExtractedAddress()
	}
	runAddress := req.UserAddress != "" || extractedAddress != ""
	runPhoto := len(req.SelfieImage) > 0

	var (
		addressResult *models.AnalyzerResult
		photoResult   *models.AnalyzerResult
	)

	g, gctx := errgroup.WithContext(ctx)
	if runAddress {
		g.Go(func() error {
			r := s.analyzeAddress(gctx, req.UserAddress, extractedAddress)
			addressResult = &r
			return nil
		})
	}
	if runPhoto {
		g.Go(func() error {
			r := s.analyzePhoto(gctx, req)
			photoResult = &r
			return nil
		})
	}
	_ = g.Wait() // goroutines report failures through their results

	results := make([]models.AnalyzerResult, 0, 3)
	results = append(results, docResult)
	if addressResult != nil {
		results = append(results, *addressResult)
	}
	if photoResult != nil {
		results = append(results, *photoResult)
	}
	return results
}

func (s *Service) analyzeAddress(ctx context.Context, userAddress, extractedAddress string) models.AnalyzerResult {
	start := time.Now()
	defer func() {
		s.metrics.ObserveAnalyzerLatency(string(models.AnalyzerAddress), time.Since(start))
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	validation, err := s.addresses.Compare(callCtx, userAddress, extractedAddress)
	if err != nil {
		s.logger.WarnContext(ctx, "address validation failed", "error", err)
		return failedResult(models.AnalyzerAddress, err)
	}
	return models.AnalyzerResult{Kind: models.AnalyzerAddress, Succeeded: true, Address: validation}
}

func (s *Service) analyzePhoto(ctx context.Context, req models.VerificationRequest) models.AnalyzerResult {
	start := time.Now()
	defer func() {
		s.metrics.ObserveAnalyzerLatency(string(models.AnalyzerPhoto), time.Since(start))
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	strict := req.RiskTolerance == models.RiskLow
	comparison, err := s.faces.Compare(callCtx, req.DocumentImage, req.SelfieImage, strict)
	if err != nil {
		s.logger.WarnContext(ctx, "face comparison failed", "error", err)
		return failedResult(models.AnalyzerPhoto, err)
	}
	return models.AnalyzerResult{Kind: models.AnalyzerPhoto, Succeeded: true, Photo: comparison}
}

func failedResult(kind models.AnalyzerKind, err error) models.AnalyzerResult {
	return models.AnalyzerResult{Kind: kind, Error: err.Error()}
}
