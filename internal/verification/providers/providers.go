// Package providers defines the ports to the three external analyzers. These
// are domain models and contracts only; concrete transports (HTTP, gRPC, SDK
// clients) live behind them without the orchestrator knowing.
package providers

import (
	"context"

	"vouch/internal/verification/models"
)

//go:generate mockgen -source=providers.go -destination=mocks/mocks.go -package=mocks DocumentAnalyzer,AddressValidator,FaceComparer

// JobState is the lifecycle of an asynchronous document analysis job.
type JobState string

const (
	JobProcessing JobState = "processing"
	JobSucceeded  JobState = "succeeded"
	JobFailed     JobState = "failed"
)

// JobStatus is one poll observation of an asynchronous job.
type JobStatus struct {
	State  JobState
	Result *models.DocumentAnalysis // set when State == JobSucceeded
	Error  string                   // provider message when State == JobFailed
}

// DocumentAnalyzer extracts fields and fraud signals from a document image.
// Analyze returns either an immediate result or a job ID to poll; exactly one
// of the two is set on success.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, docType models.DocumentType, image []byte) (*models.DocumentAnalysis, string, error)
	Poll(ctx context.Context, jobID string) (*JobStatus, error)
}

// AddressValidator compares the user-entered address against the
// document-extracted one. Either argument may be empty; the provider reports
// which sides it could judge via the nilable validity flags.
type AddressValidator interface {
	Compare(ctx context.Context, userAddress, extractedAddress string) (*models.AddressValidation, error)
}

// FaceComparer compares the document portrait against the selfie. strict
// requests the provider's stricter comparison profile (used under low risk
// tolerance); the returned payload records whether strict mode was applied.
type FaceComparer interface {
	Compare(ctx context.Context, sourceImage, targetImage []byte, strict bool) (*models.FaceComparison, error)
}
