// Package stub provides deterministic in-process analyzers for local
// development when no provider URLs are configured. Scores are derived from
// the payload bytes so repeated requests are stable.
package stub

import (
	"context"
	"crypto/sha256"

	"vouch/internal/verification/models"
	"vouch/internal/verification/providers"
)

// Analyzers implements all three analyzer ports.
type Analyzers struct{}

func New() *Analyzers { return &Analyzers{} }

// score derives a stable value in [lo, hi] from the input bytes.
func score(b []byte, lo, hi float64) float64 {
	sum := sha256.Sum256(b)
	return lo + (hi-lo)*float64(sum[0])/255
}

func (a *Analyzers) Analyze(_ context.Context, _ models.DocumentType, image []byte) (*models.DocumentAnalysis, string, error) {
	return &models.DocumentAnalysis{
		Confidence:   score(image, 0.80, 0.99),
		Authenticity: score(image, 0.75, 0.98),
		Quality:      score(image, 0.70, 0.95),
		ExtractedFields: []models.ExtractedField{
			{Key: "name", Value: "Dev Subject", Confidence: 0.95},
			{Key: "address", Value: "1 Dev Street, Devtown", Confidence: 0.9},
		},
	}, "", nil
}

func (a *Analyzers) Poll(_ context.Context, _ string) (*providers.JobStatus, error) {
	// Analyze always answers inline, so no job should ever be polled.
	return &providers.JobStatus{State: providers.JobFailed, Error: "unknown job"}, nil
}

func (a *Analyzers) Compare(_ context.Context, userAddress, extractedAddress string) (*models.AddressValidation, error) {
	match := userAddress == "" || extractedAddress == "" || userAddress == extractedAddress
	valid := true
	validation := &models.AddressValidation{
		MatchScore: 0.9,
		Confidence: 0.9,
		IsMatch:    match,
	}
	if userAddress != "" {
		validation.UserAddressValid = &valid
	}
	if extractedAddress != "" {
		validation.ExtractedAddressValid = &valid
	}
	if !match {
		validation.MatchScore = 0.4
		validation.Differences = []string{"street"}
	}
	return validation, nil
}

// Faces implements the face comparer separately since its Compare signature
// collides with the address one.
type Faces struct{}

func NewFaces() *Faces { return &Faces{} }

func (f *Faces) Compare(_ context.Context, sourceImage, targetImage []byte, strict bool) (*models.FaceComparison, error) {
	sim := score(append(sourceImage, targetImage...), 80, 99)
	return &models.FaceComparison{
		Similarity:         sim,
		Confidence:         95,
		SourceFaceCount:    1,
		TargetFaceCount:    1,
		SourceQuality:      0.9,
		TargetQuality:      0.85,
		ContentAppropriate: true,
		Strict:             strict,
	}, nil
}
