package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vouch/internal/verification/models"
)

func TestEstimateConfidence(t *testing.T) {
	t.Run("base estimate with nothing available", func(t *testing.T) {
		assert.InDelta(t, 0.5, EstimateConfidence(ConfidenceInputs{}), 1e-9)
	})

	t.Run("availability bonus scales with component count", func(t *testing.T) {
		one := EstimateConfidence(ConfidenceInputs{ComponentsAvailable: 1})
		three := EstimateConfidence(ConfidenceInputs{ComponentsAvailable: 3})
		assert.InDelta(t, 0.6, one, 1e-9)
		assert.InDelta(t, 0.8, three, 1e-9)
	})

	t.Run("all bonuses together reach the ceiling", func(t *testing.T) {
		q := 0.95
		c := EstimateConfidence(ConfidenceInputs{
			ComponentsAvailable: 3,
			DocumentQuality:     &q,
			SourceQuality:       &q,
			TargetQuality:       &q,
		})
		// 0.5 + 0.3 + 0.1 + 0.05 + 0.05, clamped
		assert.InDelta(t, 1.0, c, 1e-9)
	})

	t.Run("quality at the floor earns no bonus", func(t *testing.T) {
		q := 0.8
		c := EstimateConfidence(ConfidenceInputs{ComponentsAvailable: 1, DocumentQuality: &q})
		assert.InDelta(t, 0.6, c, 1e-9)
	})

	t.Run("fraud indicators erode confidence", func(t *testing.T) {
		c := EstimateConfidence(ConfidenceInputs{ComponentsAvailable: 3, FraudIndicatorCount: 2})
		assert.InDelta(t, 0.7, c, 1e-9)
	})

	t.Run("clamped to zero under an absurd fraud count", func(t *testing.T) {
		c := EstimateConfidence(ConfidenceInputs{ComponentsAvailable: 3, FraudIndicatorCount: 100})
		assert.Equal(t, 0.0, c)
	})
}

func TestConfidenceInputsFrom(t *testing.T) {
	results := []models.AnalyzerResult{
		{Kind: models.AnalyzerDocument, Succeeded: true, Document: &models.DocumentAnalysis{
			Quality:         0.9,
			FraudIndicators: []string{"font_mismatch"},
		}},
		{Kind: models.AnalyzerPhoto, Succeeded: true, Photo: &models.FaceComparison{
			SourceQuality: 0.85,
			TargetQuality: 0.7,
		}},
		{Kind: models.AnalyzerAddress, Succeeded: false, Error: "timeout"},
	}
	scores := Normalize(results)

	in := ConfidenceInputsFrom(results, scores)

	assert.Equal(t, 2, in.ComponentsAvailable)
	assert.Equal(t, 1, in.FraudIndicatorCount)
	if assert.NotNil(t, in.DocumentQuality) {
		assert.Equal(t, 0.9, *in.DocumentQuality)
	}
	if assert.NotNil(t, in.SourceQuality) {
		assert.Equal(t, 0.85, *in.SourceQuality)
	}
	if assert.NotNil(t, in.TargetQuality) {
		assert.Equal(t, 0.7, *in.TargetQuality)
	}
}
