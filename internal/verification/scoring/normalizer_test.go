package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/verification/models"
)

func TestWeightedMean(t *testing.T) {
	t.Run("no present signals", func(t *testing.T) {
		_, ok := WeightedMean([]Signal{{Weight: 0.5, Value: 0.9}})
		assert.False(t, ok)
	})

	t.Run("all signals present", func(t *testing.T) {
		mean, ok := WeightedMean([]Signal{
			{Weight: 0.6, Value: 1.0, Present: true},
			{Weight: 0.4, Value: 0.5, Present: true},
		})
		require.True(t, ok)
		assert.InDelta(t, 0.8, mean, 1e-9)
	})

	t.Run("absent signal weight is redistributed over the rest", func(t *testing.T) {
		mean, ok := WeightedMean([]Signal{
			{Weight: 0.5, Value: 0.8, Present: true},
			{Weight: 0.3, Value: 0.6, Present: true},
			{Weight: 0.2, Value: 0.0, Present: false},
		})
		require.True(t, ok)
		// (0.5*0.8 + 0.3*0.6) / 0.8, not /1.0
		assert.InDelta(t, 0.725, mean, 1e-9)
	})
}

func TestDocumentScore(t *testing.T) {
	base := models.DocumentAnalysis{Confidence: 0.9, Authenticity: 0.8, Quality: 0.7}

	t.Run("blends the three sub-scores", func(t *testing.T) {
		assert.InDelta(t, 0.815, DocumentScore(base), 1e-9)
	})

	t.Run("each fraud indicator costs 0.1", func(t *testing.T) {
		d := base
		d.FraudIndicators = []string{"font_mismatch", "hologram_missing"}
		assert.InDelta(t, 0.615, DocumentScore(d), 1e-9)
	})

	t.Run("fraud penalty caps at 0.3", func(t *testing.T) {
		d := base
		d.FraudIndicators = []string{"a", "b", "c", "d", "e"}
		assert.InDelta(t, 0.515, DocumentScore(d), 1e-9)
	})

	t.Run("score floors at zero", func(t *testing.T) {
		d := models.DocumentAnalysis{
			Confidence: 0.1, Authenticity: 0.1, Quality: 0.1,
			FraudIndicators: []string{"a", "b", "c"},
		}
		assert.Equal(t, 0.0, DocumentScore(d))
	})
}

func TestAddressScore(t *testing.T) {
	valid := true
	invalid := false

	t.Run("all sub-signals present", func(t *testing.T) {
		a := models.AddressValidation{
			MatchScore:            0.9,
			Confidence:            0.8,
			UserAddressValid:      &valid,
			ExtractedAddressValid: &valid,
		}
		assert.InDelta(t, 0.89, AddressScore(a), 1e-9)
	})

	t.Run("missing validity flags drop out of the mean", func(t *testing.T) {
		a := models.AddressValidation{MatchScore: 0.9, Confidence: 0.8}
		// (0.5*0.9 + 0.3*0.8) / 0.8
		assert.InDelta(t, 0.8625, AddressScore(a), 1e-9)
	})

	t.Run("invalid flag drags the score down", func(t *testing.T) {
		a := models.AddressValidation{
			MatchScore:            0.9,
			Confidence:            0.8,
			UserAddressValid:      &invalid,
			ExtractedAddressValid: &valid,
		}
		assert.InDelta(t, 0.79, AddressScore(a), 1e-9)
	})
}

func TestPhotoScore(t *testing.T) {
	base := models.FaceComparison{
		Similarity:         90,
		Confidence:         80,
		SourceFaceCount:    1,
		TargetFaceCount:    1,
		SourceQuality:      0.9,
		TargetQuality:      0.9,
		ContentAppropriate: true,
	}

	t.Run("blends similarity, confidence, quality, and face counts", func(t *testing.T) {
		assert.InDelta(t, 0.89, PhotoScore(base), 1e-9)
	})

	t.Run("multiple faces lose the single-face bonus", func(t *testing.T) {
		p := base
		p.TargetFaceCount = 2
		assert.InDelta(t, 0.84, PhotoScore(p), 1e-9)
	})

	t.Run("inappropriate content forces zero regardless of sub-signals", func(t *testing.T) {
		p := base
		p.ContentAppropriate = false
		assert.Equal(t, 0.0, PhotoScore(p))
	})
}

func TestNormalize(t *testing.T) {
	doc := &models.DocumentAnalysis{Confidence: 0.9, Authenticity: 0.9, Quality: 0.9}

	t.Run("failed analyzers leave the component absent", func(t *testing.T) {
		scores := Normalize([]models.AnalyzerResult{
			{Kind: models.AnalyzerDocument, Succeeded: true, Document: doc},
			{Kind: models.AnalyzerAddress, Succeeded: false, Error: "provider timeout"},
		})
		require.NotNil(t, scores.Document)
		assert.Nil(t, scores.Address)
		assert.Nil(t, scores.Photo)
		assert.Equal(t, 1, scores.AvailableCount())
	})

	t.Run("absent component is distinct from a zero score", func(t *testing.T) {
		inappropriate := &models.FaceComparison{Similarity: 99, ContentAppropriate: false}
		scores := Normalize([]models.AnalyzerResult{
			{Kind: models.AnalyzerPhoto, Succeeded: true, Photo: inappropriate},
		})
		require.NotNil(t, scores.Photo)
		assert.Equal(t, 0.0, *scores.Photo)
		assert.Nil(t, scores.Document)
	})

	t.Run("first successful result per kind wins", func(t *testing.T) {
		other := &models.DocumentAnalysis{Confidence: 0.1, Authenticity: 0.1, Quality: 0.1}
		scores := Normalize([]models.AnalyzerResult{
			{Kind: models.AnalyzerDocument, Succeeded: true, Document: doc},
			{Kind: models.AnalyzerDocument, Succeeded: true, Document: other},
		})
		require.NotNil(t, scores.Document)
		assert.InDelta(t, DocumentScore(*doc), *scores.Document, 1e-9)
	})

	t.Run("no results at all", func(t *testing.T) {
		scores := Normalize(nil)
		assert.Equal(t, 0, scores.AvailableCount())
	})
}
