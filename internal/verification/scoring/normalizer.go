// Package scoring holds the pure score pipeline: normalization of raw
// analyzer output, the weight and threshold policies, the composite scorer,
// and the confidence estimator. No I/O, no side effects.
package scoring

import (
	"math"

	"vouch/internal/verification/models"
)

// Sub-weights for the document component score.
const (
	documentConfidenceWeight   = 0.4
	documentAuthenticityWeight = 0.35
	documentQualityWeight      = 0.25

	fraudPenaltyPerIndicator = 0.1
	fraudPenaltyCap          = 0.3
)

// Sub-weights for the address component score.
const (
	addressMatchWeight          = 0.5
	addressConfidenceWeight     = 0.3
	addressUserValidWeight      = 0.1
	addressExtractedValidWeight = 0.1
)

// Sub-weights for the photo component score.
const (
	photoSimilarityWeight    = 0.4
	photoConfidenceWeight    = 0.2
	photoSourceQualityWeight = 0.15
	photoTargetQualityWeight = 0.15
	photoSourceSingleWeight  = 0.05
	photoTargetSingleWeight  = 0.05
)

// ComponentScores are the normalized [0,1] component scores. A nil entry
// means no analyzer produced output for that component, which is distinct
// from a zero score.
type ComponentScores struct {
	Document *float64
	Address  *float64
	Photo    *float64
}

// AvailableCount reports how many components had analyzer output.
func (s ComponentScores) AvailableCount() int {
	n := 0
	for _, p := range []*float64{s.Document, s.Address, s.Photo} {
		if p != nil {
			n++
		}
	}
	return n
}

// Signal is one weighted sub-signal feeding a component score. Absent signals
// are excluded from the mean rather than counted as zero.
type Signal struct {
	Weight  float64
	Value   float64
	Present bool
}

// WeightedMean re-normalizes over the present signals: sum(w×v)/sum(w) for
// signals with Present set. The second return is false when no signal was
// present at all.
func WeightedMean(signals []Signal) (float64, bool) {
	var sum, weightSum float64
	for _, s := range signals {
		if !s.Present {
			continue
		}
		sum += s.Weight * s.Value
		weightSum += s.Weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}

// Normalize converts raw analyzer results into component scores. The first
// successful result per kind wins; failed results leave the component absent.
func Normalize(results []models.AnalyzerResult) ComponentScores {
	var scores ComponentScores
	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		switch {
		case r.Document != nil && scores.Document == nil:
			scores.Document = ptr(DocumentScore(*r.Document))
		case r.Address != nil && scores.Address == nil:
			scores.Address = ptr(AddressScore(*r.Address))
		case r.Photo != nil && scores.Photo == nil:
			scores.Photo = ptr(PhotoScore(*r.Photo))
		}
	}
	return scores
}

// DocumentScore blends provider confidence, authenticity, and quality, then
// subtracts a capped fraud-indicator penalty. Floored at 0.
func DocumentScore(d models.DocumentAnalysis) float64 {
	mean, _ := WeightedMean([]Signal{
		{Weight: documentConfidenceWeight, Value: d.Confidence, Present: true},
		{Weight: documentAuthenticityWeight, Value: d.Authenticity, Present: true},
		{Weight: documentQualityWeight, Value: d.Quality, Present: true},
	})
	penalty := math.Min(fraudPenaltyPerIndicator*float64(len(d.FraudIndicators)), fraudPenaltyCap)
	return math.Max(mean-penalty, 0)
}

// AddressScore blends match score, provider confidence, and the two validity
// flags. Flags the provider could not judge are excluded from the mean.
func AddressScore(a models.AddressValidation) float64 {
	signals := []Signal{
		{Weight: addressMatchWeight, Value: a.MatchScore, Present: true},
		{Weight: addressConfidenceWeight, Value: a.Confidence, Present: true},
	}
	if a.UserAddressValid != nil {
		signals = append(signals, Signal{Weight: addressUserValidWeight, Value: boolScore(*a.UserAddressValid), Present: true})
	}
	if a.ExtractedAddressValid != nil {
		signals = append(signals, Signal{Weight: addressExtractedValidWeight, Value: boolScore(*a.ExtractedAddressValid), Present: true})
	}
	mean, _ := WeightedMean(signals)
	return mean
}

// PhotoScore blends similarity, comparison confidence, image qualities, and
// single-face checks. Inappropriate content forces the score to 0 regardless
// of the other sub-signals.
func PhotoScore(p models.FaceComparison) float64 {
	if !p.ContentAppropriate {
		return 0
	}
	mean, _ := WeightedMean([]Signal{
		{Weight: photoSimilarityWeight, Value: p.Similarity / 100, Present: true},
		{Weight: photoConfidenceWeight, Value: p.Confidence / 100, Present: true},
		{Weight: photoSourceQualityWeight, Value: p.SourceQuality, Present: true},
		{Weight: photoTargetQualityWeight, Value: p.TargetQuality, Present: true},
		{Weight: photoSourceSingleWeight, Value: boolScore(p.SourceFaceCount == 1), Present: true},
		{Weight: photoTargetSingleWeight, Value: boolScore(p.TargetFaceCount == 1), Present: true},
	})
	return mean
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ptr(v float64) *float64 { return &v }
