package scoring

import "vouch/internal/verification/models"

// Confidence estimation constants. The estimate starts at a neutral base and
// earns bonuses for component availability and high-quality sub-signals.
const (
	confidenceBase = 0.5

	availabilityBonusMax = 0.3

	documentQualityBonus = 0.1
	photoQualityBonus    = 0.05
	qualityFloor         = 0.8

	fraudConfidencePenalty = 0.05
)

// ConfidenceInputs carries the raw sub-signals the estimator inspects.
// Quality fields are nil when the corresponding analyzer never ran.
type ConfidenceInputs struct {
	ComponentsAvailable int
	DocumentQuality     *float64
	SourceQuality       *float64
	TargetQuality       *float64
	FraudIndicatorCount int
}

// ConfidenceInputsFrom derives estimator inputs from analyzer results and the
// normalized component scores.
func ConfidenceInputsFrom(results []models.AnalyzerResult, scores ComponentScores) ConfidenceInputs {
	in := ConfidenceInputs{ComponentsAvailable: scores.AvailableCount()}
	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		if r.Document != nil {
			q := r.Document.Quality
			in.DocumentQuality = &q
			in.FraudIndicatorCount = len(r.Document.FraudIndicators)
		}
		if r.Photo != nil {
			sq, tq := r.Photo.SourceQuality, r.Photo.TargetQuality
			in.SourceQuality = &sq
			in.TargetQuality = &tq
		}
	}
	return in
}

// EstimateConfidence scores how trustworthy the composite score itself is,
// clamped to [0,1] even under adversarial inputs.
func EstimateConfidence(in ConfidenceInputs) float64 {
	c := confidenceBase
	c += float64(in.ComponentsAvailable) / 3 * availabilityBonusMax

	if in.DocumentQuality != nil && *in.DocumentQuality > qualityFloor {
		c += documentQualityBonus
	}
	if in.SourceQuality != nil && *in.SourceQuality > qualityFloor {
		c += photoQualityBonus
	}
	if in.TargetQuality != nil && *in.TargetQuality > qualityFloor {
		c += photoQualityBonus
	}

	c -= fraudConfidencePenalty * float64(in.FraudIndicatorCount)

	return clamp01(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
