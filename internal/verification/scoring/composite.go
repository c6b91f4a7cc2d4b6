package scoring

import "vouch/internal/verification/models"

// Compose computes the weighted overall score and the per-component
// breakdown retained for audit. The overall score is defined as the literal
// sum of the three contributions.
//
// A component with no analyzer output contributes 0 but keeps its weight:
// the weight policy already accounts for optional components per purpose, and
// the decision thresholds were tuned against this behavior. Do not
// redistribute weight here.
func Compose(scores ComponentScores, weights Weights) (float64, models.ScoringBreakdown) {
	breakdown := models.ScoringBreakdown{
		Document: term(scores.Document, weights.Document),
		Address:  term(scores.Address, weights.Address),
		Photo:    term(scores.Photo, weights.Photo),
	}
	return breakdown.ContributionSum(), breakdown
}

func term(score *float64, weight float64) models.ComponentBreakdown {
	t := models.ComponentBreakdown{Weight: weight}
	if score != nil {
		t.Score = *score
		t.Available = true
	}
	t.Contribution = t.Score * weight
	return t
}
