package decision

import (
	"vouch/internal/verification/models"
	"vouch/internal/verification/scoring"
)

// Advice tables. Ordered string lists for human consumption only; nothing in
// the control flow reads them back.

var manualReviewNextSteps = []string{
	"verification queued for manual review",
	"a reviewer decision is typically issued within one business day",
}

var rejectedNextSteps = []string{
	"submit a new verification with corrected documents",
}

var approvedNextSteps = []string{
	"identity verified; no further action required",
}

// componentAdvice maps a low-scoring component to its recommendation.
var componentAdvice = map[models.Component]struct {
	risk           string
	recommendation string
}{
	models.ComponentDocument: {
		risk:           "document score below review band",
		recommendation: "resubmit a clearer, well-lit image of the document",
	},
	models.ComponentAddress: {
		risk:           "address score below review band",
		recommendation: "confirm the residential address matches the document",
	},
	models.ComponentPhoto: {
		risk:           "photo score below review band",
		recommendation: "retake the selfie facing the camera in good lighting",
	},
}

// buildAdvice generates the ordered recommendation, risk factor, and next
// step lists from a fixed rule table keyed off low component scores, fired
// gates, and the outcome.
func buildAdvice(outcome models.Outcome, gates GateReport, scores scoring.ComponentScores, t scoring.Thresholds) (recommendations, riskFactors, nextSteps []string) {
	recommendations = []string{}
	riskFactors = []string{}

	// Every fired gate is a risk factor, reject reasons first.
	riskFactors = append(riskFactors, gates.RejectReasons...)
	for _, block := range gates.ApprovalBlocks {
		if !contains(riskFactors, block) {
			riskFactors = append(riskFactors, block)
		}
	}

	// Low component scores, in canonical component order.
	for _, c := range models.Components {
		score := scoreFor(scores, c)
		if score == nil || *score >= t.ReviewBandFloor {
			continue
		}
		advice := componentAdvice[c]
		riskFactors = append(riskFactors, advice.risk)
		recommendations = append(recommendations, advice.recommendation)
	}

	if gates.Rejected() {
		recommendations = append(recommendations, "address the rejection reasons before resubmitting")
	}

	switch outcome {
	case models.OutcomeApprovedAuto:
		nextSteps = approvedNextSteps
	case models.OutcomeRejectedAuto:
		nextSteps = rejectedNextSteps
	default:
		nextSteps = manualReviewNextSteps
	}
	return recommendations, riskFactors, nextSteps
}

func scoreFor(s scoring.ComponentScores, c models.Component) *float64 {
	switch c {
	case models.ComponentDocument:
		return s.Document
	case models.ComponentAddress:
		return s.Address
	default:
		return s.Photo
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
