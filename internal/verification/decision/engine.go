package decision

import (
	"errors"
	"fmt"
	"math"
	"time"

	"vouch/internal/verification/models"
	"vouch/internal/verification/scoring"
)

// weightTolerance is the floating tolerance for the weights-sum invariant.
const weightTolerance = 1e-6

// ErrInconsistent marks a scoring invariant violation. This is a programmer
// error: the caller must log it loudly and force the request to manual review
// rather than silently picking an outcome. It never reaches the end user.
var ErrInconsistent = errors.New("scoring inconsistency")

// Input is everything the engine needs to decide. All fields are derived
// before the call; the engine itself does no I/O.
type Input struct {
	Results    []models.AnalyzerResult
	Scores     scoring.ComponentScores
	Weights    scoring.Weights
	Thresholds scoring.Thresholds
	Now        time.Time
}

// Evaluate combines composite score, thresholds, and gates into exactly one
// outcome. Reject gates are checked before the approval floor, so the three
// outcome conditions are mutually exclusive by construction.
//
// On an invariant violation the returned decision is forced to
// ManualReviewRequired and the error wraps ErrInconsistent.
func Evaluate(in Input) (models.VerificationDecision, error) {
	overall, breakdown := scoring.Compose(in.Scores, in.Weights)
	confidence := scoring.EstimateConfidence(scoring.ConfidenceInputsFrom(in.Results, in.Scores))
	gates := EvaluateGates(GateInputFrom(in.Results, overall, in.Thresholds))

	outcome := decide(overall, in.Thresholds, gates)

	d := models.VerificationDecision{
		Outcome:      outcome,
		OverallScore: overall,
		Breakdown:    breakdown,
		Confidence:   confidence,
		DecidedAt:    in.Now,
	}
	d.Recommendations, d.RiskFactors, d.NextSteps = buildAdvice(outcome, gates, in.Scores, in.Thresholds)

	if err := checkInvariants(d); err != nil {
		d.Outcome = models.OutcomeManualReviewRequired
		d.NextSteps = manualReviewNextSteps
		return d, err
	}
	return d, nil
}

func decide(overall float64, t scoring.Thresholds, gates GateReport) models.Outcome {
	if gates.Rejected() {
		return models.OutcomeRejectedAuto
	}
	if overall >= t.ApprovalFloor && !gates.ApprovalBlocked() {
		return models.OutcomeApprovedAuto
	}
	return models.OutcomeManualReviewRequired
}

// checkInvariants guards the arithmetic the rest of the system trusts: the
// applied weights sum to 1.0 and the overall score is the literal sum of the
// contributions, both within floating tolerance.
func checkInvariants(d models.VerificationDecision) error {
	if diff := math.Abs(d.Breakdown.WeightSum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.9f", ErrInconsistent, d.Breakdown.WeightSum())
	}
	if diff := math.Abs(d.OverallScore - d.Breakdown.ContributionSum()); diff > weightTolerance {
		return fmt.Errorf("%w: overall score %.9f does not match contribution sum %.9f",
			ErrInconsistent, d.OverallScore, d.Breakdown.ContributionSum())
	}
	if d.OverallScore < 0 || d.OverallScore > 1+weightTolerance {
		return fmt.Errorf("%w: overall score %.9f outside [0,1]", ErrInconsistent, d.OverallScore)
	}
	return nil
}
