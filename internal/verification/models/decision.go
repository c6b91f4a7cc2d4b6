package models

import "time"

// Outcome is the terminal decision for a verification attempt. Exactly one
// outcome holds; reject gates are checked before the approval floor so the
// three conditions are mutually exclusive by construction.
type Outcome string

const (
	OutcomeApprovedAuto         Outcome = "approved_auto"
	OutcomeRejectedAuto         Outcome = "rejected_auto"
	OutcomeManualReviewRequired Outcome = "manual_review_required"
)

// RecordStatus maps a decision outcome onto the persisted record status.
func (o Outcome) RecordStatus() RecordStatus {
	switch o {
	case OutcomeApprovedAuto:
		return StatusApproved
	case OutcomeRejectedAuto:
		return StatusRejected
	default:
		return StatusManualReview
	}
}

// Component identifies one of the three scored aspects of an identity claim.
type Component string

const (
	ComponentDocument Component = "document"
	ComponentAddress  Component = "address"
	ComponentPhoto    Component = "photo"
)

// Components lists the scored components in their canonical order.
var Components = []Component{ComponentDocument, ComponentAddress, ComponentPhoto}

// ComponentBreakdown is one component's term in the composite score.
type ComponentBreakdown struct {
	Score        float64
	Weight       float64
	Contribution float64 // Score × Weight
	// Available is false when no analyzer produced output for the component.
	// The weight is still applied against a zero score in that case.
	Available bool
}

// ScoringBreakdown retains each component's contribution for audit. Derived,
// never persisted independently of its parent decision.
type ScoringBreakdown struct {
	Document ComponentBreakdown
	Address  ComponentBreakdown
	Photo    ComponentBreakdown
}

// ByComponent returns the breakdown entry for the given component.
func (b ScoringBreakdown) ByComponent(c Component) ComponentBreakdown {
	switch c {
	case ComponentDocument:
		return b.Document
	case ComponentAddress:
		return b.Address
	default:
		return b.Photo
	}
}

// WeightSum returns the sum of the three applied weights. Must equal 1.0
// within floating tolerance.
func (b ScoringBreakdown) WeightSum() float64 {
	return b.Document.Weight + b.Address.Weight + b.Photo.Weight
}

// ContributionSum returns the sum of the three contributions; the overall
// score is defined as exactly this value.
func (b ScoringBreakdown) ContributionSum() float64 {
	return b.Document.Contribution + b.Address.Contribution + b.Photo.Contribution
}

// VerificationDecision is the terminal artifact of the scoring pipeline.
type VerificationDecision struct {
	Outcome         Outcome
	OverallScore    float64
	Breakdown       ScoringBreakdown
	Confidence      float64 // how trustworthy the composite score itself is
	Recommendations []string
	RiskFactors     []string
	NextSteps       []string
	DecidedAt       time.Time
}
