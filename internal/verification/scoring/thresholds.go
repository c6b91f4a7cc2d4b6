package scoring

import "vouch/internal/verification/models"

// Thresholds are the decision cut points for a risk tolerance. ReviewBandFloor
// is informational; the binding decision logic uses only ApprovalFloor and
// RejectionCeiling.
type Thresholds struct {
	ApprovalFloor    float64
	RejectionCeiling float64
	ReviewBandFloor  float64
}

var thresholdsByRisk = map[models.RiskTolerance]Thresholds{
	models.RiskLow:    {ApprovalFloor: 0.92, RejectionCeiling: 0.30, ReviewBandFloor: 0.70},
	models.RiskMedium: {ApprovalFloor: 0.85, RejectionCeiling: 0.35, ReviewBandFloor: 0.65},
	models.RiskHigh:   {ApprovalFloor: 0.75, RejectionCeiling: 0.40, ReviewBandFloor: 0.60},
}

// ThresholdsFor returns the cut points for a risk tolerance. Unknown values
// fall back to medium.
func ThresholdsFor(risk models.RiskTolerance) Thresholds {
	if t, ok := thresholdsByRisk[risk]; ok {
		return t
	}
	return thresholdsByRisk[models.RiskMedium]
}
