// Package decision turns a composite score, thresholds, and hard gates into
// exactly one terminal outcome, plus the human-readable advice lists. Pure
// domain logic in the style of a fail-fast rule chain: reject gates first,
// then approval-block gates, then the numeric floor.
package decision

import (
	"vouch/internal/verification/models"
	"vouch/internal/verification/scoring"
)

// Gate cut points on the providers' native scales.
const (
	rejectFraudIndicatorCount = 3
	rejectPhotoSimilarity     = 40.0 // 0-100 provider scale
	rejectDocumentConfidence  = 0.3

	blockDocumentConfidence    = 0.7
	blockPhotoSimilarity       = 75.0
	blockPhotoSimilarityStrict = 85.0 // carried from a strict-mode comparison
)

// GateInput is everything the hard rules inspect. Pointer fields are nil when
// the corresponding analysis never ran; gates that need them do not fire.
type GateInput struct {
	OverallScore         float64
	RejectionCeiling     float64
	FraudIndicatorCount  int
	ContentInappropriate bool
	MultipleFaces        bool
	DocumentConfidence   *float64
	PhotoSimilarity      *float64
	// StrictPhoto raises the similarity block threshold; set when the
	// upstream comparison ran in strict mode.
	StrictPhoto bool
}

// GateInputFrom assembles gate inputs from raw analyzer results. The first
// successful result per kind wins, matching scoring.Normalize, so gates and
// component scores always judge the same payloads.
func GateInputFrom(results []models.AnalyzerResult, overall float64, thresholds scoring.Thresholds) GateInput {
	in := GateInput{
		OverallScore:     overall,
		RejectionCeiling: thresholds.RejectionCeiling,
	}
	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		if r.Document != nil && in.DocumentConfidence == nil {
			c := r.Document.Confidence
			in.DocumentConfidence = &c
			in.FraudIndicatorCount = len(r.Document.FraudIndicators)
		}
		if r.Photo != nil && in.PhotoSimilarity == nil {
			s := r.Photo.Similarity
			in.PhotoSimilarity = &s
			in.ContentInappropriate = !r.Photo.ContentAppropriate
			in.MultipleFaces = r.Photo.SourceFaceCount > 1 || r.Photo.TargetFaceCount > 1
			in.StrictPhoto = r.Photo.Strict
		}
	}
	return in
}

// GateReport is the outcome of evaluating all hard rules. Reasons are ordered
// and stable so audit entries stay comparable across runs.
type GateReport struct {
	RejectReasons  []string
	ApprovalBlocks []string
}

// Rejected reports whether any hard-reject gate fired.
func (g GateReport) Rejected() bool { return len(g.RejectReasons) > 0 }

// ApprovalBlocked reports whether approval is ineligible regardless of score.
func (g GateReport) ApprovalBlocked() bool { return len(g.ApprovalBlocks) > 0 }

// EvaluateGates applies the hard rules. Reject gates force RejectedAuto no
// matter the score; approval-block gates demote a passing score to manual
// review.
func EvaluateGates(in GateInput) GateReport {
	var g GateReport

	// Hard-reject gates, in a fixed order.
	if in.OverallScore <= in.RejectionCeiling {
		g.RejectReasons = append(g.RejectReasons, "overall score at or below rejection ceiling")
	}
	if in.FraudIndicatorCount >= rejectFraudIndicatorCount {
		g.RejectReasons = append(g.RejectReasons, "multiple fraud indicators detected")
	}
	if in.ContentInappropriate {
		g.RejectReasons = append(g.RejectReasons, "inappropriate content flagged")
	}
	if in.PhotoSimilarity != nil && *in.PhotoSimilarity < rejectPhotoSimilarity {
		g.RejectReasons = append(g.RejectReasons, "facial similarity far below acceptable range")
	}
	if in.DocumentConfidence != nil && *in.DocumentConfidence < rejectDocumentConfidence {
		g.RejectReasons = append(g.RejectReasons, "document analysis confidence critically low")
	}

	// Hard-block-approval gates.
	if in.FraudIndicatorCount >= 1 {
		g.ApprovalBlocks = append(g.ApprovalBlocks, "fraud indicators present")
	}
	if in.ContentInappropriate {
		g.ApprovalBlocks = append(g.ApprovalBlocks, "inappropriate content flagged")
	}
	if in.MultipleFaces {
		g.ApprovalBlocks = append(g.ApprovalBlocks, "multiple faces detected")
	}
	if in.DocumentConfidence != nil && *in.DocumentConfidence < blockDocumentConfidence {
		g.ApprovalBlocks = append(g.ApprovalBlocks, "document analysis confidence below approval bar")
	}
	if in.PhotoSimilarity != nil && *in.PhotoSimilarity < similarityBlockThreshold(in.StrictPhoto) {
		g.ApprovalBlocks = append(g.ApprovalBlocks, "facial similarity below approval bar")
	}

	return g
}

func similarityBlockThreshold(strict bool) float64 {
	if strict {
		return blockPhotoSimilarityStrict
	}
	return blockPhotoSimilarity
}
