package handler

import (
	"time"

	"vouch/internal/verification/models"
)

// RecordResponse is the HTTP shape of a verification record. Raw images are
// never echoed back.
type RecordResponse struct {
	ID            string             `json:"id"`
	SubjectID     string             `json:"subject_id"`
	DocumentType  string             `json:"document_type"`
	Purpose       string             `json:"purpose"`
	RiskTolerance string             `json:"risk_tolerance"`
	Status        string             `json:"status"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Analyzers     []AnalyzerResponse `json:"analyzers,omitempty"`
	Decision      *DecisionResponse  `json:"decision,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// AnalyzerResponse summarizes one analyzer's outcome without exposing the
// full provider payload.
type AnalyzerResponse struct {
	Kind      string `json:"kind"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// DecisionResponse is the decision portion of the response.
type DecisionResponse struct {
	Outcome         string                       `json:"outcome"`
	OverallScore    float64                      `json:"overall_score"`
	Confidence      float64                      `json:"confidence"`
	Breakdown       map[string]ComponentResponse `json:"breakdown"`
	Recommendations []string                     `json:"recommendations,omitempty"`
	RiskFactors     []string                     `json:"risk_factors,omitempty"`
	NextSteps       []string                     `json:"next_steps"`
	DecidedAt       time.Time                    `json:"decided_at"`
}

// ComponentResponse is one component's term in the composite score.
type ComponentResponse struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Available    bool    `json:"available"`
}

// FromRecord converts a domain record to its HTTP response.
func FromRecord(rec *models.VerificationRecord) *RecordResponse {
	resp := &RecordResponse{
		ID:            rec.ID.String(),
		SubjectID:     rec.SubjectID.String(),
		DocumentType:  string(rec.Request.DocumentType),
		Purpose:       string(rec.Request.Purpose),
		RiskTolerance: string(rec.Request.RiskTolerance),
		Status:        string(rec.Status),
		FailureReason: rec.FailureReason,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	for _, r := range rec.Results {
		resp.Analyzers = append(resp.Analyzers, AnalyzerResponse{
			Kind:      string(r.Kind),
			Succeeded: r.Succeeded,
			Error:     r.Error,
		})
	}
	if rec.Decision != nil {
		resp.Decision = fromDecision(rec.Decision)
	}
	return resp
}

func fromDecision(dec *models.VerificationDecision) *DecisionResponse {
	breakdown := make(map[string]ComponentResponse, len(models.Components))
	for _, c := range models.Components {
		b := dec.Breakdown.ByComponent(c)
		breakdown[string(c)] = ComponentResponse{
			Score:        b.Score,
			Weight:       b.Weight,
			Contribution: b.Contribution,
			Available:    b.Available,
		}
	}
	return &DecisionResponse{
		Outcome:         string(dec.Outcome),
		OverallScore:    dec.OverallScore,
		Confidence:      dec.Confidence,
		Breakdown:       breakdown,
		Recommendations: dec.Recommendations,
		RiskFactors:     dec.RiskFactors,
		NextSteps:       dec.NextSteps,
		DecidedAt:       dec.DecidedAt,
	}
}

// ListResponse wraps the review queue listing.
type ListResponse struct {
	Records []*RecordResponse `json:"records"`
}
