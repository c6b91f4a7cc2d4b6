package scoring

import "vouch/internal/verification/models"

// Weights is the relative weight of the three component scores. Always sums
// to 1.0: every adjustment below moves mass between components, never adds it.
type Weights struct {
	Document float64
	Address  float64
	Photo    float64
}

// Sum returns the total weight; 1.0 within floating tolerance by construction.
func (w Weights) Sum() float64 { return w.Document + w.Address + w.Photo }

// Base weights per document type. A passport carries no address, so the
// document and photo components dominate for it.
var baseWeights = map[models.DocumentType]Weights{
	models.DocumentDriversLicense: {Document: 0.35, Address: 0.35, Photo: 0.30},
	models.DocumentPassport:       {Document: 0.45, Address: 0.15, Photo: 0.40},
	models.DocumentNationalID:     {Document: 0.40, Address: 0.25, Photo: 0.35},
}

// WeightsFor returns the component weights for a document type, verification
// purpose, and risk tolerance. Adjustments are applied additively to the base
// before any rounding.
func WeightsFor(docType models.DocumentType, purpose models.Purpose, risk models.RiskTolerance) Weights {
	w, ok := baseWeights[docType]
	if !ok {
		w = baseWeights[models.DocumentNationalID]
	}

	switch purpose {
	case models.PurposeAddressVerification:
		w.Address += 0.15
		w.Document -= 0.075
		w.Photo -= 0.075
	case models.PurposeAgeVerification:
		w.Document += 0.10
		w.Address -= 0.05
		w.Photo -= 0.05
	}

	switch risk {
	case models.RiskLow:
		w.Photo += 0.05
		w.Document -= 0.025
		w.Address -= 0.025
	case models.RiskHigh:
		w.Document += 0.05
		w.Address -= 0.025
		w.Photo -= 0.025
	}

	return w
}
