package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"vouch/internal/verification/models"
)

var (
	allDocumentTypes = []models.DocumentType{
		models.DocumentDriversLicense,
		models.DocumentPassport,
		models.DocumentNationalID,
	}
	allPurposes = []models.Purpose{
		models.PurposeIdentityVerification,
		models.PurposeAgeVerification,
		models.PurposeAddressVerification,
	}
	allRiskTolerances = []models.RiskTolerance{
		models.RiskLow,
		models.RiskMedium,
		models.RiskHigh,
	}
)

// Every adjustment moves weight between components without creating or
// destroying mass, so all 27 combinations must sum to exactly 1.0.
func TestWeightsForSumsToOne(t *testing.T) {
	for _, docType := range allDocumentTypes {
		for _, purpose := range allPurposes {
			for _, risk := range allRiskTolerances {
				name := fmt.Sprintf("%s/%s/%s", docType, purpose, risk)
				t.Run(name, func(t *testing.T) {
					w := WeightsFor(docType, purpose, risk)
					assert.InDelta(t, 1.0, w.Sum(), 1e-9)
					assert.Greater(t, w.Document, 0.0)
					assert.Greater(t, w.Address, 0.0)
					assert.Greater(t, w.Photo, 0.0)
				})
			}
		}
	}
}

func TestWeightsForAdjustments(t *testing.T) {
	t.Run("identity purpose with medium risk keeps base weights", func(t *testing.T) {
		w := WeightsFor(models.DocumentDriversLicense, models.PurposeIdentityVerification, models.RiskMedium)
		assert.InDelta(t, 0.35, w.Document, 1e-9)
		assert.InDelta(t, 0.35, w.Address, 1e-9)
		assert.InDelta(t, 0.30, w.Photo, 1e-9)
	})

	t.Run("address verification shifts weight to address", func(t *testing.T) {
		base := WeightsFor(models.DocumentPassport, models.PurposeIdentityVerification, models.RiskMedium)
		adjusted := WeightsFor(models.DocumentPassport, models.PurposeAddressVerification, models.RiskMedium)
		assert.InDelta(t, base.Address+0.15, adjusted.Address, 1e-9)
		assert.InDelta(t, base.Document-0.075, adjusted.Document, 1e-9)
		assert.InDelta(t, base.Photo-0.075, adjusted.Photo, 1e-9)
	})

	t.Run("age verification shifts weight to document", func(t *testing.T) {
		w := WeightsFor(models.DocumentNationalID, models.PurposeAgeVerification, models.RiskHigh)
		// base 0.40 + 0.10 (age) + 0.05 (high risk)
		assert.InDelta(t, 0.55, w.Document, 1e-9)
		assert.InDelta(t, 0.175, w.Address, 1e-9)
		assert.InDelta(t, 0.275, w.Photo, 1e-9)
	})

	t.Run("low risk shifts weight to photo", func(t *testing.T) {
		w := WeightsFor(models.DocumentPassport, models.PurposeIdentityVerification, models.RiskLow)
		assert.InDelta(t, 0.425, w.Document, 1e-9)
		assert.InDelta(t, 0.125, w.Address, 1e-9)
		assert.InDelta(t, 0.45, w.Photo, 1e-9)
	})

	t.Run("unknown document type falls back to national id base", func(t *testing.T) {
		w := WeightsFor(models.DocumentType("library_card"), models.PurposeIdentityVerification, models.RiskMedium)
		assert.InDelta(t, 0.40, w.Document, 1e-9)
		assert.InDelta(t, 0.25, w.Address, 1e-9)
		assert.InDelta(t, 0.35, w.Photo, 1e-9)
	})
}

func TestThresholdsFor(t *testing.T) {
	t.Run("each risk tolerance has its own cut points", func(t *testing.T) {
		low := ThresholdsFor(models.RiskLow)
		assert.Equal(t, 0.92, low.ApprovalFloor)
		assert.Equal(t, 0.30, low.RejectionCeiling)

		high := ThresholdsFor(models.RiskHigh)
		assert.Equal(t, 0.75, high.ApprovalFloor)
		assert.Equal(t, 0.40, high.RejectionCeiling)
	})

	t.Run("approval floor tightens as risk tolerance drops", func(t *testing.T) {
		assert.Greater(t, ThresholdsFor(models.RiskLow).ApprovalFloor, ThresholdsFor(models.RiskMedium).ApprovalFloor)
		assert.Greater(t, ThresholdsFor(models.RiskMedium).ApprovalFloor, ThresholdsFor(models.RiskHigh).ApprovalFloor)
	})

	t.Run("unknown risk falls back to medium", func(t *testing.T) {
		assert.Equal(t, ThresholdsFor(models.RiskMedium), ThresholdsFor(models.RiskTolerance("paranoid")))
	})
}
