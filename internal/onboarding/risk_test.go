package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForConfidence(t *testing.T) {
	tests := []struct {
		confidence int
		want       RiskLevel
	}{
		{100, RiskLow},
		{80, RiskLow},
		{79, RiskMedium},
		{60, RiskMedium},
		{59, RiskHigh},
		{40, RiskHigh},
		{39, RiskCritical},
		{0, RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForConfidence(tt.confidence), "confidence %d", tt.confidence)
	}
}

func TestRequiresManualReview(t *testing.T) {
	assert.False(t, RiskLow.RequiresManualReview())
	assert.False(t, RiskMedium.RequiresManualReview())
	assert.True(t, RiskHigh.RequiresManualReview())
	assert.True(t, RiskCritical.RequiresManualReview())
}

func TestConfidence(t *testing.T) {
	valid := ValidationResult{Outcome: OutcomeValid}
	pending := ValidationResult{Outcome: OutcomePending}
	warning := ValidationResult{Outcome: OutcomeWarning}

	assert.Equal(t, 0, Confidence(nil))
	assert.Equal(t, 100, Confidence([]ValidationResult{valid, valid}))
	assert.Equal(t, 67, Confidence([]ValidationResult{valid, valid, pending}))
	assert.Equal(t, 50, Confidence([]ValidationResult{valid, warning}), "warnings are not valid")
}

func TestAssessRisk(t *testing.T) {
	c := individualClient()
	catalog := NewCatalog(testCatalog())
	docs := []Document{
		doc(1, c.ID, typeOfficialID, DocumentAccepted, 5),
		doc(2, c.ID, typeProofOfAddress, DocumentAccepted, 5),
		doc(3, c.ID, typeAccountStatement, DocumentAccepted, 45),
		doc(4, c.ID, typeTaxStatus, DocumentPending, 1),
	}
	in := inputFor(c, docs, []Application{app(1, c.ID, ApplicationInReview)})
	results := ClientRules(in)

	got := AssessRisk(c.ID, results, docs, catalog, evalTime)

	assert.Equal(t, c.ID, got.ClientID)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, RiskLow, got.Level)
	assert.False(t, got.RequiresManualReview)
	assert.Equal(t, []string{"Official ID", "Proof of address"}, got.VerifiedDocuments, "lapsed and pending documents are not verified")
	assert.Equal(t, []string{"Tax identifier", "Population identifier", "Minimum age"}, got.VerifiedReferences)
}

func TestAssessRiskEntityHasNoPopulationReference(t *testing.T) {
	c := entityClient()
	in := inputFor(c, nil, nil)
	got := AssessRisk(c.ID, ClientRules(in), nil, NewCatalog(in.Catalog), evalTime)

	assert.Equal(t, []string{"Tax identifier"}, got.VerifiedReferences)
	assert.Empty(t, got.VerifiedDocuments)
	assert.Empty(t, resultsFor(got.Results, RulePopulationID))
	assert.Empty(t, resultsFor(got.Results, RuleMinimumAge))
}
