package onboarding

import (
	"math"
	"time"

	"onboard/pkg/platform/strings"
)

// Lower bounds (inclusive) of each risk level, highest first.
var riskThresholds = []struct {
	min   int
	level RiskLevel
}{
	{80, RiskLow},
	{60, RiskMedium},
	{40, RiskHigh},
}

// LevelForConfidence classifies a 0-100 confidence score.
func LevelForConfidence(confidence int) RiskLevel {
	for _, t := range riskThresholds {
		if confidence >= t.min {
			return t.level
		}
	}
	return RiskCritical
}

// RequiresManualReview is true for high and critical risk.
func (l RiskLevel) RequiresManualReview() bool {
	return l == RiskHigh || l == RiskCritical
}

// Confidence is round(100 * valid / total). Every rule counts once whatever
// its priority.
func Confidence(results []ValidationResult) int {
	if len(results) == 0 {
		return 0
	}
	valid := 0
	for _, r := range results {
		if r.Outcome == OutcomeValid {
			valid++
		}
	}
	return int(math.Round(100 * float64(valid) / float64(len(results))))
}

// AssessRisk scores the full rule set of one client.
func AssessRisk(clientID ClientID, results []ValidationResult, docs []Document, catalog *Catalog, now time.Time) RiskAssessment {
	confidence := Confidence(results)
	level := LevelForConfidence(confidence)

	verifiedDocs := make([]string, 0, len(docs))
	for _, d := range docs {
		if t, ok := catalog.Lookup(d.TypeID); ok && d.IsVerified(now, catalog) {
			verifiedDocs = append(verifiedDocs, t.Name)
		}
	}

	refs := make([]string, 0, 3)
	for _, r := range results {
		if r.Category == CategoryIdentity && r.Outcome == OutcomeValid {
			refs = append(refs, r.RuleID.Label())
		}
	}

	return RiskAssessment{
		ClientID:             clientID,
		Confidence:           confidence,
		Level:                level,
		RequiresManualReview: level.RequiresManualReview(),
		Results:              results,
		VerifiedDocuments:    strings.DedupeAndTrim(verifiedDocs),
		VerifiedReferences:   strings.DedupeAndTrim(refs),
	}
}
