package onboarding

import (
	"fmt"
	"sort"

	"onboard/pkg/platform/strings"
)

// BuildReport projects progress and risk into reviewer-facing observations
// and actions. Output order is stable: missing criteria, missing documents,
// failed rules by priority (input order within a priority), then the review
// flag. Both lists are de-duplicated.
func BuildReport(progress OnboardingProgress, risk RiskAssessment) Report {
	observations := make([]string, 0, len(progress.MissingCriteria)+len(risk.Results))
	actions := make([]string, 0, len(progress.MissingDocuments)+len(risk.Results))

	for _, label := range progress.MissingCriteria {
		observations = append(observations, "Missing "+label)
	}
	for _, name := range progress.MissingDocuments {
		observations = append(observations, "Required document missing: "+name)
		actions = append(actions, "Upload "+name)
	}

	for _, r := range failedByPriority(risk.Results) {
		observations = append(observations, r.Detail)
		actions = append(actions, r.Actions...)
	}

	if risk.RequiresManualReview {
		observations = append(observations,
			fmt.Sprintf("Manual review required: confidence %d%% (%s risk)", risk.Confidence, risk.Level))
		actions = append(actions, "Escalate to compliance review")
	}

	return Report{
		Observations: strings.DedupeAndTrim(observations),
		Actions:      strings.DedupeAndTrim(actions),
	}
}

func failedByPriority(results []ValidationResult) []ValidationResult {
	failed := make([]ValidationResult, 0, len(results))
	for _, r := range results {
		if r.Outcome.Failed() {
			failed = append(failed, r)
		}
	}
	sort.SliceStable(failed, func(i, j int) bool {
		return failed[i].Priority.rank() < failed[j].Priority.rank()
	})
	return failed
}
