package onboarding

import "math"

// Criterion is one weighted completeness check. The list is data so new
// criteria can be added without touching callers.
type Criterion struct {
	ID        string
	Label     string
	Weight    int
	Satisfied func(Input) bool
}

// DefaultCriteria is the fixed six-criterion list used by Evaluate.
var DefaultCriteria = []Criterion{
	{ID: "identifier", Label: "tax identifier", Weight: 1, Satisfied: func(in Input) bool { return present(in.Client.TaxID) }},
	{ID: "email", Label: "email", Weight: 1, Satisfied: func(in Input) bool { return present(in.Client.Email) }},
	{ID: "phone", Label: "phone", Weight: 1, Satisfied: func(in Input) bool { return present(in.Client.Phone) }},
	{ID: "name", Label: "name", Weight: 1, Satisfied: func(in Input) bool { return in.Client.HasName() }},
	{ID: "document", Label: "at least one document", Weight: 1, Satisfied: func(in Input) bool { return len(in.Documents) > 0 }},
	{ID: "application", Label: "at least one application", Weight: 1, Satisfied: func(in Input) bool { return len(in.Applications) > 0 }},
}

// CompletenessResult is the score plus the labels of unmet criteria, in
// criterion order.
type CompletenessResult struct {
	Percent int
	Missing []string
}

// Completeness computes round(100 * satisfied weight / total weight).
// Non-positive weights are ignored; an empty list scores 0.
func Completeness(in Input, criteria []Criterion) CompletenessResult {
	var total, satisfied int
	missing := []string{}
	for _, c := range criteria {
		if c.Weight <= 0 {
			continue
		}
		total += c.Weight
		if c.Satisfied(in) {
			satisfied += c.Weight
			continue
		}
		missing = append(missing, c.Label)
	}
	if total == 0 {
		return CompletenessResult{Missing: missing}
	}
	return CompletenessResult{
		Percent: int(math.Round(100 * float64(satisfied) / float64(total))),
		Missing: missing,
	}
}
