package onboarding

import (
	"time"

	"onboard/pkg/platform/strings"
)

// Input is the full snapshot of one client. The catalog is passed in so the
// engine never reaches for a data store, and Now is injected so evaluations
// are reproducible.
type Input struct {
	Client       Client
	Documents    []Document
	Applications []Application
	Catalog      []DocumentType
	Now          time.Time
}

// Engine evaluates onboarding snapshots. It holds configuration only, so a
// single Engine is safe for concurrent use.
type Engine struct {
	criteria []Criterion
}

type Option func(*Engine)

// WithCriteria replaces the completeness criteria.
func WithCriteria(criteria []Criterion) Option {
	return func(e *Engine) {
		e.criteria = criteria
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{criteria: DefaultCriteria}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the default engine.
func Evaluate(in Input) (*Evaluation, error) {
	return NewEngine().Evaluate(in)
}

// Evaluate computes progress, risk and the reviewer report for one client.
//
// Incomplete or malformed data never fails: it lowers the scores. The only
// errors are reference failures: a zero client id (no record), or a document
// or application owned by a different client. Both carry CodeNotFound.
func (e *Engine) Evaluate(in Input) (*Evaluation, error) {
	if in.Client.ID == 0 {
		return nil, ErrClientNotFound
	}
	for _, a := range in.Applications {
		if a.ClientID != in.Client.ID {
			return nil, foreignReference("application", int64(a.ID), a.ClientID, in.Client.ID)
		}
	}

	catalog := NewCatalog(in.Catalog)
	coherence, err := CheckCoherence(in.Client, in.Documents, catalog, in.Now)
	if err != nil {
		return nil, err
	}

	completeness := Completeness(in, e.criteria)
	stage := ResolveStage(in)

	results := append(ClientRules(in), coherence...)
	risk := AssessRisk(in.Client.ID, results, in.Documents, catalog, in.Now)

	progress := OnboardingProgress{
		ClientID:           in.Client.ID,
		Completeness:       completeness.Percent,
		Stage:              stage.Current,
		CanAdvance:         stage.CanAdvance,
		Stages:             stage.Stages,
		MissingCriteria:    completeness.Missing,
		MissingDocuments:   missingDocuments(in, catalog),
		PendingValidations: pendingValidations(results),
	}
	report := BuildReport(progress, risk)
	progress.Observations = report.Observations

	return &Evaluation{
		ClientID:    in.Client.ID,
		Progress:    progress,
		Risk:        risk,
		Report:      report,
		EvaluatedAt: in.Now,
	}, nil
}

// missingDocuments lists required catalog types for the client's person type
// with no active document on file.
func missingDocuments(in Input, catalog *Catalog) []string {
	covered := make(map[DocumentTypeID]bool, len(in.Documents))
	for _, d := range in.Documents {
		if d.IsActive(in.Now, catalog) {
			covered[d.TypeID] = true
		}
	}
	missing := []string{}
	for _, t := range catalog.Required(in.Client.PersonType) {
		if !covered[t.ID] {
			missing = append(missing, t.Name)
		}
	}
	return missing
}

func pendingValidations(results []ValidationResult) []string {
	pending := []string{}
	for _, r := range results {
		if r.Outcome == OutcomePending {
			pending = append(pending, r.RuleID.Label())
		}
	}
	return strings.DedupeAndTrim(pending)
}
