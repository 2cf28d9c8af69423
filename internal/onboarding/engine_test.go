package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/testutil"
)

func TestOnboardingScenarios(t *testing.T) {
	testutil.Given(t, "an individual with identifier, email and name but no phone or documents", func(t *testing.T) {
		c := Client{ID: 1, PersonType: PersonIndividual, FirstName: "Ana", TaxID: "ABCD800101XYZ", Email: "ana@example.com"}

		testutil.When(t, "the client is evaluated", func(t *testing.T) {
			ev, err := Evaluate(inputFor(c, nil, nil))
			require.NoError(t, err)

			testutil.Then(t, "progress is half complete and stuck in basic data", func(t *testing.T) {
				assert.Equal(t, 50, ev.Progress.Completeness)
				assert.Equal(t, StageBasicData, ev.Progress.Stage)
				assert.False(t, ev.Progress.CanAdvance)
				assert.Equal(t, []string{"phone", "at least one document", "at least one application"}, ev.Progress.MissingCriteria)
				assert.Contains(t, ev.Report.Observations, "Missing phone")
			})
		})
	})

	testutil.Given(t, "the same individual once the phone is captured", func(t *testing.T) {
		c := Client{ID: 1, PersonType: PersonIndividual, FirstName: "Ana", TaxID: "ABCD800101XYZ", Email: "ana@example.com", Phone: "5512345678"}

		testutil.When(t, "the client is evaluated", func(t *testing.T) {
			ev, err := Evaluate(inputFor(c, nil, nil))
			require.NoError(t, err)

			testutil.Then(t, "the client moves to documentation and may advance", func(t *testing.T) {
				assert.Equal(t, StageDocumentation, ev.Progress.Stage)
				assert.True(t, ev.Progress.CanAdvance)
				assert.Equal(t, 67, ev.Progress.Completeness)
			})
		})
	})

	testutil.Given(t, "a legal entity holding a document type reserved for individuals", func(t *testing.T) {
		c := entityClient()
		wrong := []Document{doc(1, c.ID, typeAccountStatement, DocumentAccepted, 5)}
		right := []Document{doc(1, c.ID, typeTaxStatus, DocumentAccepted, 5)}

		testutil.When(t, "it is evaluated next to an otherwise identical coherent snapshot", func(t *testing.T) {
			bad, err := Evaluate(inputFor(c, wrong, nil))
			require.NoError(t, err)
			good, err := Evaluate(inputFor(c, right, nil))
			require.NoError(t, err)

			testutil.Then(t, "an invalid legal finding lowers confidence", func(t *testing.T) {
				findings := resultsFor(bad.Risk.Results, RuleDocumentApplicability)
				require.Len(t, findings, 1)
				assert.Equal(t, OutcomeInvalid, findings[0].Outcome)
				assert.Equal(t, CategoryLegal, findings[0].Category)
				assert.Less(t, bad.Risk.Confidence, good.Risk.Confidence)
				assert.Equal(t, 71, bad.Risk.Confidence)
				assert.Equal(t, 86, good.Risk.Confidence)
			})
		})
	})

	testutil.Given(t, "an accepted document whose validity window lapsed fifteen days ago", func(t *testing.T) {
		c := individualClient()
		docs := []Document{doc(5, c.ID, typeAccountStatement, DocumentAccepted, 45)}

		testutil.When(t, "the client is evaluated", func(t *testing.T) {
			ev, err := Evaluate(inputFor(c, docs, nil))
			require.NoError(t, err)

			testutil.Then(t, "an expiration warning is raised and the document is not verified", func(t *testing.T) {
				warnings := resultsFor(ev.Risk.Results, RuleDocumentExpiration)
				require.Len(t, warnings, 1)
				assert.Equal(t, OutcomeWarning, warnings[0].Outcome)
				assert.Equal(t, DocumentID(5), *warnings[0].DocumentID)
				assert.Empty(t, ev.Risk.VerifiedDocuments)
				assert.Contains(t, ev.Report.Actions, "Mark document 5 as expired")
			})
		})
	})

	testutil.Given(t, "a client with basic data, accepted documents and a pending application", func(t *testing.T) {
		c := individualClient()
		docs := []Document{
			doc(1, c.ID, typeOfficialID, DocumentAccepted, 10),
			doc(2, c.ID, typeProofOfAddress, DocumentAccepted, 10),
		}
		apps := []Application{app(1, c.ID, ApplicationPending)}

		testutil.When(t, "the client is evaluated", func(t *testing.T) {
			ev, err := Evaluate(inputFor(c, docs, apps))
			require.NoError(t, err)

			testutil.Then(t, "the client waits for final approval with nothing to flag", func(t *testing.T) {
				assert.Equal(t, StageFinalApproval, ev.Progress.Stage)
				assert.Equal(t, 100, ev.Progress.Completeness)
				assert.Equal(t, 100, ev.Risk.Confidence)
				assert.Equal(t, RiskLow, ev.Risk.Level)
				assert.Empty(t, ev.Progress.MissingDocuments)
				assert.Empty(t, ev.Report.Observations)
			})
		})
	})
}

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine()
}

func (s *EngineSuite) TestReferenceFailures() {
	s.Run("zero client id", func() {
		_, err := s.engine.Evaluate(inputFor(Client{}, nil, nil))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("application of another client", func() {
		c := individualClient()
		_, err := s.engine.Evaluate(inputFor(c, nil, []Application{app(9, 42, ApplicationPending)}))
		s.Require().ErrorIs(err, ErrClientNotFound)
		s.Contains(err.Error(), "application 9 references client 42")
	})

	s.Run("document of another client", func() {
		c := individualClient()
		_, err := s.engine.Evaluate(inputFor(c, []Document{doc(9, 42, typeOfficialID, DocumentPending, 1)}, nil))
		s.Require().ErrorIs(err, ErrClientNotFound)
	})
}

func (s *EngineSuite) TestEmptyClientIsData() {
	ev, err := s.engine.Evaluate(inputFor(Client{ID: 7, PersonType: PersonIndividual}, nil, nil))
	s.Require().NoError(err)

	s.Equal(0, ev.Progress.Completeness)
	s.Equal(StageBasicData, ev.Progress.Stage)
	s.Equal(0, ev.Risk.Confidence)
	s.Equal(RiskCritical, ev.Risk.Level)
	s.True(ev.Risk.RequiresManualReview)
	s.Equal([]string{"Official ID", "Proof of address"}, ev.Progress.MissingDocuments)
	s.Contains(ev.Progress.PendingValidations, "Tax identifier")
	s.Equal("Manual review required: confidence 0% (critical risk)", ev.Report.Observations[len(ev.Report.Observations)-1])
	s.Contains(ev.Report.Actions, "Escalate to compliance review")
	s.Equal(ev.Report.Observations, ev.Progress.Observations)
	s.Equal(evalTime, ev.EvaluatedAt)
}

func (s *EngineSuite) TestDeterministic() {
	c := individualClient()
	in := inputFor(c,
		[]Document{
			doc(3, c.ID, typeOfficialID, DocumentPending, 1),
			doc(2, c.ID, typeOfficialID, DocumentAccepted, 4),
			doc(1, c.ID, typeArticlesOfIncorporation, DocumentPending, 2),
		},
		[]Application{app(1, c.ID, ApplicationCancelled)},
	)

	first, err := s.engine.Evaluate(in)
	s.Require().NoError(err)
	for range 10 {
		again, err := s.engine.Evaluate(in)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *EngineSuite) TestClosedApplicationsAreInvalid() {
	c := individualClient()
	ev, err := s.engine.Evaluate(inputFor(c, nil, []Application{app(1, c.ID, ApplicationRejected), app(2, c.ID, ApplicationCancelled)}))
	s.Require().NoError(err)

	status := resultsFor(ev.Risk.Results, RuleApplicationStatus)
	s.Require().Len(status, 1)
	s.Equal(OutcomeInvalid, status[0].Outcome)
	s.Equal(ReasonRejected, status[0].Reason)
}

func (s *EngineSuite) TestUnderageIndividual() {
	c := individualClient()
	birth := evalTime.AddDate(-17, 0, 0)
	c.BirthDate = &birth

	ev, err := s.engine.Evaluate(inputFor(c, nil, nil))
	s.Require().NoError(err)

	age := resultsFor(ev.Risk.Results, RuleMinimumAge)
	s.Require().Len(age, 1)
	s.Equal(OutcomeInvalid, age[0].Outcome)
	s.Equal(ReasonUnderage, age[0].Reason)
	s.NotContains(ev.Risk.VerifiedReferences, "Minimum age")
}

func (s *EngineSuite) TestCustomCriteria() {
	engine := NewEngine(WithCriteria([]Criterion{
		{ID: "email", Label: "email", Weight: 1, Satisfied: func(in Input) bool { return in.Client.Email != "" }},
	}))
	ev, err := engine.Evaluate(inputFor(individualClient(), nil, nil))
	s.Require().NoError(err)
	s.Equal(100, ev.Progress.Completeness)
	s.Empty(ev.Progress.MissingCriteria)
}

// TestRemovingDataNeverRaisesCompleteness strips fields one at a time from a
// complete snapshot.
func (s *EngineSuite) TestRemovingDataNeverRaisesCompleteness() {
	c := individualClient()
	full := inputFor(c, []Document{doc(1, c.ID, typeOfficialID, DocumentAccepted, 1)}, []Application{app(1, c.ID, ApplicationPending)})
	base, err := s.engine.Evaluate(full)
	s.Require().NoError(err)

	strips := map[string]func(Input) Input{
		"tax id":       func(in Input) Input { in.Client.TaxID = ""; return in },
		"email":        func(in Input) Input { in.Client.Email = ""; return in },
		"phone":        func(in Input) Input { in.Client.Phone = ""; return in },
		"name":         func(in Input) Input { in.Client.FirstName = ""; return in },
		"documents":    func(in Input) Input { in.Documents = nil; return in },
		"applications": func(in Input) Input { in.Applications = nil; return in },
	}
	for name, strip := range strips {
		s.Run(name, func() {
			ev, err := s.engine.Evaluate(strip(full))
			s.Require().NoError(err)
			s.LessOrEqual(ev.Progress.Completeness, base.Progress.Completeness)
		})
	}
}
