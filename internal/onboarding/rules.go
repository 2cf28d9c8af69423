package onboarding

import (
	"fmt"

	dErrors "onboard/pkg/domain-errors"
)

// Reference failures are the only errors the engine returns. Everything
// else, however incomplete, is reported as data.
var (
	ErrClientNotFound   = dErrors.New(dErrors.CodeNotFound, "client not found")
	ErrDocumentNotFound = dErrors.New(dErrors.CodeNotFound, "document not found")
)

func foreignReference(kind string, id int64, owner ClientID, client ClientID) error {
	return dErrors.Wrap(ErrClientNotFound, dErrors.CodeNotFound,
		fmt.Sprintf("%s %d references client %d, evaluating client %d", kind, id, owner, client))
}

// RuleID names one validation rule. Values are persisted by callers in
// snapshots and audit trails.
type RuleID string

const (
	RuleTaxID                 RuleID = "identity.tax_id"
	RulePopulationID          RuleID = "identity.population_id"
	RuleMinimumAge            RuleID = "identity.minimum_age"
	RuleEmail                 RuleID = "contact.email"
	RulePhone                 RuleID = "contact.phone"
	RulePostalCode            RuleID = "contact.postal_code"
	RuleDocumentCount         RuleID = "documents.count"
	RuleApplicationStatus     RuleID = "application.status"
	RuleDocumentApplicability RuleID = "document.applicability"
	RuleDocumentDuplicate     RuleID = "document.duplicate"
	RuleDocumentExpiration    RuleID = "document.expiration"
)

type ruleDef struct {
	label    string
	category Category
	priority Priority
}

var ruleDefs = map[RuleID]ruleDef{
	RuleTaxID:                 {"Tax identifier", CategoryIdentity, PriorityHigh},
	RulePopulationID:          {"Population identifier", CategoryIdentity, PriorityHigh},
	RuleMinimumAge:            {"Minimum age", CategoryIdentity, PriorityHigh},
	RuleEmail:                 {"Email", CategoryCompliance, PriorityMedium},
	RulePhone:                 {"Phone", CategoryCompliance, PriorityMedium},
	RulePostalCode:            {"Postal code", CategoryCompliance, PriorityLow},
	RuleDocumentCount:         {"Submitted documents", CategoryLegal, PriorityMedium},
	RuleApplicationStatus:     {"Product application", CategoryFinancial, PriorityMedium},
	RuleDocumentApplicability: {"Document type coherence", CategoryLegal, PriorityHigh},
	RuleDocumentDuplicate:     {"Duplicate document", CategoryCompliance, PriorityMedium},
	RuleDocumentExpiration:    {"Document expiration", CategoryCompliance, PriorityMedium},
}

// Label is the human name of the rule.
func (r RuleID) Label() string {
	if s, ok := ruleDefs[r]; ok {
		return s.label
	}
	return string(r)
}

func newResult(rule RuleID, outcome Outcome, reason Reason, detail string, actions ...string) ValidationResult {
	def := ruleDefs[rule]
	if actions == nil {
		actions = []string{}
	}
	return ValidationResult{
		RuleID:   rule,
		Category: def.category,
		Outcome:  outcome,
		Priority: def.priority,
		Reason:   reason,
		Detail:   detail,
		Actions:  actions,
	}
}

func forDocument(r ValidationResult, id DocumentID) ValidationResult {
	r.DocumentID = &id
	return r
}

// fieldResult turns a field check into a result. Empty fields are pending,
// malformed ones invalid.
func fieldResult(rule RuleID, check Check, fix string) ValidationResult {
	label := rule.Label()
	switch {
	case check.OK:
		return newResult(rule, OutcomeValid, check.Reason, label+" verified")
	case check.Reason == ReasonEmpty:
		return newResult(rule, OutcomePending, check.Reason, label+" not captured", fix)
	default:
		return newResult(rule, OutcomeInvalid, check.Reason,
			fmt.Sprintf("%s failed validation (%s)", label, check.Reason), fix)
	}
}

// ClientRules evaluates the identifier, contact, document-count and
// application-status rules for one client.
func ClientRules(in Input) []ValidationResult {
	c := in.Client
	results := []ValidationResult{
		fieldResult(RuleTaxID, ValidateTaxID(c.TaxID, c.PersonType), "Capture a valid tax identifier"),
	}

	if personProfiles[c.PersonType].requiresPopulationID {
		results = append(results,
			fieldResult(RulePopulationID, ValidatePopulationID(c.PopulationID, c.PersonType), "Capture a valid population identifier"))
	}
	if personProfiles[c.PersonType].requiresMinimumAge {
		results = append(results,
			fieldResult(RuleMinimumAge, ValidateMinimumAge(c.BirthDate, c.PersonType, in.Now), "Verify the client's date of birth"))
	}

	results = append(results,
		fieldResult(RuleEmail, ValidateEmail(c.Email), "Capture a valid email address"),
		fieldResult(RulePhone, ValidatePhone(c.Phone), "Capture a 10-digit phone number"),
		fieldResult(RulePostalCode, ValidatePostalCode(c.Address.PostalCode), "Capture a 5-digit postal code"),
		documentCountResult(in.Documents),
		applicationStatusResult(in.Applications),
	)
	return results
}

func documentCountResult(docs []Document) ValidationResult {
	if len(docs) == 0 {
		return newResult(RuleDocumentCount, OutcomePending, ReasonEmpty,
			"No documents submitted", "Request the client's supporting documents")
	}
	return newResult(RuleDocumentCount, OutcomeValid, ReasonNone,
		fmt.Sprintf("%d document(s) submitted", len(docs)))
}

func applicationStatusResult(apps []Application) ValidationResult {
	if len(apps) == 0 {
		return newResult(RuleApplicationStatus, OutcomePending, ReasonEmpty,
			"No product application opened", "Open a product application")
	}
	for _, a := range apps {
		if a.Status.IsOpen() {
			return newResult(RuleApplicationStatus, OutcomeValid, ReasonNone,
				fmt.Sprintf("Application %d is %s", a.ID, a.Status))
		}
	}
	return newResult(RuleApplicationStatus, OutcomeInvalid, ReasonRejected,
		"Every product application was rejected or cancelled", "Review the closed applications with the client")
}
