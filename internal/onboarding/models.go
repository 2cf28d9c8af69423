package onboarding

import (
	"fmt"
	"strings"
	"time"

	dErrors "onboard/pkg/domain-errors"
)

// Numeric identifiers as issued by the record store.
type (
	ClientID       int64
	DocumentID     int64
	DocumentTypeID int64
	ApplicationID  int64
)

// LegalPersonType classifies a client. The zero value is invalid.
type LegalPersonType string

const (
	PersonIndividual                     LegalPersonType = "individual"
	PersonIndividualWithBusinessActivity LegalPersonType = "individual_with_business_activity"
	PersonLegalEntity                    LegalPersonType = "legal_entity"
)

// ParseLegalPersonType validates external input against the supported types.
func ParseLegalPersonType(s string) (LegalPersonType, error) {
	t := LegalPersonType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown legal person type %q", s))
	}
	return t, nil
}

func (t LegalPersonType) IsValid() bool {
	_, ok := personProfiles[t]
	return ok
}

// IsIndividual is true for both natural-person types.
func (t LegalPersonType) IsIndividual() bool {
	return personProfiles[t].natural
}

func (t LegalPersonType) String() string {
	return string(t)
}

// Label is the human form used in observations.
func (t LegalPersonType) Label() string {
	if p, ok := personProfiles[t]; ok {
		return p.label
	}
	return string(t)
}

// Address is the client's fiscal address.
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Client is the identity record being onboarded.
//
// Invariant: individual name fields are used for natural persons and
// CorporateName for legal entities. The engine reads whichever one the
// person type selects and ignores the other.
type Client struct {
	ID         ClientID        `json:"id"`
	PersonType LegalPersonType `json:"person_type"`

	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	SecondLastName string `json:"second_last_name,omitempty"`

	CorporateName       string `json:"corporate_name,omitempty"`
	LegalRepresentative string `json:"legal_representative,omitempty"`

	TaxID        string `json:"tax_id"`
	PopulationID string `json:"population_id,omitempty"`

	Email   string  `json:"email"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`

	BirthDate         *time.Time `json:"birth_date,omitempty"`
	IncorporationDate *time.Time `json:"incorporation_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasName reports whether the name field selected by the person type is set.
func (c Client) HasName() bool {
	p, ok := personProfiles[c.PersonType]
	if !ok {
		return false
	}
	return p.hasName(c)
}

// DisplayName returns the name to show in the console.
func (c Client) DisplayName() string {
	if c.PersonType == PersonLegalEntity {
		return strings.TrimSpace(c.CorporateName)
	}
	return strings.Join(strings.Fields(c.FirstName+" "+c.LastName+" "+c.SecondLastName), " ")
}

// DocumentStatus is the review state stored with a document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentAccepted DocumentStatus = "accepted"
	DocumentRejected DocumentStatus = "rejected"
	DocumentExpired  DocumentStatus = "expired"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentAccepted, DocumentRejected, DocumentExpired:
		return true
	}
	return false
}

// DocumentType is a catalog entry. ValidityDays nil means the document never
// expires.
type DocumentType struct {
	ID                              DocumentTypeID `json:"id" yaml:"id"`
	Name                            string         `json:"name" yaml:"name"`
	AppliesToIndividual             bool           `json:"applies_to_individual" yaml:"applies_to_individual"`
	AppliesToIndividualWithBusiness bool           `json:"applies_to_individual_with_business" yaml:"applies_to_individual_with_business"`
	AppliesToLegalEntity            bool           `json:"applies_to_legal_entity" yaml:"applies_to_legal_entity"`
	ValidityDays                    *int           `json:"validity_days,omitempty" yaml:"validity_days,omitempty"`
	Optional                        bool           `json:"optional" yaml:"optional"`
}

// Document is evidence owned by exactly one client.
type Document struct {
	ID              DocumentID     `json:"id"`
	ClientID        ClientID       `json:"client_id"`
	TypeID          DocumentTypeID `json:"type_id"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	DocumentDate    time.Time      `json:"document_date,omitzero"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
	Status          DocumentStatus `json:"status"`
	ReviewerComment string         `json:"reviewer_comment,omitempty"`
}

// ApplicationStatus is the lifecycle state of a financial-product application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationInReview  ApplicationStatus = "in_review"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationInReview, ApplicationApproved, ApplicationRejected, ApplicationCancelled:
		return true
	}
	return false
}

// IsOpen is true while the application can still lead to a product.
func (s ApplicationStatus) IsOpen() bool {
	switch s {
	case ApplicationPending, ApplicationInReview, ApplicationApproved:
		return true
	}
	return false
}

// Application is the minimal shape the engine needs: presence and status.
type Application struct {
	ID       ApplicationID     `json:"id"`
	ClientID ClientID          `json:"client_id"`
	Status   ApplicationStatus `json:"status"`
}

// Category groups validation rules by concern.
type Category string

const (
	CategoryIdentity   Category = "identity"
	CategoryFinancial  Category = "financial"
	CategoryLegal      Category = "legal"
	CategoryCompliance Category = "compliance"
)

// Outcome is the result of one rule evaluation.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeInvalid Outcome = "invalid"
	OutcomePending Outcome = "pending"
	OutcomeWarning Outcome = "warning"
)

// Failed is true for every outcome the console must surface.
func (o Outcome) Failed() bool {
	return o != OutcomeValid
}

// Priority orders findings for reviewers.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// ValidationResult is the transient output of one rule. Documents are
// referenced by id so results serialize without cycles.
type ValidationResult struct {
	RuleID     RuleID      `json:"rule_id"`
	Category   Category    `json:"category"`
	Outcome    Outcome     `json:"outcome"`
	Priority   Priority    `json:"priority"`
	Reason     Reason      `json:"reason,omitempty"`
	Detail     string      `json:"detail"`
	Actions    []string    `json:"actions"`
	DocumentID *DocumentID `json:"document_id,omitempty"`
}

// Stage is one of the ordered onboarding phases.
type Stage string

const (
	StageBasicData            Stage = "basic_data"
	StageDocumentation        Stage = "documentation"
	StageIdentityValidation   Stage = "identity_validation"
	StageFinancialInformation Stage = "financial_information"
	StageFinalApproval        Stage = "final_approval"
	StageProductConfiguration Stage = "product_configuration"
)

// StageStatus describes one stage within a client's progress.
type StageStatus struct {
	Stage     Stage    `json:"stage"`
	Order     int      `json:"order"`
	Required  bool     `json:"required"`
	Completed bool     `json:"completed"`
	Current   bool     `json:"current"`
	Details   []string `json:"details"`
	Actions   []string `json:"actions"`
}

// OnboardingProgress is the completeness and stage view of one client.
type OnboardingProgress struct {
	ClientID           ClientID      `json:"client_id"`
	Completeness       int           `json:"completeness"`
	Stage              Stage         `json:"stage"`
	CanAdvance         bool          `json:"can_advance"`
	Stages             []StageStatus `json:"stages"`
	MissingCriteria    []string      `json:"missing_criteria"`
	MissingDocuments   []string      `json:"missing_documents"`
	PendingValidations []string      `json:"pending_validations"`
	Observations       []string      `json:"observations"`
}

// RiskLevel is the four-level classification derived from confidence.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskAssessment is the confidence view of one client.
type RiskAssessment struct {
	ClientID             ClientID           `json:"client_id"`
	Confidence           int                `json:"confidence"`
	Level                RiskLevel          `json:"level"`
	RequiresManualReview bool               `json:"requires_manual_review"`
	Results              []ValidationResult `json:"results"`
	VerifiedDocuments    []string           `json:"verified_documents"`
	VerifiedReferences   []string           `json:"verified_references"`
}

// Report is the flat, de-duplicated projection shown to reviewers.
type Report struct {
	Observations []string `json:"observations"`
	Actions      []string `json:"actions"`
}

// Evaluation bundles everything produced for one client at one instant.
type Evaluation struct {
	ClientID    ClientID           `json:"client_id"`
	Progress    OnboardingProgress `json:"progress"`
	Risk        RiskAssessment     `json:"risk"`
	Report      Report             `json:"report"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}
