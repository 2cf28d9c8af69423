package onboarding

import (
	"regexp"
	"strings"
	"time"
)

// Literal formats shared with the console front end. Do not relax them
// without updating both sides.
var (
	individualTaxIDPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}[A-Z0-9]{3}$`)
	entityTaxIDPattern     = regexp.MustCompile(`^[A-Z]{3}[0-9]{6}[A-Z0-9]{3}$`)
	populationIDPattern    = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}[HM][A-Z]{5}[0-9A-Z][0-9]$`)
	phonePattern           = regexp.MustCompile(`^[0-9]{10}$`)
	postalCodePattern      = regexp.MustCompile(`^[0-9]{5}$`)
	emailPattern           = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinimumAge is the youngest an individual client may be.
const MinimumAge = 18

// personProfile holds everything that varies by legal-person type. Adding a
// person type means adding a row here, not new branches in the rules.
type personProfile struct {
	label                string
	natural              bool
	taxIDPattern         *regexp.Regexp
	requiresPopulationID bool
	requiresMinimumAge   bool
	nameLabel            string
	hasName              func(Client) bool
	appliesTo            func(DocumentType) bool
}

var personProfiles = map[LegalPersonType]personProfile{
	PersonIndividual: {
		label:                "individual",
		natural:              true,
		taxIDPattern:         individualTaxIDPattern,
		requiresPopulationID: true,
		requiresMinimumAge:   true,
		nameLabel:            "name",
		hasName:              individualHasName,
		appliesTo:            func(d DocumentType) bool { return d.AppliesToIndividual },
	},
	PersonIndividualWithBusinessActivity: {
		label:                "individual with business activity",
		natural:              true,
		taxIDPattern:         individualTaxIDPattern,
		requiresPopulationID: true,
		requiresMinimumAge:   true,
		nameLabel:            "name",
		hasName:              individualHasName,
		appliesTo:            func(d DocumentType) bool { return d.AppliesToIndividualWithBusiness },
	},
	PersonLegalEntity: {
		label:        "legal entity",
		taxIDPattern: entityTaxIDPattern,
		nameLabel:    "corporate name",
		hasName:      func(c Client) bool { return present(c.CorporateName) },
		appliesTo:    func(d DocumentType) bool { return d.AppliesToLegalEntity },
	},
}

func individualHasName(c Client) bool {
	return present(c.FirstName)
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Reason is a stable code explaining why a check failed. UI layers translate
// these; never change existing values.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonEmpty         Reason = "empty"
	ReasonFormat        Reason = "format"
	ReasonUnderage      Reason = "underage"
	ReasonNotApplicable Reason = "not_applicable"
	ReasonInvalidDate   Reason = "invalid_date"
	ReasonUnknownType   Reason = "unknown_type"
	ReasonDuplicate     Reason = "duplicate"
	ReasonStaleStatus   Reason = "stale_status"
	ReasonRejected      Reason = "rejected"
)

// Check is the outcome of a single field validator.
type Check struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

func pass() Check { return Check{OK: true} }

func fail(reason Reason) Check { return Check{Reason: reason} }

func skipped() Check { return Check{OK: true, Reason: ReasonNotApplicable} }

func matches(re *regexp.Regexp, s string) Check {
	if !present(s) {
		return fail(ReasonEmpty)
	}
	if !re.MatchString(s) {
		return fail(ReasonFormat)
	}
	return pass()
}

// ValidateTaxID checks the tax identifier shape for the given person type.
// Unknown person types fail as not applicable.
func ValidateTaxID(taxID string, personType LegalPersonType) Check {
	p, ok := personProfiles[personType]
	if !ok {
		return fail(ReasonNotApplicable)
	}
	return matches(p.taxIDPattern, taxID)
}

// ValidatePopulationID checks the 18-character population identifier. It only
// applies to natural persons; entities fail as not applicable.
func ValidatePopulationID(populationID string, personType LegalPersonType) Check {
	if !personProfiles[personType].requiresPopulationID {
		return fail(ReasonNotApplicable)
	}
	return matches(populationIDPattern, populationID)
}

func ValidatePhone(phone string) Check {
	return matches(phonePattern, phone)
}

func ValidatePostalCode(postalCode string) Check {
	return matches(postalCodePattern, postalCode)
}

func ValidateEmail(email string) Check {
	return matches(emailPattern, email)
}

// ValidateMinimumAge requires natural persons to be at least MinimumAge years
// old at now. Entities pass as not applicable.
func ValidateMinimumAge(birthDate *time.Time, personType LegalPersonType, now time.Time) Check {
	if !personProfiles[personType].requiresMinimumAge {
		return skipped()
	}
	if birthDate == nil || birthDate.IsZero() {
		return fail(ReasonEmpty)
	}
	if birthDate.After(now) {
		return fail(ReasonInvalidDate)
	}
	if birthDate.AddDate(MinimumAge, 0, 0).After(now) {
		return fail(ReasonUnderage)
	}
	return pass()
}
