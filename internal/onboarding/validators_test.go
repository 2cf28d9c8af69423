package onboarding

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		name       string
		taxID      string
		personType LegalPersonType
		want       Check
	}{
		{"individual 13 chars", "ABCD800101XYZ", PersonIndividual, Check{OK: true}},
		{"individual with business uses individual format", "ABCD800101XY9", PersonIndividualWithBusinessActivity, Check{OK: true}},
		{"entity 12 chars", "ABC800101XY1", PersonLegalEntity, Check{OK: true}},
		{"entity format on individual", "ABC800101XY1", PersonIndividual, Check{Reason: ReasonFormat}},
		{"individual format on entity", "ABCD800101XYZ", PersonLegalEntity, Check{Reason: ReasonFormat}},
		{"lowercase rejected", "abcd800101xyz", PersonIndividual, Check{Reason: ReasonFormat}},
		{"surrounding spaces rejected", " ABCD800101XYZ", PersonIndividual, Check{Reason: ReasonFormat}},
		{"empty", "", PersonIndividual, Check{Reason: ReasonEmpty}},
		{"blank", "   ", PersonLegalEntity, Check{Reason: ReasonEmpty}},
		{"unknown person type", "ABCD800101XYZ", LegalPersonType("trust"), Check{Reason: ReasonNotApplicable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTaxID(tt.taxID, tt.personType))
		})
	}
}

func TestValidatePopulationID(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		personType LegalPersonType
		want       Check
	}{
		{"valid male marker", "ABCD800101HDFRRN09", PersonIndividual, Check{OK: true}},
		{"valid female marker", "ABCD800101MDFRRNA9", PersonIndividualWithBusinessActivity, Check{OK: true}},
		{"invalid sex marker", "ABCD800101XDFRRN09", PersonIndividual, Check{Reason: ReasonFormat}},
		{"last char must be digit", "ABCD800101HDFRRN0A", PersonIndividual, Check{Reason: ReasonFormat}},
		{"too short", "ABCD800101HDFRRN0", PersonIndividual, Check{Reason: ReasonFormat}},
		{"empty", "", PersonIndividual, Check{Reason: ReasonEmpty}},
		{"not applicable to entities", "ABCD800101HDFRRN09", PersonLegalEntity, Check{Reason: ReasonNotApplicable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePopulationID(tt.value, tt.personType))
		})
	}
}

func TestContactValidators(t *testing.T) {
	t.Run("phone", func(t *testing.T) {
		assert.True(t, ValidatePhone("5512345678").OK)
		assert.Equal(t, ReasonFormat, ValidatePhone("551234567").Reason)
		assert.Equal(t, ReasonFormat, ValidatePhone("55 1234 5678").Reason)
		assert.Equal(t, ReasonFormat, ValidatePhone("+525512345678").Reason)
		assert.Equal(t, ReasonEmpty, ValidatePhone("").Reason)
	})

	t.Run("postal code", func(t *testing.T) {
		assert.True(t, ValidatePostalCode("06600").OK)
		assert.Equal(t, ReasonFormat, ValidatePostalCode("6600").Reason)
		assert.Equal(t, ReasonFormat, ValidatePostalCode("0660A").Reason)
		assert.Equal(t, ReasonEmpty, ValidatePostalCode("").Reason)
	})

	t.Run("email", func(t *testing.T) {
		assert.True(t, ValidateEmail("ana@example.com").OK)
		assert.True(t, ValidateEmail("a.b+c@sub.example.mx").OK)
		assert.Equal(t, ReasonFormat, ValidateEmail("ana@example").Reason)
		assert.Equal(t, ReasonFormat, ValidateEmail("ana example@x.com").Reason)
		assert.Equal(t, ReasonFormat, ValidateEmail("@example.com").Reason)
		assert.Equal(t, ReasonFormat, ValidateEmail("ana@@example.com").Reason)
		assert.Equal(t, ReasonEmpty, ValidateEmail(" ").Reason)
	})
}

func TestValidateMinimumAge(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	eighteenToday := time.Date(2008, 3, 15, 0, 0, 0, 0, time.UTC)
	eighteenTomorrow := time.Date(2008, 3, 16, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 1)

	assert.Equal(t, Check{OK: true}, ValidateMinimumAge(&eighteenToday, PersonIndividual, now))
	assert.Equal(t, Check{Reason: ReasonUnderage}, ValidateMinimumAge(&eighteenTomorrow, PersonIndividual, now))
	assert.Equal(t, Check{Reason: ReasonUnderage}, ValidateMinimumAge(&eighteenTomorrow, PersonIndividualWithBusinessActivity, now))
	assert.Equal(t, Check{Reason: ReasonInvalidDate}, ValidateMinimumAge(&future, PersonIndividual, now))
	assert.Equal(t, Check{Reason: ReasonEmpty}, ValidateMinimumAge(nil, PersonIndividual, now))
	assert.Equal(t, Check{OK: true, Reason: ReasonNotApplicable}, ValidateMinimumAge(nil, PersonLegalEntity, now))
}

// FuzzValidators checks that validators are total: arbitrary input never
// panics, and a passing check always means the literal pattern matched.
func FuzzValidators(f *testing.F) {
	f.Add("ABCD800101XYZ")
	f.Add("ABCD800101HDFRRN09")
	f.Add("5512345678")
	f.Add("ana@example.com")
	f.Add("")
	f.Add(string([]byte{0xff, 0x00, 0x40}))
	f.Add(strings.Repeat("A", 1000))

	f.Fuzz(func(t *testing.T, input string) {
		for _, pt := range []LegalPersonType{PersonIndividual, PersonIndividualWithBusinessActivity, PersonLegalEntity} {
			if ValidateTaxID(input, pt).OK && !personProfiles[pt].taxIDPattern.MatchString(input) {
				t.Errorf("tax id %q accepted without matching", input)
			}
			if ValidatePopulationID(input, pt).OK && !populationIDPattern.MatchString(input) {
				t.Errorf("population id %q accepted without matching", input)
			}
		}
		if ValidatePhone(input).OK && len(input) != 10 {
			t.Errorf("phone %q accepted with length %d", input, len(input))
		}
		if ValidatePostalCode(input).OK && len(input) != 5 {
			t.Errorf("postal code %q accepted with length %d", input, len(input))
		}
		if ValidateEmail(input).OK && !strings.Contains(input, "@") {
			t.Errorf("email %q accepted without @", input)
		}
	})
}
