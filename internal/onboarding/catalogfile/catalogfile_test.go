package catalogfile

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/onboarding"
	dErrors "onboard/pkg/domain-errors"
)

func repoCatalog(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "config", "catalog.yaml")
}

func TestLoadShippedCatalog(t *testing.T) {
	types, err := Load(repoCatalog(t))
	require.NoError(t, err)
	require.Len(t, types, 6)

	catalog := onboarding.NewCatalog(types)
	days, ok := catalog.ValidityDays(2)
	require.True(t, ok)
	assert.Equal(t, 90, days)

	_, ok = catalog.ValidityDays(1)
	assert.False(t, ok, "official id never expires")

	assert.False(t, catalog.AppliesTo(3, onboarding.PersonIndividual))
	assert.True(t, catalog.AppliesTo(3, onboarding.PersonLegalEntity))

	var required []string
	for _, dt := range catalog.Required(onboarding.PersonIndividual) {
		required = append(required, dt.Name)
	}
	assert.Equal(t, []string{"Official identification", "Proof of address"}, required)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty document":  ``,
		"no types":        "document_types: []\n",
		"zero id":         "document_types:\n  - id: 0\n    name: X\n",
		"duplicate id":    "document_types:\n  - id: 1\n    name: A\n  - id: 1\n    name: B\n",
		"blank name":      "document_types:\n  - id: 1\n    name: '  '\n",
		"negative window": "document_types:\n  - id: 1\n    name: A\n    validity_days: -3\n",
		"unknown key":     "document_types:\n  - id: 1\n    name: A\n    applies_to_everyone: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open catalog")
}
