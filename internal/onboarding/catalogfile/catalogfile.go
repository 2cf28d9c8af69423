// Package catalogfile loads the document-type catalog from YAML.
package catalogfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"onboard/internal/onboarding"
	dErrors "onboard/pkg/domain-errors"
)

type file struct {
	DocumentTypes []onboarding.DocumentType `yaml:"document_types"`
}

// Load reads and validates the catalog at path.
func Load(path string) ([]onboarding.DocumentType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a catalog document. Unknown keys are rejected so a typo in a
// flag name cannot silently make a document type apply to nobody.
func Parse(r io.Reader) ([]onboarding.DocumentType, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeValidation, "catalog is empty")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode catalog")
	}
	if err := validate(doc.DocumentTypes); err != nil {
		return nil, err
	}
	return doc.DocumentTypes, nil
}

func validate(types []onboarding.DocumentType) error {
	if len(types) == 0 {
		return dErrors.New(dErrors.CodeValidation, "catalog has no document types")
	}
	seen := make(map[onboarding.DocumentTypeID]bool, len(types))
	for i, t := range types {
		switch {
		case t.ID <= 0:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document_types[%d]: id must be positive", i))
		case seen[t.ID]:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document_types[%d]: duplicate id %d", i, t.ID))
		case strings.TrimSpace(t.Name) == "":
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document_types[%d]: name is required", i))
		case t.ValidityDays != nil && *t.ValidityDays < 0:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document_types[%d]: validity_days must not be negative", i))
		}
		seen[t.ID] = true
	}
	return nil
}
