// Package seedfile loads sample onboarding records from YAML so a process
// without a database starts with clients to evaluate.
//
// Document dates are relative to the load time, which keeps expiration
// scenarios meaningful however old the file is.
package seedfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"onboard/internal/onboarding"
	dErrors "onboard/pkg/domain-errors"
)

type file struct {
	Clients []client `yaml:"clients"`
}

type address struct {
	Street       string `yaml:"street"`
	Number       string `yaml:"number"`
	Neighborhood string `yaml:"neighborhood"`
	City         string `yaml:"city"`
	State        string `yaml:"state"`
	PostalCode   string `yaml:"postal_code"`
}

type client struct {
	ID                  int64         `yaml:"id"`
	PersonType          string        `yaml:"person_type"`
	FirstName           string        `yaml:"first_name"`
	LastName            string        `yaml:"last_name"`
	SecondLastName      string        `yaml:"second_last_name"`
	CorporateName       string        `yaml:"corporate_name"`
	LegalRepresentative string        `yaml:"legal_representative"`
	TaxID               string        `yaml:"tax_id"`
	PopulationID        string        `yaml:"population_id"`
	Email               string        `yaml:"email"`
	Phone               string        `yaml:"phone"`
	Address             address       `yaml:"address"`
	BirthDate           string        `yaml:"birth_date"`
	IncorporationDate   string        `yaml:"incorporation_date"`
	Documents           []document    `yaml:"documents"`
	Applications        []application `yaml:"applications"`
}

type document struct {
	ID               int64  `yaml:"id"`
	TypeID           int64  `yaml:"type_id"`
	Status           string `yaml:"status"`
	SubmittedDaysAgo int    `yaml:"submitted_days_ago"`
	ExpiresInDays    *int   `yaml:"expires_in_days"`
	ReviewerComment  string `yaml:"reviewer_comment"`
}

type application struct {
	ID     int64  `yaml:"id"`
	Status string `yaml:"status"`
}

// Seed is the decoded content, ready to be saved.
type Seed struct {
	Clients      []onboarding.Client
	Documents    []onboarding.Document
	Applications []onboarding.Application
}

// Writer is the subset of a record store Apply needs.
type Writer interface {
	SaveClient(ctx context.Context, c onboarding.Client) error
	SaveDocument(ctx context.Context, d onboarding.Document) error
	SaveApplication(ctx context.Context, a onboarding.Application) error
}

// Load reads and validates the seed file at path.
func Load(path string, now time.Time) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f, now)
}

// Parse decodes a seed document. Record ids and enumerations are checked;
// contact fields are kept verbatim since the engine is what grades them.
func Parse(r io.Reader, now time.Time) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeValidation, "seed file is empty")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode seed file")
	}

	seed := &Seed{}
	clientIDs := make(map[int64]bool, len(doc.Clients))
	docIDs := make(map[int64]bool)
	appIDs := make(map[int64]bool)
	for i, c := range doc.Clients {
		at := fmt.Sprintf("clients[%d]", i)
		if c.ID <= 0 {
			return nil, invalid(at, "id must be positive")
		}
		if clientIDs[c.ID] {
			return nil, invalid(at, fmt.Sprintf("duplicate id %d", c.ID))
		}
		clientIDs[c.ID] = true

		personType, err := onboarding.ParseLegalPersonType(c.PersonType)
		if err != nil {
			return nil, invalid(at, err.Error())
		}
		birth, err := optionalDate(c.BirthDate)
		if err != nil {
			return nil, invalid(at, "birth_date: "+err.Error())
		}
		incorporated, err := optionalDate(c.IncorporationDate)
		if err != nil {
			return nil, invalid(at, "incorporation_date: "+err.Error())
		}

		id := onboarding.ClientID(c.ID)
		seed.Clients = append(seed.Clients, onboarding.Client{
			ID:                  id,
			PersonType:          personType,
			FirstName:           c.FirstName,
			LastName:            c.LastName,
			SecondLastName:      c.SecondLastName,
			CorporateName:       c.CorporateName,
			LegalRepresentative: c.LegalRepresentative,
			TaxID:               c.TaxID,
			PopulationID:        c.PopulationID,
			Email:               c.Email,
			Phone:               c.Phone,
			Address: onboarding.Address{
				Street:       c.Address.Street,
				Number:       c.Address.Number,
				Neighborhood: c.Address.Neighborhood,
				City:         c.Address.City,
				State:        c.Address.State,
				PostalCode:   c.Address.PostalCode,
			},
			BirthDate:         birth,
			IncorporationDate: incorporated,
			CreatedAt:         now,
			UpdatedAt:         now,
		})

		for j, d := range c.Documents {
			at := fmt.Sprintf("%s.documents[%d]", at, j)
			switch {
			case d.ID <= 0:
				return nil, invalid(at, "id must be positive")
			case docIDs[d.ID]:
				return nil, invalid(at, fmt.Sprintf("duplicate id %d", d.ID))
			case d.TypeID <= 0:
				return nil, invalid(at, "type_id must be positive")
			case !onboarding.DocumentStatus(d.Status).IsValid():
				return nil, invalid(at, fmt.Sprintf("unknown status %q", d.Status))
			case d.SubmittedDaysAgo < 0:
				return nil, invalid(at, "submitted_days_ago must not be negative")
			}
			docIDs[d.ID] = true

			submitted := now.AddDate(0, 0, -d.SubmittedDaysAgo)
			var expires *time.Time
			if d.ExpiresInDays != nil {
				t := now.AddDate(0, 0, *d.ExpiresInDays)
				expires = &t
			}
			seed.Documents = append(seed.Documents, onboarding.Document{
				ID:              onboarding.DocumentID(d.ID),
				ClientID:        id,
				TypeID:          onboarding.DocumentTypeID(d.TypeID),
				SubmittedAt:     submitted,
				DocumentDate:    submitted,
				ExpiresAt:       expires,
				Status:          onboarding.DocumentStatus(d.Status),
				ReviewerComment: d.ReviewerComment,
			})
		}

		for j, a := range c.Applications {
			at := fmt.Sprintf("%s.applications[%d]", at, j)
			switch {
			case a.ID <= 0:
				return nil, invalid(at, "id must be positive")
			case appIDs[a.ID]:
				return nil, invalid(at, fmt.Sprintf("duplicate id %d", a.ID))
			case !onboarding.ApplicationStatus(a.Status).IsValid():
				return nil, invalid(at, fmt.Sprintf("unknown status %q", a.Status))
			}
			appIDs[a.ID] = true
			seed.Applications = append(seed.Applications, onboarding.Application{
				ID:       onboarding.ApplicationID(a.ID),
				ClientID: id,
				Status:   onboarding.ApplicationStatus(a.Status),
			})
		}
	}
	return seed, nil
}

// Apply saves clients first so stores with foreign keys accept the rest.
func Apply(ctx context.Context, w Writer, seed *Seed) error {
	for _, c := range seed.Clients {
		if err := w.SaveClient(ctx, c); err != nil {
			return fmt.Errorf("seed client %d: %w", c.ID, err)
		}
	}
	for _, d := range seed.Documents {
		if err := w.SaveDocument(ctx, d); err != nil {
			return fmt.Errorf("seed document %d: %w", d.ID, err)
		}
	}
	for _, a := range seed.Applications {
		if err := w.SaveApplication(ctx, a); err != nil {
			return fmt.Errorf("seed application %d: %w", a.ID, err)
		}
	}
	return nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

func invalid(at, msg string) error {
	return dErrors.New(dErrors.CodeValidation, at+": "+msg)
}
