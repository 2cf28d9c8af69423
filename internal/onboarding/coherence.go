package onboarding

import (
	"fmt"
	"sort"
	"time"
)

// Expiration returns the instant a document stops being valid evidence: the
// stored expiration date or, for types with a validity window, the
// submission date (document date when no submission date was recorded) plus
// that window, whichever comes first. False means it never expires.
func (d Document) Expiration(catalog *Catalog) (time.Time, bool) {
	var (
		exp   time.Time
		found bool
	)
	if d.ExpiresAt != nil && !d.ExpiresAt.IsZero() {
		exp, found = *d.ExpiresAt, true
	}
	if days, ok := catalog.ValidityDays(d.TypeID); ok {
		base := d.SubmittedAt
		if base.IsZero() {
			base = d.DocumentDate
		}
		if !base.IsZero() {
			computed := base.AddDate(0, 0, days)
			if !found || computed.Before(exp) {
				exp, found = computed, true
			}
		}
	}
	return exp, found
}

// ExpiredAt reports logical expiration regardless of the stored status.
func (d Document) ExpiredAt(now time.Time, catalog *Catalog) bool {
	exp, ok := d.Expiration(catalog)
	return ok && now.After(exp)
}

// IsActive is true for documents still standing as evidence: not rejected,
// not marked expired and not logically expired.
func (d Document) IsActive(now time.Time, catalog *Catalog) bool {
	switch d.Status {
	case DocumentPending, DocumentAccepted:
		return !d.ExpiredAt(now, catalog)
	}
	return false
}

// IsVerified is true for accepted documents that have not lapsed.
func (d Document) IsVerified(now time.Time, catalog *Catalog) bool {
	return d.Status == DocumentAccepted && !d.ExpiredAt(now, catalog)
}

// CheckCoherence cross-checks every document against the owning client and
// the catalog. Each document yields one applicability result, plus warnings
// for duplicates and stale status. Documents are never modified.
//
// A document owned by another client is a reference failure and aborts the
// evaluation.
func CheckCoherence(client Client, docs []Document, catalog *Catalog, now time.Time) ([]ValidationResult, error) {
	for _, d := range docs {
		if d.ClientID != client.ID {
			return nil, foreignReference("document", int64(d.ID), d.ClientID, client.ID)
		}
	}

	duplicates := duplicateDocuments(docs, catalog, now)
	results := make([]ValidationResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, applicabilityResult(client, d, catalog))
		if original, ok := duplicates[d.ID]; ok {
			results = append(results, duplicateResult(d, original, catalog))
		}
		if r, ok := staleStatusResult(d, catalog, now); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// CheckDocument runs the coherence checks and keeps only the results about
// one document. The other documents are still needed to spot duplicates.
func CheckDocument(client Client, id DocumentID, docs []Document, catalog *Catalog, now time.Time) ([]ValidationResult, error) {
	found := false
	for _, d := range docs {
		if d.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrDocumentNotFound
	}

	all, err := CheckCoherence(client, docs, catalog, now)
	if err != nil {
		return nil, err
	}
	out := make([]ValidationResult, 0, 3)
	for _, r := range all {
		if r.DocumentID != nil && *r.DocumentID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func applicabilityResult(client Client, d Document, catalog *Catalog) ValidationResult {
	t, ok := catalog.Lookup(d.TypeID)
	if !ok {
		return forDocument(newResult(RuleDocumentApplicability, OutcomeInvalid, ReasonUnknownType,
			fmt.Sprintf("Document %d references unknown document type %d", d.ID, d.TypeID),
			fmt.Sprintf("Reclassify document %d with a catalog type", d.ID)), d.ID)
	}
	personLabel := client.PersonType.Label()
	if !t.AppliesTo(client.PersonType) {
		return forDocument(newResult(RuleDocumentApplicability, OutcomeInvalid, ReasonNotApplicable,
			fmt.Sprintf("%s (document %d) does not apply to %s clients", t.Name, d.ID, personLabel),
			fmt.Sprintf("Replace document %d with one valid for %s clients", d.ID, personLabel)), d.ID)
	}
	return forDocument(newResult(RuleDocumentApplicability, OutcomeValid, ReasonNone,
		fmt.Sprintf("%s (document %d) applies to %s clients", t.Name, d.ID, personLabel)), d.ID)
}

func duplicateResult(d Document, original DocumentID, catalog *Catalog) ValidationResult {
	return forDocument(newResult(RuleDocumentDuplicate, OutcomeWarning, ReasonDuplicate,
		fmt.Sprintf("%s (document %d) duplicates active document %d", catalog.Name(d.TypeID), d.ID, original),
		fmt.Sprintf("Reject or withdraw duplicate document %d", d.ID)), d.ID)
}

func staleStatusResult(d Document, catalog *Catalog, now time.Time) (ValidationResult, bool) {
	if d.Status == DocumentExpired {
		return ValidationResult{}, false
	}
	exp, ok := d.Expiration(catalog)
	if !ok || !now.After(exp) {
		return ValidationResult{}, false
	}
	name := catalog.Name(d.TypeID)
	return forDocument(newResult(RuleDocumentExpiration, OutcomeWarning, ReasonStaleStatus,
		fmt.Sprintf("%s (document %d) expired on %s but is still marked %s", name, d.ID, exp.Format(time.DateOnly), d.Status),
		fmt.Sprintf("Mark document %d as expired", d.ID),
		fmt.Sprintf("Request an updated %s", name)), d.ID), true
}

// duplicateDocuments maps each redundant active document to the one it
// duplicates. Within a type the earliest submission (then lowest id) is kept.
func duplicateDocuments(docs []Document, catalog *Catalog, now time.Time) map[DocumentID]DocumentID {
	byType := make(map[DocumentTypeID][]Document)
	for _, d := range docs {
		if d.IsActive(now, catalog) {
			byType[d.TypeID] = append(byType[d.TypeID], d)
		}
	}

	out := make(map[DocumentID]DocumentID)
	for _, group := range byType {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].SubmittedAt.Equal(group[j].SubmittedAt) {
				return group[i].SubmittedAt.Before(group[j].SubmittedAt)
			}
			return group[i].ID < group[j].ID
		})
		for _, d := range group[1:] {
			out[d.ID] = group[0].ID
		}
	}
	return out
}
