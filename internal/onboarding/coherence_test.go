package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "onboard/pkg/domain-errors"
)

func TestDocumentExpiration(t *testing.T) {
	catalog := NewCatalog(testCatalog())

	t.Run("type without validity never expires", func(t *testing.T) {
		d := doc(1, 1, typeOfficialID, DocumentAccepted, 4000)
		_, ok := d.Expiration(catalog)
		assert.False(t, ok)
		assert.False(t, d.ExpiredAt(evalTime, catalog))
	})

	t.Run("submission date plus validity", func(t *testing.T) {
		d := doc(1, 1, typeAccountStatement, DocumentAccepted, 10)
		exp, ok := d.Expiration(catalog)
		require.True(t, ok)
		assert.Equal(t, evalTime.AddDate(0, 0, 20), exp)
	})

	t.Run("document date used when submission is missing", func(t *testing.T) {
		d := Document{ID: 1, ClientID: 1, TypeID: typeAccountStatement, DocumentDate: evalTime.AddDate(0, 0, -31)}
		assert.True(t, d.ExpiredAt(evalTime, catalog))
	})

	t.Run("earlier stored expiration wins", func(t *testing.T) {
		stored := evalTime.AddDate(0, 0, -1)
		d := doc(1, 1, typeAccountStatement, DocumentAccepted, 2)
		d.ExpiresAt = &stored
		exp, ok := d.Expiration(catalog)
		require.True(t, ok)
		assert.Equal(t, stored, exp)
		assert.False(t, d.IsActive(evalTime, catalog))
	})

	t.Run("exactly at the boundary is not expired", func(t *testing.T) {
		d := doc(1, 1, typeAccountStatement, DocumentAccepted, 30)
		assert.False(t, d.ExpiredAt(evalTime, catalog))
		assert.True(t, d.ExpiredAt(evalTime.Add(time.Second), catalog))
	})
}

func TestCheckCoherenceApplicability(t *testing.T) {
	catalog := NewCatalog(testCatalog())

	t.Run("entity-only type on an individual is invalid", func(t *testing.T) {
		c := individualClient()
		results, err := CheckCoherence(c, []Document{doc(10, c.ID, typeArticlesOfIncorporation, DocumentPending, 1)}, catalog, evalTime)
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, RuleDocumentApplicability, r.RuleID)
		assert.Equal(t, OutcomeInvalid, r.Outcome)
		assert.Equal(t, CategoryLegal, r.Category)
		assert.Equal(t, ReasonNotApplicable, r.Reason)
		require.NotNil(t, r.DocumentID)
		assert.Equal(t, DocumentID(10), *r.DocumentID)
		assert.NotEmpty(t, r.Actions)
	})

	t.Run("applicable type is valid", func(t *testing.T) {
		c := entityClient()
		results, err := CheckCoherence(c, []Document{doc(11, c.ID, typeArticlesOfIncorporation, DocumentAccepted, 1)}, catalog, evalTime)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, OutcomeValid, results[0].Outcome)
	})

	t.Run("unknown type is invalid, not an error", func(t *testing.T) {
		c := individualClient()
		results, err := CheckCoherence(c, []Document{doc(12, c.ID, 99, DocumentPending, 1)}, catalog, evalTime)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, OutcomeInvalid, results[0].Outcome)
		assert.Equal(t, ReasonUnknownType, results[0].Reason)
	})

	t.Run("document of another client aborts", func(t *testing.T) {
		c := individualClient()
		_, err := CheckCoherence(c, []Document{doc(13, 77, typeOfficialID, DocumentPending, 1)}, catalog, evalTime)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.ErrorIs(t, err, ErrClientNotFound)
	})
}

func TestCheckCoherenceDuplicates(t *testing.T) {
	catalog := NewCatalog(testCatalog())
	c := individualClient()

	t.Run("later submission is flagged", func(t *testing.T) {
		docs := []Document{
			doc(21, c.ID, typeOfficialID, DocumentPending, 2),
			doc(20, c.ID, typeOfficialID, DocumentAccepted, 5),
		}
		results, err := CheckCoherence(c, docs, catalog, evalTime)
		require.NoError(t, err)

		dups := resultsFor(results, RuleDocumentDuplicate)
		require.Len(t, dups, 1)
		assert.Equal(t, DocumentID(21), *dups[0].DocumentID)
		assert.Equal(t, OutcomeWarning, dups[0].Outcome)
		assert.Contains(t, dups[0].Detail, "duplicates active document 20")
	})

	t.Run("same submission instant keeps the lowest id", func(t *testing.T) {
		docs := []Document{
			doc(31, c.ID, typeOfficialID, DocumentPending, 3),
			doc(30, c.ID, typeOfficialID, DocumentPending, 3),
		}
		results, err := CheckCoherence(c, docs, catalog, evalTime)
		require.NoError(t, err)

		dups := resultsFor(results, RuleDocumentDuplicate)
		require.Len(t, dups, 1)
		assert.Equal(t, DocumentID(31), *dups[0].DocumentID)
	})

	t.Run("rejected and expired documents do not count", func(t *testing.T) {
		docs := []Document{
			doc(40, c.ID, typeOfficialID, DocumentRejected, 9),
			doc(41, c.ID, typeOfficialID, DocumentExpired, 8),
			doc(42, c.ID, typeOfficialID, DocumentPending, 1),
		}
		results, err := CheckCoherence(c, docs, catalog, evalTime)
		require.NoError(t, err)
		assert.Empty(t, resultsFor(results, RuleDocumentDuplicate))
	})
}

func TestCheckCoherenceStaleStatus(t *testing.T) {
	catalog := NewCatalog(testCatalog())
	c := individualClient()

	t.Run("accepted past its validity window", func(t *testing.T) {
		results, err := CheckCoherence(c, []Document{doc(50, c.ID, typeAccountStatement, DocumentAccepted, 45)}, catalog, evalTime)
		require.NoError(t, err)

		stale := resultsFor(results, RuleDocumentExpiration)
		require.Len(t, stale, 1)
		assert.Equal(t, OutcomeWarning, stale[0].Outcome)
		assert.Equal(t, ReasonStaleStatus, stale[0].Reason)
		assert.Contains(t, stale[0].Actions, "Mark document 50 as expired")
	})

	t.Run("already marked expired is quiet", func(t *testing.T) {
		results, err := CheckCoherence(c, []Document{doc(51, c.ID, typeAccountStatement, DocumentExpired, 45)}, catalog, evalTime)
		require.NoError(t, err)
		assert.Empty(t, resultsFor(results, RuleDocumentExpiration))
	})

	t.Run("rejected past its validity window is still flagged", func(t *testing.T) {
		results, err := CheckCoherence(c, []Document{doc(53, c.ID, typeProofOfAddress, DocumentRejected, 200)}, catalog, evalTime)
		require.NoError(t, err)

		stale := resultsFor(results, RuleDocumentExpiration)
		require.Len(t, stale, 1)
		assert.Equal(t, ReasonStaleStatus, stale[0].Reason)
		assert.Contains(t, stale[0].Detail, "still marked rejected")
	})

	t.Run("within window is quiet", func(t *testing.T) {
		results, err := CheckCoherence(c, []Document{doc(52, c.ID, typeAccountStatement, DocumentAccepted, 5)}, catalog, evalTime)
		require.NoError(t, err)
		assert.Empty(t, resultsFor(results, RuleDocumentExpiration))
	})
}

func TestCheckCoherenceDoesNotMutate(t *testing.T) {
	catalog := NewCatalog(testCatalog())
	c := individualClient()
	docs := []Document{
		doc(61, c.ID, typeOfficialID, DocumentPending, 1),
		doc(60, c.ID, typeOfficialID, DocumentAccepted, 40),
	}
	before := append([]Document(nil), docs...)

	_, err := CheckCoherence(c, docs, catalog, evalTime)
	require.NoError(t, err)
	assert.Equal(t, before, docs)
}

func TestCheckDocument(t *testing.T) {
	catalog := NewCatalog(testCatalog())
	c := individualClient()
	docs := []Document{
		doc(70, c.ID, typeOfficialID, DocumentAccepted, 10),
		doc(71, c.ID, typeOfficialID, DocumentPending, 1),
	}

	t.Run("only results about the document", func(t *testing.T) {
		results, err := CheckDocument(c, 71, docs, catalog, evalTime)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, DocumentID(71), *r.DocumentID)
		}
		assert.Len(t, resultsFor(results, RuleDocumentDuplicate), 1)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := CheckDocument(c, 999, docs, catalog, evalTime)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}
