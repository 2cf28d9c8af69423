package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "onboard/pkg/platform/audit"
	txcontext "onboard/pkg/platform/tx"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestAppend(t *testing.T) {
	t.Run("client event keyed by client id", func(t *testing.T) {
		s, mock := newStore(t)
		event := audit.Event{ID: "evt-1", ClientID: 42, Action: string(audit.EventManualReviewRequired)}

		mock.ExpectExec("INSERT INTO outbox").
			WithArgs("evt-1", "client", "42", "manual_review_required", sqlmock.AnyArg(), fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, s.Append(context.Background(), event))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batch event keyed by its own id", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectExec("INSERT INTO outbox").
			WithArgs("evt-2", "batch", "evt-2", "rescore_completed", sqlmock.AnyArg(), fixedNow).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, s.Append(context.Background(), audit.Event{ID: "evt-2", Action: string(audit.EventRescoreCompleted)}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins transaction from context", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := s.db.Begin()
		require.NoError(t, err)
		ctx := txcontext.WithTx(context.Background(), tx)
		require.NoError(t, s.Append(ctx, audit.Event{ClientID: 1, Action: "client_evaluated"}))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectExec("INSERT INTO outbox").WillReturnError(errors.New("connection reset"))

		err := s.Append(context.Background(), audit.Event{ClientID: 1, Action: "client_evaluated"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert outbox entry")
	})
}

func TestListByClient(t *testing.T) {
	s, mock := newStore(t)
	first, _ := json.Marshal(audit.Event{ID: "a", ClientID: 42, Action: "client_evaluated", Confidence: 71})
	second, _ := json.Marshal(audit.Event{ID: "b", ClientID: 42, Action: "manual_review_required"})

	mock.ExpectQuery("SELECT payload").
		WithArgs("client", "42").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(first).AddRow(second))

	events, err := s.ListByClient(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 71, events[0].Confidence)
	assert.Equal(t, "manual_review_required", events[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByClientBadPayload(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery("SELECT payload").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("{")))

	_, err := s.ListByClient(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode outbox payload")
}
