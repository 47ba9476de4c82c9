package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/issue"
)

func TestStore_UpdateIssue(t *testing.T) {
	t.Run("Moves", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		iss := &issue.Issue{
			ID:               uuid.New(),
			Status:           issue.StatusResolved,
			ResolutionType:   issue.ResolutionCreditMemo,
			ResolutionStatus: issue.ResolutionCompleted,
			ResolvedAt:       new(time.Now()),
		}

		mock.ExpectExec(`UPDATE issues`).
			WithArgs(iss.Status, sqlmock.AnyArg(), iss.ResolutionStatus, iss.ResolvedAt, iss.ID, issue.StatusOpen).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = New(db).UpdateIssue(context.Background(), iss, issue.StatusOpen)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFoundWhenRowMoved", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		iss := &issue.Issue{ID: uuid.New(), Status: issue.StatusClosed}

		mock.ExpectExec(`UPDATE issues`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = New(db).UpdateIssue(context.Background(), iss, issue.StatusResolved)
		assert.ErrorIs(t, err, issue.ErrNotFound)
	})
}

func TestStore_AppendCommunication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	comm := &issue.Communication{
		IssueID:   uuid.New(),
		Kind:      issue.CommEmail,
		Content:   "Requested a credit memo for the damaged cases.",
		Recipient: "ap@crestline.example",
	}

	id := uuid.New()
	now := time.Now()

	// Appends run in a transaction holding a per-issue advisory lock, so two
	// concurrent appends cannot read the same MAX(seq).
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(commLockKey(comm.IssueID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO issue_communications`).
		WithArgs(comm.IssueID, comm.Kind, comm.Content, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "created_at"}).
			AddRow(id, int64(3), now))
	mock.ExpectCommit()

	err = New(db).AppendCommunication(context.Background(), comm)
	require.NoError(t, err)

	assert.Equal(t, id, comm.ID)
	assert.Equal(t, 3, comm.Seq)
	assert.Equal(t, now, comm.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetIssue_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM issues s WHERE s.id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = New(db).GetIssue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, issue.ErrNotFound)
}
