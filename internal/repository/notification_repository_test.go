package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestNotificationMarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notifications SET is_read=1").
		WithArgs("n-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNotificationRepo(db)
	require.NoError(t, repo.MarkRead(context.Background(), "n-1", "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

// Marking a notification read twice affects zero rows the second
// time; the repeat must stay a success rather than turn into a 404.
func TestNotificationMarkReadRepeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notifications SET is_read=1").
		WithArgs("n-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM notifications WHERE id=? AND user_id=?")).
		WithArgs("n-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	repo := NewNotificationRepo(db)
	require.NoError(t, repo.MarkRead(context.Background(), "n-1", "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notifications SET is_read=1").
		WithArgs("n-9", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM notifications WHERE id=? AND user_id=?")).
		WithArgs("n-9", "user-1").
		WillReturnError(sql.ErrNoRows)

	repo := NewNotificationRepo(db)
	err = repo.MarkRead(context.Background(), "n-9", "user-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
