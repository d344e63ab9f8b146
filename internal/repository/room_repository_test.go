package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomTestCols = []string{
	"id", "name", "room_number", "building", "campus", "location", "floor", "room_type",
	"capacity", "is_restricted", "is_active", "created_at", "updated_at",
}

func newMockRoomRepo(t *testing.T) (*RoomRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoomRepo(db), mock
}

func TestDeleteTxMapsForeignKeyToConflict(t *testing.T) {
	repo, mock := newMockRoomRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	mock.ExpectRollback()

	tx, err := repo.DB().BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.DeleteTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDTxReadsWithinTransaction(t *testing.T) {
	repo, mock := newMockRoomRepo(t)

	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(roomTestCols).AddRow(
			7, "Lecture Hall A", "104", "B2", "Benguerir", "West wing", "1", "Classroom",
			20, false, true, now, now,
		))
	mock.ExpectCommit()

	tx, err := repo.DB().BeginTx(context.Background(), nil)
	require.NoError(t, err)

	rm, err := repo.GetByIDTx(context.Background(), tx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rm.ID)
	assert.Equal(t, "Lecture Hall A", rm.Name)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
