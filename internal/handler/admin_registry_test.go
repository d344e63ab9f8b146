package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/repository"
)

var ruleCols = []string{"id", "role_type", "max_duration_hours", "max_advance_days", "updated_at"}

// MySQL error 1451: row is referenced by a foreign key.
var mysqlFKError = mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}

func newAdminRegistryHandler(t *testing.T) (*AdminRegistryHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAdminRegistryHandler(db,
		repository.NewRoomRepo(db),
		repository.NewRuleRepo(db),
		repository.NewReservationRepo(db),
		repository.NewAuditRepo(db)), mock
}

func registryRoomRow(id uint64) *sqlmock.Rows {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(roomCols).AddRow(
		id, "Lecture Hall A", "104", "B2", "Benguerir", "West wing", "1", "Classroom",
		20, false, true, now, now,
	)
}

func TestDeleteRoomAuditsInOneTransaction(t *testing.T) {
	h, mock := newAdminRegistryHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(registryRoomRow(7))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE room_id = \?\)`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs("rooms", uint64(7), "delete", uint64(1), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectCommit()

	c, rec := adminCtx(t, http.MethodDelete, "/v1/admin/rooms/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.DeleteRoom(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomRefusedWhileReferenced(t *testing.T) {
	h, mock := newAdminRegistryHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(registryRoomRow(7))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE room_id = \?\)`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := adminCtx(t, http.MethodDelete, "/v1/admin/rooms/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.DeleteRoom(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomForeignKeyRaceIsConflict(t *testing.T) {
	h, mock := newAdminRegistryHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(registryRoomRow(7))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE room_id = \?\)`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnError(&mysqlFKError)
	mock.ExpectRollback()

	c, rec := adminCtx(t, http.MethodDelete, "/v1/admin/rooms/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.DeleteRoom(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoomRollsBackWhenAuditFails(t *testing.T) {
	h, mock := newAdminRegistryHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO rooms`).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(8)).
		WillReturnRows(registryRoomRow(8))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WillReturnError(errors.New("ledger unavailable"))
	mock.ExpectRollback()

	c, rec := adminCtx(t, http.MethodPost, "/v1/admin/rooms",
		`{"name":"Lecture Hall A","room_number":"104","capacity":20}`)

	require.NoError(t, h.CreateRoom(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRuleCommitsWithAudit(t *testing.T) {
	h, mock := newAdminRegistryHandler(t)

	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \? LIMIT 1`).
		WithArgs("STAFF").
		WillReturnRows(sqlmock.NewRows(ruleCols).AddRow(2, "STAFF", 4, 30, now))
	mock.ExpectExec(`UPDATE booking_rules SET max_duration_hours = \?, max_advance_days = \?`).
		WithArgs(uint32(6), uint32(45), "STAFF").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \? LIMIT 1`).
		WithArgs("STAFF").
		WillReturnRows(sqlmock.NewRows(ruleCols).AddRow(2, "STAFF", 6, 45, now))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs("booking_rules", uint64(2), "update", uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(56, 1))
	mock.ExpectCommit()

	c, rec := adminCtx(t, http.MethodPut, "/v1/admin/rules/STAFF",
		`{"max_duration_hours":6,"max_advance_days":45}`)
	c.SetParamNames("role")
	c.SetParamValues("STAFF")

	require.NoError(t, h.UpdateRule(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_duration_hours":6`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
