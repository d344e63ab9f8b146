package schedule

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
)

var testClock = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, publish PublishFunc) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := NewEngine(
		db,
		repository.NewReservationRepo(db),
		repository.NewRoomRepo(db),
		repository.NewRuleRepo(db),
		repository.NewAuditRepo(db),
		repository.NewNotificationRepo(db),
		publish,
	)
	e.now = func() time.Time { return testClock }
	return e, mock
}

var reservationCols = []string{
	"id", "room_id", "user_id", "start_time", "end_time", "purpose", "status",
	"decided_by", "decision_notes", "decided_at", "created_at", "updated_at",
}

var roomCols = []string{
	"id", "name", "room_number", "building", "campus", "location", "floor", "room_type",
	"capacity", "is_restricted", "is_active", "created_at", "updated_at",
}

func pendingRow(id uint64) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(
		id, 7, 11, at(9, 0), at(10, 0), "Seminar", "PENDING",
		nil, nil, nil, testClock, testClock,
	)
}

func decidedRow(id uint64, status string, actor uint64, notes string) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(
		id, 7, 11, at(9, 0), at(10, 0), "Seminar", status,
		actor, notes, testClock, testClock, testClock,
	)
}

func roomRow(id uint64, name string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(roomCols).AddRow(
		id, name, "104", "B2", "Benguerir", "West wing", "1", "Classroom",
		20, false, active, testClock, testClock,
	)
}

func expectReservationSelect(mock sqlmock.Sqlmock, forUpdate bool) *sqlmock.ExpectedQuery {
	pattern := `SELECT id, room_id, user_id, .+ FROM reservations WHERE id = \?`
	if forUpdate {
		pattern += ` FOR UPDATE`
	}
	return mock.ExpectQuery(pattern)
}

func TestDecideNotFound(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectBegin()
	expectReservationSelect(mock, true).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := e.Decide(context.Background(), DecideInput{ReservationID: 99, Decision: DecisionConfirm, ActorID: 2})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAlreadyDecided(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectBegin()
	expectReservationSelect(mock, true).WithArgs(uint64(41)).
		WillReturnRows(decidedRow(41, "CONFIRMED", 2, ""))
	mock.ExpectRollback()

	_, err := e.Decide(context.Background(), DecideInput{ReservationID: 41, Decision: DecisionConfirm, ActorID: 2})
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideConfirmConflictRollsBack(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectBegin()
	expectReservationSelect(mock, true).WithArgs(uint64(41)).WillReturnRows(pendingRow(41))
	mock.ExpectQuery(`SELECT id FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM reservations WHERE room_id = \? AND status = \? AND start_time < \? AND end_time > \? AND id <> \?`).
		WithArgs(uint64(7), "CONFIRMED", at(10, 0), at(9, 0), uint64(41)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			33, 7, 12, at(9, 30), at(10, 30), "Workshop", "CONFIRMED",
			2, "", testClock, testClock, testClock,
		))
	mock.ExpectRollback()

	_, err := e.Decide(context.Background(), DecideInput{ReservationID: 41, Decision: DecisionConfirm, ActorID: 2})
	assert.ErrorIs(t, err, ErrConflict)
	// no UPDATE, no audit record, no notification
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideConfirmSuccess(t *testing.T) {
	published := make(chan queue.ReservationDecidedEvent, 1)
	e, mock := newTestEngine(t, func(_ context.Context, ev queue.ReservationDecidedEvent) error {
		published <- ev
		return nil
	})

	mock.ExpectBegin()
	expectReservationSelect(mock, true).WithArgs(uint64(41)).WillReturnRows(pendingRow(41))
	mock.ExpectQuery(`SELECT id FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM reservations WHERE room_id = \? AND status = \?`).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(`UPDATE reservations SET status = \?, decided_by = \?, decision_notes = \?, decided_at = \? WHERE id = \? AND status = \?`).
		WithArgs("CONFIRMED", uint64(2), "all clear", testClock, uint64(41), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectReservationSelect(mock, true).WithArgs(uint64(41)).
		WillReturnRows(decidedRow(41, "CONFIRMED", 2, "all clear"))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs("reservations", uint64(41), "update", uint64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(71, 1))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(roomRow(7, "Lecture Hall A", true))
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(uint64(11), uint64(41), "Booking Confirmed",
			"Your request for Lecture Hall A has been approved. Please ensure you check in on time.",
			"success").
		WillReturnResult(sqlmock.NewResult(91, 1))
	mock.ExpectCommit()

	res, err := e.Decide(context.Background(), DecideInput{
		ReservationID: 41, Decision: DecisionConfirm, ActorID: 2, Notes: "all clear",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	require.NotNil(t, res.DecidedBy)
	assert.Equal(t, uint64(2), *res.DecidedBy)
	assert.NoError(t, mock.ExpectationsWereMet())

	select {
	case ev := <-published:
		assert.Equal(t, uint64(41), ev.ReservationID)
		assert.Equal(t, "CONFIRMED", ev.Decision)
		assert.Equal(t, "Lecture Hall A", ev.RoomName)
	case <-time.After(2 * time.Second):
		t.Fatal("decision event was not published")
	}
}

func TestDecideRejectSkipsConflictCheck(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectBegin()
	expectReservationSelect(mock, true).WithArgs(uint64(41)).WillReturnRows(pendingRow(41))
	// no room lock, no overlap query for a rejection
	mock.ExpectExec(`UPDATE reservations SET status = \?`).
		WithArgs("REJECTED", uint64(2), "double booked", testClock, uint64(41), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectReservationSelect(mock, true).WithArgs(uint64(41)).
		WillReturnRows(decidedRow(41, "REJECTED", 2, "double booked"))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs("reservations", uint64(41), "update", uint64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(72, 1))
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(roomRow(7, "Lecture Hall A", true))
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(uint64(11), uint64(41), "Booking Update",
			"Regrettably, your request for Lecture Hall A was not approved. double booked",
			"warning").
		WillReturnResult(sqlmock.NewResult(92, 1))
	mock.ExpectCommit()

	res, err := e.Decide(context.Background(), DecideInput{
		ReservationID: 41, Decision: DecisionReject, ActorID: 2, Notes: "double booked",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPolicyViolationCreatesNothing(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(roomRow(7, "Lecture Hall A", true))
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \?`).
		WithArgs("STAFF").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role_type", "max_duration_hours", "max_advance_days", "updated_at"}).
			AddRow(1, "STAFF", 2, 14, testClock))

	_, _, err := e.Submit(context.Background(), SubmitInput{
		RoomID: 7, UserID: 11, Role: model.RoleStaff,
		Start: testClock.Add(time.Hour), End: testClock.Add(4 * time.Hour), Purpose: "Seminar",
	})
	pe, ok := AsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, DurationExceeded, pe.Kind)
	// no transaction was even opened
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitMissingRuleFailsClosed(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(roomRow(7, "Lecture Hall A", true))
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \?`).
		WithArgs("USER").
		WillReturnError(sql.ErrNoRows)

	_, _, err := e.Submit(context.Background(), SubmitInput{
		RoomID: 7, UserID: 11, Role: model.RoleUser,
		Start: testClock.Add(time.Hour), End: testClock.Add(2 * time.Hour), Purpose: "Club meeting",
	})
	pe, ok := AsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, MissingRule, pe.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitRestrictedRoomNeedsClearance(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	restricted := func() *sqlmock.Rows {
		return sqlmock.NewRows(roomCols).AddRow(
			8, "Server Room", "001", "B1", "Benguerir", "Basement", "0", "Lab",
			4, true, true, testClock, testClock,
		)
	}

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(8)).
		WillReturnRows(restricted())

	_, _, err := e.Submit(context.Background(), SubmitInput{
		RoomID: 8, UserID: 11, Role: model.RoleUser,
		Start: testClock.Add(time.Hour), End: testClock.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrRestrictedRoom)

	// STAFF clears the gate and proceeds to rule validation.
	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(8)).
		WillReturnRows(restricted())
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \?`).
		WithArgs("STAFF").
		WillReturnError(sql.ErrNoRows)

	_, _, err = e.Submit(context.Background(), SubmitInput{
		RoomID: 8, UserID: 11, Role: model.RoleStaff,
		Start: testClock.Add(time.Hour), End: testClock.Add(2 * time.Hour),
	})
	pe, ok := AsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, MissingRule, pe.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitUnknownRoom(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	_, _, err := e.Submit(context.Background(), SubmitInput{
		RoomID: 404, UserID: 11, Role: model.RoleStaff,
		Start: testClock.Add(time.Hour), End: testClock.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSuccessReturnsAdvisoryConflicts(t *testing.T) {
	e, mock := newTestEngine(t, nil)

	start := testClock.Add(time.Hour)
	end := testClock.Add(2 * time.Hour)

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(roomRow(7, "Lecture Hall A", true))
	mock.ExpectQuery(`FROM booking_rules WHERE role_type = \?`).
		WithArgs("STAFF").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role_type", "max_duration_hours", "max_advance_days", "updated_at"}).
			AddRow(1, "STAFF", 2, 14, testClock))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(7), uint64(11), start, end, "Seminar", "PENDING").
		WillReturnResult(sqlmock.NewResult(41, 1))
	expectReservationSelect(mock, false).WithArgs(int64(41)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			41, 7, 11, start, end, "Seminar", "PENDING",
			nil, nil, nil, testClock, testClock,
		))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs("reservations", uint64(41), "create", uint64(11), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(73, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM reservations WHERE room_id = \? AND status = \?`).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			33, 7, 12, start.Add(30*time.Minute), end.Add(30*time.Minute), "Workshop", "CONFIRMED",
			2, "", testClock, testClock, testClock,
		))

	res, advisory, err := e.Submit(context.Background(), SubmitInput{
		RoomID: 7, UserID: 11, Role: model.RoleStaff, Start: start, End: end, Purpose: "Seminar",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(41), res.ID)
	assert.Equal(t, model.StatusPending, res.Status)
	require.Len(t, advisory, 1, "overlap is advisory, submission still succeeds")
	assert.Equal(t, uint64(33), advisory[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
