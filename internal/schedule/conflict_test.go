package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

// memoryStore implements ConflictStore over an in-memory slice using
// the same half-open predicate the SQL query encodes.
type memoryStore struct {
	reservations []model.Reservation
}

func (m *memoryStore) ListConfirmedOverlapping(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		if r.RoomID != roomID || r.Status != model.StatusConfirmed || r.ID == excludeID {
			continue
		}
		if r.StartTime.Before(end) && start.Before(r.EndTime) {
			out = append(out, r)
		}
	}
	return out, nil
}

func confirmed(id, roomID uint64, start, end time.Time) model.Reservation {
	return model.Reservation{ID: id, RoomID: roomID, StartTime: start, EndTime: end, Status: model.StatusConfirmed}
}

func TestFindConflictsBoundaries(t *testing.T) {
	store := &memoryStore{reservations: []model.Reservation{
		confirmed(1, 7, at(9, 0), at(10, 0)),
		confirmed(2, 7, at(12, 0), at(13, 0)),
		confirmed(3, 8, at(9, 0), at(17, 0)), // other room
	}}
	d := NewDetector(store)
	ctx := context.Background()

	// back-to-back with reservation 1: no conflict
	got, err := d.FindConflicts(ctx, 7, Interval{at(10, 0), at(11, 0)}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// overlapping reservation 1 by a minute
	got, err = d.FindConflicts(ctx, 7, Interval{at(9, 59), at(11, 0)}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)

	// spanning both confirmed windows
	got, err = d.FindConflicts(ctx, 7, Interval{at(9, 30), at(12, 30)}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFindConflictsSortedByStart(t *testing.T) {
	store := &memoryStore{reservations: []model.Reservation{
		confirmed(5, 7, at(14, 0), at(15, 0)),
		confirmed(4, 7, at(9, 0), at(10, 0)),
		confirmed(6, 7, at(11, 0), at(12, 0)),
	}}
	d := NewDetector(store)

	got, err := d.FindConflicts(context.Background(), 7, Interval{at(8, 0), at(18, 0)}, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{4, 6, 5}, []uint64{got[0].ID, got[1].ID, got[2].ID})
}

func TestFindConflictsExcludesSelf(t *testing.T) {
	store := &memoryStore{reservations: []model.Reservation{
		confirmed(9, 7, at(9, 0), at(10, 0)),
	}}
	d := NewDetector(store)

	got, err := d.FindConflicts(context.Background(), 7, Interval{at(9, 0), at(10, 0)}, 9)
	require.NoError(t, err)
	assert.Empty(t, got, "a reservation re-evaluated against itself must not self-conflict")
}

func TestFindConflictsSymmetric(t *testing.T) {
	a := confirmed(1, 7, at(9, 0), at(11, 0))
	b := confirmed(2, 7, at(10, 0), at(12, 0))
	d := NewDetector(&memoryStore{reservations: []model.Reservation{a, b}})
	ctx := context.Background()

	fromA, err := d.FindConflicts(ctx, 7, Interval{a.StartTime, a.EndTime}, a.ID)
	require.NoError(t, err)
	fromB, err := d.FindConflicts(ctx, 7, Interval{b.StartTime, b.EndTime}, b.ID)
	require.NoError(t, err)

	require.Len(t, fromA, 1)
	require.Len(t, fromB, 1)
	assert.Equal(t, b.ID, fromA[0].ID)
	assert.Equal(t, a.ID, fromB[0].ID)
}
