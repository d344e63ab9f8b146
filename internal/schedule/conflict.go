package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ConflictStore answers overlap queries against a room's committed
// (confirmed) interval set.  The reservation repository implements it
// both directly and inside a transaction.
type ConflictStore interface {
	ListConfirmedOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error)
}

// Detector reports which confirmed reservations occupy a candidate
// window for a room.  It is a pure reader: findings are advisory for
// pending requests and authoritative only inside the decide
// transaction, where the lifecycle engine re-runs the same query
// under a room lock.
type Detector struct {
	store ConflictStore
}

// NewDetector returns a Detector backed by the given store.
func NewDetector(store ConflictStore) *Detector {
	return &Detector{store: store}
}

// FindConflicts returns the confirmed reservations for roomID whose
// half-open windows overlap win.  excludeID lets a reservation being
// re-evaluated ignore itself; pass 0 to exclude nothing.  The result
// is sorted by start time (then ID) so output is reproducible; an
// empty slice means the window is clear.
func (d *Detector) FindConflicts(ctx context.Context, roomID uint64, win Interval, excludeID uint64) ([]model.Reservation, error) {
	overlapping, err := d.store.ListConfirmedOverlapping(ctx, roomID, win.Start, win.End, excludeID)
	if err != nil {
		return nil, err
	}
	sort.Slice(overlapping, func(i, j int) bool {
		if overlapping[i].StartTime.Equal(overlapping[j].StartTime) {
			return overlapping[i].ID < overlapping[j].ID
		}
		return overlapping[i].StartTime.Before(overlapping[j].StartTime)
	})
	return overlapping, nil
}
