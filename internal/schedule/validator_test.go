package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
)

var staffRule = &model.BookingRule{
	ID:               1,
	RoleType:         model.RoleStaff,
	MaxDurationHours: 2,
	MaxAdvanceDays:   14,
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		rule     *model.BookingRule
		start    time.Time
		end      time.Time
		wantKind ViolationKind // "" means pass
	}{
		{"ok", staffRule, now.Add(time.Hour), now.Add(2 * time.Hour), ""},
		{"exactly max duration passes", staffRule, now.Add(time.Hour), now.Add(3 * time.Hour), ""},
		{"over max duration", staffRule, now.Add(time.Hour), now.Add(4 * time.Hour), DurationExceeded},
		{"end equals start", staffRule, now.Add(time.Hour), now.Add(time.Hour), InvalidWindow},
		{"end before start", staffRule, now.Add(2 * time.Hour), now.Add(time.Hour), InvalidWindow},
		{"exactly at horizon passes", staffRule, now.Add(14 * 24 * time.Hour), now.Add(14*24*time.Hour + time.Hour), ""},
		{"beyond horizon", staffRule, now.Add(14*24*time.Hour + time.Minute), now.Add(14*24*time.Hour + time.Hour), TooFarInAdvance},
		{"no rule fails closed", nil, now.Add(time.Hour), now.Add(2 * time.Hour), MissingRule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pe := ValidateWindow(tc.rule, tc.start, tc.end, now)
			if tc.wantKind == "" {
				assert.Nil(t, pe)
				return
			}
			require.NotNil(t, pe)
			assert.Equal(t, tc.wantKind, pe.Kind)
		})
	}
}

func TestValidateWindowChecksWindowBeforeRule(t *testing.T) {
	// An inverted window must report InvalidWindow even when the rule
	// is missing: the window shape is wrong regardless of policy.
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	pe := ValidateWindow(nil, now.Add(2*time.Hour), now.Add(time.Hour), now)
	require.NotNil(t, pe)
	assert.Equal(t, InvalidWindow, pe.Kind)
}

func TestPolicyErrorMessage(t *testing.T) {
	pe := &PolicyError{Kind: DurationExceeded, Detail: "session longer than 2h allowed for STAFF"}
	assert.Contains(t, pe.Error(), "duration_exceeded")
	assert.Contains(t, pe.Error(), "2h")

	got, ok := AsPolicyError(pe)
	require.True(t, ok)
	assert.Equal(t, DurationExceeded, got.Kind)

	_, ok = AsPolicyError(ErrConflict)
	assert.False(t, ok)
}
