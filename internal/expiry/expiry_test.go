package expiry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyc-compliance/kyc-intake/internal/common"
)

var today = time.Date(2026, 3, 15, 11, 42, 7, 0, time.Local)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		idExpiry string
		state    State
		days     int
	}{
		{"long expired", "2023-08-20", Expired, -938},
		{"expired yesterday", "2026-03-14", Expired, -1},
		{"expires today", "2026-03-15", ExpiringSoon, 0},
		{"expires in a week", "2026-03-22", ExpiringSoon, 7},
		{"window edge", "2026-04-14", ExpiringSoon, 30},
		{"just past window", "2026-04-15", Valid, 31},
		{"far future", "2030-01-01", Valid, 1388},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Classify(tc.idExpiry, today)
			require.NoError(t, err)
			assert.Equal(t, tc.state, c.State)
			assert.Equal(t, tc.days, c.Days)
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	early := time.Date(2026, 3, 15, 0, 0, 1, 0, time.UTC)
	late := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)

	a, err := Classify("2026-03-16", early)
	require.NoError(t, err)
	b, err := Classify("2026-03-16", late)
	require.NoError(t, err)
	assert.Equal(t, a.Days, b.Days)
	assert.Equal(t, 1, a.Days)
}

func TestClassifyBadDate(t *testing.T) {
	for _, bad := range []string{"", "N/A", "20-20-20", "2026/03/15"} {
		_, err := Classify(bad, today)
		assert.True(t, errors.Is(err, common.ErrDateParse), "input %q", bad)
	}
}

func TestFlagWording(t *testing.T) {
	assert.Equal(t, "ID expired 12 days ago on 2026-03-03", ExpiredFlag(12, "2026-03-03"))
	assert.Equal(t, "ID expires in 5 days", ExpiringFlag(5))
	assert.Equal(t, "REJECTED: ID expired 12 days ago. ", RejectionNotice(12))
}
