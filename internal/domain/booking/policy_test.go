package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/shared/money"
)

func TestRefundPercentSchedule(t *testing.T) {
	checkIn := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		policy   Policy
		cancelAt time.Time
		want     int64
	}{
		{"flexible 30h before", PolicyFlexible, checkIn.Add(-30 * time.Hour), 100},
		{"flexible exactly 24h before", PolicyFlexible, checkIn.Add(-24 * time.Hour), 100},
		{"flexible 10h before", PolicyFlexible, checkIn.Add(-10 * time.Hour), 0},

		{"moderate 6 days before", PolicyModerate, checkIn.AddDate(0, 0, -6), 100},
		{"moderate exactly 5 days before", PolicyModerate, checkIn.AddDate(0, 0, -5), 100},
		{"moderate 4 days before", PolicyModerate, checkIn.AddDate(0, 0, -4), 0},

		{"strict 8 days before", PolicyStrict, checkIn.AddDate(0, 0, -8), 100},
		{"strict exactly 7 days before", PolicyStrict, checkIn.AddDate(0, 0, -7), 100},
		{"strict 3 days before", PolicyStrict, checkIn.AddDate(0, 0, -3), 50},
		{"strict exactly 2 days before", PolicyStrict, checkIn.AddDate(0, 0, -2), 50},
		{"strict 1 day before", PolicyStrict, checkIn.AddDate(0, 0, -1), 0},

		{"super strict 31 days before", PolicySuperStrict, checkIn.AddDate(0, 0, -31), 100},
		{"super strict 20 days before", PolicySuperStrict, checkIn.AddDate(0, 0, -20), 50},
		{"super strict 10 days before", PolicySuperStrict, checkIn.AddDate(0, 0, -10), 0},

		{"non refundable far ahead", PolicyNonRefundable, checkIn.AddDate(0, 0, -90), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.policy.RefundPercent(tc.cancelAt, checkIn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRefundPercentUnknownPolicy(t *testing.T) {
	_, err := Policy("whatever").RefundPercent(time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

// More lead time never yields a smaller refund.
func TestRefundPercentMonotonic(t *testing.T) {
	checkIn := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, policy := range []Policy{PolicyFlexible, PolicyModerate, PolicyStrict, PolicySuperStrict, PolicyNonRefundable} {
		prev := int64(-1)
		for hours := 0; hours <= 40*24; hours += 6 {
			got, err := policy.RefundPercent(checkIn.Add(-time.Duration(hours)*time.Hour), checkIn)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, prev, "policy %s at %dh", policy, hours)
			prev = got
		}
	}
}

func TestRefundReturnsFullTotalAtHundredPercent(t *testing.T) {
	checkIn := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	total := money.Must(333_33, "USD")

	full, err := PolicyFlexible.Refund(total, checkIn.AddDate(0, 0, -2), checkIn)
	require.NoError(t, err)
	assert.Equal(t, total, full)

	half, err := PolicyStrict.Refund(total, checkIn.AddDate(0, 0, -3), checkIn)
	require.NoError(t, err)
	assert.Equal(t, money.Must(166_67, "USD"), half) // 166.665 rounds up

	none, err := PolicyNonRefundable.Refund(total, checkIn.AddDate(0, 0, -90), checkIn)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
	assert.Equal(t, "USD", none.Currency)
}

func TestValidPolicy(t *testing.T) {
	assert.True(t, ValidPolicy(PolicyFlexible))
	assert.True(t, ValidPolicy(PolicyNonRefundable))
	assert.False(t, ValidPolicy(Policy("free_cancellation")))
	assert.False(t, ValidPolicy(Policy("")))
}
