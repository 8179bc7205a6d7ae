package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/shared/validate"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testListing() *listing.Listing {
	return &listing.Listing{
		ID:          "lst-1",
		Owner:       "own-1",
		LocationID:  "loc-1",
		MaxGuests:   4,
		NightlyRate: money.Must(100_00, "USD"),
		Policy:      string(PolicyFlexible),
		Active:      true,
	}
}

func stay(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	checkIn, err := time.Parse("2006-01-02", in)
	require.NoError(t, err)
	checkOut, err := time.Parse("2006-01-02", out)
	require.NoError(t, err)
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}

func testBreakdown(nights int) pricing.Breakdown {
	bd, _ := pricing.Quote(pricing.QuoteInput{
		Nightly:            money.Must(100_00, "USD"),
		Nights:             nights,
		PlatformFeePercent: pricing.DefaultPlatformFeePercent,
	})
	return bd
}

func placeBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := New(CreateParams{
		ID:       "bkg-1",
		Listing:  testListing(),
		Customer: "cus-1",
		Range:    stay(t, "2024-06-10", "2024-06-14"),
		Guests:   2,
		Price:    testBreakdown(4),
		Now:      testNow,
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := placeBooking(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, PolicyFlexible, b.Policy)
	assert.Equal(t, listing.ListingID("lst-1"), b.ListingID)

	pending := b.PendingEvents()
	require.Len(t, pending, 1)
	created, ok := pending[0].(BookingCreated)
	require.True(t, ok)
	assert.Equal(t, b.Price.Total, created.Total)
}

func TestNewBookingRejectsUnavailableListing(t *testing.T) {
	inactive := testListing()
	inactive.Active = false
	_, err := New(CreateParams{ID: "b", Listing: inactive, Customer: "c",
		Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 1, Now: testNow})
	assert.ErrorIs(t, err, listing.ErrInactive)

	deleted := testListing()
	deleted.Deleted = true
	_, err = New(CreateParams{ID: "b", Listing: deleted, Customer: "c",
		Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 1, Now: testNow})
	assert.ErrorIs(t, err, listing.ErrDeleted)

	_, err = New(CreateParams{ID: "b", Listing: nil, Customer: "c",
		Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 1, Now: testNow})
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr)
	return verr[0].Field
}

func TestNewBookingValidation(t *testing.T) {
	t.Run("missing customer", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(),
			Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 1, Now: testNow})
		assert.Equal(t, "customer", fieldOf(t, err))
	})

	t.Run("stay too long", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
			Range: stay(t, "2024-06-10", "2025-06-30"), Guests: 1, Now: testNow})
		assert.Equal(t, "check_out", fieldOf(t, err))
	})

	t.Run("check-in in the past", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
			Range: stay(t, "2024-05-20", "2024-05-24"), Guests: 1, Now: testNow})
		assert.Equal(t, "check_in", fieldOf(t, err))
	})

	t.Run("check-in too far ahead", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
			Range: stay(t, "2027-06-10", "2027-06-14"), Guests: 1, Now: testNow})
		assert.Equal(t, "check_in", fieldOf(t, err))
	})

	t.Run("zero guests", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
			Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 0, Now: testNow})
		assert.Equal(t, "guests", fieldOf(t, err))
	})

	t.Run("over listing capacity", func(t *testing.T) {
		_, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
			Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 5, Now: testNow})
		assert.Equal(t, "guests", fieldOf(t, err))
	})
}

func TestNewBookingSameDayCheckInAllowed(t *testing.T) {
	b, err := New(CreateParams{ID: "b", Listing: testListing(), Customer: "c",
		Range: stay(t, "2024-06-01", "2024-06-03"), Guests: 1, Price: testBreakdown(2), Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
}

func TestNewBookingUnknownPolicy(t *testing.T) {
	l := testListing()
	l.Policy = "free_cancellation"
	_, err := New(CreateParams{ID: "b", Listing: l, Customer: "c",
		Range: stay(t, "2024-06-10", "2024-06-14"), Guests: 1, Now: testNow})
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestConfirm(t *testing.T) {
	b := placeBooking(t)
	require.NoError(t, b.Confirm(testNow))
	assert.Equal(t, StatusConfirmed, b.Status)

	// Second approval hits the status guard.
	assert.ErrorIs(t, b.Confirm(testNow), ErrInvalidState)
}

func TestReject(t *testing.T) {
	b := placeBooking(t)
	require.NoError(t, b.Reject("dates no longer available", testNow))
	assert.Equal(t, StatusRejected, b.Status)

	assert.ErrorIs(t, b.Reject("again", testNow), ErrInvalidState)
}

func TestStart(t *testing.T) {
	b := placeBooking(t)

	// Only confirmed stays may start.
	assert.ErrorIs(t, b.Start(testNow), ErrInvalidState)

	require.NoError(t, b.Confirm(testNow))
	assert.ErrorIs(t, b.Start(testNow), ErrStayNotStarted)

	checkInDay := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	require.NoError(t, b.Start(checkInDay))
	assert.Equal(t, StatusInProgress, b.Status)
}

func TestComplete(t *testing.T) {
	afterCheckout := time.Date(2024, 6, 14, 11, 0, 0, 0, time.UTC)

	t.Run("from in_progress", func(t *testing.T) {
		b := placeBooking(t)
		require.NoError(t, b.Confirm(testNow))
		require.NoError(t, b.Start(time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)))

		assert.ErrorIs(t, b.Complete(time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)), ErrStayNotFinished)

		require.NoError(t, b.Complete(afterCheckout))
		assert.Equal(t, StatusCompleted, b.Status)
	})

	t.Run("directly from confirmed", func(t *testing.T) {
		b := placeBooking(t)
		require.NoError(t, b.Confirm(testNow))
		require.NoError(t, b.Complete(afterCheckout))
		assert.Equal(t, StatusCompleted, b.Status)
	})

	t.Run("never from pending", func(t *testing.T) {
		b := placeBooking(t)
		assert.ErrorIs(t, b.Complete(afterCheckout), ErrInvalidState)
	})
}

func TestExpire(t *testing.T) {
	b := placeBooking(t)
	require.NoError(t, b.Expire(testNow))
	assert.Equal(t, StatusExpired, b.Status)

	confirmed := placeBooking(t)
	require.NoError(t, confirmed.Confirm(testNow))
	assert.ErrorIs(t, confirmed.Expire(testNow), ErrInvalidState)
}

func TestCancel(t *testing.T) {
	t.Run("pending with full refund", func(t *testing.T) {
		b := placeBooking(t)
		refund, err := b.Cancel("plans changed", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, b.Price.Total, refund)
		assert.Equal(t, StatusCancelled, b.Status)
		assert.Equal(t, "plans changed", b.CancelReason)
		assert.False(t, b.CancelledAt.IsZero())
	})

	t.Run("confirmed inside the flexible cutoff", func(t *testing.T) {
		b := placeBooking(t)
		require.NoError(t, b.Confirm(testNow))
		// Less than 24h before midnight check-in.
		refund, err := b.Cancel("", time.Date(2024, 6, 9, 18, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, refund.IsZero())
		assert.Equal(t, StatusCancelled, b.Status)
	})

	t.Run("on check-in day", func(t *testing.T) {
		b := placeBooking(t)
		_, err := b.Cancel("", time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, ErrAlreadyStarted)
	})

	t.Run("completed is not cancellable", func(t *testing.T) {
		b := placeBooking(t)
		require.NoError(t, b.Confirm(testNow))
		require.NoError(t, b.Complete(time.Date(2024, 6, 14, 11, 0, 0, 0, time.UTC)))
		_, err := b.Cancel("", testNow)
		assert.ErrorIs(t, err, ErrNotCancellable)
	})
}

func TestFindConflict(t *testing.T) {
	existing := []*Booking{
		{ID: "bkg-a", Range: stay(t, "2024-06-01", "2024-06-05"), Status: StatusConfirmed},
		{ID: "bkg-b", Range: stay(t, "2024-06-20", "2024-06-25"), Status: StatusPending},
	}

	err := FindConflict("lst-1", stay(t, "2024-06-04", "2024-06-08"), existing)
	var conflict DateRangeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, BookingID("bkg-a"), conflict.Holder)
	assert.Equal(t, listing.ListingID("lst-1"), conflict.ListingID)

	// Back to back with both stays.
	assert.NoError(t, FindConflict("lst-1", stay(t, "2024-06-05", "2024-06-20"), existing))
	assert.NoError(t, FindConflict("lst-1", stay(t, "2024-07-01", "2024-07-04"), existing))
	assert.NoError(t, FindConflict("lst-1", stay(t, "2024-06-04", "2024-06-08"), nil))
}

func TestIsBlocking(t *testing.T) {
	assert.True(t, IsBlocking(StatusPending, DefaultBlockingStatuses))
	assert.True(t, IsBlocking(StatusInProgress, DefaultBlockingStatuses))
	assert.False(t, IsBlocking(StatusCancelled, DefaultBlockingStatuses))
	assert.False(t, IsBlocking(StatusCompleted, DefaultBlockingStatuses))
}
