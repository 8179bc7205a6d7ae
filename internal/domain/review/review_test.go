package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/validate"
)

var testNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func ratingOf(v int) *int { return &v }

func completedBooking() *booking.Booking {
	return &booking.Booking{
		ID:        "bkg-1",
		ListingID: "lst-1",
		Customer:  "cus-1",
		Status:    booking.StatusCompleted,
	}
}

func reviewedListing() *listing.Listing {
	return &listing.Listing{ID: "lst-1", Owner: "own-1", Active: true}
}

func TestNewReview(t *testing.T) {
	r, err := New(CreateParams{
		ID:       "rev-1",
		Booking:  completedBooking(),
		Listing:  reviewedListing(),
		Reviewer: "cus-1",
		Rating:   ratingOf(5),
		Comment:  "Great stay, spotless apartment.",
		Now:      testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, listing.OwnerID("own-1"), r.Owner)
	assert.True(t, r.Visible)
	assert.True(t, r.Verified)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 5, *r.Rating)
	require.Len(t, r.PendingEvents(), 1)
}

func TestNewReviewGuards(t *testing.T) {
	t.Run("booking not completed", func(t *testing.T) {
		b := completedBooking()
		b.Status = booking.StatusConfirmed
		_, err := New(CreateParams{ID: "r", Booking: b, Listing: reviewedListing(),
			Reviewer: "cus-1", Rating: ratingOf(4), Now: testNow})
		assert.ErrorIs(t, err, ErrReviewNotAllowed)
	})

	t.Run("wrong reviewer", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r", Booking: completedBooking(), Listing: reviewedListing(),
			Reviewer: "cus-2", Rating: ratingOf(4), Now: testNow})
		assert.ErrorIs(t, err, ErrNotBookingCustomer)
	})

	t.Run("empty review", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r", Booking: completedBooking(), Listing: reviewedListing(),
			Reviewer: "cus-1", Comment: "   ", Now: testNow})
		assert.ErrorIs(t, err, ErrEmptyReview)
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r", Booking: completedBooking(), Listing: reviewedListing(),
			Reviewer: "cus-1", Rating: ratingOf(6), Now: testNow})
		var verr validate.Errors
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rating", verr[0].Field)
	})

	t.Run("comment too short", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r", Booking: completedBooking(), Listing: reviewedListing(),
			Reviewer: "cus-1", Comment: "Nice.", Now: testNow})
		var verr validate.Errors
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "comment", verr[0].Field)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r", Listing: reviewedListing(), Reviewer: "cus-1",
			Rating: ratingOf(4), Now: testNow})
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})
}

func TestCommentOnlyReviewAllowed(t *testing.T) {
	r, err := New(CreateParams{
		ID: "rev-1", Booking: completedBooking(), Listing: reviewedListing(),
		Reviewer: "cus-1", Comment: "The host was lovely and check-in was easy.", Now: testNow,
	})
	require.NoError(t, err)
	assert.Nil(t, r.Rating)
}

func TestRespond(t *testing.T) {
	r, err := New(CreateParams{
		ID: "rev-1", Booking: completedBooking(), Listing: reviewedListing(),
		Reviewer: "cus-1", Rating: ratingOf(3), Now: testNow,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Respond("own-2", "Thanks!", testNow), listing.ErrOwnerMismatch)
	assert.Error(t, r.Respond("own-1", "   ", testNow))

	require.NoError(t, r.Respond("own-1", "Thanks for staying with us!", testNow))
	assert.Equal(t, "Thanks for staying with us!", r.Response)

	assert.ErrorIs(t, r.Respond("own-1", "Again", testNow), ErrAlreadyResponded)
}

func TestHideUnhide(t *testing.T) {
	r, err := New(CreateParams{
		ID: "rev-1", Booking: completedBooking(), Listing: reviewedListing(),
		Reviewer: "cus-1", Rating: ratingOf(1), Now: testNow,
	})
	require.NoError(t, err)

	r.Hide(testNow)
	assert.False(t, r.Visible)
	r.Hide(testNow) // no-op
	r.Unhide(testNow)
	assert.True(t, r.Visible)
}

func visibleReview(id ReviewID, lst listing.ListingID, rating *int) *Review {
	return &Review{ID: id, ListingID: lst, Owner: "own-1", Visible: true, Rating: rating}
}

func TestRecomputeListingRating(t *testing.T) {
	hidden := visibleReview("r4", "lst-1", ratingOf(1))
	hidden.Visible = false

	reviews := []*Review{
		visibleReview("r1", "lst-1", ratingOf(5)),
		visibleReview("r2", "lst-1", ratingOf(4)),
		visibleReview("r3", "lst-1", nil), // comment only
		hidden,
		visibleReview("r5", "lst-2", ratingOf(1)), // different listing
	}

	agg := RecomputeListingRating("lst-1", reviews, testNow)

	assert.Equal(t, 3, agg.ReviewCount)
	assert.Equal(t, 2, agg.RatingCount)
	assert.InDelta(t, 4.5, agg.Average, 0.0001)
	assert.Equal(t, [5]int{0, 0, 0, 1, 1}, agg.Distribution)
}

func TestRecomputeListingRatingEmpty(t *testing.T) {
	agg := RecomputeListingRating("lst-1", nil, testNow)
	assert.Zero(t, agg.Average)
	assert.Zero(t, agg.ReviewCount)
}

func TestRecomputeListingRatingConverges(t *testing.T) {
	reviews := []*Review{
		visibleReview("r1", "lst-1", ratingOf(5)),
		visibleReview("r2", "lst-1", ratingOf(2)),
	}
	first := RecomputeListingRating("lst-1", reviews, testNow)
	second := RecomputeListingRating("lst-1", reviews, testNow)
	assert.Equal(t, first, second)
}

func TestRecomputeOwnerRating(t *testing.T) {
	other := visibleReview("r4", "lst-9", ratingOf(1))
	other.Owner = "own-2"

	reviews := []*Review{
		visibleReview("r1", "lst-1", ratingOf(5)),
		visibleReview("r2", "lst-1", ratingOf(3)),
		visibleReview("r3", "lst-2", nil),
		other,
	}

	agg := RecomputeOwnerRating("own-1", reviews, testNow)

	assert.Equal(t, 3, agg.ReviewCount)
	assert.Equal(t, 2, agg.RatingCount)
	assert.InDelta(t, 4.0, agg.Average, 0.0001)
	// Distinct listings with at least one visible review.
	assert.Equal(t, 2, agg.ListingCount)
	assert.Equal(t, [5]int{0, 0, 1, 0, 1}, agg.Distribution)
}
