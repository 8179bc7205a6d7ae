package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/actor"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainreview "stayhub/internal/domain/review"
	"stayhub/internal/infra/storage/memory"
)

var (
	testNow   = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	testClock = func() time.Time { return testNow }
)

func ratingOf(v int) *int { return &v }

type fixture struct {
	factory *memory.Factory
	submit  *SubmitReviewHandler
	respond *RespondReviewHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	locations := memory.NewLocationRepository()
	factory := &memory.Factory{
		LocationRepo: locations,
		ListingRepo:  memory.NewListingRepository(locations),
		BookingRepo:  memory.NewBookingRepository(),
		PaymentRepo:  memory.NewPaymentRepository(),
		ReviewRepo:   memory.NewReviewRepository(),
		RatingRepo:   memory.NewRatingRepository(),
	}

	ctx := context.Background()
	loc, err := domainlocation.New(domainlocation.NewParams{
		ID: "loc-1", Country: "UA", City: "Kyiv", Address: "вулиця Хрещатик, 12", Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, locations.Save(ctx, loc))

	lst := &domainlisting.Listing{ID: "lst-1", Owner: "own-1", LocationID: "loc-1", Active: true, CreatedAt: testNow}
	require.NoError(t, factory.ListingRepo.Save(ctx, lst))

	for i, id := range []domainbooking.BookingID{"bkg-1", "bkg-2"} {
		b := &domainbooking.Booking{
			ID:        id,
			ListingID: "lst-1",
			Customer:  domainbooking.CustomerID([]string{"cus-1", "cus-2"}[i]),
			Status:    domainbooking.StatusCompleted,
			CreatedAt: testNow,
		}
		require.NoError(t, factory.BookingRepo.Save(ctx, b))
	}

	box := memory.NewOutbox()
	return &fixture{
		factory: factory,
		submit:  &SubmitReviewHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
		respond: &RespondReviewHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
	}
}

func TestSubmitReviewUpdatesAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.submit.Handle(ctx, SubmitReviewCommand{
		CommandID: "rev-1",
		BookingID: "bkg-1",
		Actor:     actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Rating:    ratingOf(5),
		Comment:   "Great stay, spotless apartment.",
	})
	require.NoError(t, err)
	assert.Equal(t, "rev-1", first.ReviewID)

	_, err = f.submit.Handle(ctx, SubmitReviewCommand{
		CommandID: "rev-2",
		BookingID: "bkg-2",
		Actor:     actor.Actor{ID: "cus-2", Role: actor.RoleCustomer},
		Rating:    ratingOf(3),
	})
	require.NoError(t, err)

	agg, err := f.factory.RatingRepo.ListingRating(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.RatingCount)
	assert.InDelta(t, 4.0, agg.Average, 0.0001)
	assert.Equal(t, 1, agg.Distribution[4])
	assert.Equal(t, 1, agg.Distribution[2])

	ownerAgg, err := f.factory.RatingRepo.OwnerRating(ctx, "own-1")
	require.NoError(t, err)
	assert.Equal(t, 2, ownerAgg.ReviewCount)
	assert.Equal(t, 1, ownerAgg.ListingCount)
	assert.Equal(t, 1, ownerAgg.Distribution[4])
	assert.Equal(t, 1, ownerAgg.Distribution[2])
}

func TestSubmitReviewOncePerBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.submit.Handle(ctx, SubmitReviewCommand{
		CommandID: "rev-1", BookingID: "bkg-1",
		Actor:  actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Rating: ratingOf(4),
	})
	require.NoError(t, err)

	_, err = f.submit.Handle(ctx, SubmitReviewCommand{
		CommandID: "rev-2", BookingID: "bkg-1",
		Actor:  actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Rating: ratingOf(1),
	})
	assert.ErrorIs(t, err, domainreview.ErrDuplicateReview)
}

func TestSubmitReviewGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("wrong customer", func(t *testing.T) {
		_, err := f.submit.Handle(ctx, SubmitReviewCommand{
			CommandID: "rev-1", BookingID: "bkg-1",
			Actor:  actor.Actor{ID: "cus-9", Role: actor.RoleCustomer},
			Rating: ratingOf(4),
		})
		assert.ErrorIs(t, err, domainreview.ErrNotBookingCustomer)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.submit.Handle(ctx, SubmitReviewCommand{
			CommandID: "rev-1", BookingID: "missing",
			Actor:  actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
			Rating: ratingOf(4),
		})
		assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	})
}

func TestRespondReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.submit.Handle(ctx, SubmitReviewCommand{
		CommandID: "rev-1", BookingID: "bkg-1",
		Actor:   actor.Actor{ID: "cus-1", Role: actor.RoleCustomer},
		Rating:  ratingOf(2),
		Comment: "The heating barely worked during our stay.",
	})
	require.NoError(t, err)

	_, err = f.respond.Handle(ctx, RespondReviewCommand{
		ReviewID: "rev-1",
		Actor:    actor.Actor{ID: "own-9", Role: actor.RoleOwner},
		Response: "Sorry about that.",
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)

	result, err := f.respond.Handle(ctx, RespondReviewCommand{
		ReviewID: "rev-1",
		Actor:    actor.Actor{ID: "own-1", Role: actor.RoleOwner},
		Response: "Sorry about that, the boiler has been replaced since.",
	})
	require.NoError(t, err)
	assert.Equal(t, "rev-1", result.ReviewID)

	_, err = f.respond.Handle(ctx, RespondReviewCommand{
		ReviewID: "rev-1",
		Actor:    actor.Actor{ID: "own-1", Role: actor.RoleOwner},
		Response: "One more thing.",
	})
	assert.ErrorIs(t, err, domainreview.ErrAlreadyResponded)
}
