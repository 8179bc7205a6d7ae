package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/policies"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/infra/storage/memory"
)

var (
	testNow   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	testClock = func() time.Time { return testNow }
)

type fixture struct {
	factory *memory.Factory
	outbox  *memory.Outbox
	place   *PlaceBookingHandler
	trans   *TransitionHandler
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
	box := memory.NewOutbox()

	ctx := context.Background()
	loc, err := domainlocation.New(domainlocation.NewParams{
		ID: "loc-1", Country: "UA", City: "Kyiv", Address: "вулиця Хрещатик, 12", Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, locations.Save(ctx, loc))

	lst := &domainlisting.Listing{
		ID:          "lst-1",
		Owner:       "own-1",
		Title:       "Cozy flat near the river",
		LocationID:  "loc-1",
		MaxGuests:   4,
		NightlyRate: money.Must(100_00, "USD"),
		Policy:      string(domainbooking.PolicyFlexible),
		Active:      true,
		CreatedAt:   testNow,
	}
	require.NoError(t, factory.ListingRepo.Save(ctx, lst))

	return &fixture{
		factory: factory,
		outbox:  box,
		place:   &PlaceBookingHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
		trans:   &TransitionHandler{UoWFactory: factory, Outbox: box, Clock: testClock},
	}
}

func (f *fixture) placeBooking(t *testing.T, id, customer, checkIn, checkOut string) *PlaceBookingResult {
	t.Helper()
	in, err := time.Parse("2006-01-02", checkIn)
	require.NoError(t, err)
	out, err := time.Parse("2006-01-02", checkOut)
	require.NoError(t, err)
	result, err := f.place.Handle(context.Background(), PlaceBookingCommand{
		CommandID:  id,
		ListingID:  "lst-1",
		CustomerID: customer,
		CheckIn:    in,
		CheckOut:   out,
		Guests:     2,
	})
	require.NoError(t, err)
	return result
}

func TestPlaceBooking(t *testing.T) {
	f := newFixture(t)

	result := f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	assert.Equal(t, "bkg-1", result.BookingID)
	assert.Equal(t, string(domainbooking.StatusPending), result.Status)
	// 4 nights at 100.00 plus 10% platform fee.
	assert.Equal(t, int64(440_00), result.Price.Total.Amount)

	records := f.outbox.Pending()
	require.NotEmpty(t, records)
	assert.Equal(t, "booking.created", records[0].Name)
}

func TestPlaceBookingRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	_, err := f.place.Handle(context.Background(), PlaceBookingCommand{
		CommandID:  "bkg-2",
		ListingID:  "lst-1",
		CustomerID: "cus-2",
		CheckIn:    time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
		Guests:     1,
	})
	var conflict domainbooking.DateRangeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainbooking.BookingID("bkg-1"), conflict.Holder)
}

func TestPlaceBookingAllowsBackToBack(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	result := f.placeBooking(t, "bkg-2", "cus-2", "2024-06-14", "2024-06-16")
	assert.Equal(t, "bkg-2", result.BookingID)
}

func TestPlaceBookingIgnoresReleasedStays(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	owner := actor.Actor{ID: "own-1", Role: actor.RoleOwner}
	_, err := f.trans.Reject(context.Background(), RejectBookingCommand{BookingID: "bkg-1", Actor: owner, Reason: "unavailable"})
	require.NoError(t, err)

	// The rejected stay no longer blocks the calendar.
	result := f.placeBooking(t, "bkg-2", "cus-2", "2024-06-10", "2024-06-14")
	assert.Equal(t, "bkg-2", result.BookingID)
}

func TestPlaceBookingUnknownListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.place.Handle(context.Background(), PlaceBookingCommand{
		CommandID:  "bkg-1",
		ListingID:  "missing",
		CustomerID: "cus-1",
		CheckIn:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		Guests:     1,
	})
	assert.ErrorIs(t, err, domainlisting.ErrNotFound)
}

func TestConfirmRequiresListingOwner(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	stranger := actor.Actor{ID: "own-9", Role: actor.RoleOwner}
	_, err := f.trans.Confirm(context.Background(), ConfirmBookingCommand{BookingID: "bkg-1", Actor: stranger})
	assert.ErrorIs(t, err, actor.ErrForbidden)

	owner := actor.Actor{ID: "own-1", Role: actor.RoleOwner}
	result, err := f.trans.Confirm(context.Background(), ConfirmBookingCommand{BookingID: "bkg-1", Actor: owner})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)

	// Admins bypass the ownership check; the second confirm now trips the
	// status guard instead.
	admin := actor.Actor{ID: "adm-1", Role: actor.RoleAdmin}
	_, err = f.trans.Confirm(context.Background(), ConfirmBookingCommand{BookingID: "bkg-1", Actor: admin})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestCancelReportsRefund(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	guest := actor.Actor{ID: "cus-1", Role: actor.RoleCustomer}
	result, err := f.trans.Cancel(context.Background(), CancelBookingCommand{BookingID: "bkg-1", Actor: guest, Reason: "plans changed"})
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusCancelled), result.Status)
	// Flexible policy, nine days of lead time: full refund.
	require.NotNil(t, result.Refund)
	assert.Equal(t, int64(440_00), result.Refund.Amount)
}

func TestCancelForbiddenForOtherCustomer(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	other := actor.Actor{ID: "cus-2", Role: actor.RoleCustomer}
	_, err := f.trans.Cancel(context.Background(), CancelBookingCommand{BookingID: "bkg-1", Actor: other})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestCancelByListingOwner(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	owner := actor.Actor{ID: "own-1", Role: actor.RoleOwner}
	result, err := f.trans.Cancel(context.Background(), CancelBookingCommand{BookingID: "bkg-1", Actor: owner, Reason: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), result.Status)

	// An owner of some other listing still cannot cancel.
	f.placeBooking(t, "bkg-2", "cus-1", "2024-06-10", "2024-06-14")
	stranger := actor.Actor{ID: "own-9", Role: actor.RoleOwner}
	_, err = f.trans.Cancel(context.Background(), CancelBookingCommand{BookingID: "bkg-2", Actor: stranger})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

type capturingNotifier struct {
	sent []policies.Notification
}

func (n *capturingNotifier) Notify(ctx context.Context, note policies.Notification) error {
	n.sent = append(n.sent, note)
	return nil
}

func TestTransitionNotifiesOnlyOnSuccess(t *testing.T) {
	f := newFixture(t)
	notifier := &capturingNotifier{}
	f.trans.Notifier = notifier
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	stranger := actor.Actor{ID: "own-9", Role: actor.RoleOwner}
	_, err := f.trans.Confirm(context.Background(), ConfirmBookingCommand{BookingID: "bkg-1", Actor: stranger})
	require.ErrorIs(t, err, actor.ErrForbidden)
	assert.Empty(t, notifier.sent)

	owner := actor.Actor{ID: "own-1", Role: actor.RoleOwner}
	_, err = f.trans.Confirm(context.Background(), ConfirmBookingCommand{BookingID: "bkg-1", Actor: owner})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "booking_confirmed", notifier.sent[0].Kind)
	assert.Equal(t, "cus-1", notifier.sent[0].Recipient)

	// A failed transition leaves the notifier untouched.
	_, err = f.trans.Complete(context.Background(), CompleteBookingCommand{BookingID: "bkg-1", Actor: owner})
	require.ErrorIs(t, err, domainbooking.ErrStayNotFinished)
	assert.Len(t, notifier.sent, 1)
}

func TestCancelNotifiesOtherParty(t *testing.T) {
	f := newFixture(t)
	notifier := &capturingNotifier{}
	f.trans.Notifier = notifier
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	owner := actor.Actor{ID: "own-1", Role: actor.RoleOwner}
	_, err := f.trans.Cancel(context.Background(), CancelBookingCommand{BookingID: "bkg-1", Actor: owner, Reason: "maintenance"})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "cus-1", notifier.sent[0].Recipient)
}

func TestExpireRequiresPrivilege(t *testing.T) {
	f := newFixture(t)
	f.placeBooking(t, "bkg-1", "cus-1", "2024-06-10", "2024-06-14")

	guest := actor.Actor{ID: "cus-1", Role: actor.RoleCustomer}
	_, err := f.trans.Expire(context.Background(), ExpireBookingCommand{BookingID: "bkg-1", Actor: guest})
	assert.ErrorIs(t, err, actor.ErrForbidden)

	system := actor.Actor{ID: "sweeper", Role: actor.RoleSystem}
	result, err := f.trans.Expire(context.Background(), ExpireBookingCommand{BookingID: "bkg-1", Actor: system})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusExpired), result.Status)
}
