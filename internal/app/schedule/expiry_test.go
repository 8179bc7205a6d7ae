package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
	bookinghandlers "stayhub/internal/app/handlers/booking"
	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/infra/storage/memory"
)

func newSweeper(t *testing.T) (*ExpirySweeper, *memory.Factory, time.Time) {
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

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bus := commands.NewInMemoryBus()
	trans := &bookinghandlers.TransitionHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Clock:      clock,
	}
	commands.RegisterHandler(bus, "booking.expire",
		commands.HandlerFunc[bookinghandlers.ExpireBookingCommand, *bookinghandlers.TransitionResult](trans.Expire))

	sweeper := &ExpirySweeper{
		Bus:        bus,
		UoWFactory: factory,
		PendingTTL: 48 * time.Hour,
		Clock:      clock,
	}
	return sweeper, factory, now
}

func seedPending(t *testing.T, factory *memory.Factory, id domainbooking.BookingID, createdAt time.Time) {
	t.Helper()
	b := &domainbooking.Booking{
		ID:        id,
		ListingID: "lst-1",
		Customer:  "cus-1",
		Status:    domainbooking.StatusPending,
		CreatedAt: createdAt,
	}
	require.NoError(t, factory.BookingRepo.Save(context.Background(), b))
}

func TestSweepOnceExpiresStalePending(t *testing.T) {
	sweeper, factory, now := newSweeper(t)

	seedPending(t, factory, "stale", now.Add(-72*time.Hour))
	seedPending(t, factory, "fresh", now.Add(-1*time.Hour))

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	stale, err := factory.BookingRepo.ByID(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusExpired, stale.Status)

	fresh, err := factory.BookingRepo.ByID(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, fresh.Status)
}

func TestSweepOnceIgnoresNonPending(t *testing.T) {
	sweeper, factory, now := newSweeper(t)

	b := &domainbooking.Booking{
		ID:        "confirmed",
		ListingID: "lst-1",
		Customer:  "cus-1",
		Status:    domainbooking.StatusConfirmed,
		CreatedAt: now.Add(-72 * time.Hour),
	}
	require.NoError(t, factory.BookingRepo.Save(context.Background(), b))

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	got, err := factory.BookingRepo.ByID(context.Background(), "confirmed")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
}

func TestRunRequiresDependencies(t *testing.T) {
	s := &ExpirySweeper{}
	assert.ErrorIs(t, s.Run(context.Background()), ErrSweeperNotConfigured)
}
