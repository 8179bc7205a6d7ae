package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/commands"
	bookinghandlers "stayhub/internal/app/handlers/booking"
	"stayhub/internal/app/handlers/support"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
)

// DefaultPendingTTL is how long an owner has to answer a booking request
// before the scheduler expires it.
const DefaultPendingTTL = 48 * time.Hour

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing dependencies")

// ExpirySweeper periodically expires pending bookings the owner never
// answered. Each expiry goes through the command bus so it shares the
// transaction and outbox path of a manual transition.
type ExpirySweeper struct {
	Bus        commands.Bus
	UoWFactory uow.Factory
	Logger     *slog.Logger
	Interval   time.Duration
	PendingTTL time.Duration
	BatchSize  int
	Clock      func() time.Time
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	if s.Bus == nil || s.UoWFactory == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil && s.Logger != nil {
				s.Logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce expires every pending booking older than the TTL. Failures on
// individual bookings are logged and skipped so one bad row cannot stall the
// sweep.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) error {
	stale, err := s.findStale(ctx)
	if err != nil {
		return err
	}
	system := actor.Actor{ID: "scheduler", Role: actor.RoleSystem}
	for _, id := range stale {
		_, err := commands.Dispatch[bookinghandlers.ExpireBookingCommand, *bookinghandlers.TransitionResult](
			ctx, s.Bus, bookinghandlers.ExpireBookingCommand{BookingID: id, Actor: system})
		if err != nil && s.Logger != nil {
			s.Logger.Warn("booking expiry skipped", "booking_id", id, "error", err)
		}
	}
	return nil
}

func (s *ExpirySweeper) findStale(ctx context.Context) ([]string, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	pending, err := unit.Bookings().List(execCtx, domainbooking.ListParams{
		Status: domainbooking.StatusPending,
		Limit:  s.batchSize(),
	})
	if err != nil {
		return nil, err
	}
	deadline := s.now().Add(-s.pendingTTL())
	var stale []string
	for _, b := range pending {
		if b.CreatedAt.Before(deadline) {
			stale = append(stale, string(b.ID))
		}
	}
	return stale, nil
}

func (s *ExpirySweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *ExpirySweeper) pendingTTL() time.Duration {
	if s.PendingTTL <= 0 {
		return DefaultPendingTTL
	}
	return s.PendingTTL
}

func (s *ExpirySweeper) batchSize() int {
	if s.BatchSize <= 0 {
		return 100
	}
	return s.BatchSize
}

func (s *ExpirySweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
