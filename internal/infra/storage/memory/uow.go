package memory

import (
	"context"
	"errors"
	"sync"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainpayment "stayhub/internal/domain/payment"
	domainreview "stayhub/internal/domain/review"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory repositories into a unit-of-work boundary.
// Write units hold a single store-wide mutex from Begin to Commit/Rollback,
// which gives the fetch-then-save sequences (overlap check, refund cap) the
// serialization the contracts require.
type Factory struct {
	LocationRepo *LocationRepository
	ListingRepo  *ListingRepository
	BookingRepo  *BookingRepository
	PaymentRepo  *PaymentRepository
	ReviewRepo   *ReviewRepository
	RatingRepo   *RatingRepository

	writeMu sync.Mutex
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.LocationRepo == nil || f.ListingRepo == nil || f.BookingRepo == nil ||
		f.PaymentRepo == nil || f.ReviewRepo == nil || f.RatingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{factory: f}
	if !opts.ReadOnly {
		f.writeMu.Lock()
		unit.locked = true
	}
	return unit, nil
}

// Unit is a uow.UnitOfWork over the in-memory stores. There is no rollback
// of already-applied writes; callers get atomicity from the writer lock
// keeping concurrent units out, not from undo.
type Unit struct {
	factory *Factory
	locked  bool
	done    bool
}

func (u *Unit) Locations() domainlocation.Repository   { return u.factory.LocationRepo }
func (u *Unit) Listings() domainlisting.Repository     { return u.factory.ListingRepo }
func (u *Unit) Bookings() domainbooking.Repository     { return u.factory.BookingRepo }
func (u *Unit) Payments() domainpayment.Repository     { return u.factory.PaymentRepo }
func (u *Unit) Reviews() domainreview.Repository       { return u.factory.ReviewRepo }
func (u *Unit) Ratings() domainreview.RatingRepository { return u.factory.RatingRepo }

func (u *Unit) Commit(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) release() {
	if u.done {
		return
	}
	u.done = true
	if u.locked {
		u.factory.writeMu.Unlock()
	}
}
