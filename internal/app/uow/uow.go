package uow

import (
	"context"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainpayment "stayhub/internal/domain/payment"
	domainreview "stayhub/internal/domain/review"
)

// UnitOfWork groups the repositories behind one transaction boundary. The
// overlap check and the payment refund cap both rely on the fetch and the
// save sharing a single serialization scope.
type UnitOfWork interface {
	Locations() domainlocation.Repository
	Listings() domainlisting.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Reviews() domainreview.Repository
	Ratings() domainreview.RatingRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
