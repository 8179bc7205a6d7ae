package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainpayment "stayhub/internal/domain/payment"
	domainreview "stayhub/internal/domain/review"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic unit-of-work interface.
type Factory struct {
	DB *mongo.Database

	LocationRepo domainlocation.Repository
	ListingRepo  domainlisting.Repository
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayment.Repository
	ReviewRepo   domainreview.Repository
	RatingRepo   domainreview.RatingRepository
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		locations: f.LocationRepo,
		listings:  f.ListingRepo,
		bookings:  f.BookingRepo,
		payments:  f.PaymentRepo,
		reviews:   f.ReviewRepo,
		ratings:   f.RatingRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	locations domainlocation.Repository
	listings  domainlisting.Repository
	bookings  domainbooking.Repository
	payments  domainpayment.Repository
	reviews   domainreview.Repository
	ratings   domainreview.RatingRepository
}

func (u *Unit) Locations() domainlocation.Repository   { return u.locations }
func (u *Unit) Listings() domainlisting.Repository     { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository     { return u.bookings }
func (u *Unit) Payments() domainpayment.Repository     { return u.payments }
func (u *Unit) Reviews() domainreview.Repository       { return u.reviews }
func (u *Unit) Ratings() domainreview.RatingRepository { return u.ratings }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories downstream.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
