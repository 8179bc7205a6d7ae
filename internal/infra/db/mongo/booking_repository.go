package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	idx := mongo.IndexModel{Keys: bson.D{
		{Key: "listing_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "range.check_in", Value: 1},
	}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col, locks: db.Collection("scope_locks")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Blocking feeds the overlap check. Inside a transaction it first touches the
// per-listing lock document so concurrent placements on the same listing
// conflict instead of both committing against the same snapshot.
func (r *BookingRepository) Blocking(ctx context.Context, listingID domainlisting.ListingID, blocking []domainbooking.Status) ([]*domainbooking.Booking, error) {
	if err := touchScopeLock(ctx, r.locks, "listing:"+string(listingID)); err != nil {
		return nil, err
	}
	statuses := make([]string, 0, len(blocking))
	for _, s := range blocking {
		statuses = append(statuses, string(s))
	}
	cur, err := r.col.Find(ctx, bson.M{
		"listing_id": string(listingID),
		"status":     bson.M{"$in": statuses},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *BookingRepository) List(ctx context.Context, params domainbooking.ListParams) ([]*domainbooking.Booking, error) {
	filter := bson.M{}
	if params.ListingID != "" {
		filter["listing_id"] = string(params.ListingID)
	}
	if params.Customer != "" {
		filter["customer_id"] = string(params.Customer)
	}
	if params.Status != "" {
		filter["status"] = string(params.Status)
	}
	if !params.CheckInGTE.IsZero() {
		filter["range.check_in"] = bson.M{"$gte": params.CheckInGTE}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if params.Limit > 0 {
		opts = opts.SetLimit(int64(params.Limit))
	}
	if params.Offset > 0 {
		opts = opts.SetSkip(int64(params.Offset))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID              string              `bson:"_id"`
	ListingID       string              `bson:"listing_id"`
	CustomerID      string              `bson:"customer_id"`
	LocationID      string              `bson:"location_id"`
	Range           daterange.DateRange `bson:"range"`
	Guests          int                 `bson:"guests"`
	Price           pricing.Breakdown   `bson:"price"`
	Status          string              `bson:"status"`
	PaymentStatus   string              `bson:"payment_status"`
	Policy          string              `bson:"cancellation_policy"`
	SpecialRequests string              `bson:"special_requests,omitempty"`
	CancelledAt     time.Time           `bson:"cancelled_at,omitempty"`
	CancelReason    string              `bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
	Version         int64               `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		CustomerID:      string(b.Customer),
		LocationID:      string(b.LocationID),
		Range:           b.Range,
		Guests:          b.Guests,
		Price:           b.Price,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Policy:          string(b.Policy),
		SpecialRequests: b.SpecialRequests,
		CancelledAt:     b.CancelledAt,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ListingID:       domainlisting.ListingID(d.ListingID),
		Customer:        domainbooking.CustomerID(d.CustomerID),
		LocationID:      domainlocation.LocationID(d.LocationID),
		Range:           d.Range,
		Guests:          d.Guests,
		Price:           d.Price,
		Status:          domainbooking.Status(d.Status),
		PaymentStatus:   domainbooking.PaymentStatus(d.PaymentStatus),
		Policy:          domainbooking.Policy(d.Policy),
		SpecialRequests: d.SpecialRequests,
		CancelledAt:     d.CancelledAt,
		CancelReason:    d.CancelReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Version:         d.Version,
	}
}
