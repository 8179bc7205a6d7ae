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
	domainreview "stayhub/internal/domain/review"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	col := db.Collection("reviews")
	bookingIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), bookingIdx)
	listingIdx := mongo.IndexModel{Keys: bson.D{{Key: "listing_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), listingIdx)
	ownerIdx := mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), ownerIdx)
	return &ReviewRepository{col: col}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreview.ReviewID) (*domainreview.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreview.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByListing(ctx context.Context, listingID domainlisting.ListingID) ([]*domainreview.Review, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *ReviewRepository) ByOwner(ctx context.Context, owner domainlisting.OwnerID) ([]*domainreview.Review, error) {
	return r.find(ctx, bson.M{"owner_id": string(owner)})
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.M) ([]*domainreview.Review, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainreview.Review
	for cur.Next(ctx) {
		var doc reviewDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ReviewRepository) Save(ctx context.Context, rev *domainreview.Review) error {
	doc := newReviewDocument(rev)
	filter := bson.M{"_id": doc.ID, "version": rev.Version}
	doc.Version = rev.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreview.ErrDuplicateReview
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	rev.Version = doc.Version
	return nil
}

type reviewDocument struct {
	ID          string    `bson:"_id"`
	BookingID   string    `bson:"booking_id"`
	ListingID   string    `bson:"listing_id"`
	OwnerID     string    `bson:"owner_id"`
	ReviewerID  string    `bson:"reviewer_id"`
	Rating      *int      `bson:"rating,omitempty"`
	Comment     string    `bson:"comment,omitempty"`
	Response    string    `bson:"response,omitempty"`
	RespondedAt time.Time `bson:"responded_at,omitempty"`
	Visible     bool      `bson:"visible"`
	Verified    bool      `bson:"verified"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	Version     int64     `bson:"version"`
}

func newReviewDocument(rev *domainreview.Review) reviewDocument {
	return reviewDocument{
		ID:          string(rev.ID),
		BookingID:   string(rev.BookingID),
		ListingID:   string(rev.ListingID),
		OwnerID:     string(rev.Owner),
		ReviewerID:  string(rev.Reviewer),
		Rating:      rev.Rating,
		Comment:     rev.Comment,
		Response:    rev.Response,
		RespondedAt: rev.RespondedAt,
		Visible:     rev.Visible,
		Verified:    rev.Verified,
		CreatedAt:   rev.CreatedAt,
		UpdatedAt:   rev.UpdatedAt,
		Version:     rev.Version,
	}
}

func (d reviewDocument) toAggregate() *domainreview.Review {
	return &domainreview.Review{
		ID:          domainreview.ReviewID(d.ID),
		BookingID:   domainbooking.BookingID(d.BookingID),
		ListingID:   domainlisting.ListingID(d.ListingID),
		Owner:       domainlisting.OwnerID(d.OwnerID),
		Reviewer:    domainbooking.CustomerID(d.ReviewerID),
		Rating:      d.Rating,
		Comment:     d.Comment,
		Response:    d.Response,
		RespondedAt: d.RespondedAt,
		Visible:     d.Visible,
		Verified:    d.Verified,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Version:     d.Version,
	}
}
