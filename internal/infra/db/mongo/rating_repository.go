package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "stayhub/internal/domain/listing"
	domainreview "stayhub/internal/domain/review"
)

// RatingRepository stores the derived rating caches. Writes are plain
// replacements: the aggregates are recomputed from the review set, so the
// last writer wins by construction.
type RatingRepository struct {
	listings *mongo.Collection
	owners   *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{
		listings: db.Collection("listing_ratings"),
		owners:   db.Collection("owner_ratings"),
	}
}

func (r *RatingRepository) ListingRating(ctx context.Context, id domainlisting.ListingID) (*domainreview.ListingRating, error) {
	var doc listingRatingDocument
	if err := r.listings.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	agg := &domainreview.ListingRating{
		ListingID:   domainlisting.ListingID(doc.ID),
		Average:     doc.Average,
		RatingCount: doc.RatingCount,
		ReviewCount: doc.ReviewCount,
		UpdatedAt:   doc.UpdatedAt,
	}
	copy(agg.Distribution[:], doc.Distribution)
	return agg, nil
}

func (r *RatingRepository) OwnerRating(ctx context.Context, owner domainlisting.OwnerID) (*domainreview.OwnerRating, error) {
	var doc ownerRatingDocument
	if err := r.owners.FindOne(ctx, bson.M{"_id": string(owner)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	agg := &domainreview.OwnerRating{
		Owner:        domainlisting.OwnerID(doc.ID),
		Average:      doc.Average,
		RatingCount:  doc.RatingCount,
		ReviewCount:  doc.ReviewCount,
		ListingCount: doc.ListingCount,
		UpdatedAt:    doc.UpdatedAt,
	}
	copy(agg.Distribution[:], doc.Distribution)
	return agg, nil
}

func (r *RatingRepository) SaveListingRating(ctx context.Context, agg *domainreview.ListingRating) error {
	doc := listingRatingDocument{
		ID:           string(agg.ListingID),
		Average:      agg.Average,
		RatingCount:  agg.RatingCount,
		ReviewCount:  agg.ReviewCount,
		Distribution: agg.Distribution[:],
		UpdatedAt:    agg.UpdatedAt,
	}
	_, err := r.listings.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	return err
}

func (r *RatingRepository) SaveOwnerRating(ctx context.Context, agg *domainreview.OwnerRating) error {
	doc := ownerRatingDocument{
		ID:           string(agg.Owner),
		Average:      agg.Average,
		RatingCount:  agg.RatingCount,
		ReviewCount:  agg.ReviewCount,
		ListingCount: agg.ListingCount,
		Distribution: agg.Distribution[:],
		UpdatedAt:    agg.UpdatedAt,
	}
	_, err := r.owners.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	return err
}

type listingRatingDocument struct {
	ID           string    `bson:"_id"`
	Average      float64   `bson:"average"`
	RatingCount  int       `bson:"rating_count"`
	ReviewCount  int       `bson:"review_count"`
	Distribution []int     `bson:"distribution"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type ownerRatingDocument struct {
	ID           string    `bson:"_id"`
	Average      float64   `bson:"average"`
	RatingCount  int       `bson:"rating_count"`
	ReviewCount  int       `bson:"review_count"`
	ListingCount int       `bson:"listing_count"`
	Distribution []int     `bson:"distribution"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
