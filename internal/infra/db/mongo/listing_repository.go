package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	"stayhub/internal/domain/shared/money"
)

type ListingRepository struct {
	col       *mongo.Collection
	locks     *mongo.Collection
	locations domainlocation.Repository
}

func NewListingRepository(db *mongo.Database, locations domainlocation.Repository) *ListingRepository {
	col := db.Collection("listings")
	idx := mongo.IndexModel{Keys: bson.D{
		{Key: "location_key.country", Value: 1},
		{Key: "location_key.city", Value: 1},
		{Key: "location_key.normalized", Value: 1},
	}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	ownerIdx := mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), ownerIdx)
	return &ListingRepository{col: col, locks: db.Collection("scope_locks"), locations: locations}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ByLocation feeds the address rule. Inside a transaction the per-address
// lock document is touched first so concurrent creates at one address
// conflict rather than both passing the neighbour check.
func (r *ListingRepository) ByLocation(ctx context.Context, key domainlocation.Key) ([]*domainlisting.Listing, error) {
	scope := "address:" + key.Country + "/" + key.City + "/" + key.Normalized
	if err := touchScopeLock(ctx, r.locks, scope); err != nil {
		return nil, err
	}
	cur, err := r.col.Find(ctx, bson.M{
		"location_key.country":    key.Country,
		"location_key.city":       key.City,
		"location_key.normalized": key.Normalized,
		"deleted":                 false,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeListings(ctx, cur)
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlisting.OwnerID) ([]*domainlisting.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	return decodeListings(ctx, cur)
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	loc, err := r.locations.ByID(ctx, l.LocationID)
	if err != nil {
		return err
	}
	doc := newListingDocument(l, loc.Key())
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
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
	l.Version = doc.Version
	return nil
}

func decodeListings(ctx context.Context, cur *mongo.Cursor) ([]*domainlisting.Listing, error) {
	var out []*domainlisting.Listing
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type locationKeyDocument struct {
	Country    string `bson:"country"`
	City       string `bson:"city"`
	Normalized string `bson:"normalized"`
}

type listingDocument struct {
	ID           string              `bson:"_id"`
	OwnerID      string              `bson:"owner_id"`
	Title        string              `bson:"title"`
	Description  string              `bson:"description"`
	PropertyType string              `bson:"property_type"`
	LocationID   string              `bson:"location_id"`
	LocationKey  locationKeyDocument `bson:"location_key"`
	Rooms        int                 `bson:"rooms"`
	Bedrooms     int                 `bson:"bedrooms"`
	Bathrooms    int                 `bson:"bathrooms"`
	MaxGuests    int                 `bson:"max_guests"`
	NightlyRate  money.Money         `bson:"nightly_rate"`
	CleaningFee  money.Money         `bson:"cleaning_fee"`
	Policy       string              `bson:"cancellation_policy"`
	MultiUnit    bool                `bson:"multi_unit"`
	Amenities    []string            `bson:"amenities,omitempty"`
	PhotoURLs    []string            `bson:"photo_urls,omitempty"`
	Active       bool                `bson:"active"`
	Verified     bool                `bson:"verified"`
	Deleted      bool                `bson:"deleted"`
	DeletedAt    time.Time           `bson:"deleted_at,omitempty"`
	CreatedAt    time.Time           `bson:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at"`
	Version      int64               `bson:"version"`
}

func newListingDocument(l *domainlisting.Listing, key domainlocation.Key) listingDocument {
	return listingDocument{
		ID:           string(l.ID),
		OwnerID:      string(l.Owner),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		LocationID:   string(l.LocationID),
		LocationKey: locationKeyDocument{
			Country:    key.Country,
			City:       key.City,
			Normalized: key.Normalized,
		},
		Rooms:       l.Rooms,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		MaxGuests:   l.MaxGuests,
		NightlyRate: l.NightlyRate,
		CleaningFee: l.CleaningFee,
		Policy:      l.Policy,
		MultiUnit:   l.MultiUnit,
		Amenities:   l.Amenities,
		PhotoURLs:   l.PhotoURLs,
		Active:      l.Active,
		Verified:    l.Verified,
		Deleted:     l.Deleted,
		DeletedAt:   l.DeletedAt,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Version:     l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlisting.Listing {
	return &domainlisting.Listing{
		ID:           domainlisting.ListingID(d.ID),
		Owner:        domainlisting.OwnerID(d.OwnerID),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		LocationID:   domainlocation.LocationID(d.LocationID),
		Rooms:        d.Rooms,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		MaxGuests:    d.MaxGuests,
		NightlyRate:  d.NightlyRate,
		CleaningFee:  d.CleaningFee,
		Policy:       d.Policy,
		MultiUnit:    d.MultiUnit,
		Amenities:    d.Amenities,
		PhotoURLs:    d.PhotoURLs,
		Active:       d.Active,
		Verified:     d.Verified,
		Deleted:      d.Deleted,
		DeletedAt:    d.DeletedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Version:      d.Version,
	}
}
