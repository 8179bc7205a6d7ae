package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlocation "stayhub/internal/domain/location"
)

type LocationRepository struct {
	col *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	col := db.Collection("locations")
	idx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "key.country", Value: 1},
			{Key: "key.city", Value: 1},
			{Key: "key.normalized", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &LocationRepository{col: col}
}

func (r *LocationRepository) ByID(ctx context.Context, id domainlocation.LocationID) (*domainlocation.Location, error) {
	var doc locationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlocation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *LocationRepository) ByKey(ctx context.Context, key domainlocation.Key) (*domainlocation.Location, error) {
	filter := bson.M{
		"key.country":    key.Country,
		"key.city":       key.City,
		"key.normalized": key.Normalized,
	}
	var doc locationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlocation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *LocationRepository) Save(ctx context.Context, loc *domainlocation.Location) error {
	doc := newLocationDocument(loc)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainlocation.ErrDuplicateLocation
	}
	return err
}

type locationDocument struct {
	ID        string              `bson:"_id"`
	Country   string              `bson:"country"`
	City      string              `bson:"city"`
	Address   string              `bson:"address"`
	Key       locationKeyDocument `bson:"key"`
	Latitude  float64             `bson:"latitude,omitempty"`
	Longitude float64             `bson:"longitude,omitempty"`
	HasCoords bool                `bson:"has_coords"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

func newLocationDocument(loc *domainlocation.Location) locationDocument {
	key := loc.Key()
	return locationDocument{
		ID:      string(loc.ID),
		Country: loc.Country,
		City:    loc.City,
		Address: loc.Address,
		Key: locationKeyDocument{
			Country:    key.Country,
			City:       key.City,
			Normalized: key.Normalized,
		},
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		HasCoords: loc.HasCoords,
		CreatedAt: loc.CreatedAt,
		UpdatedAt: loc.UpdatedAt,
	}
}

func (d locationDocument) toAggregate() *domainlocation.Location {
	return &domainlocation.Location{
		ID:         domainlocation.LocationID(d.ID),
		Country:    d.Country,
		City:       d.City,
		Address:    d.Address,
		Normalized: d.Key.Normalized,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		HasCoords:  d.HasCoords,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
