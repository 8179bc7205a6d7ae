package location

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/shared/validate"
)

var (
	ErrNotFound          = errors.New("location: not found")
	ErrDuplicateLocation = errors.New("location: normalized address already registered")
)

type LocationID string

// Location is a deduplicated address row. The (country, city, normalized
// address) triple is unique; rows are immutable once referenced except for
// coordinate backfill.
type Location struct {
	ID         LocationID
	Country    string
	City       string
	Address    string
	Normalized string
	Latitude   float64
	Longitude  float64
	HasCoords  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key identifies a location triple case-insensitively.
type Key struct {
	Country    string
	City       string
	Normalized string
}

func (l *Location) Key() Key {
	return Key{
		Country:    strings.ToLower(l.Country),
		City:       strings.ToLower(l.City),
		Normalized: l.Normalized,
	}
}

type Repository interface {
	ByID(ctx context.Context, id LocationID) (*Location, error)
	ByKey(ctx context.Context, key Key) (*Location, error)
	Save(ctx context.Context, loc *Location) error
}

type NewParams struct {
	ID         LocationID
	Country    string
	City       string
	Address    string
	Latitude   float64
	Longitude  float64
	HasCoords  bool
	Normalizer *Normalizer
	Now        time.Time
}

func New(params NewParams) (*Location, error) {
	country := strings.TrimSpace(params.Country)
	city := strings.TrimSpace(params.City)
	address := strings.TrimSpace(params.Address)
	if err := validate.Run(
		validate.Field("country", country == "", "country is required"),
		validate.Field("city", city == "", "city is required"),
		validate.Field("address", address == "", "street address is required"),
	); err != nil {
		return nil, err
	}
	norm := params.Normalizer
	if norm == nil {
		norm = DefaultNormalizer()
	}
	now := params.Now.UTC()
	return &Location{
		ID:         params.ID,
		Country:    country,
		City:       city,
		Address:    address,
		Normalized: norm.Normalize(address),
		Latitude:   params.Latitude,
		Longitude:  params.Longitude,
		HasCoords:  params.HasCoords,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// BackfillCoords patches missing coordinates on an existing row. Present
// coordinates are never overwritten.
func (l *Location) BackfillCoords(lat, lon float64, now time.Time) bool {
	if l.HasCoords {
		return false
	}
	l.Latitude = lat
	l.Longitude = lon
	l.HasCoords = true
	l.UpdatedAt = now.UTC()
	return true
}
