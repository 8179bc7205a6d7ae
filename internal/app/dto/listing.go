package dto

import (
	"time"

	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
)

type LocationDTO struct {
	ID        string  `json:"id"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

func MapLocation(loc *domainlocation.Location) LocationDTO {
	out := LocationDTO{
		ID:      string(loc.ID),
		Country: loc.Country,
		City:    loc.City,
		Address: loc.Address,
	}
	if loc.HasCoords {
		out.Latitude = loc.Latitude
		out.Longitude = loc.Longitude
	}
	return out
}

type ListingSummary struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	PropertyType string    `json:"property_type"`
	MaxGuests    int       `json:"max_guests"`
	Rooms        int       `json:"rooms"`
	NightlyRate  MoneyDTO  `json:"nightly_rate"`
	CleaningFee  MoneyDTO  `json:"cleaning_fee"`
	Policy       string    `json:"cancellation_policy"`
	Active       bool      `json:"active"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListingDetail struct {
	ListingSummary
	Description string      `json:"description"`
	Bedrooms    int         `json:"bedrooms"`
	Bathrooms   int         `json:"bathrooms"`
	MultiUnit   bool        `json:"multi_unit"`
	Amenities   []string    `json:"amenities"`
	Location    LocationDTO `json:"location"`
	Rating      *RatingDTO  `json:"rating,omitempty"`
}

type ListingCollection struct {
	Items []ListingSummary `json:"items"`
	Total int              `json:"total"`
}

func MapListingSummary(l *domainlisting.Listing) ListingSummary {
	return ListingSummary{
		ID:           string(l.ID),
		OwnerID:      string(l.Owner),
		Title:        l.Title,
		PropertyType: l.PropertyType,
		MaxGuests:    l.MaxGuests,
		Rooms:        l.Rooms,
		NightlyRate:  MapMoney(l.NightlyRate),
		CleaningFee:  MapMoney(l.CleaningFee),
		Policy:       l.Policy,
		Active:       l.Active,
		Verified:     l.Verified,
		CreatedAt:    l.CreatedAt,
	}
}

func MapListingDetail(l *domainlisting.Listing, loc *domainlocation.Location) ListingDetail {
	detail := ListingDetail{
		ListingSummary: MapListingSummary(l),
		Description:    l.Description,
		Bedrooms:       l.Bedrooms,
		Bathrooms:      l.Bathrooms,
		MultiUnit:      l.MultiUnit,
		Amenities:      l.Amenities,
	}
	if loc != nil {
		detail.Location = MapLocation(loc)
	}
	return detail
}
