package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain/location"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/shared/validate"
)

var (
	ErrNotFound       = errors.New("listing: not found")
	ErrInactive       = errors.New("listing: not active")
	ErrDeleted        = errors.New("listing: deleted")
	ErrAlreadyDeleted = errors.New("listing: already soft-deleted")
	ErrOwnerMismatch  = errors.New("listing: actor is not the owner")
	ErrInvalidState   = errors.New("listing: invalid state transition")
)

// Attribute bounds carried over from the marketplace's catalog rules.
const (
	TitleMinLen       = 10
	TitleMaxLen       = 255
	DescriptionMinLen = 50
	DescriptionMaxLen = 2000
	MinRooms          = 1
	MaxRooms          = 20
	MinBedrooms       = 0
	MaxBedrooms       = 20
	MinBathrooms      = 1
	MaxBathrooms      = 10
	MinGuests         = 1
	MaxGuests         = 50
	MinNightlyCents   = 10_00
	MaxNightlyCents   = 1_000_000_00

	// DefaultUnitCap bounds how many multi-unit listings may share one
	// normalized address.
	DefaultUnitCap = 20
)

type ListingID string
type OwnerID string

// Listing is a bookable property record. Price fields are the live catalog
// values; bookings freeze their own copies at placement time.
type Listing struct {
	ID           ListingID
	Owner        OwnerID
	Title        string
	Description  string
	PropertyType string
	LocationID   location.LocationID
	Rooms        int
	Bedrooms     int
	Bathrooms    int
	MaxGuests    int
	NightlyRate  money.Money
	CleaningFee  money.Money
	Policy       string
	MultiUnit    bool
	Amenities    []string
	PhotoURLs    []string
	Active       bool
	Verified     bool
	Deleted      bool
	DeletedAt    time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// ByLocation returns all non-deleted listings sharing a normalized
	// address triple, for the one-listing-per-address rule.
	ByLocation(ctx context.Context, key location.Key) ([]*Listing, error)
	ByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
	Save(ctx context.Context, l *Listing) error
}

type CreateParams struct {
	ID           ListingID
	Owner        OwnerID
	Title        string
	Description  string
	PropertyType string
	LocationID   location.LocationID
	Rooms        int
	Bedrooms     int
	Bathrooms    int
	MaxGuests    int
	NightlyRate  money.Money
	CleaningFee  money.Money
	Policy       string
	MultiUnit    bool
	Amenities    []string
	Now          time.Time
}

func New(params CreateParams) (*Listing, error) {
	title := strings.TrimSpace(params.Title)
	desc := strings.TrimSpace(params.Description)
	if err := validate.Run(
		validate.Field("owner", strings.TrimSpace(string(params.Owner)) == "", "owner is required"),
		validate.Field("location", strings.TrimSpace(string(params.LocationID)) == "", "location is required"),
		validate.Field("title", len(title) < TitleMinLen || len(title) > TitleMaxLen,
			"title must be %d to %d characters", TitleMinLen, TitleMaxLen),
		validate.Field("description", len(desc) < DescriptionMinLen || len(desc) > DescriptionMaxLen,
			"description must be %d to %d characters", DescriptionMinLen, DescriptionMaxLen),
		validate.Field("rooms", params.Rooms < MinRooms || params.Rooms > MaxRooms,
			"rooms must be between %d and %d", MinRooms, MaxRooms),
		validate.Field("bedrooms", params.Bedrooms < MinBedrooms || params.Bedrooms > MaxBedrooms,
			"bedrooms must be between %d and %d", MinBedrooms, MaxBedrooms),
		validate.Field("bathrooms", params.Bathrooms < MinBathrooms || params.Bathrooms > MaxBathrooms,
			"bathrooms must be between %d and %d", MinBathrooms, MaxBathrooms),
		validate.Field("max_guests", params.MaxGuests < MinGuests || params.MaxGuests > MaxGuests,
			"max guests must be between %d and %d", MinGuests, MaxGuests),
		validate.Field("nightly_rate", params.NightlyRate.Amount < MinNightlyCents || params.NightlyRate.Amount > MaxNightlyCents,
			"nightly rate must be between %d and %d cents", MinNightlyCents, MaxNightlyCents),
		validate.Field("cleaning_fee", params.CleaningFee.Amount < 0, "cleaning fee must not be negative"),
		validate.Field("cancellation_policy", strings.TrimSpace(params.Policy) == "", "cancellation policy is required"),
	); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:           params.ID,
		Owner:        params.Owner,
		Title:        title,
		Description:  desc,
		PropertyType: strings.TrimSpace(params.PropertyType),
		LocationID:   params.LocationID,
		Rooms:        params.Rooms,
		Bedrooms:     params.Bedrooms,
		Bathrooms:    params.Bathrooms,
		MaxGuests:    params.MaxGuests,
		NightlyRate:  params.NightlyRate,
		CleaningFee:  params.CleaningFee,
		Policy:       strings.TrimSpace(params.Policy),
		MultiUnit:    params.MultiUnit,
		Amenities:    append([]string(nil), params.Amenities...),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	l.Record(ListingCreated{ListingID: l.ID, Owner: l.Owner, LocationID: l.LocationID, At: now})
	return l, nil
}

// Bookable reports whether new bookings may be placed against the listing.
func (l *Listing) Bookable() error {
	if l.Deleted {
		return ErrDeleted
	}
	if !l.Active {
		return ErrInactive
	}
	return nil
}

func (l *Listing) Deactivate(now time.Time) error {
	if l.Deleted {
		return ErrDeleted
	}
	if !l.Active {
		return ErrInvalidState
	}
	l.Active = false
	l.UpdatedAt = now.UTC()
	l.Record(ListingDeactivated{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Reactivate(now time.Time) error {
	if l.Deleted {
		return ErrDeleted
	}
	if l.Active {
		return ErrInvalidState
	}
	l.Active = true
	l.UpdatedAt = now.UTC()
	l.Record(ListingReactivated{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// SoftDelete hides the listing while preserving rows that bookings and
// reviews still reference.
func (l *Listing) SoftDelete(now time.Time) error {
	if l.Deleted {
		return ErrAlreadyDeleted
	}
	l.Deleted = true
	l.Active = false
	l.DeletedAt = now.UTC()
	l.UpdatedAt = l.DeletedAt
	l.Record(ListingDeleted{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

const MaxPhotos = 30

// AddPhoto appends an uploaded photo URL, capped per listing.
func (l *Listing) AddPhoto(url string, now time.Time) error {
	if l.Deleted {
		return ErrDeleted
	}
	if len(l.PhotoURLs) >= MaxPhotos {
		return fmt.Errorf("listing: photo cap of %d reached", MaxPhotos)
	}
	l.PhotoURLs = append(l.PhotoURLs, url)
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) MarkVerified(now time.Time) {
	if l.Verified {
		return
	}
	l.Verified = true
	l.UpdatedAt = now.UTC()
}

// AddressAlreadyListedError reports a non-multi-unit collision on a
// normalized address.
type AddressAlreadyListedError struct {
	Address  string
	Existing ListingID
}

func (e AddressAlreadyListedError) Error() string {
	return fmt.Sprintf("listing: address %q already has listing %s", e.Address, e.Existing)
}

// AddressOwnerMismatchError reports a multi-unit address occupied by another owner.
type AddressOwnerMismatchError struct {
	Address string
	Owner   OwnerID
}

func (e AddressOwnerMismatchError) Error() string {
	return fmt.Sprintf("listing: address %q is occupied by units of another owner %s", e.Address, e.Owner)
}

// AddressUnitCapExceededError reports the per-address multi-unit cap.
type AddressUnitCapExceededError struct {
	Address string
	Cap     int
}

func (e AddressUnitCapExceededError) Error() string {
	return fmt.Sprintf("listing: address %q reached the %d-unit cap", e.Address, e.Cap)
}

// CheckAddressRule enforces the one-listing-per-address invariant against
// the candidate's already-registered neighbours:
//   - non-multi-unit: any existing listing at the address is a conflict;
//   - multi-unit: every existing listing must be multi-unit and share the
//     candidate's owner, and their count must stay below unitCap.
func CheckAddressRule(candidate *Listing, address string, existing []*Listing, unitCap int) error {
	live := existing[:0:0]
	for _, other := range existing {
		if other.Deleted || other.ID == candidate.ID {
			continue
		}
		live = append(live, other)
	}
	if len(live) == 0 {
		return nil
	}
	if !candidate.MultiUnit {
		return AddressAlreadyListedError{Address: address, Existing: live[0].ID}
	}
	for _, other := range live {
		if !other.MultiUnit {
			return AddressAlreadyListedError{Address: address, Existing: other.ID}
		}
		if other.Owner != candidate.Owner {
			return AddressOwnerMismatchError{Address: address, Owner: other.Owner}
		}
	}
	if len(live) >= unitCap {
		return AddressUnitCapExceededError{Address: address, Cap: unitCap}
	}
	return nil
}
