package listing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	"stayhub/internal/domain/shared/money"
)

const createListingKey = "listing.create"

var ErrUnitOfWorkRequired = errors.New("listing: unit of work required")

type AddressInput struct {
	Country   string
	City      string
	Address   string
	Latitude  float64
	Longitude float64
	HasCoords bool
}

type CreateListingCommand struct {
	CommandID       string
	OwnerID         string
	Title           string
	Description     string
	PropertyType    string
	Address         AddressInput
	Rooms           int
	Bedrooms        int
	Bathrooms       int
	MaxGuests       int
	NightlyRate     money.Money
	CleaningFee     money.Money
	Policy          string
	MultiUnit       bool
	Amenities       []string
	IdempotencyKeyV string
}

func (c CreateListingCommand) Key() string { return createListingKey }

func (c CreateListingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateListingCommand) ResultPrototype() any { return &CreateListingResult{} }

type CreateListingResult struct {
	ListingID  string `json:"listing_id"`
	LocationID string `json:"location_id"`
}

// CreateListingHandler registers the address (or reuses the deduplicated
// row), applies the one-listing-per-address rule against neighbours, and
// persists the catalog entry.
type CreateListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger

	Normalizer *domainlocation.Normalizer
	UnitCap    int
	Clock      func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := h.now()
	loc, err := h.resolveLocation(ctx, unit, cmd.Address, now)
	if err != nil {
		return nil, err
	}

	lst, err := domainlisting.New(domainlisting.CreateParams{
		ID:           domainlisting.ListingID(cmd.CommandID),
		Owner:        domainlisting.OwnerID(cmd.OwnerID),
		Title:        cmd.Title,
		Description:  cmd.Description,
		PropertyType: cmd.PropertyType,
		LocationID:   loc.ID,
		Rooms:        cmd.Rooms,
		Bedrooms:     cmd.Bedrooms,
		Bathrooms:    cmd.Bathrooms,
		MaxGuests:    cmd.MaxGuests,
		NightlyRate:  cmd.NightlyRate,
		CleaningFee:  cmd.CleaningFee,
		Policy:       cmd.Policy,
		MultiUnit:    cmd.MultiUnit,
		Amenities:    cmd.Amenities,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	neighbours, err := unit.Listings().ByLocation(ctx, loc.Key())
	if err != nil {
		return nil, err
	}
	if err := domainlisting.CheckAddressRule(lst, loc.Address, neighbours, h.unitCap()); err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, lst); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), lst.PendingEvents()); err != nil {
		return nil, err
	}
	lst.ClearEvents()

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", lst.ID, "owner_id", lst.Owner, "location_id", loc.ID)
	}
	return &CreateListingResult{ListingID: string(lst.ID), LocationID: string(loc.ID)}, nil
}

// resolveLocation reuses an existing row for the same normalized triple, and
// backfills coordinates on it when the request carries them.
func (h *CreateListingHandler) resolveLocation(ctx context.Context, unit uow.UnitOfWork, in AddressInput, now time.Time) (*domainlocation.Location, error) {
	candidate, err := domainlocation.New(domainlocation.NewParams{
		ID:         domainlocation.LocationID(uuid.NewString()),
		Country:    in.Country,
		City:       in.City,
		Address:    in.Address,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		HasCoords:  in.HasCoords,
		Normalizer: h.Normalizer,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	existing, err := unit.Locations().ByKey(ctx, candidate.Key())
	switch {
	case err == nil:
		if in.HasCoords && existing.BackfillCoords(in.Latitude, in.Longitude, now) {
			if err := unit.Locations().Save(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	case errors.Is(err, domainlocation.ErrNotFound):
		if err := unit.Locations().Save(ctx, candidate); err != nil {
			return nil, err
		}
		return candidate, nil
	default:
		return nil, err
	}
}

func (h *CreateListingHandler) unitCap() int {
	if h.UnitCap > 0 {
		return h.UnitCap
	}
	return domainlisting.DefaultUnitCap
}

func (h *CreateListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *CreateListingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateListingCommand, *CreateListingResult] = (*CreateListingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateListingCommand)(nil)
