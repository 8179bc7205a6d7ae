package listing

import (
	"context"
	"errors"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/handlers/support"
	"stayhub/internal/app/uow"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/pricing"
	domainreview "stayhub/internal/domain/review"
	"stayhub/internal/domain/shared/daterange"
	"time"
)

const (
	getListingKey    = "listing.get"
	ownerListingsKey = "listing.by_owner"
	quoteListingKey  = "listing.quote"
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingDetail, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	l, err := unit.Listings().ByID(execCtx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if l.Deleted {
		return dto.ListingDetail{}, domainlisting.ErrNotFound
	}
	loc, err := unit.Locations().ByID(execCtx, l.LocationID)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	detail := dto.MapListingDetail(l, loc)

	rating, err := unit.Ratings().ListingRating(execCtx, l.ID)
	if err != nil && !errors.Is(err, domainreview.ErrNotFound) {
		return dto.ListingDetail{}, err
	}
	detail.Rating = dto.MapListingRating(rating)
	return detail, nil
}

type OwnerListingsQuery struct {
	OwnerID string
}

func (q OwnerListingsQuery) Key() string { return ownerListingsKey }

type OwnerListingsHandler struct {
	UoWFactory uow.Factory
}

func (h *OwnerListingsHandler) Handle(ctx context.Context, q OwnerListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Listings().ByOwner(execCtx, domainlisting.OwnerID(q.OwnerID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	out := dto.ListingCollection{Items: make([]dto.ListingSummary, 0, len(items))}
	for _, l := range items {
		if l.Deleted {
			continue
		}
		out.Items = append(out.Items, dto.MapListingSummary(l))
	}
	out.Total = len(out.Items)
	return out, nil
}

type QuoteQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q QuoteQuery) Key() string { return quoteListingKey }

type QuoteHandler struct {
	UoWFactory uow.Factory
	FeePercent int64
}

// Handle prices a prospective stay without reserving anything. The same pure
// quote runs again at placement time, so the numbers shown here are the
// numbers frozen on the booking.
func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.PriceBreakdownDTO, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PriceBreakdownDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	l, err := unit.Listings().ByID(execCtx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.PriceBreakdownDTO{}, err
	}
	if err := l.Bookable(); err != nil {
		return dto.PriceBreakdownDTO{}, err
	}
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.PriceBreakdownDTO{}, err
	}
	feePercent := h.FeePercent
	if feePercent == 0 {
		feePercent = pricing.DefaultPlatformFeePercent
	}
	breakdown, err := pricing.Quote(pricing.QuoteInput{
		Nightly:            l.NightlyRate,
		CleaningFee:        l.CleaningFee,
		Nights:             dr.Nights(),
		PlatformFeePercent: feePercent,
	})
	if err != nil {
		return dto.PriceBreakdownDTO{}, err
	}
	return dto.MapBreakdown(breakdown), nil
}
