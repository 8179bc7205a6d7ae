package review

import (
	"context"
	"errors"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/handlers/support"
	"stayhub/internal/app/uow"
	domainlisting "stayhub/internal/domain/listing"
	domainreview "stayhub/internal/domain/review"
)

const (
	listReviewsKey   = "review.list"
	listingRatingKey = "review.listing_rating"
	ownerRatingKey   = "review.owner_rating"
)

type ListReviewsQuery struct {
	ListingID string
}

func (q ListReviewsQuery) Key() string { return listReviewsKey }

type ListReviewsHandler struct {
	UoWFactory uow.Factory
}

func (h *ListReviewsHandler) Handle(ctx context.Context, q ListReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Reviews().ByListing(execCtx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	out := dto.ReviewCollection{Items: make([]dto.ReviewSummary, 0, len(items))}
	for _, r := range items {
		if !r.Visible {
			continue
		}
		out.Items = append(out.Items, dto.MapReviewSummary(r))
	}
	out.Total = len(out.Items)
	return out, nil
}

type ListingRatingQuery struct {
	ListingID string
}

func (q ListingRatingQuery) Key() string { return listingRatingKey }

type ListingRatingHandler struct {
	UoWFactory uow.Factory
}

func (h *ListingRatingHandler) Handle(ctx context.Context, q ListingRatingQuery) (*dto.RatingDTO, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rating, err := unit.Ratings().ListingRating(execCtx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		if errors.Is(err, domainreview.ErrNotFound) {
			return &dto.RatingDTO{}, nil
		}
		return nil, err
	}
	return dto.MapListingRating(rating), nil
}

type OwnerRatingQuery struct {
	OwnerID string
}

func (q OwnerRatingQuery) Key() string { return ownerRatingKey }

type OwnerRatingHandler struct {
	UoWFactory uow.Factory
}

func (h *OwnerRatingHandler) Handle(ctx context.Context, q OwnerRatingQuery) (*dto.OwnerRatingDTO, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rating, err := unit.Ratings().OwnerRating(execCtx, domainlisting.OwnerID(q.OwnerID))
	if err != nil {
		if errors.Is(err, domainreview.ErrNotFound) {
			return &dto.OwnerRatingDTO{}, nil
		}
		return nil, err
	}
	return dto.MapOwnerRating(rating), nil
}
