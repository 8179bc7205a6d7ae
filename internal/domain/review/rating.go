package review

import (
	"context"
	"time"

	"stayhub/internal/domain/listing"
)

// ListingRating is a derived cache over the listing's visible reviews. It is
// rebuilt by full replacement from the review set, never incremented in
// place, so a rebuild from scratch always converges to the same numbers.
type ListingRating struct {
	ListingID    listing.ListingID
	Average      float64
	RatingCount  int
	ReviewCount  int
	Distribution [5]int
	UpdatedAt    time.Time
}

// OwnerRating aggregates across every listing the owner has.
type OwnerRating struct {
	Owner        listing.OwnerID
	Average      float64
	RatingCount  int
	ReviewCount  int
	ListingCount int
	Distribution [5]int
	UpdatedAt    time.Time
}

type RatingRepository interface {
	ListingRating(ctx context.Context, id listing.ListingID) (*ListingRating, error)
	OwnerRating(ctx context.Context, owner listing.OwnerID) (*OwnerRating, error)
	SaveListingRating(ctx context.Context, r *ListingRating) error
	SaveOwnerRating(ctx context.Context, r *OwnerRating) error
}

// RecomputeListingRating folds the listing's reviews into a fresh aggregate.
// Hidden reviews and nil ratings are excluded from the average and the
// histogram; comment-only reviews still count toward ReviewCount.
func RecomputeListingRating(listingID listing.ListingID, reviews []*Review, now time.Time) ListingRating {
	agg := ListingRating{ListingID: listingID, UpdatedAt: now.UTC()}
	var sum int
	for _, r := range reviews {
		if !r.Visible || r.ListingID != listingID {
			continue
		}
		agg.ReviewCount++
		if r.Rating == nil {
			continue
		}
		agg.RatingCount++
		sum += *r.Rating
		agg.Distribution[*r.Rating-1]++
	}
	if agg.RatingCount > 0 {
		agg.Average = float64(sum) / float64(agg.RatingCount)
	}
	return agg
}

// RecomputeOwnerRating folds all reviews across the owner's listings.
// ListingCount is the number of distinct listings with at least one visible
// review, not the owner's catalog size.
func RecomputeOwnerRating(owner listing.OwnerID, reviews []*Review, now time.Time) OwnerRating {
	agg := OwnerRating{Owner: owner, UpdatedAt: now.UTC()}
	var sum int
	seen := make(map[listing.ListingID]struct{})
	for _, r := range reviews {
		if !r.Visible || r.Owner != owner {
			continue
		}
		agg.ReviewCount++
		seen[r.ListingID] = struct{}{}
		if r.Rating == nil {
			continue
		}
		agg.RatingCount++
		sum += *r.Rating
		agg.Distribution[*r.Rating-1]++
	}
	agg.ListingCount = len(seen)
	if agg.RatingCount > 0 {
		agg.Average = float64(sum) / float64(agg.RatingCount)
	}
	return agg
}
