package dto

import (
	"time"

	domainreview "stayhub/internal/domain/review"
)

type ReviewSummary struct {
	ID          string     `json:"id"`
	ListingID   string     `json:"listing_id"`
	BookingID   string     `json:"booking_id"`
	ReviewerID  string     `json:"reviewer_id"`
	Rating      *int       `json:"rating,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	Response    string     `json:"owner_response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	Verified    bool       `json:"verified"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ReviewCollection struct {
	Items []ReviewSummary `json:"items"`
	Total int             `json:"total"`
}

type RatingDTO struct {
	Average      float64 `json:"average"`
	RatingCount  int     `json:"rating_count"`
	ReviewCount  int     `json:"review_count"`
	Distribution [5]int  `json:"distribution"`
}

type OwnerRatingDTO struct {
	Average      float64 `json:"average"`
	RatingCount  int     `json:"rating_count"`
	ReviewCount  int     `json:"review_count"`
	ListingCount int     `json:"listing_count"`
	Distribution [5]int  `json:"distribution"`
}

func MapReviewSummary(r *domainreview.Review) ReviewSummary {
	out := ReviewSummary{
		ID:         string(r.ID),
		ListingID:  string(r.ListingID),
		BookingID:  string(r.BookingID),
		ReviewerID: string(r.Reviewer),
		Rating:     r.Rating,
		Comment:    r.Comment,
		Response:   r.Response,
		Verified:   r.Verified,
		CreatedAt:  r.CreatedAt,
	}
	if !r.RespondedAt.IsZero() {
		at := r.RespondedAt
		out.RespondedAt = &at
	}
	return out
}

func MapListingRating(r *domainreview.ListingRating) *RatingDTO {
	if r == nil {
		return nil
	}
	return &RatingDTO{
		Average:      r.Average,
		RatingCount:  r.RatingCount,
		ReviewCount:  r.ReviewCount,
		Distribution: r.Distribution,
	}
}

func MapOwnerRating(r *domainreview.OwnerRating) *OwnerRatingDTO {
	if r == nil {
		return nil
	}
	return &OwnerRatingDTO{
		Average:      r.Average,
		RatingCount:  r.RatingCount,
		ReviewCount:  r.ReviewCount,
		ListingCount: r.ListingCount,
		Distribution: r.Distribution,
	}
}
