package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/validate"
)

var (
	ErrNotFound           = errors.New("review: not found")
	ErrReviewNotAllowed   = errors.New("review: booking is not completed yet")
	ErrDuplicateReview    = errors.New("review: booking already has a review")
	ErrEmptyReview        = errors.New("review: rating or comment is required")
	ErrNotBookingCustomer = errors.New("review: reviewer is not the booking customer")
	ErrAlreadyResponded   = errors.New("review: owner already responded")
)

const (
	MinRating      = 1
	MaxRating      = 5
	CommentMinLen  = 10
	CommentMaxLen  = 2000
	ResponseMaxLen = 2000
)

type ReviewID string

// Review is guest feedback tied to exactly one completed booking. Either a
// star rating or a comment must be present; both are allowed.
type Review struct {
	ID          ReviewID
	BookingID   booking.BookingID
	ListingID   listing.ListingID
	Owner       listing.OwnerID
	Reviewer    booking.CustomerID
	Rating      *int
	Comment     string
	Response    string
	RespondedAt time.Time
	Visible     bool
	Verified    bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	ByListing(ctx context.Context, listingID listing.ListingID) ([]*Review, error)
	ByOwner(ctx context.Context, owner listing.OwnerID) ([]*Review, error)
	Save(ctx context.Context, r *Review) error
}

type CreateParams struct {
	ID       ReviewID
	Booking  *booking.Booking
	Listing  *listing.Listing
	Reviewer booking.CustomerID
	Rating   *int
	Comment  string
	Now      time.Time
}

// New validates the review against its booking. Only the customer of a
// completed booking may review, and only once; the uniqueness check is the
// repository's concern.
func New(params CreateParams) (*Review, error) {
	b := params.Booking
	if b == nil {
		return nil, booking.ErrNotFound
	}
	if params.Listing == nil {
		return nil, listing.ErrNotFound
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrReviewNotAllowed
	}
	if params.Reviewer != b.Customer {
		return nil, ErrNotBookingCustomer
	}

	comment := strings.TrimSpace(params.Comment)
	if params.Rating == nil && comment == "" {
		return nil, ErrEmptyReview
	}
	if err := validate.Run(
		validate.Field("rating", params.Rating != nil && (*params.Rating < MinRating || *params.Rating > MaxRating),
			"rating must be between %d and %d", MinRating, MaxRating),
		validate.Field("comment", comment != "" && (len(comment) < CommentMinLen || len(comment) > CommentMaxLen),
			"comment must be %d to %d characters", CommentMinLen, CommentMaxLen),
	); err != nil {
		return nil, err
	}

	now := params.Now.UTC()
	r := &Review{
		ID:        params.ID,
		BookingID: b.ID,
		ListingID: b.ListingID,
		Owner:     params.Listing.Owner,
		Reviewer:  params.Reviewer,
		Rating:    copyRating(params.Rating),
		Comment:   comment,
		Visible:   true,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReviewSubmitted{ReviewID: r.ID, ListingID: r.ListingID, BookingID: r.BookingID, Rating: r.Rating, At: now})
	return r, nil
}

// Respond records the owner's single public reply.
func (r *Review) Respond(owner listing.OwnerID, response string, now time.Time) error {
	if owner != r.Owner {
		return listing.ErrOwnerMismatch
	}
	if r.Response != "" {
		return ErrAlreadyResponded
	}
	response = strings.TrimSpace(response)
	if response == "" || len(response) > ResponseMaxLen {
		return fmt.Errorf("review: response must be 1 to %d characters", ResponseMaxLen)
	}
	r.Response = response
	r.RespondedAt = now.UTC()
	r.UpdatedAt = r.RespondedAt
	r.Record(OwnerResponded{ReviewID: r.ID, ListingID: r.ListingID, At: r.UpdatedAt})
	return nil
}

// Hide takes the review out of public listings and rating aggregates.
func (r *Review) Hide(now time.Time) {
	if !r.Visible {
		return
	}
	r.Visible = false
	r.UpdatedAt = now.UTC()
	r.Record(ReviewHidden{ReviewID: r.ID, ListingID: r.ListingID, At: r.UpdatedAt})
}

func (r *Review) Unhide(now time.Time) {
	if r.Visible {
		return
	}
	r.Visible = true
	r.UpdatedAt = now.UTC()
}

func copyRating(rating *int) *int {
	if rating == nil {
		return nil
	}
	v := *rating
	return &v
}
