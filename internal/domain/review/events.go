package review

import (
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
)

type ReviewSubmitted struct {
	ReviewID  ReviewID
	ListingID listing.ListingID
	BookingID booking.BookingID
	Rating    *int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type OwnerResponded struct {
	ReviewID  ReviewID
	ListingID listing.ListingID
	At        time.Time
}

func (e OwnerResponded) EventName() string     { return "review.owner_responded" }
func (e OwnerResponded) AggregateID() string   { return string(e.ReviewID) }
func (e OwnerResponded) OccurredAt() time.Time { return e.At }

type ReviewHidden struct {
	ReviewID  ReviewID
	ListingID listing.ListingID
	At        time.Time
}

func (e ReviewHidden) EventName() string     { return "review.hidden" }
func (e ReviewHidden) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewHidden) OccurredAt() time.Time { return e.At }
