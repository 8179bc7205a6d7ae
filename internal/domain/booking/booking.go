package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/location"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/shared/validate"
)

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrStayNotFinished = errors.New("booking: stay is not finished yet")
	ErrStayNotStarted  = errors.New("booking: stay has not started yet")
	ErrAlreadyStarted  = errors.New("booking: stay already started")
	ErrNotCancellable  = errors.New("booking: status is not cancellable")
)

type BookingID string
type CustomerID string

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
	StatusExpired    Status = "expired"
)

// PaymentStatus mirrors the payment lifecycle on the booking row.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// DefaultBlockingStatuses reserve the listing calendar and take part in the
// overlap check. Kept as a variable rather than logic so deployments can
// tune which statuses block.
var DefaultBlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

func IsBlocking(s Status, blocking []Status) bool {
	for _, b := range blocking {
		if s == b {
			return true
		}
	}
	return false
}

// Rules bound stay length and how far ahead a stay may start.
type Rules struct {
	MinNights   int
	MaxNights   int
	MinLeadDays int
	MaxLeadDays int
}

func DefaultRules() Rules {
	return Rules{MinNights: 1, MaxNights: 365, MinLeadDays: 0, MaxLeadDays: 730}
}

// Booking is a stay request with a frozen price snapshot. Price fields are
// immutable after creation; only status and cancellation metadata change.
type Booking struct {
	ID              BookingID
	ListingID       listing.ListingID
	Customer        CustomerID
	LocationID      location.LocationID
	Range           daterange.DateRange
	Guests          int
	Price           pricing.Breakdown
	Status          Status
	PaymentStatus   PaymentStatus
	Policy          Policy
	SpecialRequests string
	CancelledAt     time.Time
	CancelReason    string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	events.EventRecorder
}

type ListParams struct {
	ListingID  listing.ListingID
	Customer   CustomerID
	Status     Status
	CheckInGTE time.Time
	Limit      int
	Offset     int
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Blocking returns bookings on the listing whose status is in the
	// blocking set; callers run the overlap check against them. The fetch
	// and the subsequent Save must share one serialization scope.
	Blocking(ctx context.Context, listingID listing.ListingID, blocking []Status) ([]*Booking, error)
	List(ctx context.Context, params ListParams) ([]*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

// DateRangeConflictError names the committed interval that blocks a new stay.
type DateRangeConflictError struct {
	ListingID listing.ListingID
	Existing  daterange.DateRange
	Holder    BookingID
}

func (e DateRangeConflictError) Error() string {
	return fmt.Sprintf("booking: dates overlap existing booking %s (%s) on listing %s",
		e.Holder, e.Existing, e.ListingID)
}

// FindConflict applies the half-open interval intersection against already
// blocking stays. Touching boundaries do not conflict.
func FindConflict(listingID listing.ListingID, candidate daterange.DateRange, existing []*Booking) error {
	for _, other := range existing {
		if candidate.Overlaps(other.Range) {
			return DateRangeConflictError{ListingID: listingID, Existing: other.Range, Holder: other.ID}
		}
	}
	return nil
}

const SpecialRequestsMaxLen = 1000

type CreateParams struct {
	ID              BookingID
	Listing         *listing.Listing
	Customer        CustomerID
	Range           daterange.DateRange
	Guests          int
	Price           pricing.Breakdown
	SpecialRequests string
	Rules           Rules
	Now             time.Time
}

// New validates the stay request and freezes its price snapshot. The overlap
// check is the repository's concern; everything local to the request happens
// here, in order, producing field-tagged errors.
func New(params CreateParams) (*Booking, error) {
	l := params.Listing
	if l == nil {
		return nil, listing.ErrNotFound
	}
	if err := l.Bookable(); err != nil {
		return nil, err
	}
	if err := params.Range.Validate(); err != nil {
		return nil, validate.Errors{{Field: "check_out", Message: "check-out must be after check-in"}}
	}

	rules := params.Rules
	if rules.MaxNights == 0 {
		rules = DefaultRules()
	}
	today := daterange.Day(params.Now)
	nights := params.Range.Nights()
	earliest := today.AddDate(0, 0, rules.MinLeadDays)
	latest := today.AddDate(0, 0, rules.MaxLeadDays)

	if err := validate.Run(
		validate.Field("customer", strings.TrimSpace(string(params.Customer)) == "", "customer is required"),
		validate.Field("check_out", nights < rules.MinNights,
			"stay must be at least %d night(s), got %d", rules.MinNights, nights),
		validate.Field("check_out", nights > rules.MaxNights,
			"stay cannot exceed %d nights, got %d", rules.MaxNights, nights),
		validate.Field("check_in", params.Range.CheckIn.Before(earliest),
			"check-in must be at least %d day(s) from today", rules.MinLeadDays),
		validate.Field("check_in", params.Range.CheckIn.After(latest),
			"check-in cannot be more than %d days in the future", rules.MaxLeadDays),
		validate.Field("guests", params.Guests < 1, "at least one guest is required"),
		validate.Field("guests", params.Guests > l.MaxGuests,
			"guest count %d exceeds listing capacity %d", params.Guests, l.MaxGuests),
		validate.Field("special_requests", len(params.SpecialRequests) > SpecialRequestsMaxLen,
			"special requests cannot exceed %d characters", SpecialRequestsMaxLen),
	); err != nil {
		return nil, err
	}

	policy := Policy(l.Policy)
	if !ValidPolicy(policy) {
		return nil, ErrUnknownPolicy
	}

	now := params.Now.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       l.ID,
		Customer:        params.Customer,
		LocationID:      l.LocationID,
		Range:           params.Range,
		Guests:          params.Guests,
		Price:           params.Price,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Policy:          policy,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingCreated{
		BookingID: b.ID, ListingID: b.ListingID, Customer: b.Customer,
		Range: b.Range, Guests: b.Guests, Total: b.Price.Total, At: now,
	})
	return b, nil
}

// Confirm moves pending → confirmed. Re-checks status so two concurrent
// approvals cannot both pass.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.transition(StatusConfirmed, now)
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, At: b.UpdatedAt})
	return nil
}

// Reject moves pending → rejected.
func (b *Booking) Reject(reason string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.transition(StatusRejected, now)
	b.Record(BookingRejected{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Start moves confirmed → in_progress once the stay has begun.
func (b *Booking) Start(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	if daterange.Day(now).Before(b.Range.CheckIn) {
		return ErrStayNotStarted
	}
	b.transition(StatusInProgress, now)
	b.Record(BookingStarted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Complete closes a confirmed or in-progress stay once check-out has passed.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed && b.Status != StatusInProgress {
		return ErrInvalidState
	}
	if daterange.Day(now).Before(b.Range.CheckOut) {
		return ErrStayNotFinished
	}
	b.transition(StatusCompleted, now)
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// Expire moves pending → expired when the owner never answered.
func (b *Booking) Expire(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.transition(StatusExpired, now)
	b.Record(BookingExpired{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel closes a pending or confirmed stay before check-in and reports the
// refundable amount under the frozen policy. Recording the refund itself is
// the payment ledger's job.
func (b *Booking) Cancel(reason string, now time.Time) (money.Money, error) {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return money.Money{}, ErrNotCancellable
	}
	if !daterange.Day(now).Before(b.Range.CheckIn) {
		return money.Money{}, ErrAlreadyStarted
	}
	refund, err := b.Policy.Refund(b.Price.Total, now, b.Range.CheckIn)
	if err != nil {
		return money.Money{}, err
	}
	b.transition(StatusCancelled, now)
	b.CancelledAt = b.UpdatedAt
	b.CancelReason = strings.TrimSpace(reason)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Refund: refund, Reason: b.CancelReason, At: b.UpdatedAt})
	return refund, nil
}

// SetPaymentStatus mirrors ledger state onto the booking row.
func (b *Booking) SetPaymentStatus(status PaymentStatus, now time.Time) {
	b.PaymentStatus = status
	b.UpdatedAt = now.UTC()
}

func (b *Booking) transition(next Status, now time.Time) {
	prev := b.Status
	b.Status = next
	b.UpdatedAt = now.UTC()
	b.Record(StatusChanged{BookingID: b.ID, From: prev, To: next, At: b.UpdatedAt})
}
