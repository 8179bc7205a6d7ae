package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/commands"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainreview "stayhub/internal/domain/review"
)

const (
	submitReviewKey  = "review.submit"
	respondReviewKey = "review.respond"
)

var ErrUnitOfWorkRequired = errors.New("review: unit of work required")

type SubmitReviewCommand struct {
	CommandID       string
	BookingID       string
	Actor           actor.Actor
	Rating          *int
	Comment         string
	IdempotencyKeyV string
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

func (c SubmitReviewCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitReviewCommand) ResultPrototype() any { return &SubmitReviewResult{} }

type SubmitReviewResult struct {
	ReviewID string `json:"review_id"`
}

// SubmitReviewHandler accepts guest feedback for a completed stay and
// rebuilds the derived rating aggregates from the full review set in the
// same transaction.
type SubmitReviewHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*SubmitReviewResult, error) {
	var result *SubmitReviewResult
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		lst, err := unit.Listings().ByID(ctx, b.ListingID)
		if err != nil {
			return err
		}
		if _, err := unit.Reviews().ByBooking(ctx, b.ID); err == nil {
			return domainreview.ErrDuplicateReview
		} else if !errors.Is(err, domainreview.ErrNotFound) {
			return err
		}

		now := h.now()
		r, err := domainreview.New(domainreview.CreateParams{
			ID:       domainreview.ReviewID(cmd.CommandID),
			Booking:  b,
			Listing:  lst,
			Reviewer: domainbooking.CustomerID(cmd.Actor.ID),
			Rating:   cmd.Rating,
			Comment:  cmd.Comment,
			Now:      now,
		})
		if err != nil {
			return err
		}
		if err := unit.Reviews().Save(ctx, r); err != nil {
			return err
		}
		if err := recomputeRatings(ctx, unit, r, now); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), r.PendingEvents()); err != nil {
			return err
		}
		r.ClearEvents()

		if h.Logger != nil {
			h.Logger.Info("review submitted", "review_id", r.ID, "listing_id", r.ListingID)
		}
		result = &SubmitReviewResult{ReviewID: string(r.ID)}
		return nil
	})
	return result, err
}

type RespondReviewCommand struct {
	ReviewID string
	Actor    actor.Actor
	Response string
}

func (c RespondReviewCommand) Key() string { return respondReviewKey }

type RespondReviewResult struct {
	ReviewID string `json:"review_id"`
}

type RespondReviewHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RespondReviewHandler) Handle(ctx context.Context, cmd RespondReviewCommand) (*RespondReviewResult, error) {
	var result *RespondReviewResult
	err := withSharedUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		r, err := unit.Reviews().ByID(ctx, domainreview.ReviewID(cmd.ReviewID))
		if err != nil {
			return err
		}
		if !cmd.Actor.Privileged() && string(r.Owner) != cmd.Actor.ID {
			return actor.ErrForbidden
		}
		if err := r.Respond(r.Owner, cmd.Response, h.now()); err != nil {
			return err
		}
		if err := unit.Reviews().Save(ctx, r); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), r.PendingEvents()); err != nil {
			return err
		}
		r.ClearEvents()
		result = &RespondReviewResult{ReviewID: string(r.ID)}
		return nil
	})
	return result, err
}

func (h *RespondReviewHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *RespondReviewHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// recomputeRatings replaces both derived aggregates from the full review
// sets. Full replacement keeps them rebuildable after any drift.
func recomputeRatings(ctx context.Context, unit uow.UnitOfWork, r *domainreview.Review, now time.Time) error {
	listingReviews, err := unit.Reviews().ByListing(ctx, r.ListingID)
	if err != nil {
		return err
	}
	listingAgg := domainreview.RecomputeListingRating(r.ListingID, listingReviews, now)
	if err := unit.Ratings().SaveListingRating(ctx, &listingAgg); err != nil {
		return err
	}

	ownerReviews, err := unit.Reviews().ByOwner(ctx, r.Owner)
	if err != nil {
		return err
	}
	ownerAgg := domainreview.RecomputeOwnerRating(r.Owner, ownerReviews, now)
	return unit.Ratings().SaveOwnerRating(ctx, &ownerAgg)
}

func (h *SubmitReviewHandler) withUnit(ctx context.Context, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	return withSharedUnit(ctx, h.UoWFactory, fn)
}

func withSharedUnit(ctx context.Context, factory uow.Factory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	if err := fn(ctx, unit); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (h *SubmitReviewHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *SubmitReviewHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SubmitReviewCommand, *SubmitReviewResult] = (*SubmitReviewHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitReviewCommand)(nil)
