package listing

import (
	"context"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainlisting "stayhub/internal/domain/listing"
)

const (
	deactivateListingKey = "listing.deactivate"
	reactivateListingKey = "listing.reactivate"
	deleteListingKey     = "listing.delete"
	verifyListingKey     = "listing.verify"
)

type DeactivateListingCommand struct {
	ListingID string
	Actor     actor.Actor
}

func (c DeactivateListingCommand) Key() string { return deactivateListingKey }

type ReactivateListingCommand struct {
	ListingID string
	Actor     actor.Actor
}

func (c ReactivateListingCommand) Key() string { return reactivateListingKey }

type DeleteListingCommand struct {
	ListingID string
	Actor     actor.Actor
}

func (c DeleteListingCommand) Key() string { return deleteListingKey }

type VerifyListingCommand struct {
	ListingID string
	Actor     actor.Actor
}

func (c VerifyListingCommand) Key() string { return verifyListingKey }

type ManageResult struct {
	ListingID string `json:"listing_id"`
	Active    bool   `json:"active"`
	Deleted   bool   `json:"deleted"`
	Verified  bool   `json:"verified"`
}

// ManageHandler covers owner catalog maintenance plus the admin verify flag.
type ManageHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ManageHandler) Deactivate(ctx context.Context, cmd DeactivateListingCommand) (*ManageResult, error) {
	return h.mutate(ctx, cmd.ListingID, cmd.Actor, false, func(l *domainlisting.Listing) error {
		return l.Deactivate(h.now())
	})
}

func (h *ManageHandler) Reactivate(ctx context.Context, cmd ReactivateListingCommand) (*ManageResult, error) {
	return h.mutate(ctx, cmd.ListingID, cmd.Actor, false, func(l *domainlisting.Listing) error {
		return l.Reactivate(h.now())
	})
}

func (h *ManageHandler) Delete(ctx context.Context, cmd DeleteListingCommand) (*ManageResult, error) {
	return h.mutate(ctx, cmd.ListingID, cmd.Actor, false, func(l *domainlisting.Listing) error {
		return l.SoftDelete(h.now())
	})
}

func (h *ManageHandler) Verify(ctx context.Context, cmd VerifyListingCommand) (*ManageResult, error) {
	return h.mutate(ctx, cmd.ListingID, cmd.Actor, true, func(l *domainlisting.Listing) error {
		l.MarkVerified(h.now())
		return nil
	})
}

func (h *ManageHandler) mutate(ctx context.Context, listingID string, act actor.Actor, adminOnly bool, fn func(*domainlisting.Listing) error) (*ManageResult, error) {
	var result *ManageResult
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		l, err := unit.Listings().ByID(ctx, domainlisting.ListingID(listingID))
		if err != nil {
			return err
		}
		if adminOnly {
			if !act.Privileged() {
				return actor.ErrForbidden
			}
		} else if !act.Privileged() && string(l.Owner) != act.ID {
			return actor.ErrForbidden
		}
		if err := fn(l); err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, l); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), l.PendingEvents()); err != nil {
			return err
		}
		l.ClearEvents()
		result = &ManageResult{
			ListingID: string(l.ID),
			Active:    l.Active,
			Deleted:   l.Deleted,
			Verified:  l.Verified,
		}
		return nil
	})
	return result, err
}

func (h *ManageHandler) withUnit(ctx context.Context, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if h.UoWFactory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
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

func (h *ManageHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *ManageHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}
