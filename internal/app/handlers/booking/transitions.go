package booking

import (
	"context"
	"log/slog"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
)

const (
	confirmBookingKey  = "booking.confirm"
	rejectBookingKey   = "booking.reject"
	cancelBookingKey   = "booking.cancel"
	startBookingKey    = "booking.start"
	completeBookingKey = "booking.complete"
	expireBookingKey   = "booking.expire"
)

type ConfirmBookingCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type RejectBookingCommand struct {
	BookingID string
	Actor     actor.Actor
	Reason    string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type CancelBookingCommand struct {
	BookingID string
	Actor     actor.Actor
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type StartBookingCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c StartBookingCommand) Key() string { return startBookingKey }

type CompleteBookingCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type ExpireBookingCommand struct {
	BookingID string
	Actor     actor.Actor
}

func (c ExpireBookingCommand) Key() string { return expireBookingKey }

type TransitionResult struct {
	BookingID string        `json:"booking_id"`
	Status    string        `json:"status"`
	Refund    *dto.MoneyDTO `json:"refund,omitempty"`
}

// TransitionHandler owns every booking status change. The actor arrives in
// the command; owner-side transitions are checked against the listing owner,
// guest-side ones against the booking customer.
type TransitionHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.NotifierPort
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *TransitionHandler) Confirm(ctx context.Context, cmd ConfirmBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	var note *policies.Notification
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, lst, err := h.loadForOwnerAction(ctx, unit, cmd.BookingID, cmd.Actor)
		if err != nil {
			return err
		}
		if err := b.Confirm(h.now()); err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		note = &policies.Notification{
			Recipient: string(b.Customer),
			Kind:      "booking_confirmed",
			Subject:   "Booking confirmed",
			Body:      "Your stay " + b.Range.String() + " at " + lst.Title + " is confirmed",
			Meta:      map[string]string{"booking_id": string(b.ID)},
		}
		result = &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.notifyAfter(ctx, note)
	return result, nil
}

func (h *TransitionHandler) Reject(ctx context.Context, cmd RejectBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	var note *policies.Notification
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, _, err := h.loadForOwnerAction(ctx, unit, cmd.BookingID, cmd.Actor)
		if err != nil {
			return err
		}
		if err := b.Reject(cmd.Reason, h.now()); err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		note = &policies.Notification{
			Recipient: string(b.Customer),
			Kind:      "booking_rejected",
			Subject:   "Booking declined",
			Body:      "The owner declined your request for " + b.Range.String(),
			Meta:      map[string]string{"booking_id": string(b.ID)},
		}
		result = &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.notifyAfter(ctx, note)
	return result, nil
}

// Cancel closes the stay before check-in and reports the policy refund.
// Either side may cancel: the booking customer or the listing owner. The
// refund amount is computed here but paid out by the payment ledger in its
// own command.
func (h *TransitionHandler) Cancel(ctx context.Context, cmd CancelBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	var note *policies.Notification
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		lst, lstErr := unit.Listings().ByID(ctx, b.ListingID)
		allowed := cmd.Actor.Privileged() || string(b.Customer) == cmd.Actor.ID
		if !allowed && lstErr == nil && string(lst.Owner) == cmd.Actor.ID {
			allowed = true
		}
		if !allowed {
			return actor.ErrForbidden
		}
		refund, err := b.Cancel(cmd.Reason, h.now())
		if err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		if lstErr == nil {
			// Tell the party that did not initiate the cancellation.
			recipient := string(lst.Owner)
			if cmd.Actor.ID == string(lst.Owner) {
				recipient = string(b.Customer)
			}
			note = &policies.Notification{
				Recipient: recipient,
				Kind:      "booking_cancelled",
				Subject:   "Booking cancelled",
				Body:      "The stay " + b.Range.String() + " was cancelled",
				Meta:      map[string]string{"booking_id": string(b.ID)},
			}
		}
		result = &TransitionResult{
			BookingID: string(b.ID),
			Status:    string(b.Status),
			Refund:    refundDTO(refund),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.notifyAfter(ctx, note)
	return result, nil
}

func (h *TransitionHandler) Start(ctx context.Context, cmd StartBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, _, err := h.loadForOwnerAction(ctx, unit, cmd.BookingID, cmd.Actor)
		if err != nil {
			return err
		}
		if err := b.Start(h.now()); err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		result = &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	return result, err
}

func (h *TransitionHandler) Complete(ctx context.Context, cmd CompleteBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	var note *policies.Notification
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, _, err := h.loadForOwnerAction(ctx, unit, cmd.BookingID, cmd.Actor)
		if err != nil {
			return err
		}
		if err := b.Complete(h.now()); err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		note = &policies.Notification{
			Recipient: string(b.Customer),
			Kind:      "booking_completed",
			Subject:   "Stay completed",
			Body:      "Your stay " + b.Range.String() + " is complete. You can leave a review now.",
			Meta:      map[string]string{"booking_id": string(b.ID)},
		}
		result = &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.notifyAfter(ctx, note)
	return result, nil
}

// Expire is reserved for the scheduler and administrators.
func (h *TransitionHandler) Expire(ctx context.Context, cmd ExpireBookingCommand) (*TransitionResult, error) {
	var result *TransitionResult
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		if !cmd.Actor.Privileged() {
			return actor.ErrForbidden
		}
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.Expire(h.now()); err != nil {
			return err
		}
		if err := h.save(ctx, unit, b); err != nil {
			return err
		}
		result = &TransitionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	return result, err
}

func (h *TransitionHandler) loadForOwnerAction(ctx context.Context, unit uow.UnitOfWork, bookingID string, act actor.Actor) (*domainbooking.Booking, *domainlisting.Listing, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, nil, err
	}
	lst, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if !act.Privileged() && string(lst.Owner) != act.ID {
		return nil, nil, actor.ErrForbidden
	}
	return b, lst, nil
}

func (h *TransitionHandler) withUnit(ctx context.Context, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
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

func (h *TransitionHandler) save(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), b.PendingEvents()); err != nil {
		return err
	}
	b.ClearEvents()
	return nil
}

func (h *TransitionHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *TransitionHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// notifyAfter fires once the unit of work has completed so a rolled-back
// transition never pings anyone.
func (h *TransitionHandler) notifyAfter(ctx context.Context, n *policies.Notification) {
	if n == nil || h.Notifier == nil {
		return
	}
	if err := h.Notifier.Notify(ctx, *n); err != nil && h.Logger != nil {
		h.Logger.Warn("notification dropped", "kind", n.Kind, "error", err)
	}
}

func refundDTO(refund money.Money) *dto.MoneyDTO {
	if refund.Currency == "" {
		return nil
	}
	m := dto.MapMoney(refund)
	return &m
}
