package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/events"
)

const placeBookingKey = "booking.place"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

type PlaceBookingCommand struct {
	CommandID       string
	ListingID       string
	CustomerID      string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	SpecialRequests string
	IdempotencyKeyV string
}

func (c PlaceBookingCommand) Key() string { return placeBookingKey }

func (c PlaceBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PlaceBookingCommand) ResultPrototype() any { return &PlaceBookingResult{} }

type PlaceBookingResult struct {
	BookingID string                `json:"booking_id"`
	Status    string                `json:"status"`
	Price     dto.PriceBreakdownDTO `json:"price"`
}

// PlaceBookingHandler runs the booking placement sequence: quote, validate,
// overlap check, persist. The blocking fetch and the save happen inside one
// unit of work so two racing requests cannot both pass the conflict check.
type PlaceBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.NotifierPort
	Logger     *slog.Logger

	Rules      domainbooking.Rules
	Blocking   []domainbooking.Status
	FeePercent int64
	Clock      func() time.Time
}

func (h *PlaceBookingHandler) Handle(ctx context.Context, cmd PlaceBookingCommand) (*PlaceBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := h.now()
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}

	lst, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	feePercent := h.FeePercent
	if feePercent == 0 {
		feePercent = pricing.DefaultPlatformFeePercent
	}
	price, err := pricing.Quote(pricing.QuoteInput{
		Nightly:            lst.NightlyRate,
		CleaningFee:        lst.CleaningFee,
		Nights:             dr.Nights(),
		PlatformFeePercent: feePercent,
	})
	if err != nil {
		return nil, err
	}

	bkg, err := domainbooking.New(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		Listing:         lst,
		Customer:        domainbooking.CustomerID(cmd.CustomerID),
		Range:           dr,
		Guests:          cmd.Guests,
		Price:           price,
		SpecialRequests: cmd.SpecialRequests,
		Rules:           h.rules(),
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	blocking := h.Blocking
	if blocking == nil {
		blocking = domainbooking.DefaultBlockingStatuses
	}
	existing, err := unit.Bookings().Blocking(ctx, lst.ID, blocking)
	if err != nil {
		return nil, err
	}
	if err := domainbooking.FindConflict(lst.ID, dr, existing); err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, bkg); err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, bkg.PendingEvents()); err != nil {
		return nil, err
	}
	bkg.ClearEvents()

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	h.notify(ctx, policies.Notification{
		Recipient: string(lst.Owner),
		Kind:      "booking_requested",
		Subject:   "New booking request",
		Body:      "A guest requested " + dr.String() + " at " + lst.Title,
		Meta:      map[string]string{"booking_id": string(bkg.ID)},
	})

	return &PlaceBookingResult{
		BookingID: string(bkg.ID),
		Status:    string(bkg.Status),
		Price:     dto.MapBreakdown(bkg.Price),
	}, nil
}

func (h *PlaceBookingHandler) rules() domainbooking.Rules {
	if h.Rules.MaxNights == 0 {
		return domainbooking.DefaultRules()
	}
	return h.Rules
}

func (h *PlaceBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *PlaceBookingHandler) drainEvents(ctx context.Context, evs []events.DomainEvent) error {
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), evs)
}

func (h *PlaceBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *PlaceBookingHandler) notify(ctx context.Context, n policies.Notification) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.Notify(ctx, n); err != nil && h.Logger != nil {
		h.Logger.Warn("notification dropped", "kind", n.Kind, "error", err)
	}
}

var _ commands.Handler[PlaceBookingCommand, *PlaceBookingResult] = (*PlaceBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*PlaceBookingCommand)(nil)
