package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/shared/money"
)

const recordPaymentKey = "payment.record"

var ErrUnitOfWorkRequired = errors.New("payment: unit of work required")

type RecordPaymentCommand struct {
	CommandID       string
	BookingID       string
	Actor           actor.Actor
	Amount          money.Money
	Method          string
	TransactionID   string
	IdempotencyKeyV string
}

func (c RecordPaymentCommand) Key() string { return recordPaymentKey }

func (c RecordPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RecordPaymentCommand) ResultPrototype() any { return &RecordPaymentResult{} }

type RecordPaymentResult struct {
	PaymentID string       `json:"payment_id"`
	Status    string       `json:"status"`
	Amount    dto.MoneyDTO `json:"amount"`
}

// RecordPaymentHandler books a received payment against a stay. The amount
// must match the booking's frozen total to the cent; anything else is
// rejected as a ledger inconsistency.
type RecordPaymentHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	var result *RecordPaymentResult
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if !cmd.Actor.Privileged() && string(b.Customer) != cmd.Actor.ID {
			return actor.ErrForbidden
		}
		if _, err := unit.Payments().ByBooking(ctx, b.ID); err == nil {
			return domainpayment.ErrDuplicatePayment
		} else if !errors.Is(err, domainpayment.ErrNotFound) {
			return err
		}

		now := h.now()
		p, err := domainpayment.New(domainpayment.CreateParams{
			ID:       domainpayment.PaymentID(cmd.CommandID),
			Booking:  b,
			Customer: b.Customer,
			Amount:   cmd.Amount,
			Method:   domainpayment.Method(cmd.Method),
			Now:      now,
		})
		if err != nil {
			return err
		}
		if err := p.MarkCompleted(cmd.TransactionID, now); err != nil {
			return err
		}
		if err := unit.Payments().Save(ctx, p); err != nil {
			return err
		}

		b.SetPaymentStatus(domainbooking.PaymentCompleted, now)
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), p.PendingEvents()); err != nil {
			return err
		}
		p.ClearEvents()

		if h.Logger != nil {
			h.Logger.Info("payment recorded", "payment_id", p.ID, "booking_id", b.ID, "amount", p.Amount)
		}
		result = &RecordPaymentResult{
			PaymentID: string(p.ID),
			Status:    string(p.Status),
			Amount:    dto.MapMoney(p.Amount),
		}
		return nil
	})
	return result, err
}

func (h *RecordPaymentHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *RecordPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func withUnit(ctx context.Context, factory uow.Factory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
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

var _ commands.Handler[RecordPaymentCommand, *RecordPaymentResult] = (*RecordPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*RecordPaymentCommand)(nil)
