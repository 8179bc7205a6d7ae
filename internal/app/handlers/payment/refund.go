package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/handlers/support"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/shared/money"
)

const (
	issueRefundKey = "payment.refund"
	getPaymentKey  = "payment.get"
)

type IssueRefundCommand struct {
	CommandID       string
	PaymentID       string
	Actor           actor.Actor
	Amount          money.Money
	Reason          string
	IdempotencyKeyV string
}

func (c IssueRefundCommand) Key() string { return issueRefundKey }

func (c IssueRefundCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c IssueRefundCommand) ResultPrototype() any { return &IssueRefundResult{} }

type IssueRefundResult struct {
	RefundID      string       `json:"refund_id"`
	PaymentStatus string       `json:"payment_status"`
	Amount        dto.MoneyDTO `json:"amount"`
}

// IssueRefundHandler appends a refund to the payment ledger. The per-refund
// and cumulative caps are enforced inside the unit of work, so concurrent
// refunds cannot overdraw the payment.
type IssueRefundHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *IssueRefundHandler) Handle(ctx context.Context, cmd IssueRefundCommand) (*IssueRefundResult, error) {
	if !cmd.Actor.Privileged() {
		return nil, actor.ErrForbidden
	}
	var result *IssueRefundResult
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		p, err := unit.Payments().ByID(ctx, domainpayment.PaymentID(cmd.PaymentID))
		if err != nil {
			return err
		}
		existing, err := unit.Payments().RefundsByPayment(ctx, p.ID)
		if err != nil {
			return err
		}

		now := h.now()
		refund, err := domainpayment.NewRefund(domainpayment.RefundParams{
			ID:       domainpayment.RefundID(cmd.CommandID),
			Payment:  p,
			Existing: existing,
			Amount:   cmd.Amount,
			Reason:   cmd.Reason,
			Now:      now,
		})
		if err != nil {
			return err
		}
		if err := unit.Payments().SaveRefund(ctx, refund); err != nil {
			return err
		}

		refunded := domainpayment.CompletedRefundTotal(append(existing, refund), p.Amount.Currency)
		if refunded.Equal(p.Amount) {
			if err := p.MarkRefunded(now); err != nil {
				return err
			}
			if err := unit.Payments().Save(ctx, p); err != nil {
				return err
			}
			if b, err := unit.Bookings().ByID(ctx, p.BookingID); err == nil {
				b.SetPaymentStatus(domainbooking.PaymentRefunded, now)
				if err := unit.Bookings().Save(ctx, b); err != nil {
					return err
				}
			} else if !errors.Is(err, domainbooking.ErrNotFound) {
				return err
			}
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), p.PendingEvents()); err != nil {
			return err
		}
		p.ClearEvents()

		if h.Logger != nil {
			h.Logger.Info("refund issued", "refund_id", refund.ID, "payment_id", p.ID, "amount", refund.Amount)
		}
		result = &IssueRefundResult{
			RefundID:      string(refund.ID),
			PaymentStatus: string(p.Status),
			Amount:        dto.MapMoney(refund.Amount),
		}
		return nil
	})
	return result, err
}

func (h *IssueRefundHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *IssueRefundHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

type GetPaymentQuery struct {
	Actor     actor.Actor
	BookingID string
}

func (q GetPaymentQuery) Key() string { return getPaymentKey }

type PaymentView struct {
	Payment dto.PaymentSummary  `json:"payment"`
	Refunds []dto.RefundSummary `json:"refunds"`
}

type GetPaymentHandler struct {
	UoWFactory uow.Factory
}

func (h *GetPaymentHandler) Handle(ctx context.Context, q GetPaymentQuery) (PaymentView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return PaymentView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	p, err := unit.Payments().ByBooking(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return PaymentView{}, err
	}
	if !q.Actor.Privileged() && string(p.Customer) != q.Actor.ID {
		return PaymentView{}, actor.ErrForbidden
	}
	refunds, err := unit.Payments().RefundsByPayment(execCtx, p.ID)
	if err != nil {
		return PaymentView{}, err
	}
	view := PaymentView{Payment: dto.MapPaymentSummary(p), Refunds: make([]dto.RefundSummary, 0, len(refunds))}
	for _, r := range refunds {
		view.Refunds = append(view.Refunds, dto.MapRefundSummary(r))
	}
	return view, nil
}

var _ commands.Handler[IssueRefundCommand, *IssueRefundResult] = (*IssueRefundHandler)(nil)
var _ middleware.IdempotentCommand = (*IssueRefundCommand)(nil)
