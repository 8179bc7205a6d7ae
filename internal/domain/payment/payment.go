package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/events"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("payment: not found")
	ErrDuplicatePayment = errors.New("payment: booking already has a payment")
	ErrInvalidState     = errors.New("payment: invalid status transition")
	ErrReasonRequired   = errors.New("payment: refund reason is required")
)

type PaymentID string
type RefundID string

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

type Method string

const (
	MethodCard         Method = "card"
	MethodPaypal       Method = "paypal"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodCrypto       Method = "crypto"
)

func ValidMethod(m Method) bool {
	switch m {
	case MethodCard, MethodPaypal, MethodBankTransfer, MethodCash, MethodCrypto:
		return true
	}
	return false
}

// Payment is the one ledger row per booking; its amount must equal the
// booking total exactly at validation time.
type Payment struct {
	ID            PaymentID
	BookingID     booking.BookingID
	Customer      booking.CustomerID
	Amount        money.Money
	Method        Method
	Status        Status
	TransactionID string
	PaidAt        time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.EventRecorder
}

// Refund belongs to a payment and is immutable once completed.
type Refund struct {
	ID            RefundID
	PaymentID     PaymentID
	Amount        money.Money
	Reason        string
	Status        Status
	TransactionID string
	RefundedAt    time.Time
	CreatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error

	// RefundsByPayment and SaveRefund must serialize per payment so two
	// concurrent refunds cannot both pass the remaining-amount check.
	RefundsByPayment(ctx context.Context, paymentID PaymentID) ([]*Refund, error)
	SaveRefund(ctx context.Context, r *Refund) error
}

// AmountMismatchError reports a manual payment entry that disagrees with the
// booking's frozen total. Treated as a hard failure: it signals corruption.
type AmountMismatchError struct {
	Got  money.Money
	Want money.Money
}

func (e AmountMismatchError) Error() string {
	return fmt.Sprintf("payment: amount %s must equal booking total %s", e.Got, e.Want)
}

// RefundExceedsPaymentError reports a single refund above the payment amount.
type RefundExceedsPaymentError struct {
	Refund  money.Money
	Payment money.Money
}

func (e RefundExceedsPaymentError) Error() string {
	return fmt.Sprintf("payment: refund %s exceeds payment amount %s", e.Refund, e.Payment)
}

// RefundExceedsRemainingError reports the cumulative cap.
type RefundExceedsRemainingError struct {
	Refund   money.Money
	Refunded money.Money
	Payment  money.Money
}

func (e RefundExceedsRemainingError) Error() string {
	return fmt.Sprintf("payment: refund %s plus already refunded %s exceeds payment amount %s",
		e.Refund, e.Refunded, e.Payment)
}

type CreateParams struct {
	ID       PaymentID
	Booking  *booking.Booking
	Customer booking.CustomerID
	Amount   money.Money
	Method   Method
	Now      time.Time
}

func New(params CreateParams) (*Payment, error) {
	b := params.Booking
	if b == nil {
		return nil, booking.ErrNotFound
	}
	if !params.Amount.Equal(b.Price.Total) {
		return nil, AmountMismatchError{Got: params.Amount, Want: b.Price.Total}
	}
	method := params.Method
	if method == "" {
		method = MethodCard
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("payment: unknown method %q", method)
	}
	now := params.Now.UTC()
	p := &Payment{
		ID:        params.ID,
		BookingID: b.ID,
		Customer:  params.Customer,
		Amount:    params.Amount,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Record(PaymentRecorded{PaymentID: p.ID, BookingID: p.BookingID, Amount: p.Amount, At: now})
	return p, nil
}

// MarkCompleted records a provider confirmation.
func (p *Payment) MarkCompleted(transactionID string, now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidState
	}
	p.Status = StatusCompleted
	p.TransactionID = strings.TrimSpace(transactionID)
	p.PaidAt = now.UTC()
	p.UpdatedAt = p.PaidAt
	p.Record(PaymentCompleted{PaymentID: p.ID, BookingID: p.BookingID, At: p.UpdatedAt})
	return nil
}

func (p *Payment) MarkProcessing(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidState
	}
	p.Status = StatusProcessing
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) MarkFailed(now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return ErrInvalidState
	}
	p.Status = StatusFailed
	p.UpdatedAt = now.UTC()
	p.Record(PaymentFailed{PaymentID: p.ID, BookingID: p.BookingID, At: p.UpdatedAt})
	return nil
}

// MarkRefunded flips the payment once completed refunds cover its amount.
func (p *Payment) MarkRefunded(now time.Time) error {
	if p.Status != StatusCompleted {
		return ErrInvalidState
	}
	p.Status = StatusRefunded
	p.UpdatedAt = now.UTC()
	return nil
}

// CompletedRefundTotal sums completed refunds for the remaining-amount check.
func CompletedRefundTotal(refunds []*Refund, currency string) money.Money {
	total := money.Money{Amount: 0, Currency: currency}
	for _, r := range refunds {
		if r.Status != StatusCompleted {
			continue
		}
		total.Amount += r.Amount.Amount
	}
	return total
}

type RefundParams struct {
	ID      RefundID
	Payment *Payment
	// Existing holds the payment's prior refunds; the caller fetches them
	// inside the same serialization scope as the save.
	Existing []*Refund
	Amount   money.Money
	Reason   string
	Now      time.Time
}

// NewRefund validates the per-refund and cumulative caps against the payment.
func NewRefund(params RefundParams) (*Refund, error) {
	p := params.Payment
	if p == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(params.Reason) == "" {
		return nil, ErrReasonRequired
	}
	if params.Amount.Amount <= 0 {
		return nil, fmt.Errorf("payment: refund amount must be positive, got %s", params.Amount)
	}
	if p.Amount.LessThan(params.Amount) {
		return nil, RefundExceedsPaymentError{Refund: params.Amount, Payment: p.Amount}
	}
	refunded := CompletedRefundTotal(params.Existing, p.Amount.Currency)
	if refunded.Amount+params.Amount.Amount > p.Amount.Amount {
		return nil, RefundExceedsRemainingError{Refund: params.Amount, Refunded: refunded, Payment: p.Amount}
	}
	now := params.Now.UTC()
	return &Refund{
		ID:         params.ID,
		PaymentID:  p.ID,
		Amount:     params.Amount,
		Reason:     strings.TrimSpace(params.Reason),
		Status:     StatusCompleted,
		RefundedAt: now,
		CreatedAt:  now,
	}, nil
}
