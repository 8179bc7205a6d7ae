package dto

import (
	"time"

	domainpayment "stayhub/internal/domain/payment"
)

type PaymentSummary struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"booking_id"`
	Amount        MoneyDTO   `json:"amount"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type RefundSummary struct {
	ID         string    `json:"id"`
	PaymentID  string    `json:"payment_id"`
	Amount     MoneyDTO  `json:"amount"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	RefundedAt time.Time `json:"refunded_at"`
}

func MapPaymentSummary(p *domainpayment.Payment) PaymentSummary {
	out := PaymentSummary{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		Amount:        MapMoney(p.Amount),
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
	if !p.PaidAt.IsZero() {
		at := p.PaidAt
		out.PaidAt = &at
	}
	return out
}

func MapRefundSummary(r *domainpayment.Refund) RefundSummary {
	return RefundSummary{
		ID:         string(r.ID),
		PaymentID:  string(r.PaymentID),
		Amount:     MapMoney(r.Amount),
		Reason:     r.Reason,
		Status:     string(r.Status),
		RefundedAt: r.RefundedAt,
	}
}
