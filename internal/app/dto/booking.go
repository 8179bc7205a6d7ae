package dto

import (
	"time"

	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type PriceBreakdownDTO struct {
	Nights      int      `json:"nights"`
	Nightly     MoneyDTO `json:"nightly"`
	Base        MoneyDTO `json:"base"`
	CleaningFee MoneyDTO `json:"cleaning_fee"`
	PlatformFee MoneyDTO `json:"platform_fee"`
	Total       MoneyDTO `json:"total"`
}

func MapBreakdown(b pricing.Breakdown) PriceBreakdownDTO {
	return PriceBreakdownDTO{
		Nights:      b.Nights,
		Nightly:     MapMoney(b.Nightly),
		Base:        MapMoney(b.Base),
		CleaningFee: MapMoney(b.CleaningFee),
		PlatformFee: MapMoney(b.PlatformFee),
		Total:       MapMoney(b.Total),
	}
}

type BookingSummary struct {
	ID              string            `json:"id"`
	ListingID       string            `json:"listing_id"`
	CustomerID      string            `json:"customer_id"`
	CheckIn         time.Time         `json:"check_in"`
	CheckOut        time.Time         `json:"check_out"`
	Nights          int               `json:"nights"`
	Guests          int               `json:"guests"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	Policy          string            `json:"cancellation_policy"`
	Price           PriceBreakdownDTO `json:"price"`
	SpecialRequests string            `json:"special_requests,omitempty"`
	CancelReason    string            `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
	Total int              `json:"total"`
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		CustomerID:      string(b.Customer),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Nights:          b.Range.Nights(),
		Guests:          b.Guests,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Policy:          string(b.Policy),
		Price:           MapBreakdown(b.Price),
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt,
	}
}
