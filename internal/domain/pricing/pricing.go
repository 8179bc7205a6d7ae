package pricing

import (
	"errors"

	"stayhub/internal/domain/shared/money"
)

var (
	ErrNonPositiveNights = errors.New("pricing: nights must be positive")
	ErrCurrencyUnset     = errors.New("pricing: currency must be defined")
	ErrNegativeComponent = errors.New("pricing: fee components cannot be negative")
)

// DefaultPlatformFeePercent is the marketplace surcharge applied on top of
// base price plus cleaning fee.
const DefaultPlatformFeePercent = 10

// Breakdown is the invoice a quote produces. Bookings freeze a copy of it at
// placement time; the catalog uses it for display.
type Breakdown struct {
	Nights      int         `json:"nights" bson:"nights"`
	Nightly     money.Money `json:"nightly" bson:"nightly"`
	Base        money.Money `json:"base" bson:"base"`
	CleaningFee money.Money `json:"cleaning_fee" bson:"cleaning_fee"`
	PlatformFee money.Money `json:"platform_fee" bson:"platform_fee"`
	Total       money.Money `json:"total" bson:"total"`
}

type QuoteInput struct {
	Nightly            money.Money
	CleaningFee        money.Money
	Nights             int
	PlatformFeePercent int64
}

// Quote computes the price breakdown for a stay. It is a pure function of
// its input: identical input yields identical output, which is what lets a
// booking recompute and verify its frozen snapshot at any time.
//
// Each accumulation step rounds half-up to whole cents so the row amounts
// always sum to the total like a human-auditable invoice.
func Quote(input QuoteInput) (Breakdown, error) {
	if input.Nights <= 0 {
		return Breakdown{}, ErrNonPositiveNights
	}
	if input.Nightly.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	cleaning := input.CleaningFee
	if cleaning.Currency == "" {
		cleaning = money.Money{Amount: 0, Currency: input.Nightly.Currency}
	}
	if cleaning.Amount < 0 {
		return Breakdown{}, ErrNegativeComponent
	}

	base := input.Nightly.Multiply(int64(input.Nights))
	subtotal, err := base.Add(cleaning)
	if err != nil {
		return Breakdown{}, err
	}
	fee := subtotal.Percent(input.PlatformFeePercent)
	total, err := subtotal.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Nights:      input.Nights,
		Nightly:     input.Nightly,
		Base:        base,
		CleaningFee: cleaning,
		PlatformFee: fee,
		Total:       total,
	}, nil
}
