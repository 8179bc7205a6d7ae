package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/shared/money"
)

func TestQuoteTwoNightsWithPlatformFee(t *testing.T) {
	got, err := Quote(QuoteInput{
		Nightly:            money.Must(100_00, "USD"),
		Nights:             2,
		PlatformFeePercent: DefaultPlatformFeePercent,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, got.Nights)
	assert.Equal(t, money.Must(200_00, "USD"), got.Base)
	assert.Equal(t, money.Must(0, "USD"), got.CleaningFee)
	assert.Equal(t, money.Must(20_00, "USD"), got.PlatformFee)
	assert.Equal(t, money.Must(220_00, "USD"), got.Total)
}

func TestQuoteIncludesCleaningFeeInFeeBase(t *testing.T) {
	got, err := Quote(QuoteInput{
		Nightly:            money.Must(80_00, "USD"),
		CleaningFee:        money.Must(30_00, "USD"),
		Nights:             3,
		PlatformFeePercent: DefaultPlatformFeePercent,
	})
	require.NoError(t, err)

	// Fee applies to base + cleaning: 10% of 270.00.
	assert.Equal(t, money.Must(240_00, "USD"), got.Base)
	assert.Equal(t, money.Must(27_00, "USD"), got.PlatformFee)
	assert.Equal(t, money.Must(297_00, "USD"), got.Total)
}

func TestQuoteIsDeterministic(t *testing.T) {
	input := QuoteInput{
		Nightly:            money.Must(123_45, "EUR"),
		CleaningFee:        money.Must(9_99, "EUR"),
		Nights:             7,
		PlatformFeePercent: DefaultPlatformFeePercent,
	}
	first, err := Quote(input)
	require.NoError(t, err)
	second, err := Quote(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuoteRowsSumToTotal(t *testing.T) {
	got, err := Quote(QuoteInput{
		Nightly:            money.Must(33_33, "USD"),
		CleaningFee:        money.Must(1_01, "USD"),
		Nights:             3,
		PlatformFeePercent: DefaultPlatformFeePercent,
	})
	require.NoError(t, err)
	assert.Equal(t, got.Total.Amount, got.Base.Amount+got.CleaningFee.Amount+got.PlatformFee.Amount)
}

func TestQuoteValidation(t *testing.T) {
	_, err := Quote(QuoteInput{Nightly: money.Must(100_00, "USD"), Nights: 0})
	assert.ErrorIs(t, err, ErrNonPositiveNights)

	_, err = Quote(QuoteInput{Nightly: money.Money{Amount: 100_00}, Nights: 2})
	assert.ErrorIs(t, err, ErrCurrencyUnset)

	_, err = Quote(QuoteInput{
		Nightly:     money.Must(100_00, "USD"),
		CleaningFee: money.Money{Amount: -1, Currency: "USD"},
		Nights:      2,
	})
	assert.ErrorIs(t, err, ErrNegativeComponent)
}

func TestQuoteDefaultsCleaningCurrency(t *testing.T) {
	got, err := Quote(QuoteInput{
		Nightly:            money.Must(50_00, "EUR"),
		Nights:             1,
		PlatformFeePercent: DefaultPlatformFeePercent,
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.CleaningFee.Currency)
}
