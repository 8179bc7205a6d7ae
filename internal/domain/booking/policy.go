package booking

import (
	"errors"
	"time"

	"stayhub/internal/domain/shared/money"
)

// Policy is a cancellation policy tag. The listing carries the live tag and
// every booking freezes a copy at placement time, so later catalog edits
// never change the refund terms of an existing stay.
type Policy string

const (
	PolicyFlexible      Policy = "flexible"
	PolicyModerate      Policy = "moderate"
	PolicyStrict        Policy = "strict"
	PolicySuperStrict   Policy = "super_strict"
	PolicyNonRefundable Policy = "non_refundable"
)

// Cancellation lead-time thresholds.
const (
	FlexibleFullRefundHours   = 24
	ModerateFullRefundDays    = 5
	StrictFullRefundDays      = 7
	StrictHalfRefundDays      = 2
	SuperStrictFullRefundDays = 30
	SuperStrictHalfRefundDays = 14
)

var ErrUnknownPolicy = errors.New("booking: unknown cancellation policy")

func ValidPolicy(p Policy) bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict, PolicySuperStrict, PolicyNonRefundable:
		return true
	}
	return false
}

// RefundPercent returns the refundable share (0, 50 or 100) for cancelling
// at cancelAt a stay starting at checkIn. The schedule is monotonic: more
// lead time never yields a smaller refund.
func (p Policy) RefundPercent(cancelAt, checkIn time.Time) (int64, error) {
	hoursUntil := checkIn.Sub(cancelAt).Hours()
	daysUntil := hoursUntil / 24

	switch p {
	case PolicyFlexible:
		if hoursUntil >= FlexibleFullRefundHours {
			return 100, nil
		}
		return 0, nil
	case PolicyModerate:
		if daysUntil >= ModerateFullRefundDays {
			return 100, nil
		}
		return 0, nil
	case PolicyStrict:
		if daysUntil >= StrictFullRefundDays {
			return 100, nil
		}
		if daysUntil >= StrictHalfRefundDays {
			return 50, nil
		}
		return 0, nil
	case PolicySuperStrict:
		if daysUntil >= SuperStrictFullRefundDays {
			return 100, nil
		}
		if daysUntil >= SuperStrictHalfRefundDays {
			return 50, nil
		}
		return 0, nil
	case PolicyNonRefundable:
		return 0, nil
	}
	return 0, ErrUnknownPolicy
}

// Refund applies the policy schedule to a paid total.
func (p Policy) Refund(total money.Money, cancelAt, checkIn time.Time) (money.Money, error) {
	percent, err := p.RefundPercent(cancelAt, checkIn)
	if err != nil {
		return money.Money{}, err
	}
	if percent >= 100 {
		return total, nil
	}
	return total.Percent(percent), nil
}
