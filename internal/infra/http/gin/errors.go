package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/actor"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainpayment "stayhub/internal/domain/payment"
	"stayhub/internal/domain/pricing"
	domainreview "stayhub/internal/domain/review"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/validate"
	mongostore "stayhub/internal/infra/db/mongo"
)

// respondError translates domain failures into HTTP statuses. Anything not
// recognized falls through as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var fieldErrs validate.Errors
	if errors.As(err, &fieldErrs) {
		fields := make([]gin.H, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, gin.H{"field": fe.Field, "message": fe.Message})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	var conflict domainbooking.DateRangeConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "booking_id": string(conflict.Holder)})
		return
	}

	var addrListed domainlisting.AddressAlreadyListedError
	var addrOwner domainlisting.AddressOwnerMismatchError
	var addrCap domainlisting.AddressUnitCapExceededError
	if errors.As(err, &addrListed) || errors.As(err, &addrOwner) || errors.As(err, &addrCap) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	var amountMismatch domainpayment.AmountMismatchError
	var refundTooBig domainpayment.RefundExceedsPaymentError
	var refundOverdraw domainpayment.RefundExceedsRemainingError
	if errors.As(err, &amountMismatch) || errors.As(err, &refundTooBig) || errors.As(err, &refundOverdraw) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainlisting.ErrNotFound),
		errors.Is(err, domainlocation.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound),
		errors.Is(err, domainreview.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, actor.ErrActorRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, actor.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrUnknownPolicy),
		errors.Is(err, pricing.ErrNonPositiveNights),
		errors.Is(err, pricing.ErrNegativeComponent),
		errors.Is(err, domainreview.ErrEmptyReview),
		errors.Is(err, domainpayment.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrNotCancellable),
		errors.Is(err, domainbooking.ErrAlreadyStarted),
		errors.Is(err, domainbooking.ErrStayNotStarted),
		errors.Is(err, domainbooking.ErrStayNotFinished),
		errors.Is(err, domainlisting.ErrInvalidState),
		errors.Is(err, domainlisting.ErrInactive),
		errors.Is(err, domainlisting.ErrDeleted),
		errors.Is(err, domainlisting.ErrAlreadyDeleted),
		errors.Is(err, domainpayment.ErrInvalidState),
		errors.Is(err, domainpayment.ErrDuplicatePayment),
		errors.Is(err, domainreview.ErrDuplicateReview),
		errors.Is(err, domainreview.ErrReviewNotAllowed),
		errors.Is(err, domainreview.ErrAlreadyResponded),
		errors.Is(err, domainreview.ErrNotBookingCustomer),
		errors.Is(err, domainlocation.ErrDuplicateLocation),
		errors.Is(err, mongostore.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
