package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	paymentapp "stayhub/internal/app/handlers/payment"
	"stayhub/internal/app/queries"
	"stayhub/internal/domain/shared/money"
)

// PaymentHandler records payments against bookings and issues refunds.
type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type recordPaymentRequest struct {
	AmountCents   int64  `json:"amount_cents" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

func (h PaymentHandler) Record(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := money.New(req.AmountCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := paymentapp.RecordPaymentCommand{
		CommandID:       uuid.NewString(),
		BookingID:       c.Param("id"),
		Actor:           act,
		Amount:          amount,
		Method:          req.Method,
		TransactionID:   req.TransactionID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentapp.RecordPaymentCommand, *paymentapp.RecordPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type issueRefundRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

func (h PaymentHandler) Refund(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req issueRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := money.New(req.AmountCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := paymentapp.IssueRefundCommand{
		CommandID:       uuid.NewString(),
		PaymentID:       c.Param("id"),
		Actor:           act,
		Amount:          amount,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentapp.IssueRefundCommand, *paymentapp.IssueRefundResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentHandler) GetByBooking(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	query := paymentapp.GetPaymentQuery{Actor: act, BookingID: c.Param("id")}
	result, err := queries.Ask[paymentapp.GetPaymentQuery, paymentapp.PaymentView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
