package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	bookingapp "stayhub/internal/app/handlers/booking"
	"stayhub/internal/app/queries"
)

// BookingHandler wires the booking lifecycle to HTTP.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type placeBookingRequest struct {
	ListingID       string `json:"listing_id" binding:"required"`
	CheckIn         string `json:"check_in" binding:"required"`
	CheckOut        string `json:"check_out" binding:"required"`
	Guests          int    `json:"guests" binding:"required"`
	SpecialRequests string `json:"special_requests"`
}

func (h BookingHandler) Place(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req placeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, okIn := parseDate(req.CheckIn)
	checkOut, okOut := parseDate(req.CheckOut)
	if !okIn || !okOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in and check_out must be dates (YYYY-MM-DD)"})
		return
	}
	cmd := bookingapp.PlaceBookingCommand{
		CommandID:       uuid.NewString(),
		ListingID:       req.ListingID,
		CustomerID:      act.ID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.PlaceBookingCommand, *bookingapp.PlaceBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Confirm(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := bookingapp.ConfirmBookingCommand{BookingID: c.Param("id"), Actor: act}
	h.transition(c, func() (*bookingapp.TransitionResult, error) {
		return commands.Dispatch[bookingapp.ConfirmBookingCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Reject(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req transitionRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.RejectBookingCommand{BookingID: c.Param("id"), Actor: act, Reason: req.Reason}
	h.transition(c, func() (*bookingapp.TransitionResult, error) {
		return commands.Dispatch[bookingapp.RejectBookingCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req transitionRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), Actor: act, Reason: req.Reason}
	h.transition(c, func() (*bookingapp.TransitionResult, error) {
		return commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Start(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := bookingapp.StartBookingCommand{BookingID: c.Param("id"), Actor: act}
	h.transition(c, func() (*bookingapp.TransitionResult, error) {
		return commands.Dispatch[bookingapp.StartBookingCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Complete(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := bookingapp.CompleteBookingCommand{BookingID: c.Param("id"), Actor: act}
	h.transition(c, func() (*bookingapp.TransitionResult, error) {
		return commands.Dispatch[bookingapp.CompleteBookingCommand, *bookingapp.TransitionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) transition(c *gin.Context, run func() (*bookingapp.TransitionResult, error)) {
	result, err := run()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) List(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var checkInGTE time.Time
	if t, ok := parseDate(c.Query("check_in_gte")); ok {
		checkInGTE = t
	}
	query := bookingapp.ListBookingsQuery{
		Actor:      act,
		ListingID:  c.Query("listing_id"),
		CustomerID: c.Query("customer_id"),
		Status:     c.Query("status"),
		CheckInGTE: checkInGTE,
		Limit:      parseInt(c.Query("limit")),
		Offset:     parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	query := bookingapp.GetBookingQuery{Actor: act, BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingSummary](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
