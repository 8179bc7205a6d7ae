package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	reviewapp "stayhub/internal/app/handlers/review"
	"stayhub/internal/app/queries"
)

// ReviewHandler exposes guest reviews and the derived rating aggregates.
type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type submitReviewRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.SubmitReviewCommand{
		CommandID:       uuid.NewString(),
		BookingID:       c.Param("id"),
		Actor:           act,
		Rating:          req.Rating,
		Comment:         req.Comment,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reviewapp.SubmitReviewCommand, *reviewapp.SubmitReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type respondReviewRequest struct {
	Response string `json:"response" binding:"required"`
}

func (h ReviewHandler) Respond(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req respondReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.RespondReviewCommand{ReviewID: c.Param("id"), Actor: act, Response: req.Response}
	result, err := commands.Dispatch[reviewapp.RespondReviewCommand, *reviewapp.RespondReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) ListByListing(c *gin.Context) {
	query := reviewapp.ListReviewsQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[reviewapp.ListReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) ListingRating(c *gin.Context) {
	query := reviewapp.ListingRatingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[reviewapp.ListingRatingQuery, *dto.RatingDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) OwnerRating(c *gin.Context) {
	query := reviewapp.OwnerRatingQuery{OwnerID: c.Param("id")}
	result, err := queries.Ask[reviewapp.OwnerRatingQuery, *dto.OwnerRatingDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
