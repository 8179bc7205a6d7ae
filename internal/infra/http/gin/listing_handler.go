package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	listingapp "stayhub/internal/app/handlers/listing"
	"stayhub/internal/app/queries"
	"stayhub/internal/domain/shared/money"
)

// ListingHandler covers catalog CRUD, quoting, and photo uploads.
type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type addressRequest struct {
	Country   string   `json:"country" binding:"required"`
	City      string   `json:"city" binding:"required"`
	Address   string   `json:"address" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type createListingRequest struct {
	Title            string         `json:"title" binding:"required"`
	Description      string         `json:"description"`
	PropertyType     string         `json:"property_type"`
	Address          addressRequest `json:"address" binding:"required"`
	Rooms            int            `json:"rooms"`
	Bedrooms         int            `json:"bedrooms"`
	Bathrooms        int            `json:"bathrooms"`
	MaxGuests        int            `json:"max_guests" binding:"required"`
	NightlyRateCents int64          `json:"nightly_rate_cents" binding:"required"`
	CleaningFeeCents int64          `json:"cleaning_fee_cents"`
	Currency         string         `json:"currency" binding:"required"`
	Policy           string         `json:"cancellation_policy"`
	MultiUnit        bool           `json:"multi_unit"`
	Amenities        []string       `json:"amenities"`
}

func (h ListingHandler) Create(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nightly, err := money.New(req.NightlyRateCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cleaning, err := money.New(req.CleaningFeeCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr := listingapp.AddressInput{
		Country: req.Address.Country,
		City:    req.Address.City,
		Address: req.Address.Address,
	}
	if req.Address.Latitude != nil && req.Address.Longitude != nil {
		addr.Latitude = *req.Address.Latitude
		addr.Longitude = *req.Address.Longitude
		addr.HasCoords = true
	}
	cmd := listingapp.CreateListingCommand{
		CommandID:       uuid.NewString(),
		OwnerID:         act.ID,
		Title:           req.Title,
		Description:     req.Description,
		PropertyType:    req.PropertyType,
		Address:         addr,
		Rooms:           req.Rooms,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		MaxGuests:       req.MaxGuests,
		NightlyRate:     nightly,
		CleaningFee:     cleaning,
		Policy:          req.Policy,
		MultiUnit:       req.MultiUnit,
		Amenities:       req.Amenities,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *listingapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.ListingDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) OwnerListings(c *gin.Context) {
	query := listingapp.OwnerListingsQuery{OwnerID: c.Param("id")}
	result, err := queries.Ask[listingapp.OwnerListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Quote(c *gin.Context) {
	checkIn, okIn := parseDate(c.Query("check_in"))
	checkOut, okOut := parseDate(c.Query("check_out"))
	if !okIn || !okOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in and check_out must be dates (YYYY-MM-DD)"})
		return
	}
	query := listingapp.QuoteQuery{ListingID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[listingapp.QuoteQuery, dto.PriceBreakdownDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Deactivate(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := listingapp.DeactivateListingCommand{ListingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[listingapp.DeactivateListingCommand, *listingapp.ManageResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Reactivate(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := listingapp.ReactivateListingCommand{ListingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[listingapp.ReactivateListingCommand, *listingapp.ManageResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := listingapp.DeleteListingCommand{ListingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[listingapp.DeleteListingCommand, *listingapp.ManageResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Verify(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmd := listingapp.VerifyListingCommand{ListingID: c.Param("id"), Actor: act}
	result, err := commands.Dispatch[listingapp.VerifyListingCommand, *listingapp.ManageResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) UploadPhoto(c *gin.Context) {
	act, err := actorFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'photo' is required"})
		return
	}
	defer file.Close()
	cmd := listingapp.UploadPhotoCommand{
		ListingID:   c.Param("id"),
		Actor:       act,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	result, err := commands.Dispatch[listingapp.UploadPhotoCommand, *listingapp.UploadPhotoResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
