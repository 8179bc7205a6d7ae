package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayhub/internal/infra/config"
	"stayhub/internal/infra/obs"
)

type BookingHTTP interface {
	Place(c *gin.Context)
	Confirm(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Start(c *gin.Context)
	Complete(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
}

type ListingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	OwnerListings(c *gin.Context)
	Quote(c *gin.Context)
	Deactivate(c *gin.Context)
	Reactivate(c *gin.Context)
	Delete(c *gin.Context)
	Verify(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type PaymentHTTP interface {
	Record(c *gin.Context)
	Refund(c *gin.Context)
	GetByBooking(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	Respond(c *gin.Context)
	ListByListing(c *gin.Context)
	ListingRating(c *gin.Context)
	OwnerRating(c *gin.Context)
}

type Handlers struct {
	Booking BookingHTTP
	Listing ListingHTTP
	Payment PaymentHTTP
	Review  ReviewHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.GET("/listings/:id/quote", h.Listing.Quote)
		api.POST("/listings/:id/deactivate", h.Listing.Deactivate)
		api.POST("/listings/:id/reactivate", h.Listing.Reactivate)
		api.DELETE("/listings/:id", h.Listing.Delete)
		api.POST("/listings/:id/verify", h.Listing.Verify)
		api.POST("/listings/:id/photos", h.Listing.UploadPhoto)
		api.GET("/owners/:id/listings", h.Listing.OwnerListings)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Place)
		api.GET("/bookings", h.Booking.List)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/start", h.Booking.Start)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
	}
	if h.Payment != nil {
		api.POST("/bookings/:id/payment", h.Payment.Record)
		api.GET("/bookings/:id/payment", h.Payment.GetByBooking)
		api.POST("/payments/:id/refunds", h.Payment.Refund)
	}
	if h.Review != nil {
		api.POST("/bookings/:id/review", h.Review.Submit)
		api.POST("/reviews/:id/response", h.Review.Respond)
		api.GET("/listings/:id/reviews", h.Review.ListByListing)
		api.GET("/listings/:id/rating", h.Review.ListingRating)
		api.GET("/owners/:id/rating", h.Review.OwnerRating)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

var (
	_ BookingHTTP = BookingHandler{}
	_ ListingHTTP = ListingHandler{}
	_ PaymentHTTP = PaymentHandler{}
	_ ReviewHTTP  = ReviewHandler{}
)
