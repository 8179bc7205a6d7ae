package booking

import (
	"context"
	"time"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/handlers/support"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
)

const (
	listBookingsKey = "booking.list"
	getBookingKey   = "booking.get"

	defaultListLimit = 50
	maxListLimit     = 200
)

type ListBookingsQuery struct {
	Actor      actor.Actor
	ListingID  string
	CustomerID string
	Status     string
	CheckInGTE time.Time
	Limit      int
	Offset     int
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.Factory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainbooking.ListParams{
		ListingID:  domainlisting.ListingID(q.ListingID),
		Customer:   domainbooking.CustomerID(q.CustomerID),
		Status:     domainbooking.Status(q.Status),
		CheckInGTE: q.CheckInGTE,
		Limit:      clampLimit(q.Limit),
		Offset:     q.Offset,
	}
	// Guests only see their own bookings; owners must scope by listing.
	if !q.Actor.Privileged() {
		switch q.Actor.Role {
		case actor.RoleCustomer:
			params.Customer = domainbooking.CustomerID(q.Actor.ID)
		case actor.RoleOwner:
			if params.ListingID == "" {
				return dto.BookingCollection{}, actor.ErrForbidden
			}
			lst, err := unit.Listings().ByID(execCtx, params.ListingID)
			if err != nil {
				return dto.BookingCollection{}, err
			}
			if string(lst.Owner) != q.Actor.ID {
				return dto.BookingCollection{}, actor.ErrForbidden
			}
		default:
			return dto.BookingCollection{}, actor.ErrForbidden
		}
	}

	items, err := unit.Bookings().List(execCtx, params)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	out := dto.BookingCollection{Items: make([]dto.BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBookingSummary(b))
	}
	out.Total = len(out.Items)
	return out, nil
}

type GetBookingQuery struct {
	Actor     actor.Actor
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingSummary, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingSummary{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingSummary{}, err
	}
	if !q.Actor.Privileged() && string(b.Customer) != q.Actor.ID {
		lst, err := unit.Listings().ByID(execCtx, b.ListingID)
		if err != nil {
			return dto.BookingSummary{}, err
		}
		if string(lst.Owner) != q.Actor.ID {
			return dto.BookingSummary{}, actor.ErrForbidden
		}
	}
	return dto.MapBookingSummary(b), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
