package listing

import (
	"time"

	"stayhub/internal/domain/location"
)

type ListingCreated struct {
	ListingID  ListingID
	Owner      OwnerID
	LocationID location.LocationID
	At         time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingDeactivated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingDeactivated) EventName() string     { return "listing.deactivated" }
func (e ListingDeactivated) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeactivated) OccurredAt() time.Time { return e.At }

type ListingReactivated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingReactivated) EventName() string     { return "listing.reactivated" }
func (e ListingReactivated) AggregateID() string   { return string(e.ListingID) }
func (e ListingReactivated) OccurredAt() time.Time { return e.At }

type ListingDeleted struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingDeleted) EventName() string     { return "listing.deleted" }
func (e ListingDeleted) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeleted) OccurredAt() time.Time { return e.At }
