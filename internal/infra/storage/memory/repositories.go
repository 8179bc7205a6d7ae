package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainlocation "stayhub/internal/domain/location"
	domainpayment "stayhub/internal/domain/payment"
	domainreview "stayhub/internal/domain/review"
)

// LocationRepository keeps the deduplicated address rows.
type LocationRepository struct {
	mu    sync.RWMutex
	byID  map[domainlocation.LocationID]domainlocation.Location
	byKey map[domainlocation.Key]domainlocation.LocationID
}

func NewLocationRepository() *LocationRepository {
	return &LocationRepository{
		byID:  make(map[domainlocation.LocationID]domainlocation.Location),
		byKey: make(map[domainlocation.Key]domainlocation.LocationID),
	}
}

func (r *LocationRepository) ByID(ctx context.Context, id domainlocation.LocationID) (*domainlocation.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.byID[id]
	if !ok {
		return nil, domainlocation.ErrNotFound
	}
	out := loc
	return &out, nil
}

func (r *LocationRepository) ByKey(ctx context.Context, key domainlocation.Key) (*domainlocation.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key]
	if !ok {
		return nil, domainlocation.ErrNotFound
	}
	loc := r.byID[id]
	out := loc
	return &out, nil
}

func (r *LocationRepository) Save(ctx context.Context, loc *domainlocation.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := loc.Key()
	if existing, ok := r.byKey[key]; ok && existing != loc.ID {
		return domainlocation.ErrDuplicateLocation
	}
	r.byID[loc.ID] = *loc
	r.byKey[key] = loc.ID
	return nil
}

// ListingRepository keeps catalog entries indexed by location triple.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]domainlisting.Listing
	// locationKey lets the address rule fetch neighbours without a scan.
	locationKey map[domainlisting.ListingID]domainlocation.Key
	locations   *LocationRepository
}

func NewListingRepository(locations *LocationRepository) *ListingRepository {
	return &ListingRepository{
		items:       make(map[domainlisting.ListingID]domainlisting.Listing),
		locationKey: make(map[domainlisting.ListingID]domainlocation.Key),
		locations:   locations,
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrNotFound
	}
	return cloneListing(l), nil
}

func (r *ListingRepository) ByLocation(ctx context.Context, key domainlocation.Key) ([]*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlisting.Listing
	for id, k := range r.locationKey {
		if k != key {
			continue
		}
		l := r.items[id]
		out = append(out, cloneListing(l))
	}
	return out, nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlisting.OwnerID) ([]*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlisting.Listing
	for _, l := range r.items {
		if l.Owner != owner {
			continue
		}
		out = append(out, cloneListing(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	key, err := r.resolveKey(ctx, l)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *l
	stored.Version++
	l.Version = stored.Version
	r.items[l.ID] = stored
	r.locationKey[l.ID] = key
	return nil
}

func (r *ListingRepository) resolveKey(ctx context.Context, l *domainlisting.Listing) (domainlocation.Key, error) {
	if r.locations == nil {
		return domainlocation.Key{}, nil
	}
	loc, err := r.locations.ByID(ctx, l.LocationID)
	if err != nil {
		return domainlocation.Key{}, err
	}
	return loc.Key(), nil
}

func cloneListing(l domainlisting.Listing) *domainlisting.Listing {
	out := l
	out.Amenities = append([]string(nil), l.Amenities...)
	out.PhotoURLs = append([]string(nil), l.PhotoURLs...)
	return &out
}

// BookingRepository keeps stays indexed by listing for the overlap check.
type BookingRepository struct {
	mu        sync.RWMutex
	items     map[domainbooking.BookingID]domainbooking.Booking
	byListing map[string][]domainbooking.BookingID
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:     make(map[domainbooking.BookingID]domainbooking.Booking),
		byListing: make(map[string][]domainbooking.BookingID),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	out := b
	return &out, nil
}

func (r *BookingRepository) Blocking(ctx context.Context, listingID domainlisting.ListingID, blocking []domainbooking.Status) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, id := range r.byListing[string(listingID)] {
		b := r.items[id]
		if !domainbooking.IsBlocking(b.Status, blocking) {
			continue
		}
		cp := b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *BookingRepository) List(ctx context.Context, params domainbooking.ListParams) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*domainbooking.Booking
	for _, b := range r.items {
		if params.ListingID != "" && b.ListingID != params.ListingID {
			continue
		}
		if params.Customer != "" && b.Customer != params.Customer {
			continue
		}
		if params.Status != "" && b.Status != params.Status {
			continue
		}
		if !params.CheckInGTE.IsZero() && b.Range.CheckIn.Before(params.CheckInGTE) {
			continue
		}
		cp := b
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.items[b.ID]
	stored := *b
	stored.Version++
	b.Version = stored.Version
	r.items[b.ID] = stored
	if !existed {
		key := string(b.ListingID)
		r.byListing[key] = append(r.byListing[key], b.ID)
	}
	return nil
}

// PaymentRepository is the payment ledger plus its refund rows.
type PaymentRepository struct {
	mu        sync.RWMutex
	items     map[domainpayment.PaymentID]domainpayment.Payment
	byBooking map[domainbooking.BookingID]domainpayment.PaymentID
	refunds   map[domainpayment.PaymentID][]domainpayment.Refund
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		items:     make(map[domainpayment.PaymentID]domainpayment.Payment),
		byBooking: make(map[domainbooking.BookingID]domainpayment.PaymentID),
		refunds:   make(map[domainpayment.PaymentID][]domainpayment.Refund),
	}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	p := r.items[id]
	out := p
	return &out, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byBooking[p.BookingID]; ok && existing != p.ID {
		return domainpayment.ErrDuplicatePayment
	}
	stored := *p
	stored.Version++
	p.Version = stored.Version
	r.items[p.ID] = stored
	r.byBooking[p.BookingID] = p.ID
	return nil
}

func (r *PaymentRepository) RefundsByPayment(ctx context.Context, paymentID domainpayment.PaymentID) ([]*domainpayment.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.refunds[paymentID]
	out := make([]*domainpayment.Refund, 0, len(rows))
	for _, rf := range rows {
		cp := rf
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PaymentRepository) SaveRefund(ctx context.Context, rf *domainpayment.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds[rf.PaymentID] = append(r.refunds[rf.PaymentID], *rf)
	return nil
}

// ReviewRepository keeps guest reviews with per-booking uniqueness.
type ReviewRepository struct {
	mu        sync.RWMutex
	items     map[domainreview.ReviewID]domainreview.Review
	byBooking map[domainbooking.BookingID]domainreview.ReviewID
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		items:     make(map[domainreview.ReviewID]domainreview.Review),
		byBooking: make(map[domainbooking.BookingID]domainreview.ReviewID),
	}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreview.ReviewID) (*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.items[id]
	if !ok {
		return nil, domainreview.ErrNotFound
	}
	out := rv
	return &out, nil
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainreview.ErrNotFound
	}
	rv := r.items[id]
	out := rv
	return &out, nil
}

func (r *ReviewRepository) ByListing(ctx context.Context, listingID domainlisting.ListingID) ([]*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainreview.Review
	for _, rv := range r.items {
		if rv.ListingID != listingID {
			continue
		}
		cp := rv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) ByOwner(ctx context.Context, owner domainlisting.OwnerID) ([]*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainreview.Review
	for _, rv := range r.items {
		if rv.Owner != owner {
			continue
		}
		cp := rv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rv *domainreview.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byBooking[rv.BookingID]; ok && existing != rv.ID {
		return domainreview.ErrDuplicateReview
	}
	stored := *rv
	stored.Version++
	rv.Version = stored.Version
	r.items[rv.ID] = stored
	r.byBooking[rv.BookingID] = rv.ID
	return nil
}

// RatingRepository holds the derived rating aggregates.
type RatingRepository struct {
	mu       sync.RWMutex
	listings map[domainlisting.ListingID]domainreview.ListingRating
	owners   map[domainlisting.OwnerID]domainreview.OwnerRating
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{
		listings: make(map[domainlisting.ListingID]domainreview.ListingRating),
		owners:   make(map[domainlisting.OwnerID]domainreview.OwnerRating),
	}
}

func (r *RatingRepository) ListingRating(ctx context.Context, id domainlisting.ListingID) (*domainreview.ListingRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.listings[id]
	if !ok {
		return nil, domainreview.ErrNotFound
	}
	out := agg
	return &out, nil
}

func (r *RatingRepository) OwnerRating(ctx context.Context, owner domainlisting.OwnerID) (*domainreview.OwnerRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agg, ok := r.owners[owner]
	if !ok {
		return nil, domainreview.ErrNotFound
	}
	out := agg
	return &out, nil
}

func (r *RatingRepository) SaveListingRating(ctx context.Context, agg *domainreview.ListingRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[agg.ListingID] = *agg
	return nil
}

func (r *RatingRepository) SaveOwnerRating(ctx context.Context, agg *domainreview.OwnerRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[agg.Owner] = *agg
	return nil
}
