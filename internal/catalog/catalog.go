// Package catalog holds the browsing state of the marketplace: the last
// fetched listings, the active filters and the create/update/delete calls
// that change them.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/imaging"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/validate"
)

// DefaultPageSize is the number of listings requested per page.
const DefaultPageSize = 20

// Sessions tells the store who is signed in.
type Sessions interface {
	Load(ctx context.Context) (model.User, bool)
}

// DetailCache stores listing details between page views.
type DetailCache interface {
	Item(ctx context.Context, id string) (model.Item, bool)
	PutItem(ctx context.Context, item model.Item)
	InvalidateItem(ctx context.Context, id string)
}

// Store is the item catalog state. It is safe for concurrent use; network
// calls are made without holding the lock and the last response wins.
type Store struct {
	api      *apiclient.Client
	sessions Sessions
	cache    DetailCache
	log      *slog.Logger
	pageSize int

	mu      sync.Mutex
	items   []model.Item
	filters model.ItemFilters
	loading bool
	lastErr error
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithCache enables the listing detail cache.
func WithCache(c DetailCache) Option {
	return func(s *Store) { s.cache = c }
}

// WithPageSize sets the limit sent with List.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a Store.
func New(api *apiclient.Client, sessions Sessions, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		api:      api,
		sessions: sessions,
		log:      logger.With("component", "catalog"),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Items returns a copy of every fetched listing, in display order.
func (s *Store) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item(nil), s.items...)
}

// Filters returns the active filters.
func (s *Store) Filters() model.ItemFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Visible returns the fetched listings that match the active filters and
// are still available.
func (s *Store) Visible() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterItems(s.items, s.filters)
}

// SetFilters replaces the active filters without a round trip.
func (s *Store) SetFilters(f model.ItemFilters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Search sets the free-text filter without a round trip.
func (s *Store) Search(query string) {
	s.mu.Lock()
	s.filters.Search = query
	s.mu.Unlock()
}

// Remember records a listing fetched elsewhere (for example by GetByID) so
// that Update can merge over it. An entry with the same id is replaced.
func (s *Store) Remember(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == item.ID {
			s.items = replaceItem(s.items, item.ID, item)
			return
		}
	}
	s.items = append(append([]model.Item(nil), s.items...), item)
}

// Loading reports whether a call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the last call, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops the store from applying results. Calls still in flight
// complete and return to their callers, but leave the state untouched.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// List fetches listings matching the server-side part of f and replaces
// the local list and filters.
func (s *Store) List(ctx context.Context, f model.ItemFilters) ([]model.Item, error) {
	s.begin()

	params := apiclient.ListItemsParams{
		ListingType:   string(f.ListingType),
		ItemCondition: string(f.Condition),
		MinPrice:      f.MinPrice,
		MaxPrice:      f.MaxPrice,
		Page:          1,
		Limit:         s.pageSize,
	}
	if f.Category != "" {
		// Categories without a backend id are filtered client-side only.
		if id, ok := model.CategoryWireID(f.Category); ok {
			params.CategoryID = id
		}
	}

	recs, err := s.api.ListItems(ctx, params)
	if err != nil {
		s.finish(err)
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, FromRecord(rec, s.log))
	}

	visible := FilterItems(items, f)
	s.apply(nil, func() {
		s.items = items
		s.filters = f
	})
	s.log.Debug("listed items", "count", len(items), "visible", len(visible))
	return visible, nil
}

// GetByID fetches a listing's details. Any failure is logged and reported
// as absent.
func (s *Store) GetByID(ctx context.Context, id string) (model.Item, bool) {
	if s.cache != nil {
		if item, ok := s.cache.Item(ctx, id); ok {
			return item, true
		}
	}

	rec, err := s.api.GetItem(ctx, id)
	if err != nil {
		s.log.Warn("fetching item", "item_id", id, "error", err)
		return model.Item{}, false
	}
	item := FromRecord(rec, s.log)
	if item.ID == "" {
		item.ID = id
	}

	if s.cache != nil {
		s.cache.PutItem(ctx, item)
	}
	return item, true
}

// Draft is a new listing as entered in the posting form.
type Draft struct {
	Title         string
	Description   string
	Price         int64
	Category      model.Category
	Condition     model.Condition
	ListingType   model.ListingType
	RentalDeposit int64
	RentUnit      model.RentUnit
	DormBuilding  string
}

// Photo is an image to upload with a listing.
type Photo = imaging.Upload

// Create validates draft, uploads it with photos and puts the created
// listing at the head of the local list.
func (s *Store) Create(ctx context.Context, d Draft, photos []Photo) (model.Item, error) {
	s.begin()

	user, ok := s.sessions.Load(ctx)
	if !ok {
		s.finish(model.ErrNoSession)
		return model.Item{}, model.ErrNoSession
	}

	names := make([]string, len(photos))
	for i, p := range photos {
		names[i] = p.Name
	}
	res := validate.ItemForm(validate.ItemInput{
		Title:            d.Title,
		Description:      d.Description,
		Price:            d.Price,
		Category:         string(d.Category),
		Condition:        string(d.Condition),
		ListingType:      string(d.ListingType),
		Images:           names,
		RentalDeposit:    d.RentalDeposit,
		RentalPeriodDays: d.RentUnit.Days(),
	})
	if err := res.Err(); err != nil {
		s.finish(err)
		return model.Item{}, err
	}

	draft := d.item(user.ID)
	rec, err := s.api.CreatePost(ctx, ToPayload(draft, user.ID), files(photos))
	if err != nil {
		s.finish(err)
		return model.Item{}, fmt.Errorf("creating listing: %w", err)
	}

	created := FromRecord(rec, s.log)
	if created.ID == "" {
		// The backend acknowledged without echoing the listing; it shows
		// up on the next List.
		s.log.Info("listing created without echo", "title", d.Title)
		s.finish(nil)
		return draft, nil
	}
	if created.SellerID == "" {
		created.SellerID = user.ID
	}

	s.apply(nil, func() { s.items = prependItem(s.items, created) })
	s.log.Info("listing created", "item_id", created.ID, "seller_id", user.ID)
	return created, nil
}

func (d Draft) item(sellerID string) model.Item {
	now := time.Now()
	item := model.Item{
		Title:            d.Title,
		Description:      d.Description,
		Price:            d.Price,
		Category:         d.Category,
		Condition:        d.Condition,
		ListingType:      d.ListingType,
		Status:           model.ItemStatusAvailable,
		SellerID:         sellerID,
		MeetupPreference: MeetupPreference(d.DormBuilding),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if d.ListingType == model.ListingRent {
		deposit := d.RentalDeposit
		days := d.RentUnit.Days()
		item.RentalDeposit = &deposit
		item.RentalPeriodDays = &days
		item.RentUnit = d.RentUnit
	}
	return item
}

// Patch is a partial update of a listing. Nil fields are left unchanged.
type Patch struct {
	Title            *string
	Description      *string
	Price            *int64
	Category         *model.Category
	Condition        *model.Condition
	ListingType      *model.ListingType
	Status           *model.ItemStatus
	RentalDeposit    *int64
	RentUnit         *model.RentUnit
	MeetupPreference *string
}

// Apply returns a copy of item with the patch applied.
func (p Patch) Apply(item model.Item) model.Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Condition != nil {
		item.Condition = *p.Condition
	}
	if p.ListingType != nil {
		item.ListingType = *p.ListingType
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.RentalDeposit != nil {
		deposit := *p.RentalDeposit
		item.RentalDeposit = &deposit
	}
	if p.RentUnit != nil {
		item.RentUnit = *p.RentUnit
		days := p.RentUnit.Days()
		item.RentalPeriodDays = &days
	}
	if p.MeetupPreference != nil {
		item.MeetupPreference = *p.MeetupPreference
	}
	item.Images = append([]string(nil), item.Images...)
	return item
}

// Update merges patch over the locally known listing id, sends the merged
// listing with any new photos and replaces the local entry.
func (s *Store) Update(ctx context.Context, id string, patch Patch, photos []Photo) (model.Item, error) {
	s.begin()

	current, ok := s.find(id)
	if !ok {
		err := fmt.Errorf("item %s: %w", id, model.ErrNotFound)
		s.finish(err)
		return model.Item{}, err
	}

	merged := patch.Apply(current)
	if !current.Status.CanTransition(merged.Status) {
		err := &model.ValidationError{Fields: map[string]string{
			"status": fmt.Sprintf("Cannot change status from %s to %s", current.Status, merged.Status),
		}}
		s.finish(err)
		return model.Item{}, err
	}

	seller := current.SellerID
	if u, ok := s.sessions.Load(ctx); ok && seller == "" {
		seller = u.ID
	}

	rec, err := s.api.UpdatePost(ctx, id, ToPayload(merged, seller), files(photos))
	if err != nil {
		s.finish(err)
		return model.Item{}, fmt.Errorf("updating listing: %w", err)
	}

	updated := merged
	updated.UpdatedAt = time.Now()
	if rec.Identifier() != "" {
		updated = FromRecord(rec, s.log)
	}
	if updated.SellerID == "" {
		updated.SellerID = seller
	}

	s.apply(nil, func() { s.items = replaceItem(s.items, id, updated) })
	if s.cache != nil {
		s.cache.InvalidateItem(ctx, id)
	}
	s.log.Info("listing updated", "item_id", id)
	return updated, nil
}

// Delete removes a listing of the signed-in seller. The local list changes
// only after the backend confirms.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()

	user, ok := s.sessions.Load(ctx)
	if !ok {
		s.finish(model.ErrNoSession)
		return model.ErrNoSession
	}

	if err := s.api.DeleteUserItem(ctx, user.ID, id); err != nil {
		s.finish(err)
		return fmt.Errorf("deleting listing: %w", err)
	}

	s.apply(nil, func() { s.items = removeItem(s.items, id) })
	if s.cache != nil {
		s.cache.InvalidateItem(ctx, id)
	}
	s.log.Info("listing deleted", "item_id", id, "seller_id", user.ID)
	return nil
}

func (s *Store) find(id string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

func (s *Store) begin() {
	s.mu.Lock()
	if !s.closed {
		s.loading = true
		s.lastErr = nil
	}
	s.mu.Unlock()
}

func (s *Store) finish(err error) {
	s.apply(err, nil)
}

// apply ends a call: it runs fn (if any) and records err, unless the store
// was closed meanwhile.
func (s *Store) apply(err error, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if fn != nil {
		fn()
	}
	s.loading = false
	s.lastErr = err
}

func files(photos []Photo) []apiclient.File {
	out := make([]apiclient.File, len(photos))
	for i, p := range photos {
		out[i] = apiclient.File{Name: p.Name, ContentType: p.MIME, Data: p.Data}
	}
	return out
}
