package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/cart"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/facet"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/query"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/store"
	"github.com/Dumpyard00/campus-swap-link/internal/dashboard"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("catalog-service/usecase")

const defaultRecentItems = 2

// Options carries the optional collaborators. Nil Cache, Publisher, Directory
// or Metrics disable the corresponding feature.
type Options struct {
	Cache        domain.FacetCache
	Publisher    domain.EventPublisher
	Directory    *dashboard.Directory
	Metrics      *metrics.MetricsManager
	RecentItems  int
	FetchTimeout time.Duration
}

// CatalogUsecase is the host side of the catalog: it feeds the store from a
// snapshot source and answers queries against whatever snapshot is current.
type CatalogUsecase struct {
	store   *store.Store
	engine  *query.Engine
	counter *facet.Counter
	source  domain.SnapshotSource
	opts    Options
	logger  *logger.Logger

	directory atomic.Pointer[dashboard.Directory]
	reloadMu  sync.Mutex
}

func NewCatalogUsecase(s *store.Store, source domain.SnapshotSource, log *logger.Logger, opts Options) *CatalogUsecase {
	if opts.RecentItems <= 0 {
		opts.RecentItems = defaultRecentItems
	}
	uc := &CatalogUsecase{
		store:   s,
		engine:  query.NewEngine(),
		counter: facet.NewCounter(),
		source:  source,
		opts:    opts,
		logger:  log.Named("CatalogUsecase"),
	}
	uc.directory.Store(opts.Directory)
	return uc
}

// SetDirectory swaps the profile directory. A nil directory is ignored so a failed
// reload keeps serving the previous one.
func (uc *CatalogUsecase) SetDirectory(d *dashboard.Directory) {
	if d == nil {
		return
	}
	uc.directory.Store(d)
}

// SearchResult is what the listing page renders.
type SearchResult struct {
	Items    []domain.Listing `json:"items"`
	Total    int              `json:"total"`
	Query    string           `json:"q"`
	Category domain.Category  `json:"category"`
}

// Reload fetches a full snapshot from the source and swaps it into the store.
// On any error the store keeps serving the previous snapshot.
func (uc *CatalogUsecase) Reload(ctx context.Context) (domain.SnapshotLoaded, error) {
	uc.reloadMu.Lock()
	defer uc.reloadMu.Unlock()

	ctx, span := tracer.Start(ctx, "CatalogUsecase.Reload")
	defer span.End()

	sourceName := uc.source.Name()
	span.SetAttributes(attribute.String("catalog.source", sourceName))

	fetchCtx := ctx
	if uc.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, uc.opts.FetchTimeout)
		defer cancel()
	}

	listings, err := uc.source.Fetch(fetchCtx)
	if err != nil {
		span.RecordError(err)
		uc.opts.Metrics.ObserveSnapshotLoad(sourceName, 0, err)
		uc.logger.Error("Failed to fetch snapshot", zap.String("source", sourceName), zap.Error(err))
		return domain.SnapshotLoaded{}, fmt.Errorf("reload from %s: %w", sourceName, err)
	}

	if err := uc.store.Load(listings); err != nil {
		span.RecordError(err)
		uc.opts.Metrics.ObserveSnapshotLoad(sourceName, 0, err)
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			uc.logger.Error("Snapshot rejected, keeping previous snapshot",
				zap.String("source", sourceName),
				zap.Int("index", vErr.Index),
				zap.String("listing_id", vErr.ListingID),
				zap.String("field", vErr.Field),
				zap.String("reason", vErr.Reason))
		} else {
			uc.logger.Error("Snapshot rejected, keeping previous snapshot", zap.String("source", sourceName), zap.Error(err))
		}
		return domain.SnapshotLoaded{}, fmt.Errorf("reload from %s: %w", sourceName, err)
	}

	event := domain.SnapshotLoaded{
		Version:  uc.store.Version(),
		Listings: uc.store.Len(),
		Source:   sourceName,
		LoadedAt: uc.store.LoadedAt(),
	}
	uc.opts.Metrics.ObserveSnapshotLoad(sourceName, event.Listings, nil)
	uc.logger.Info("Snapshot loaded",
		zap.String("source", sourceName),
		zap.String("version", event.Version),
		zap.Int("listings", event.Listings))

	if uc.opts.Publisher != nil {
		if err := uc.opts.Publisher.PublishSnapshotLoaded(ctx, event); err != nil {
			uc.logger.Warn("Failed to publish snapshot loaded event", zap.String("version", event.Version), zap.Error(err))
		}
	}
	return event, nil
}

// Search never fails; an empty store or an unknown category yields an empty result.
func (uc *CatalogUsecase) Search(ctx context.Context, state domain.QueryState) SearchResult {
	_, span := tracer.Start(ctx, "CatalogUsecase.Search")
	defer span.End()

	items := uc.engine.Search(uc.store, state)
	span.SetAttributes(
		attribute.String("catalog.category", string(state.SelectedCategory)),
		attribute.Int("catalog.results", len(items)),
	)
	uc.opts.Metrics.ObserveSearch(len(items))
	uc.logger.Debug("Search served",
		zap.String("q", state.SearchText),
		zap.String("category", string(state.SelectedCategory)),
		zap.String("seller_id", state.SellerID),
		zap.Int("results", len(items)))

	return SearchResult{
		Items:    items,
		Total:    len(items),
		Query:    state.SearchText,
		Category: state.SelectedCategory,
	}
}

// Facets returns the per-category counts of the whole store. Cache failures fall
// back to computing the counts.
func (uc *CatalogUsecase) Facets(ctx context.Context) []facet.Entry {
	ctx, span := tracer.Start(ctx, "CatalogUsecase.Facets")
	defer span.End()

	version := uc.store.Version()
	cache := uc.opts.Cache
	if cache == nil || version == "" {
		return facet.Entries(uc.counter.Counts(uc.store))
	}

	counts, err := cache.Get(ctx, version)
	switch {
	case err == nil:
		uc.opts.Metrics.ObserveFacetCache("hit")
		span.SetAttributes(attribute.Bool("catalog.facet_cache_hit", true))
		return facet.Entries(counts)
	case errors.Is(err, domain.ErrCacheMiss):
		uc.opts.Metrics.ObserveFacetCache("miss")
	default:
		uc.opts.Metrics.ObserveFacetCache("error")
		uc.logger.Warn("Failed to get facet counts from cache", zap.String("version", version), zap.Error(err))
	}

	counts = uc.counter.Counts(uc.store)
	// A reload between the two reads would cache new counts under the old version.
	if uc.store.Version() == version {
		if err := cache.Set(ctx, version, counts); err != nil {
			uc.logger.Warn("Failed to set facet counts in cache", zap.String("version", version), zap.Error(err))
		}
	}
	return facet.Entries(counts)
}

func (uc *CatalogUsecase) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	_, span := tracer.Start(ctx, "CatalogUsecase.GetListing")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.listing_id", id))

	l, err := uc.store.Get(id)
	if err != nil {
		uc.logger.Debug("Listing not found", zap.String("listing_id", id))
		return domain.Listing{}, err
	}
	return l, nil
}

// Quote prices a client-held cart against the current snapshot. Repeated lines for
// the same listing are merged before pricing.
func (uc *CatalogUsecase) Quote(ctx context.Context, items []cart.Item) (cart.Quote, error) {
	ctx, span := tracer.Start(ctx, "CatalogUsecase.Quote")
	defer span.End()

	c, err := cart.FromItems("", items)
	if err != nil {
		span.RecordError(err)
		return cart.Quote{}, err
	}
	return uc.price(ctx, c), nil
}

// UpdateCartItem sets the quantity of one line and re-prices the cart. A quantity
// of zero or less removes the line.
func (uc *CatalogUsecase) UpdateCartItem(ctx context.Context, items []cart.Item, listingID string, quantity int) (cart.Quote, error) {
	ctx, span := tracer.Start(ctx, "CatalogUsecase.UpdateCartItem")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.listing_id", listingID))

	c, err := cart.FromItems("", items)
	if err != nil {
		span.RecordError(err)
		return cart.Quote{}, err
	}
	if err := c.UpdateItemQuantity(listingID, quantity); err != nil {
		return cart.Quote{}, err
	}
	return uc.price(ctx, c), nil
}

func (uc *CatalogUsecase) RemoveCartItem(ctx context.Context, items []cart.Item, listingID string) (cart.Quote, error) {
	ctx, span := tracer.Start(ctx, "CatalogUsecase.RemoveCartItem")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.listing_id", listingID))

	c, err := cart.FromItems("", items)
	if err != nil {
		span.RecordError(err)
		return cart.Quote{}, err
	}
	if err := c.RemoveItem(listingID); err != nil {
		return cart.Quote{}, err
	}
	return uc.price(ctx, c), nil
}

func (uc *CatalogUsecase) price(ctx context.Context, c *cart.Cart) cart.Quote {
	q := cart.Price(uc.store, c.Items)
	if len(q.Missing) > 0 {
		uc.logger.Info("Cart references listings missing from snapshot", zap.Strings("listing_ids", q.Missing))
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("cart.lines", len(c.Items)),
		attribute.Int("cart.units", c.Count()),
		attribute.Int("cart.items", q.ItemCount),
	)
	return q
}

// Dashboard summarizes a user's listings in the current snapshot and their purchase history.
func (uc *CatalogUsecase) Dashboard(ctx context.Context, userID string) (dashboard.Summary, error) {
	_, span := tracer.Start(ctx, "CatalogUsecase.Dashboard")
	defer span.End()

	dir := uc.directory.Load()
	if dir == nil {
		return dashboard.Summary{}, dashboard.ErrProfileNotFound
	}
	profile, err := dir.Profile(userID)
	if err != nil {
		return dashboard.Summary{}, err
	}
	listings := uc.engine.Search(uc.store, domain.QueryState{SellerID: userID})
	return dashboard.Summarize(profile, listings, dir.Purchases(userID), uc.opts.RecentItems), nil
}

// Purchases returns a user's purchase history with the listings that are still
// in the current snapshot.
func (uc *CatalogUsecase) Purchases(ctx context.Context, userID string) (dashboard.History, error) {
	_, span := tracer.Start(ctx, "CatalogUsecase.Purchases")
	defer span.End()

	dir := uc.directory.Load()
	if dir == nil {
		return dashboard.History{}, dashboard.ErrProfileNotFound
	}
	if _, err := dir.Profile(userID); err != nil {
		return dashboard.History{}, err
	}
	h := dashboard.BuildHistory(dir.Purchases(userID), uc.store)
	span.SetAttributes(attribute.Int("dashboard.purchases", h.Count))
	return h, nil
}

// Snapshot reports the version and size of the snapshot being served.
func (uc *CatalogUsecase) Snapshot() (version string, listings int, loadedAt time.Time) {
	return uc.store.Version(), uc.store.Len(), uc.store.LoadedAt()
}
