package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/cart"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/store"
	"github.com/Dumpyard00/campus-swap-link/internal/dashboard"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSnapshotSource struct{ mock.Mock }

func (m *MockSnapshotSource) Name() string {
	return "mock"
}
func (m *MockSnapshotSource) Fetch(ctx context.Context) ([]domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

type MockFacetCache struct{ mock.Mock }

func (m *MockFacetCache) Get(ctx context.Context, version string) (domain.FacetCounts, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.FacetCounts), args.Error(1)
}
func (m *MockFacetCache) Set(ctx context.Context, version string, counts domain.FacetCounts) error {
	args := m.Called(ctx, version, counts)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishSnapshotLoaded(ctx context.Context, event domain.SnapshotLoaded) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func sampleListings() []domain.Listing {
	return []domain.Listing{
		{ID: "1", Title: "MacBook Pro 13\" 2021", Description: "M1 chip", Price: 1200, Category: domain.CategoryElectronics, Condition: domain.ConditionLikeNew, SellerID: "2", CreatedAt: day("2024-02-01")},
		{ID: "2", Title: "Calculus Textbook", Description: "Stewart Calculus", Price: 45, Category: domain.CategoryBooks, Condition: domain.ConditionGood, SellerID: "3", CreatedAt: day("2024-02-03")},
		{ID: "7", Title: "Biology Textbook Bundle", Description: "First year", Price: 85, Category: domain.CategoryBooks, Condition: domain.ConditionLikeNew, SellerID: "1", CreatedAt: day("2024-02-01")},
		{ID: "8", Title: "Gaming Mouse & Keyboard", Description: "RGB", Price: 60, Category: domain.CategoryElectronics, Condition: domain.ConditionGood, SellerID: "1", CreatedAt: day("2024-01-28")},
	}
}

func newLoadedUsecase(t *testing.T, opts Options) (*CatalogUsecase, *store.Store) {
	t.Helper()
	src := new(MockSnapshotSource)
	src.On("Fetch", mock.Anything).Return(sampleListings(), nil).Once()

	s := store.New()
	uc := NewCatalogUsecase(s, src, logger.NewNop(), opts)
	_, err := uc.Reload(context.Background())
	require.NoError(t, err)
	return uc, s
}

func TestReload_PublishesEvent(t *testing.T) {
	src := new(MockSnapshotSource)
	pub := new(MockEventPublisher)
	mm := metrics.NewMetricsManager("test")

	src.On("Fetch", mock.Anything).Return(sampleListings(), nil).Once()
	pub.On("PublishSnapshotLoaded", mock.Anything, mock.MatchedBy(func(e domain.SnapshotLoaded) bool {
		return e.Listings == 4 && e.Source == "mock" && e.Version != ""
	})).Return(nil).Once()

	s := store.New()
	uc := NewCatalogUsecase(s, src, logger.NewNop(), Options{Publisher: pub, Metrics: mm})

	event, err := uc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.Version(), event.Version)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.SnapshotLoadsTotal.WithLabelValues("mock", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(mm.SnapshotListings))

	src.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestReload_PublishFailureIsNotFatal(t *testing.T) {
	src := new(MockSnapshotSource)
	pub := new(MockEventPublisher)
	src.On("Fetch", mock.Anything).Return(sampleListings(), nil).Once()
	pub.On("PublishSnapshotLoaded", mock.Anything, mock.Anything).Return(errors.New("nats down")).Once()

	uc := NewCatalogUsecase(store.New(), src, logger.NewNop(), Options{Publisher: pub})
	_, err := uc.Reload(context.Background())
	assert.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestReload_FetchErrorKeepsSnapshot(t *testing.T) {
	uc, s := newLoadedUsecase(t, Options{})
	version := s.Version()

	src := new(MockSnapshotSource)
	src.On("Fetch", mock.Anything).Return(nil, domain.ErrSnapshotSource).Once()
	uc.source = src

	_, err := uc.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotSource)
	assert.Equal(t, version, s.Version())
	assert.Equal(t, 4, s.Len())
}

func TestReload_InvalidSnapshotKeepsPrevious(t *testing.T) {
	uc, s := newLoadedUsecase(t, Options{})
	version := s.Version()

	bad := sampleListings()
	bad[2].Price = -5
	src := new(MockSnapshotSource)
	pub := new(MockEventPublisher)
	src.On("Fetch", mock.Anything).Return(bad, nil).Once()
	uc.source = src
	uc.opts.Publisher = pub

	_, err := uc.Reload(context.Background())
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 2, vErr.Index)
	assert.Equal(t, "price", vErr.Field)
	assert.Equal(t, version, s.Version())
	pub.AssertNotCalled(t, "PublishSnapshotLoaded", mock.Anything, mock.Anything)
}

func TestReload_AppliesFetchTimeout(t *testing.T) {
	src := new(MockSnapshotSource)
	src.On("Fetch", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(sampleListings(), nil).Once()

	uc := NewCatalogUsecase(store.New(), src, logger.NewNop(), Options{FetchTimeout: time.Second})
	_, err := uc.Reload(context.Background())
	require.NoError(t, err)
	src.AssertExpectations(t)
}

func TestSearch(t *testing.T) {
	mm := metrics.NewMetricsManager("test")
	uc, _ := newLoadedUsecase(t, Options{Metrics: mm})
	ctx := context.Background()

	res := uc.Search(ctx, domain.QueryState{SearchText: "TEXTBOOK"})
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "2", res.Items[0].ID)
	assert.Equal(t, "7", res.Items[1].ID)
	assert.Equal(t, "TEXTBOOK", res.Query)

	res = uc.Search(ctx, domain.QueryState{SelectedCategory: domain.CategoryElectronics, SellerID: "1"})
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "8", res.Items[0].ID)
	assert.Equal(t, domain.CategoryElectronics, res.Category)

	res = uc.Search(ctx, domain.QueryState{SelectedCategory: "Gadgets"})
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Items)

	assert.Equal(t, 3.0, testutil.ToFloat64(mm.SearchesTotal))
}

func TestSearch_EmptyStore(t *testing.T) {
	uc := NewCatalogUsecase(store.New(), new(MockSnapshotSource), logger.NewNop(), Options{})
	res := uc.Search(context.Background(), domain.QueryState{SearchText: "anything"})
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Items)
}

func TestFacets_NoCache(t *testing.T) {
	uc, s := newLoadedUsecase(t, Options{})
	entries := uc.Facets(context.Background())

	require.Len(t, entries, len(domain.Categories))
	sum := 0
	for i, e := range entries {
		assert.Equal(t, domain.Categories[i], e.Category)
		sum += e.Count
	}
	assert.Equal(t, s.Len(), sum)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, 2, entries[1].Count)
}

func TestFacets_CacheMissThenSet(t *testing.T) {
	cache := new(MockFacetCache)
	mm := metrics.NewMetricsManager("test")
	uc, s := newLoadedUsecase(t, Options{Metrics: mm})
	uc.opts.Cache = cache

	cache.On("Get", mock.Anything, s.Version()).Return(nil, domain.ErrCacheMiss).Once()
	cache.On("Set", mock.Anything, s.Version(), mock.MatchedBy(func(c domain.FacetCounts) bool {
		return c.Total() == 4 && c[domain.CategoryBooks] == 2
	})).Return(nil).Once()

	entries := uc.Facets(context.Background())
	assert.Len(t, entries, len(domain.Categories))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.FacetCacheTotal.WithLabelValues("miss")))
	cache.AssertExpectations(t)
}

func TestFacets_CacheHit(t *testing.T) {
	cache := new(MockFacetCache)
	uc, s := newLoadedUsecase(t, Options{})
	uc.opts.Cache = cache

	cached := domain.FacetCounts{domain.CategoryBooks: 9}
	cache.On("Get", mock.Anything, s.Version()).Return(cached, nil).Once()

	entries := uc.Facets(context.Background())
	assert.Equal(t, 9, entries[1].Count)
	assert.Equal(t, 0, entries[0].Count)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestFacets_CacheErrorFallsBack(t *testing.T) {
	cache := new(MockFacetCache)
	uc, s := newLoadedUsecase(t, Options{})
	uc.opts.Cache = cache

	cache.On("Get", mock.Anything, s.Version()).Return(nil, errors.New("connection refused")).Once()
	cache.On("Set", mock.Anything, s.Version(), mock.Anything).Return(errors.New("connection refused")).Once()

	entries := uc.Facets(context.Background())
	assert.Equal(t, 2, entries[0].Count)
	cache.AssertExpectations(t)
}

func TestFacets_EmptyStoreSkipsCache(t *testing.T) {
	cache := new(MockFacetCache)
	uc := NewCatalogUsecase(store.New(), new(MockSnapshotSource), logger.NewNop(), Options{Cache: cache})

	entries := uc.Facets(context.Background())
	for _, e := range entries {
		assert.Zero(t, e.Count)
	}
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetListing(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})

	l, err := uc.GetListing(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Biology Textbook Bundle", l.Title)

	_, err = uc.GetListing(context.Background(), "404")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestQuote(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})

	q, err := uc.Quote(context.Background(), []cart.Item{
		{ListingID: "2", Quantity: 1},
		{ListingID: "8", Quantity: 1},
		{ListingID: "missing", Quantity: 1},
		{ListingID: "8", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, 2, q.Lines[1].Quantity)
	assert.Equal(t, 3, q.ItemCount)
	assert.Equal(t, 165.0, q.Total)
	assert.Equal(t, []string{"missing"}, q.Missing)
}

func TestQuote_RejectsBadLines(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})

	_, err := uc.Quote(context.Background(), []cart.Item{{ListingID: "2", Quantity: -1}})
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = uc.Quote(context.Background(), []cart.Item{{ListingID: "", Quantity: 1}})
	assert.ErrorIs(t, err, cart.ErrEmptyListingID)
}

func TestUpdateCartItem(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})
	ctx := context.Background()
	items := []cart.Item{{ListingID: "2", Quantity: 1}, {ListingID: "8", Quantity: 1}}

	q, err := uc.UpdateCartItem(ctx, items, "2", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, q.ItemCount)
	assert.Equal(t, 195.0, q.Total)

	q, err = uc.UpdateCartItem(ctx, items, "2", 0)
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, "8", q.Lines[0].Listing.ID)

	_, err = uc.UpdateCartItem(ctx, items, "7", 1)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestRemoveCartItem(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})
	ctx := context.Background()
	items := []cart.Item{{ListingID: "2", Quantity: 1}, {ListingID: "8", Quantity: 2}}

	q, err := uc.RemoveCartItem(ctx, items, "8")
	require.NoError(t, err)
	assert.Equal(t, 1, q.ItemCount)
	assert.Equal(t, 45.0, q.Total)

	_, err = uc.RemoveCartItem(ctx, items, "7")
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestDashboard(t *testing.T) {
	dir, err := dashboard.NewDirectory(
		[]dashboard.Profile{{ID: "1", Name: "Alex Johnson", JoinedAt: day("2024-01-15")}},
		[]dashboard.Purchase{
			{ID: "p1", BuyerID: "1", ListingID: "1", PurchasedAt: day("2024-01-20"), Amount: 1200, Status: dashboard.StatusCompleted},
			{ID: "p2", BuyerID: "1", ListingID: "3", PurchasedAt: day("2024-01-25"), Amount: 80, Status: dashboard.StatusCompleted},
		},
	)
	require.NoError(t, err)
	uc, _ := newLoadedUsecase(t, Options{Directory: dir, RecentItems: 1})

	sum, err := uc.Dashboard(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ItemsListed)
	assert.Equal(t, 2, sum.ItemsPurchased)
	assert.Equal(t, "Jan 2024", sum.MemberSince)
	assert.Equal(t, 1280.0, sum.TotalSpent)
	require.Len(t, sum.RecentListings, 1)
	assert.Equal(t, "7", sum.RecentListings[0].ID)
	require.Len(t, sum.RecentPurchases, 1)
	assert.Equal(t, "p1", sum.RecentPurchases[0].ID)

	_, err = uc.Dashboard(context.Background(), "99")
	assert.ErrorIs(t, err, dashboard.ErrProfileNotFound)
}

func TestDashboard_NoDirectory(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})
	_, err := uc.Dashboard(context.Background(), "1")
	assert.ErrorIs(t, err, dashboard.ErrProfileNotFound)
}

func TestPurchases(t *testing.T) {
	dir, err := dashboard.NewDirectory(
		[]dashboard.Profile{{ID: "1", Name: "Alex Johnson"}, {ID: "4", Name: "Sam Lee"}},
		[]dashboard.Purchase{
			{ID: "p1", BuyerID: "1", ListingID: "1", Amount: 1200, Status: dashboard.StatusCompleted},
			{ID: "p2", BuyerID: "1", ListingID: "3", Amount: 80, Status: dashboard.StatusCancelled},
		},
	)
	require.NoError(t, err)
	uc, _ := newLoadedUsecase(t, Options{Directory: dir})
	ctx := context.Background()

	h, err := uc.Purchases(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Count)
	assert.Equal(t, 1280.0, h.TotalSpent)
	require.Len(t, h.Purchases, 2)
	require.NotNil(t, h.Purchases[0].Listing)
	assert.Equal(t, "2", h.Purchases[0].Listing.SellerID)
	assert.Nil(t, h.Purchases[1].Listing)

	h, err = uc.Purchases(ctx, "4")
	require.NoError(t, err)
	assert.Zero(t, h.Count)
	assert.Empty(t, h.Purchases)

	_, err = uc.Purchases(ctx, "99")
	assert.ErrorIs(t, err, dashboard.ErrProfileNotFound)
}

func TestSetDirectory(t *testing.T) {
	uc, _ := newLoadedUsecase(t, Options{})
	ctx := context.Background()

	_, err := uc.Purchases(ctx, "1")
	assert.ErrorIs(t, err, dashboard.ErrProfileNotFound)

	dir, err := dashboard.NewDirectory([]dashboard.Profile{{ID: "1", Name: "Alex Johnson"}}, nil)
	require.NoError(t, err)
	uc.SetDirectory(dir)

	sum, err := uc.Dashboard(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Johnson", sum.Profile.Name)

	uc.SetDirectory(nil)
	_, err = uc.Dashboard(ctx, "1")
	assert.NoError(t, err)
}
