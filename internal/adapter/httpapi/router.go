package httpapi

import (
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the catalog routes. metricsPath is skipped when empty or mm is nil.
func NewRouter(h *CatalogHandler, log *logger.Logger, mm *metrics.MetricsManager, metricsPath string) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(RequestLogger(log, mm))

	mux.Get("/healthz", h.HandleHealth)
	if mm != nil && metricsPath != "" {
		mux.Method("GET", metricsPath, mm.Handler())
	}

	mux.Route("/api", func(r chi.Router) {
		r.Get("/listings", h.HandleSearchListings)
		r.Get("/listings/{id}", h.HandleGetListingByID)
		r.Get("/categories", h.HandleGetCategories)
		r.Post("/cart/quote", h.HandleQuoteCart)
		r.Put("/cart/items/{id}", h.HandleUpdateCartItem)
		r.Delete("/cart/items/{id}", h.HandleRemoveCartItem)
		r.Get("/users/{id}/dashboard", h.HandleGetDashboard)
		r.Get("/users/{id}/purchases", h.HandleGetPurchases)
	})
	return mux
}
