// Package httpapi exposes the catalog over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/cart"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/facet"
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/usecase"
	"github.com/Dumpyard00/campus-swap-link/internal/dashboard"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type CatalogService interface {
	Search(ctx context.Context, state domain.QueryState) usecase.SearchResult
	Facets(ctx context.Context) []facet.Entry
	GetListing(ctx context.Context, id string) (domain.Listing, error)
	Quote(ctx context.Context, items []cart.Item) (cart.Quote, error)
	UpdateCartItem(ctx context.Context, items []cart.Item, listingID string, quantity int) (cart.Quote, error)
	RemoveCartItem(ctx context.Context, items []cart.Item, listingID string) (cart.Quote, error)
	Dashboard(ctx context.Context, userID string) (dashboard.Summary, error)
	Purchases(ctx context.Context, userID string) (dashboard.History, error)
	Snapshot() (version string, listings int, loadedAt time.Time)
}

type CatalogHandler struct {
	svc    CatalogService
	logger *logger.Logger
}

func NewCatalogHandler(svc CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: log.Named("CatalogHandler")}
}

type errorResponse struct {
	Error string `json:"error"`
}

type quoteRequest struct {
	Items []cart.Item `json:"items"`
}

type updateItemRequest struct {
	Items    []cart.Item `json:"items"`
	Quantity int         `json:"quantity"`
}

type healthResponse struct {
	Status   string     `json:"status"`
	Version  string     `json:"snapshot_version,omitempty"`
	Listings int        `json:"listings"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// HandleSearchListings serves GET /api/listings?q=&category=&seller_id=.
// The category is matched case-sensitively; an unknown one yields an empty list.
func (h *CatalogHandler) HandleSearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := domain.QueryState{
		SearchText:       q.Get("q"),
		SelectedCategory: domain.Category(q.Get("category")),
		SellerID:         q.Get("seller_id"),
	}
	h.writeJSON(w, http.StatusOK, h.svc.Search(r.Context(), state))
}

func (h *CatalogHandler) HandleGetListingByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := h.svc.GetListing(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

func (h *CatalogHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Facets(r.Context()))
}

func (h *CatalogHandler) HandleQuoteCart(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.svc.Quote(r.Context(), req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

// HandleUpdateCartItem serves PUT /api/cart/items/{id}. A quantity of zero or less
// drops the line.
func (h *CatalogHandler) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.svc.UpdateCartItem(r.Context(), req.Items, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

func (h *CatalogHandler) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.svc.RemoveCartItem(r.Context(), req.Items, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

func (h *CatalogHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Dashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

func (h *CatalogHandler) HandleGetPurchases(w http.ResponseWriter, r *http.Request) {
	hist, err := h.svc.Purchases(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hist)
}

func (h *CatalogHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.Debug("Failed to decode request body", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// HandleHealth reports 503 until the first snapshot has loaded.
func (h *CatalogHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	version, n, loadedAt := h.svc.Snapshot()
	if version == "" {
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version, Listings: n, LoadedAt: &loadedAt})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, dashboard.ErrProfileNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyListingID), errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
		msg = "internal error"
	}
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
