package pricing

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/sitequote/pkg/logging"
)

// EstimateObserver records estimate requests.
type EstimateObserver interface {
	ObserveEstimate(websiteType string, valid bool)
}

// Handler serves the catalog and stateless estimates.
type Handler struct {
	estimator *Estimator
	observer  EstimateObserver
	logger    *logging.Logger
}

// NewHandler creates a pricing handler.
func NewHandler(estimator *Estimator, observer EstimateObserver, logger *logging.Logger) *Handler {
	if estimator == nil {
		estimator = NewEstimator(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		estimator: estimator,
		observer:  observer,
		logger:    logger,
	}
}

// CatalogResponse is the body of GET /api/catalog
type CatalogResponse struct {
	MaxPages     int           `json:"max_pages"`
	WebsiteTypes []WebsiteType `json:"website_types"`
}

// EstimateResponse is the body of POST /api/estimate
type EstimateResponse struct {
	Selection    Selection `json:"selection"`
	Valid        bool      `json:"valid"`
	Label        string    `json:"label"`
	Price        int64     `json:"price"`
	DeliveryDays int       `json:"delivery_days"`
}

// GetCatalog handles GET /api/catalog requests
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.estimator.Catalog()
	writeJSON(w, http.StatusOK, CatalogResponse{
		MaxPages:     catalog.MaxPages(),
		WebsiteTypes: catalog.Types(),
	})
}

// PostEstimate handles POST /api/estimate requests. The page count is
// clamped to the catalog bounds before evaluation, so the echoed selection
// is the one priced; an omitted count becomes one page.
func (h *Handler) PostEstimate(w http.ResponseWriter, r *http.Request) {
	var sel Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		h.logger.Warn("failed to decode estimate request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sel.NumPages = ClampPages(sel.NumPages, h.estimator.MaxPages())

	valid := h.estimator.IsValid(sel)
	if h.observer != nil {
		h.observer.ObserveEstimate(h.estimator.TypeKey(sel.WebsiteTypeID), valid)
	}

	est := h.estimator.Estimate(sel)
	writeJSON(w, http.StatusOK, EstimateResponse{
		Selection:    sel,
		Valid:        valid,
		Label:        h.estimator.Label(sel.WebsiteTypeID),
		Price:        est.Price,
		DeliveryDays: est.DeliveryDays,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
