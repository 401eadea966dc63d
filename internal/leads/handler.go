package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// Handler handles admin HTTP requests for archived leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Record `json:"leads"`
	Count  int       `json:"count"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  DefaultListLimit,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= MaxListLimit {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if websiteType := r.URL.Query().Get("website_type"); websiteType != "" {
		filter.WebsiteType = websiteType
	}

	if notified := r.URL.Query().Get("notified"); notified != "" {
		v, err := strconv.ParseBool(notified)
		if err != nil {
			http.Error(w, "notified must be true or false", http.StatusBadRequest)
			return
		}
		filter.NotificationSent = &v
	}

	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			http.Error(w, "since must be an RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		filter.Since = t
	}

	records, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	response := ListLeadsResponse{
		Leads:  records,
		Count:  len(records),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// GetLead handles GET /admin/leads/{leadID} requests
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	if id == "" {
		http.Error(w, "missing lead id", http.StatusBadRequest)
		return
	}

	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get lead", "error", err, "lead_id", id)
		http.Error(w, "failed to get lead", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
}
