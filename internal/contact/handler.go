package contact

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/sitequote/pkg/logging"
)

// Observer records contact form outcomes.
type Observer interface {
	ObserveContact(status string)
}

// Handler handles HTTP requests for the contact form
type Handler struct {
	relay    Relay
	observer Observer
	logger   *logging.Logger
}

// NewHandler creates a new contact handler
func NewHandler(relay Relay, observer Observer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		relay:    relay,
		observer: observer,
		logger:   logger,
	}
}

// Response is returned for every contact submission.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Submit handles POST /api/contact requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observe("invalid")
		writeJSON(w, http.StatusBadRequest, Response{Status: "invalid", Error: "invalid request body"})
		return
	}
	req.Normalize()

	if err := req.Validate(); err != nil {
		h.observe("invalid")
		writeJSON(w, http.StatusBadRequest, Response{Status: "invalid", Error: err.Error()})
		return
	}

	if h.relay == nil {
		h.logger.Error("contact relay not configured")
		h.observe("failed")
		writeJSON(w, http.StatusBadGateway, Response{Status: "error", Error: "message could not be delivered"})
		return
	}

	if err := h.relay.RelayContact(r.Context(), req); err != nil {
		h.logger.Error("contact relay failed", "error", err)
		h.observe("failed")
		writeJSON(w, http.StatusBadGateway, Response{Status: "error", Error: "message could not be delivered"})
		return
	}

	h.logger.Info("contact message relayed")
	h.observe("sent")
	writeJSON(w, http.StatusAccepted, Response{Status: "sent"})
}

func (h *Handler) observe(status string) {
	if h.observer != nil {
		h.observer.ObserveContact(status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
