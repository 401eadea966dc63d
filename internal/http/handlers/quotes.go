package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/sitequote/internal/leads"
	"github.com/wolfman30/sitequote/internal/quote"
	"github.com/wolfman30/sitequote/internal/session"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// SubmissionObserver records submit outcomes.
type SubmissionObserver interface {
	ObserveSubmission(websiteType, outcome string)
}

// QuoteHandler exposes per-visitor quote sessions over HTTP.
type QuoteHandler struct {
	sessions *session.Manager
	archive  leads.Repository
	observer SubmissionObserver
	logger   *logging.Logger
}

// NewQuoteHandler creates a quote handler. archive may be nil.
func NewQuoteHandler(sessions *session.Manager, archive leads.Repository, observer SubmissionObserver, logger *logging.Logger) *QuoteHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &QuoteHandler{
		sessions: sessions,
		archive:  archive,
		observer: observer,
		logger:   logger,
	}
}

// QuoteResponse is returned by every quote endpoint.
type QuoteResponse struct {
	ID     string        `json:"id"`
	View   quote.View    `json:"view"`
	Toasts []quote.Toast `json:"toasts,omitempty"`
}

// ChangeResponse reports whether a page step or reset took effect.
type ChangeResponse struct {
	QuoteResponse
	Changed bool `json:"changed"`
}

// SubmitResponse carries the submission outcome alongside the view.
type SubmitResponse struct {
	QuoteResponse
	Result quote.SubmissionResult `json:"result"`
}

type typeRequest struct {
	WebsiteType string `json:"website_type"`
}

type descriptionRequest struct {
	CustomDescription string `json:"custom_description"`
}

type pagesRequest struct {
	NumPages int `json:"num_pages"`
}

type submitRequest struct {
	ClientMetadata map[string]string `json:"client_metadata"`
}

// Create handles POST /api/quotes. Once the session cap is reached new
// visitors get 503 until idle sessions are swept.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, wf, err := h.sessions.Create(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrSessionLimit) {
			w.Header().Set("Retry-After", "60")
			jsonError(w, "too many active quote sessions", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("quote session create failed", "error", err)
		jsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, QuoteResponse{ID: id, View: wf.View()})
}

// Get handles GET /api/quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.response(id, wf))
}

// SelectType handles PUT /api/quotes/{id}/type
func (h *QuoteHandler) SelectType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wf *quote.Workflow) bool {
		wf.SelectType(req.WebsiteType)
		return true
	})
}

// SetDescription handles PUT /api/quotes/{id}/description
func (h *QuoteHandler) SetDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wf *quote.Workflow) bool {
		wf.SetDescription(req.CustomDescription)
		return true
	})
}

// SetPages handles PUT /api/quotes/{id}/pages. Out-of-range counts are clamped.
func (h *QuoteHandler) SetPages(w http.ResponseWriter, r *http.Request) {
	var req pagesRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wf *quote.Workflow) bool {
		before := wf.Selection().NumPages
		return wf.SetPages(req.NumPages) != before
	})
}

// IncrementPages handles POST /api/quotes/{id}/pages/increment
func (h *QuoteHandler) IncrementPages(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*quote.Workflow).IncrementPages)
}

// DecrementPages handles POST /api/quotes/{id}/pages/decrement
func (h *QuoteHandler) DecrementPages(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*quote.Workflow).DecrementPages)
}

// Reset handles POST /api/quotes/{id}/reset. A reset during an in-flight
// notification is refused with 409.
func (h *QuoteHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.load(w, r)
	if !ok {
		return
	}
	if !wf.Reset() {
		writeJSON(w, http.StatusConflict, ChangeResponse{QuoteResponse: h.response(id, wf)})
		return
	}
	h.save(r.Context(), id)
	writeJSON(w, http.StatusOK, ChangeResponse{QuoteResponse: h.response(id, wf), Changed: true})
}

// Submit handles POST /api/quotes/{id}/submit. An invalid selection is a
// silent reject: 200 with accepted=false and nothing sent.
func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	limitBody(w, r)
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	id, wf, ok := h.load(w, r)
	if !ok {
		return
	}

	meta := clientMetadata(r, req.ClientMetadata)
	result := wf.Submit(r.Context(), meta)
	websiteType := wf.Selection().WebsiteTypeID

	switch {
	case !result.Accepted:
		h.observe(websiteType, "rejected")
		h.logger.Info("quote submit rejected", "session_id", id, "state", wf.State().String())
	case result.NotificationSent:
		h.observe(result.Lead.WebsiteType, "notified")
	default:
		h.observe(result.Lead.WebsiteType, "notify_failed")
	}

	if result.Accepted {
		h.save(r.Context(), id)
		h.record(r.Context(), id, result)
	}
	writeJSON(w, http.StatusOK, SubmitResponse{QuoteResponse: h.response(id, wf), Result: result})
}

// Delete handles DELETE /api/quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.logger.Error("quote session delete failed", "session_id", id, "error", err)
		jsonError(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuoteHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*quote.Workflow) bool) {
	id, wf, ok := h.load(w, r)
	if !ok {
		return
	}
	changed := fn(wf)
	h.save(r.Context(), id)
	writeJSON(w, http.StatusOK, ChangeResponse{QuoteResponse: h.response(id, wf), Changed: changed})
}

func (h *QuoteHandler) load(w http.ResponseWriter, r *http.Request) (string, *quote.Workflow, bool) {
	id := chi.URLParam(r, "id")
	wf, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			jsonError(w, "quote session not found", http.StatusNotFound)
			return "", nil, false
		}
		h.logger.Error("quote session load failed", "session_id", id, "error", err)
		jsonError(w, "failed to load session", http.StatusInternalServerError)
		return "", nil, false
	}
	return id, wf, true
}

func (h *QuoteHandler) response(id string, wf *quote.Workflow) QuoteResponse {
	return QuoteResponse{ID: id, View: wf.View(), Toasts: h.sessions.Drain(id)}
}

func (h *QuoteHandler) save(ctx context.Context, id string) {
	if err := h.sessions.Save(ctx, id); err != nil {
		h.logger.Warn("quote session save failed", "session_id", id, "error", err)
	}
}

// record archives an accepted lead. Failures never affect the submission.
func (h *QuoteHandler) record(ctx context.Context, id string, result quote.SubmissionResult) {
	if h.archive == nil || result.Lead == nil {
		return
	}
	rec, err := h.archive.Create(context.WithoutCancel(ctx), leads.NewCreateRecordRequest(*result.Lead, result.NotificationSent))
	if err != nil {
		h.logger.Error("lead archive failed", "session_id", id, "error", err)
		return
	}
	h.logger.Info("lead archived", "session_id", id, "lead_id", rec.ID, "website_type", rec.WebsiteType)
}

// observe records an outcome, folding ids outside the catalog into one label.
func (h *QuoteHandler) observe(websiteType, outcome string) {
	if h.observer != nil {
		h.observer.ObserveSubmission(h.sessions.Estimator().TypeKey(websiteType), outcome)
	}
}

// clientMetadata fills user agent and referrer from the request unless the
// client already supplied them.
func clientMetadata(r *http.Request, supplied map[string]string) map[string]string {
	meta := make(map[string]string, len(supplied)+2)
	for k, v := range supplied {
		meta[k] = v
	}
	if _, ok := meta["user_agent"]; !ok && r.UserAgent() != "" {
		meta["user_agent"] = r.UserAgent()
	}
	if _, ok := meta["referrer"]; !ok && r.Referer() != "" {
		meta["referrer"] = r.Referer()
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
