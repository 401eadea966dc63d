package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/sitequote/internal/quote"
	"github.com/wolfman30/sitequote/pkg/logging"
)

func seedRepo(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, typ := range []string{"landing", "blog", "landing"} {
		_, err := repo.Create(context.Background(), &CreateRecordRequest{
			WebsiteType:  typ,
			Label:        typ,
			NumPages:     i + 1,
			Price:        int64(50 * (i + 1)),
			DeliveryDays: 5,
			SubmittedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func TestListLeads_Success(t *testing.T) {
	handler := NewHandler(seedRepo(t), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 3 || resp.Limit != DefaultListLimit {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Leads[0].NumPages != 3 {
		t.Errorf("expected newest lead first, got %+v", resp.Leads[0])
	}
}

func TestListLeads_FilterAndPaging(t *testing.T) {
	handler := NewHandler(seedRepo(t), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?website_type=landing&limit=1&offset=1", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Offset != 1 || resp.Limit != 1 {
		t.Fatalf("unexpected paging %+v", resp)
	}
	if resp.Leads[0].WebsiteType != "landing" || resp.Leads[0].NumPages != 1 {
		t.Errorf("unexpected lead %+v", resp.Leads[0])
	}
}

func TestListLeads_NotifiedAndSinceFilters(t *testing.T) {
	repo := seedRepo(t)
	if _, err := repo.Create(context.Background(), &CreateRecordRequest{
		WebsiteType:      "portfolio",
		Label:            "Portfolio",
		NumPages:         2,
		Price:            130,
		DeliveryDays:     7,
		NotificationSent: true,
		SubmittedAt:      time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	handler := NewHandler(repo, logging.Default())

	cases := []struct {
		query string
		count int
	}{
		{"notified=false", 3},
		{"notified=true", 1},
		{"since=2025-02-01T10:00:00Z", 3},
		{"notified=false&since=2025-02-01T10:00:00Z", 2},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/leads?"+tc.query, nil)
		w := httptest.NewRecorder()
		handler.ListLeads(w, req)

		var resp ListLeadsResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: failed to decode response: %v", tc.query, err)
		}
		if resp.Count != tc.count {
			t.Errorf("%s: expected %d leads, got %d", tc.query, tc.count, resp.Count)
		}
	}
}

func TestListLeads_RejectsBadFilters(t *testing.T) {
	handler := NewHandler(seedRepo(t), logging.Default())

	for _, query := range []string{"notified=maybe", "since=yesterday"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/leads?"+query, nil)
		w := httptest.NewRecorder()
		handler.ListLeads(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestListLeads_IgnoresBadLimit(t *testing.T) {
	handler := NewHandler(seedRepo(t), logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?limit=1000&offset=-3", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Limit != DefaultListLimit || resp.Offset != 0 {
		t.Fatalf("expected defaults, got %+v", resp)
	}
}

type failingRepository struct{}

func (f failingRepository) Create(context.Context, *CreateRecordRequest) (*Record, error) {
	return nil, errors.New("boom")
}

func (f failingRepository) GetByID(context.Context, string) (*Record, error) {
	return nil, errors.New("boom")
}

func (f failingRepository) List(context.Context, ListFilter) ([]*Record, error) {
	return nil, errors.New("boom")
}

func TestListLeads_RepositoryError(t *testing.T) {
	handler := NewHandler(failingRepository{}, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func getLeadRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/leads/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("leadID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetLead(t *testing.T) {
	repo := NewInMemoryRepository()
	created, err := repo.Create(context.Background(), &CreateRecordRequest{WebsiteType: "blog", NumPages: 2, Price: 115})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	handler := NewHandler(repo, logging.Default())

	w := httptest.NewRecorder()
	handler.GetLead(w, getLeadRequest(created.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got Record
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || got.Price != 115 {
		t.Errorf("unexpected record %+v", got)
	}

	w = httptest.NewRecorder()
	handler.GetLead(w, getLeadRequest("missing"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	NewHandler(failingRepository{}, nil).GetLead(w, getLeadRequest("x"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead := quote.Lead{
		WebsiteType:    "ecommerce",
		Label:          "E-commerce",
		NumPages:       5,
		Price:          510,
		DeliveryDays:   16,
		SubmittedAt:    time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		ClientMetadata: map[string]string{"user_agent": "test"},
	}
	req := NewCreateRecordRequest(lead, true)

	record, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID == "" {
		t.Error("expected record ID to be set")
	}
	if record.Price != 510 || record.DeliveryDays != 16 || !record.NotificationSent {
		t.Errorf("unexpected record %+v", record)
	}
	if !record.SubmittedAt.Equal(lead.SubmittedAt) {
		t.Errorf("expected submitted_at %v, got %v", lead.SubmittedAt, record.SubmittedAt)
	}

	lead.ClientMetadata["user_agent"] = "mutated"
	record.ClientMetadata["user_agent"] = "mutated"
	stored, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ClientMetadata["user_agent"] != "test" {
		t.Errorf("stored metadata should not alias caller maps")
	}
}

func TestRepository_CreateDefaultsTimestamp(t *testing.T) {
	repo := NewInMemoryRepository()
	record, err := repo.Create(context.Background(), &CreateRecordRequest{WebsiteType: "landing", NumPages: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.SubmittedAt.IsZero() {
		t.Error("expected SubmittedAt to be set")
	}
}

func TestRepository_CreateValidation(t *testing.T) {
	repo := NewInMemoryRepository()
	tests := []struct {
		name string
		req  CreateRecordRequest
		want error
	}{
		{"missing type", CreateRecordRequest{NumPages: 1}, ErrMissingWebsiteType},
		{"zero pages", CreateRecordRequest{WebsiteType: "landing"}, ErrInvalidPages},
		{"negative price", CreateRecordRequest{WebsiteType: "landing", NumPages: 1, Price: -1}, ErrNegativePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := repo.Create(context.Background(), &req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestRepository_ListOffsetPastEnd(t *testing.T) {
	repo := seedRepo(t)
	records, err := repo.List(context.Background(), ListFilter{Offset: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty page, got %d", len(records))
	}
}
