package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var recordColumnNames = []string{"id", "website_type", "label", "custom_description", "num_pages", "price", "delivery_days", "notification_sent", "client_metadata", "submitted_at"}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	submitted := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO quote_leads").
		WithArgs(pgxmock.AnyArg(), "custom", "Custom", "Booking engine", 2, int64(450), 22, false, []byte(`{"referrer":"home"}`), submitted).
		WillReturnRows(pgxmock.NewRows([]string{"submitted_at"}).AddRow(submitted))

	repo := NewPostgresRepository(mock)
	record, err := repo.Create(context.Background(), &CreateRecordRequest{
		WebsiteType:       "custom",
		Label:             "Custom",
		CustomDescription: "Booking engine",
		NumPages:          2,
		Price:             450,
		DeliveryDays:      22,
		SubmittedAt:       submitted,
		ClientMetadata:    map[string]string{"referrer": "home"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID == "" || !record.SubmittedAt.Equal(submitted) {
		t.Errorf("unexpected record %+v", record)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateValidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	if _, err := repo.Create(context.Background(), &CreateRecordRequest{NumPages: 1}); !errors.Is(err, ErrMissingWebsiteType) {
		t.Fatalf("expected ErrMissingWebsiteType, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	leadID := "6f1c2d7e-3b4a-4c5d-9e8f-0a1b2c3d4e5f"
	submitted := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM quote_leads WHERE id").
		WithArgs(leadID).
		WillReturnRows(pgxmock.NewRows(recordColumnNames).
			AddRow(leadID, "blog", "Blog", "", 2, int64(115), 10, true, []byte(`{"user_agent":"ua"}`), submitted))

	repo := NewPostgresRepository(mock)
	record, err := repo.GetByID(context.Background(), leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.WebsiteType != "blog" || record.Price != 115 || !record.NotificationSent {
		t.Errorf("unexpected record %+v", record)
	}
	if record.ClientMetadata["user_agent"] != "ua" {
		t.Errorf("unexpected metadata %v", record.ClientMetadata)
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	missing := "0b9e8f7a-6c5d-4e3f-a2b1-c0d9e8f7a6b5"
	mock.ExpectQuery("SELECT .* FROM quote_leads WHERE id").
		WithArgs(missing).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), missing); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestPostgresRepository_GetByIDMalformedID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	for _, id := range []string{"missing", "lead-1", "1 OR 1=1", ""} {
		if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrLeadNotFound) {
			t.Fatalf("%q: expected ErrLeadNotFound, got %v", id, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("malformed ids should not reach the database: %v", err)
	}
}

func TestPostgresRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	submitted := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM quote_leads").
		WithArgs("landing", (*bool)(nil), (*time.Time)(nil), DefaultListLimit, 0).
		WillReturnRows(pgxmock.NewRows(recordColumnNames).
			AddRow("lead-2", "landing", "Landing Page", "", 3, int64(135), 5, true, []byte(`{}`), submitted.Add(time.Hour)).
			AddRow("lead-1", "landing", "Landing Page", "", 1, int64(50), 5, false, []byte(`{}`), submitted))

	repo := NewPostgresRepository(mock)
	records, err := repo.List(context.Background(), ListFilter{WebsiteType: "landing", Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].ID != "lead-2" {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].ClientMetadata != nil {
		t.Errorf("expected empty metadata to decode as nil, got %v", records[0].ClientMetadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListNotificationAndSinceFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	notified := false
	since := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM quote_leads").
		WithArgs("", &notified, &since, 20, 40).
		WillReturnRows(pgxmock.NewRows(recordColumnNames).
			AddRow("lead-9", "blog", "Blog", "", 2, int64(115), 10, false, []byte(`{"user_agent":"curl"}`), since.Add(time.Hour)))

	repo := NewPostgresRepository(mock)
	records, err := repo.List(context.Background(), ListFilter{NotificationSent: &notified, Since: since, Limit: 20, Offset: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].NotificationSent {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].ClientMetadata["user_agent"] != "curl" {
		t.Errorf("unexpected metadata %v", records[0].ClientMetadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT .* FROM quote_leads").
		WithArgs("", (*bool)(nil), (*time.Time)(nil), DefaultListLimit, 0).
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgresRepository(mock)
	if _, err := repo.List(context.Background(), ListFilter{}); err == nil {
		t.Fatal("expected error")
	}
}
