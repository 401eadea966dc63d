package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the quote_leads table.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

const recordColumns = `id, website_type, label, custom_description, num_pages, price, delivery_days, notification_sent, client_metadata, submitted_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	meta := req.ClientMetadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("leads: encode metadata: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO quote_leads (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING submitted_at
	`
	record := &Record{
		ID:                id.String(),
		WebsiteType:       req.WebsiteType,
		Label:             req.Label,
		CustomDescription: req.CustomDescription,
		NumPages:          req.NumPages,
		Price:             req.Price,
		DeliveryDays:      req.DeliveryDays,
		NotificationSent:  req.NotificationSent,
		ClientMetadata:    req.ClientMetadata,
	}
	if err := r.db.QueryRow(ctx, query,
		id,
		req.WebsiteType,
		req.Label,
		req.CustomDescription,
		req.NumPages,
		req.Price,
		req.DeliveryDays,
		req.NotificationSent,
		metaJSON,
		req.submittedAt(),
	).Scan(&record.SubmittedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return record, nil
}

// GetByID fetches one record. Ids that are not UUIDs cannot match and are
// reported as ErrLeadNotFound without a query.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM quote_leads WHERE id = $1`
	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return record, nil
}

// List returns records newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	filter = filter.normalized()

	query := `
		SELECT ` + recordColumns + `
		FROM quote_leads
		WHERE ($1::text = '' OR website_type = $1)
		  AND ($2::boolean IS NULL OR notification_sent = $2)
		  AND ($3::timestamptz IS NULL OR submitted_at >= $3)
		ORDER BY submitted_at DESC, id
		LIMIT $4 OFFSET $5
	`
	var since *time.Time
	if !filter.Since.IsZero() {
		s := filter.Since.UTC()
		since = &s
	}
	rows, err := r.db.Query(ctx, query, filter.WebsiteType, filter.NotificationSent, since, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		record   Record
		metaJSON []byte
	)
	if err := row.Scan(
		&record.ID,
		&record.WebsiteType,
		&record.Label,
		&record.CustomDescription,
		&record.NumPages,
		&record.Price,
		&record.DeliveryDays,
		&record.NotificationSent,
		&metaJSON,
		&record.SubmittedAt,
	); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &record.ClientMetadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(record.ClientMetadata) == 0 {
		record.ClientMetadata = nil
	}
	return &record, nil
}
