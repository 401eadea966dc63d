package leads

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateRecordRequest) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}

// InMemoryRepository is a Repository using in-memory storage
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*Record),
	}
}

// Create stores a new record in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := &Record{
		ID:                uuid.New().String(),
		WebsiteType:       req.WebsiteType,
		Label:             req.Label,
		CustomDescription: req.CustomDescription,
		NumPages:          req.NumPages,
		Price:             req.Price,
		DeliveryDays:      req.DeliveryDays,
		NotificationSent:  req.NotificationSent,
		SubmittedAt:       req.submittedAt(),
		ClientMetadata:    maps.Clone(req.ClientMetadata),
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	return copyRecord(record), nil
}

// GetByID retrieves a record by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return copyRecord(record), nil
}

// List returns records newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	filter = filter.normalized()

	r.mu.RLock()
	matched := make([]*Record, 0, len(r.records))
	for _, record := range r.records {
		if !filter.matches(record) {
			continue
		}
		matched = append(matched, copyRecord(record))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})

	if filter.Offset >= len(matched) {
		return []*Record{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func copyRecord(r *Record) *Record {
	out := *r
	out.ClientMetadata = maps.Clone(r.ClientMetadata)
	return &out
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
