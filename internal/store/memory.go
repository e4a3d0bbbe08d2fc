package store

import (
	"context"
	"sort"
	"sync"

	"sales-service/internal/models"
)

// MemoryStore keeps orders in process memory. It follows the same upsert,
// filter and ordering rules as the Postgres store and backs STORE_BACKEND=memory
// as well as tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.OrderRecord
	byKey  map[models.NaturalKey]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[int64]models.OrderRecord),
		byKey: make(map[models.NaturalKey]int64),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) UpsertOrder(ctx context.Context, order *models.OrderRecord) (models.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := *order
	key := row.Key()
	id, ok := m.byKey[key]
	if !ok {
		m.nextID++
		id = m.nextID
		m.byKey[key] = id
	}
	row.ID = id
	m.rows[id] = row

	return models.UpsertResult{ID: id, Changes: 1}, nil
}

func (m *MemoryStore) GetOrderByID(ctx context.Context, id int64) (*models.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error) {
	m.mu.RLock()
	matched := make([]models.OrderRecord, 0, len(m.rows))
	for _, row := range m.rows {
		if matchesFilter(row, filter) {
			matched = append(matched, row)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].SaleDatetime, matched[j].SaleDatetime
		switch {
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return matched[i].ID > matched[j].ID
	})

	limit, offset := models.NormalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return []models.OrderRecord{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return 0, nil
	}
	delete(m.rows, id)
	delete(m.byKey, row.Key())
	return 1, nil
}

// matchesFilter mirrors the SQL WHERE clause; a NULL sale time never
// satisfies a date bound.
func matchesFilter(row models.OrderRecord, f models.OrderFilter) bool {
	if f.CompanyID != "" && row.CompanyID != f.CompanyID {
		return false
	}
	if f.StoreID != nil && row.StoreID != *f.StoreID {
		return false
	}
	if f.OrderID != nil && row.OrderID != *f.OrderID {
		return false
	}
	if f.SkuID != "" && row.SkuID != f.SkuID {
		return false
	}
	if f.StartDate != "" && (row.SaleDatetime == nil || *row.SaleDatetime < models.RangeStart(f.StartDate)) {
		return false
	}
	if f.EndDate != "" && (row.SaleDatetime == nil || *row.SaleDatetime > models.RangeEnd(f.EndDate)) {
		return false
	}
	return true
}
