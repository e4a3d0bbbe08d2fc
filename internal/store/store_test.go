package store

import (
	"context"
	"os"
	"strings"
	"testing"

	"sales-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string    { return &s }
func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64     { return &i }

func TestUpsertQueryOverwritesOnlyNonKeyColumns(t *testing.T) {
	q := upsertQuery

	assert.True(t, strings.HasPrefix(q, "INSERT INTO orders ("))
	assert.Contains(t, q, "ON CONFLICT (company_id, store_id, order_id, sku_id) DO UPDATE SET")
	assert.Contains(t, q, "total = EXCLUDED.total")
	assert.Contains(t, q, "produced = EXCLUDED.produced")
	assert.Contains(t, q, "seller_name = EXCLUDED.seller_name")
	assert.True(t, strings.HasSuffix(q, "RETURNING id"))

	set := q[strings.Index(q, "DO UPDATE SET"):]
	for _, key := range keyColumns {
		assert.NotContains(t, set, key+" = EXCLUDED."+key)
	}
}

func TestUpsertQueryBindsEveryColumn(t *testing.T) {
	rec := &models.OrderRecord{CompanyID: "C1", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 1, Total: floatPtr(50)}

	query, args, err := sqlx.Named(upsertQuery, rec)
	require.NoError(t, err)
	require.Len(t, args, len(orderColumns))

	assert.Equal(t, "C1", args[0])
	assert.Nil(t, args[5].(*string))
	assert.Equal(t, len(orderColumns), strings.Count(sqlx.Rebind(sqlx.DOLLAR, query), "$"))
}

func TestBuildListQueryNoFilters(t *testing.T) {
	query, args := buildListQuery(models.OrderFilter{})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY sale_datetime DESC NULLS LAST, id DESC LIMIT ? OFFSET ?")
	assert.Equal(t, []interface{}{100, 0}, args)
}

func TestBuildListQueryAllFilters(t *testing.T) {
	filter := models.OrderFilter{
		CompanyID: "C1'; DROP TABLE orders;--",
		StoreID:   int64Ptr(2),
		OrderID:   int64Ptr(300),
		SkuID:     "SKU9",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Limit:     5000,
		Offset:    -5,
	}

	query, args := buildListQuery(filter)

	assert.Contains(t, query, "WHERE company_id = ? AND store_id = ? AND order_id = ? AND sku_id = ? AND sale_datetime >= ? AND sale_datetime <= ?")
	assert.NotContains(t, query, "DROP TABLE")
	assert.Equal(t, []interface{}{
		"C1'; DROP TABLE orders;--", int64(2), int64(300), "SKU9",
		"2024-01-01 00:00:00", "2024-01-31 23:59:59", 1000, 0,
	}, args)

	rebound := sqlx.Rebind(sqlx.DOLLAR, query)
	assert.Contains(t, rebound, "LIMIT $7 OFFSET $8")
}

func TestMemoryStoreUpsertReplacesAllFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &models.OrderRecord{CompanyID: "C1", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 1, Brand: strPtr("acme"), Total: floatPtr(10)}
	res1, err := s.UpsertOrder(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res1.Changes)

	second := &models.OrderRecord{CompanyID: "C1", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 0, Total: floatPtr(50)}
	res2, err := s.UpsertOrder(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, res1.ID, res2.ID)

	rows, err := s.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Brand)
	assert.Equal(t, 50.0, *rows[0].Total)
	assert.Equal(t, 0.0, rows[0].Produced)
}

func TestMemoryStoreListOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seed := []*models.OrderRecord{
		{CompanyID: "C1", StoreID: 1, OrderID: 1, SkuID: "A", SaleDatetime: strPtr("2024-01-01 10:00:00")},
		{CompanyID: "C1", StoreID: 1, OrderID: 2, SkuID: "A", SaleDatetime: strPtr("2024-01-03 10:00:00")},
		{CompanyID: "C1", StoreID: 1, OrderID: 3, SkuID: "A"},
		{CompanyID: "C1", StoreID: 1, OrderID: 4, SkuID: "A", SaleDatetime: strPtr("2024-01-03 10:00:00")},
		{CompanyID: "C2", StoreID: 2, OrderID: 5, SkuID: "B", SaleDatetime: strPtr("2024-02-01 00:00:00")},
	}
	for _, rec := range seed {
		_, err := s.UpsertOrder(ctx, rec)
		require.NoError(t, err)
	}

	rows, err := s.ListOrders(ctx, models.OrderFilter{CompanyID: "C1"})
	require.NoError(t, err)
	var orderIDs []int64
	for _, r := range rows {
		orderIDs = append(orderIDs, r.OrderID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, orderIDs)

	rows, err = s.ListOrders(ctx, models.OrderFilter{StartDate: "2024-01-03", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.ListOrders(ctx, models.OrderFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0].OrderID)

	rows, err = s.ListOrders(ctx, models.OrderFilter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryStoreGetAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	res, err := s.UpsertOrder(ctx, &models.OrderRecord{CompanyID: "C1", StoreID: 1, OrderID: 1, SkuID: "A"})
	require.NoError(t, err)

	got, err := s.GetOrderByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.SkuID)

	deleted, err := s.DeleteOrder(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = s.GetOrderByID(ctx, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = s.DeleteOrder(ctx, res.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestPostgresUpsertRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database")
	}

	store, err := NewStore(url)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	rec := &models.OrderRecord{CompanyID: "IT", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 1, Brand: strPtr("acme")}
	first, err := store.UpsertOrder(ctx, rec)
	require.NoError(t, err)
	defer store.DeleteOrder(ctx, first.ID)

	rec2 := &models.OrderRecord{CompanyID: "IT", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 1, Total: floatPtr(50)}
	second, err := store.UpsertOrder(ctx, rec2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), second.Changes)

	got, err := store.GetOrderByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Brand)
	assert.Equal(t, 50.0, *got.Total)

	rows, err := store.ListOrders(ctx, models.OrderFilter{CompanyID: "IT", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
