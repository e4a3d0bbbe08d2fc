package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sales-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// UpsertOrder inserts the order line or replaces every non-key column of the
// row sharing its natural key.
func (s *Store) UpsertOrder(ctx context.Context, order *models.OrderRecord) (models.UpsertResult, error) {
	query, args, err := sqlx.Named(upsertQuery, order)
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to bind upsert: %w", err)
	}

	var id int64
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(query), args...).Scan(&id); err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to upsert order: %w", err)
	}

	return models.UpsertResult{ID: id, Changes: 1}, nil
}

// GetOrderByID retrieves an order by surrogate id
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.OrderRecord, error) {
	var order models.OrderRecord
	err := s.db.GetContext(ctx, &order,
		"SELECT "+selectColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders matching the filter, newest sale first
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error) {
	query, args := buildListQuery(filter)

	orders := []models.OrderRecord{}
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteOrder deletes an order by surrogate id and reports the rows removed
func (s *Store) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
