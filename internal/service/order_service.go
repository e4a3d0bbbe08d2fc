package service

import (
	"context"
	"errors"

	"sales-service/internal/broker"
	"sales-service/internal/models"
	"sales-service/internal/store"
	"sales-service/internal/util"

	"go.uber.org/zap"
)

// OrderStore is the persistence collaborator. Implemented by store.Store
// (Postgres) and store.MemoryStore.
type OrderStore interface {
	UpsertOrder(ctx context.Context, order *models.OrderRecord) (models.UpsertResult, error)
	GetOrderByID(ctx context.Context, id int64) (*models.OrderRecord, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error)
	DeleteOrder(ctx context.Context, id int64) (int64, error)
}

// OrderCache caches single rows by surrogate id. InvalidateOrder advances the
// generation of an id; FillOrder only stores a row if the generation is still
// the one read before the row was fetched.
type OrderCache interface {
	GetOrder(ctx context.Context, id int64) (*models.OrderRecord, bool, error)
	Generation(ctx context.Context, id int64) (int64, error)
	FillOrder(ctx context.Context, order *models.OrderRecord, gen int64) error
	InvalidateOrder(ctx context.Context, id int64) error
}

// OrderEventPublisher receives order change notifications.
type OrderEventPublisher interface {
	PublishOrderUpserted(ctx context.Context, event *models.OrderUpsertedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
}

// OrderService handles order persistence rules
type OrderService struct {
	store  OrderStore
	cache  OrderCache
	events OrderEventPublisher
	logger *zap.Logger
}

// NewOrderService creates a new order service. cache and events may be nil.
func NewOrderService(store OrderStore, cache OrderCache, events OrderEventPublisher) *OrderService {
	return &OrderService{
		store:  store,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// BulkResult reports a bulk ingestion: rows changed and the zero-based input
// indices rejected by validation, in input order.
type BulkResult struct {
	OK  int64 `json:"ok"`
	Bad []int `json:"bad"`
}

// UpsertOrder validates one raw record and writes it
func (s *OrderService) UpsertOrder(ctx context.Context, raw interface{}) (models.UpsertResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpsertOrder")
	defer span.End()

	order, err := ValidateRecord(raw)
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("single").Inc()
		return models.UpsertResult{}, err
	}

	return s.upsert(ctx, order)
}

// BulkUpsert processes records one at a time in input order. Invalid records
// are skipped and reported by index. The first storage failure stops the
// batch; earlier rows stay written.
func (s *OrderService) BulkUpsert(ctx context.Context, raws []interface{}) (*BulkResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.BulkUpsert")
	defer span.End()

	util.BulkBatchSize.Observe(float64(len(raws)))

	result := BulkResult{Bad: []int{}}
	for i, raw := range raws {
		order, err := ValidateRecord(raw)
		if err != nil {
			util.OrdersRejectedTotal.WithLabelValues("bulk").Inc()
			result.Bad = append(result.Bad, i)
			continue
		}

		res, err := s.upsert(ctx, order)
		if err != nil {
			s.logger.Error("Bulk upsert aborted",
				zap.Int("index", i),
				zap.Int64("ok", result.OK),
				zap.Error(err))
			return nil, &BulkAbortError{Index: i, Result: result, Err: err}
		}
		result.OK += res.Changes
	}

	s.logger.Info("Bulk upsert finished",
		zap.Int("records", len(raws)),
		zap.Int64("ok", result.OK),
		zap.Int("bad", len(result.Bad)))

	return &result, nil
}

func (s *OrderService) upsert(ctx context.Context, order *models.OrderRecord) (models.UpsertResult, error) {
	res, err := s.store.UpsertOrder(ctx, order)
	if err != nil {
		util.StorageFailuresTotal.WithLabelValues("upsert").Inc()
		return models.UpsertResult{}, &StorageError{Op: "upsert", Err: err}
	}

	util.OrdersUpsertedTotal.Add(float64(res.Changes))
	s.invalidate(ctx, res.ID)

	if s.events != nil {
		event := &models.OrderUpsertedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeOrderUpserted),
			ID:        res.ID,
			CompanyID: order.CompanyID,
			StoreID:   order.StoreID,
			OrderID:   order.OrderID,
			SkuID:     order.SkuID,
			Changes:   res.Changes,
		}
		if err := s.events.PublishOrderUpserted(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderUpserted event", zap.Int64("id", res.ID), zap.Error(err))
		}
	}

	return res, nil
}

// GetOrder retrieves an order by surrogate id, consulting the cache first.
// Returns store.ErrNotFound when the row does not exist.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	fill := false
	var gen int64
	if s.cache != nil {
		order, ok, err := s.cache.GetOrder(ctx, id)
		switch {
		case err != nil:
			util.OrderCacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("Order cache read failed", zap.Int64("id", id), zap.Error(err))
		case ok:
			util.OrderCacheLookups.WithLabelValues("hit").Inc()
			return order, nil
		default:
			util.OrderCacheLookups.WithLabelValues("miss").Inc()
		}

		// the generation must be read before the store
		if gen, err = s.cache.Generation(ctx, id); err != nil {
			s.logger.Warn("Order cache generation read failed", zap.Int64("id", id), zap.Error(err))
		} else {
			fill = true
		}
	}

	order, err := s.store.GetOrderByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		util.StorageFailuresTotal.WithLabelValues("get").Inc()
		return nil, &StorageError{Op: "get", Err: err}
	}

	if fill {
		if err := s.cache.FillOrder(ctx, order, gen); err != nil {
			s.logger.Warn("Order cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	return order, nil
}

// ListOrders returns orders matching filter
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		util.StorageFailuresTotal.WithLabelValues("list").Inc()
		return nil, &StorageError{Op: "list", Err: err}
	}
	return orders, nil
}

// DeleteOrder removes an order by surrogate id and returns the rows deleted
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	deleted, err := s.store.DeleteOrder(ctx, id)
	if err != nil {
		util.StorageFailuresTotal.WithLabelValues("delete").Inc()
		return 0, &StorageError{Op: "delete", Err: err}
	}

	s.invalidate(ctx, id)
	if deleted == 0 {
		return 0, nil
	}

	util.OrdersDeletedTotal.Add(float64(deleted))
	s.logger.Info("Order deleted", zap.Int64("id", id))

	if s.events != nil {
		event := &models.OrderDeletedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeOrderDeleted),
			ID:        id,
			Deleted:   deleted,
		}
		if err := s.events.PublishOrderDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderDeleted event", zap.Int64("id", id), zap.Error(err))
		}
	}
	return deleted, nil
}

func (s *OrderService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrder(ctx, id); err != nil {
		s.logger.Warn("Order cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}
