package worker

import (
	"context"
	"errors"

	"sales-service/internal/broker"
	"sales-service/internal/service"
	"sales-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// IngestWorker feeds order records published on the ingest topic through
// the same validation and upsert path as POST /orders.
type IngestWorker struct {
	consumer     *broker.Consumer
	orderService *service.OrderService
	logger       *zap.Logger
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(consumer *broker.Consumer, orderService *service.OrderService) *IngestWorker {
	return &IngestWorker{
		consumer:     consumer,
		orderService: orderService,
		logger:       util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled
func (w *IngestWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting ingest worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *IngestWorker) Stop() error {
	w.logger.Info("Stopping ingest worker")
	return w.consumer.Close()
}

// handleMessage returns an error only for storage failures; the consumer then
// redelivers the same message until it succeeds. Replaying a partly written
// batch is safe since upserts are idempotent. Malformed payloads are dropped.
func (w *IngestWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	raws, batch, err := service.DecodeOrderPayload(msg.Value)
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("ingest").Inc()
		w.logger.Warn("Dropping malformed ingest message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	if !batch {
		res, err := w.orderService.UpsertOrder(ctx, raws[0])
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			w.logger.Warn("Dropping invalid ingest record",
				zap.Int64("offset", msg.Offset),
				zap.String("reason", verr.Reason))
			return nil
		}
		if err != nil {
			return err
		}
		w.logger.Debug("Ingested order", zap.Int64("id", res.ID))
		return nil
	}

	res, err := w.orderService.BulkUpsert(ctx, raws)
	if err != nil {
		return err
	}
	w.logger.Info("Ingested order batch",
		zap.Int64("offset", msg.Offset),
		zap.Int64("ok", res.OK),
		zap.Ints("bad", res.Bad))
	return nil
}
