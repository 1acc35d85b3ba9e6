package service

import (
	"context"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// deliveryBatch is the most orders one Delivery takes from a district
	deliveryBatch = 10

	deliveryEventTTL = 24 * time.Hour
)

// Delivery delivers the oldest pending orders of every district of a
// warehouse. With Deferred set and a queue configured the request is only
// queued and executed later by the delivery worker.
func (e *Engine) Delivery(ctx context.Context, req *models.DeliveryRequest) (*models.DeliveryResponse, error) {
	if req.Deferred && e.queue != nil {
		return e.EnqueueDelivery(ctx, req)
	}
	return e.deliver(ctx, req.WarehouseID, req.CarrierID)
}

// EnqueueDelivery publishes a DeliveryQueued event
func (e *Engine) EnqueueDelivery(ctx context.Context, req *models.DeliveryRequest) (resp *models.DeliveryResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.EnqueueDelivery",
		attribute.Int("warehouse_id", int(req.WarehouseID)))
	defer func() { util.EndSpan(span, err) }()

	now := time.Now().UTC()
	event := &models.DeliveryQueuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDeliveryQueued,
			Timestamp: now,
		},
		WarehouseID: req.WarehouseID,
		CarrierID:   req.CarrierID,
		QueuedAt:    now,
	}

	if err := e.queue.PublishDeliveryQueued(ctx, event); err != nil {
		return nil, &Error{Kind: StorageFailure, Op: "enqueue_delivery", Err: err}
	}

	util.DeliveriesQueuedTotal.Inc()
	e.logger.Info("Delivery queued",
		zap.String("event_id", event.EventID),
		zap.Int32("warehouse_id", req.WarehouseID),
		zap.Int32("carrier_id", req.CarrierID))

	return &models.DeliveryResponse{Queued: true}, nil
}

// HandleDeliveryQueued executes a deferred delivery once per event id
func (e *Engine) HandleDeliveryQueued(ctx context.Context, event *models.DeliveryQueuedEvent) error {
	ctx, span := util.StartSpan(ctx, "Engine.HandleDeliveryQueued",
		attribute.String("event_id", event.EventID))
	defer span.End()

	seen, err := e.cache.CheckIdempotencyKey(ctx, event.EventID)
	if err != nil {
		return &Error{Kind: StorageFailure, Op: "handle_delivery_queued", Err: err}
	}
	if seen {
		util.DeliveryEventsSkippedTotal.Inc()
		e.logger.Info("Duplicate delivery event skipped", zap.String("event_id", event.EventID))
		return nil
	}

	resp, err := e.deliver(ctx, event.WarehouseID, event.CarrierID)
	if err != nil {
		return err
	}

	if err := e.cache.SetIdempotencyKey(ctx, event.EventID, resp.DeliveredOrders, deliveryEventTTL); err != nil {
		e.logger.Warn("Failed to record delivery event", zap.String("event_id", event.EventID), zap.Error(err))
	}

	e.logger.Info("Deferred delivery completed",
		zap.String("event_id", event.EventID),
		zap.Int("delivered_orders", resp.DeliveredOrders),
		zap.Duration("queue_delay", time.Since(event.QueuedAt)))
	return nil
}

func (e *Engine) deliver(ctx context.Context, warehouseID, carrierID int32) (resp *models.DeliveryResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.Delivery",
		attribute.Int("warehouse_id", int(warehouseID)),
		attribute.Int("carrier_id", int(carrierID)))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.DeliveryResponse{}
	timings, err := e.store.WriteTx(ctx, func(tx *store.WrTx) error {
		if _, err := tx.Warehouse(ctx, warehouseID); err != nil {
			return err
		}
		for d := int32(1); d <= DistrictsPerWarehouse; d++ {
			n, err := deliverDistrict(ctx, tx, warehouseID, d, carrierID)
			if err != nil {
				return err
			}
			resp.DeliveredOrders += n
		}
		return nil
	})

	err = classify("delivery", err)
	e.observe(TxDelivery, timings, err)
	if err != nil {
		return nil, err
	}

	util.DeliveredOrdersTotal.Add(float64(resp.DeliveredOrders))
	resp.Performance = perf(timings)
	return resp, nil
}

// deliverDistrict delivers up to deliveryBatch orders of one district. All
// lines delivered in the batch share one delivery timestamp.
func deliverDistrict(ctx context.Context, tx *store.WrTx, warehouseID, districtID, carrierID int32) (int, error) {
	orderIDs, err := tx.OldestNewOrders(ctx, warehouseID, districtID, deliveryBatch)
	if err != nil {
		return 0, err
	}
	if len(orderIDs) == 0 {
		return 0, nil
	}

	totals, err := tx.OrderTotals(ctx, warehouseID, districtID, orderIDs)
	if err != nil {
		return 0, err
	}
	if err := tx.DeleteNewOrders(ctx, warehouseID, districtID, orderIDs); err != nil {
		return 0, err
	}
	if err := tx.SetCarrier(ctx, warehouseID, districtID, orderIDs, carrierID); err != nil {
		return 0, err
	}
	if err := tx.StampDelivery(ctx, warehouseID, districtID, orderIDs, time.Now().UTC()); err != nil {
		return 0, err
	}
	for _, t := range totals {
		if err := tx.CreditDelivery(ctx, warehouseID, districtID, t.CustomerID, t.Amount); err != nil {
			return 0, err
		}
	}
	return len(orderIDs), nil
}
