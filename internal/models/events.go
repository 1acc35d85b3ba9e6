package models

import "time"

// Event types
const (
	EventTypeDeliveryQueued = "DELIVERY_QUEUED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryQueuedEvent is published when a Delivery is accepted in deferred mode
type DeliveryQueuedEvent struct {
	BaseEvent
	WarehouseID int32     `json:"warehouse_id"`
	CarrierID   int32     `json:"carrier_id"`
	QueuedAt    time.Time `json:"queued_at"`
}
