package models

import "time"

// Event types
const (
	EventTypeOrderUpserted = "ORDER_UPSERTED"
	EventTypeOrderDeleted  = "ORDER_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderUpsertedEvent published after an order line is inserted or replaced
type OrderUpsertedEvent struct {
	BaseEvent
	ID        int64  `json:"id"`
	CompanyID string `json:"companyId"`
	StoreID   int64  `json:"storeId"`
	OrderID   int64  `json:"orderId"`
	SkuID     string `json:"skuId"`
	Changes   int64  `json:"changes"`
}

// OrderDeletedEvent published after a delete by surrogate id
type OrderDeletedEvent struct {
	BaseEvent
	ID      int64 `json:"id"`
	Deleted int64 `json:"deleted"`
}
