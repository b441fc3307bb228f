package models

import "time"

// Event types
const (
	EventTypeTransactionCreated     = "TRANSACTION_CREATED"
	EventTypeTransactionUpdated     = "TRANSACTION_UPDATED"
	EventTypeTransactionApproved    = "TRANSACTION_APPROVED"
	EventTypeTransactionSoftDeleted = "TRANSACTION_SOFT_DELETED"
	EventTypeTransactionRestored    = "TRANSACTION_RESTORED"
	EventTypeTransactionPurged      = "TRANSACTION_PURGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionEvent is published on every transaction lifecycle transition.
// StockDelta is the signed change applied to the product's stock as part of
// the transition (zero when the transition had no stock effect).
type TransactionEvent struct {
	BaseEvent
	TransactionID int64  `json:"transaction_id"`
	BookingTrxID  string `json:"booking_trx_id"`
	ProductID     int64  `json:"product_id"`
	Quantity      int    `json:"quantity"`
	IsPaid        bool   `json:"is_paid"`
	StockDelta    int    `json:"stock_delta"`
}
