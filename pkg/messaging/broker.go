package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Event channels shared by publishers and the notification worker.
const (
	ChannelOrders        = "orders"
	ChannelPrescriptions = "prescriptions"
	ChannelRefills       = "refills"
)

// Event is the envelope published on the broker channels.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types.
const (
	EventOrderCreated              = "order.created"
	EventOrderPaymentReceived      = "order.payment_received"
	EventPrescriptionStatusChanged = "prescription.status_changed"
	EventRefillRequested           = "refill.requested"
	EventRefillResolved            = "refill.resolved"
)
