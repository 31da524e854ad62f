package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/royaltymeds/pharmacy-api/internal/email"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/pkg/messaging"
)

// Notifier subscribes to domain events and sends customer emails. Email
// failures are logged and dropped; notifications are best effort.
type Notifier struct {
	broker   messaging.Broker
	email    email.Service
	userRepo repository.UserRepository
}

func NewNotifier(broker messaging.Broker, emailSvc email.Service, userRepo repository.UserRepository) *Notifier {
	return &Notifier{
		broker:   broker,
		email:    emailSvc,
		userRepo: userRepo,
	}
}

// Start consumes all event channels until the context is cancelled.
func (n *Notifier) Start(ctx context.Context) error {
	channels := []string{
		messaging.ChannelOrders,
		messaging.ChannelPrescriptions,
		messaging.ChannelRefills,
	}
	for _, channel := range channels {
		msgs, err := n.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		go n.consume(ctx, channel, msgs)
	}

	<-ctx.Done()
	return nil
}

func (n *Notifier) consume(ctx context.Context, channel string, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			if err := n.handle(ctx, raw); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to handle event")
			}
		}
	}
}

type eventPayload struct {
	OrderID        uuid.UUID       `json:"order_id"`
	PrescriptionID uuid.UUID       `json:"prescription_id"`
	UserID         uuid.UUID       `json:"user_id"`
	PatientID      uuid.UUID       `json:"patient_id"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

func (n *Notifier) handle(ctx context.Context, raw []byte) error {
	var event struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	var payload eventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	userID := payload.UserID
	if userID == uuid.Nil {
		userID = payload.PatientID
	}
	user, err := n.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}

	switch event.Type {
	case messaging.EventOrderCreated:
		return n.email.SendOrderConfirmation(ctx, user.Email, payload.OrderID.String(), payload.TotalAmount.String())
	case messaging.EventOrderPaymentReceived:
		return n.email.SendPaymentReceived(ctx, user.Email, payload.OrderID.String())
	case messaging.EventPrescriptionStatusChanged:
		return n.email.SendPrescriptionStatus(ctx, user.Email, payload.Status)
	case messaging.EventRefillRequested, messaging.EventRefillResolved:
		return n.email.SendRefillUpdate(ctx, user.Email, payload.Status)
	default:
		log.Debug().Str("type", event.Type).Msg("ignoring unknown event type")
		return nil
	}
}
