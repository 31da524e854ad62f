package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/royaltymeds/pharmacy-api/internal/model"
	"github.com/royaltymeds/pharmacy-api/internal/repository"
	"github.com/royaltymeds/pharmacy-api/internal/service/audit"
	"github.com/royaltymeds/pharmacy-api/internal/service/pricing"
	"github.com/royaltymeds/pharmacy-api/internal/service/shipping"
	apperrors "github.com/royaltymeds/pharmacy-api/pkg/errors"
	"github.com/royaltymeds/pharmacy-api/pkg/messaging"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

// Service handles checkout and order lifecycle for the OTC storefront.
type Service struct {
	orderRepo repository.OrderRepository
	drugRepo  repository.DrugRepository
	shipping  *shipping.Service
	auditor   *audit.Service
	broker    messaging.Broker
	metrics   *metrics.Metrics
}

func NewService(orderRepo repository.OrderRepository, drugRepo repository.DrugRepository, shippingSvc *shipping.Service, auditor *audit.Service, broker messaging.Broker, m *metrics.Metrics) *Service {
	return &Service{
		orderRepo: orderRepo,
		drugRepo:  drugRepo,
		shipping:  shippingSvc,
		auditor:   auditor,
		broker:    broker,
		metrics:   m,
	}
}

// Checkout prices the cart and creates a confirmed order.
//
// Prices are configured tax-inclusive, so the order's tax line is always zero
// and the stored total never adds tax on top. The delivery rate is resolved
// and stored on every order; when the customer pays the courier on delivery
// it is excluded from the amount collected online.
func (s *Service) Checkout(ctx context.Context, actor model.Actor, req *model.CheckoutRequest) (*model.Order, error) {
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.DrugID)
	}
	drugs, err := s.drugRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load drugs: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Drug, len(drugs))
	for _, d := range drugs {
		byID[d.ID] = d
	}

	subtotal := decimal.Zero
	orderItems := make([]*model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		drug, ok := byID[item.DrugID]
		if !ok {
			return nil, apperrors.BadRequest("one or more drugs in the cart no longer exist", nil)
		}
		if drug.StockQuantity < item.Quantity {
			return nil, apperrors.BadRequest(
				fmt.Sprintf("insufficient stock for %s", drug.Name), nil)
		}

		unitPrice := pricing.EffectiveUnitPrice(drug)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		orderItems = append(orderItems, &model.OrderItem{
			DrugID:       drug.ID,
			DrugName:     drug.Name,
			Quantity:     item.Quantity,
			UnitPrice:    unitPrice,
			TotalPrice:   lineTotal,
			PharmConfirm: drug.RequiresPrescription,
		})
	}

	shippingAmount, err := s.shipping.Resolve(ctx, req.ShippingParish, req.ShippingCity)
	if err != nil {
		return nil, err
	}

	taxAmount := decimal.Zero
	total := subtotal.Add(taxAmount)
	if !req.PayOnDelivery {
		total = total.Add(shippingAmount)
	}

	order := &model.Order{
		UserID:             actor.ID,
		Status:             model.OrderStatusConfirmed,
		PaymentStatus:      model.PaymentStatusPending,
		SubtotalAmount:     subtotal,
		TaxAmount:          taxAmount,
		ShippingAmount:     shippingAmount,
		TotalAmount:        total,
		CollectOnDelivery:  req.PayOnDelivery,
		ShippingPaidOnline: !req.PayOnDelivery,
		ShippingParish:     req.ShippingParish,
		ShippingCity:       req.ShippingCity,
		ShippingAddress:    req.ShippingAddress,
		ContactPhone:       req.ContactPhone,
		Items:              orderItems,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range orderItems {
		if err := s.drugRepo.DecrementStock(ctx, item.DrugID, item.Quantity); err != nil {
			log.Warn().Err(err).
				Str("order_id", order.ID.String()).
				Str("drug_id", item.DrugID.String()).
				Msg("failed to decrement stock")
		}
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	s.publish(ctx, messaging.EventOrderCreated, order)

	return order, nil
}

// Get fetches an order; non-admin actors may only see their own.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, apperrors.Forbidden("", nil)
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.OrderFilters) ([]*model.Order, int64, error) {
	if !actor.IsAdmin() {
		filters.UserID = actor.ID
	}
	filters.Normalize()
	return s.orderRepo.List(ctx, filters)
}

// Update applies admin changes to an order's status, payment state, or
// shipping overrides. Marking the order paid publishes a payment event.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, err
	}
	before := *order
	paymentReceived := false

	if req.Status != nil {
		order.Status = *req.Status
	}
	if req.PaymentStatus != nil {
		if *req.PaymentStatus == model.PaymentStatusPaid && order.PaymentStatus != model.PaymentStatusPaid {
			paymentReceived = true
		}
		order.PaymentStatus = *req.PaymentStatus
	}
	if req.CustomShippingRate != nil {
		order.CustomShippingRate = req.CustomShippingRate
		order.TotalAmount = recomputeTotal(order, *req.CustomShippingRate)
	}
	if req.ShippingPaidOnline != nil {
		order.ShippingPaidOnline = *req.ShippingPaidOnline
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.auditor.Record(ctx, actor, audit.Entry{
		Action:       model.AuditActionUpdate,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		Before:       before,
		After:        order,
	})
	if paymentReceived {
		s.publish(ctx, messaging.EventOrderPaymentReceived, order)
	}

	return order, nil
}

// AttachPaymentProof lets the order's owner upload a bank transfer receipt.
func (s *Service) AttachPaymentProof(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.AttachPaymentProofRequest) (*model.Order, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	order.PaymentProofURL = req.FileURL
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to attach payment proof: %w", err)
	}
	return order, nil
}

// recomputeTotal rebuilds the total after an admin shipping override,
// preserving the collect-on-delivery exclusion.
func recomputeTotal(order *model.Order, shippingRate decimal.Decimal) decimal.Decimal {
	total := order.SubtotalAmount.Add(order.TaxAmount)
	if !order.CollectOnDelivery {
		total = total.Add(shippingRate)
	}
	return total
}

func (s *Service) publish(ctx context.Context, eventType string, order *model.Order) {
	if s.broker == nil {
		return
	}
	event := messaging.Event{
		Type: eventType,
		Payload: map[string]interface{}{
			"order_id":     order.ID,
			"user_id":      order.UserID,
			"total_amount": order.TotalAmount,
			"status":       order.Status,
		},
	}
	status := "ok"
	if err := s.broker.Publish(ctx, messaging.ChannelOrders, event); err != nil {
		status = "error"
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order event")
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}
