package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/repo"
)

// mapGatewayStatus folds the processor's status vocabulary onto the
// internal payment set. Unknown values degrade to pending instead of
// failing, the gateway adds statuses without notice.
func mapGatewayStatus(raw string) models.PaymentStatus {
	switch strings.ToLower(raw) {
	case "approved":
		return models.PaymentStatusApproved
	case "rejected":
		return models.PaymentStatusRejected
	case "cancelled":
		return models.PaymentStatusCancelled
	case "refunded":
		return models.PaymentStatusRefunded
	case "pending", "in_process":
		return models.PaymentStatusPending
	}
	return models.PaymentStatusPending
}

// ProcessPaymentWebhook reconciles one gateway notification. The body's
// status is never trusted; the authoritative state is fetched by id.
// Replays are no-ops: applying the same terminal result twice leaves the
// order untouched, while a contradictory result for a terminal order is
// rejected by the transition guard.
func (s *CheckoutService) ProcessPaymentWebhook(ctx context.Context, externalPaymentID string) error {
	if strings.TrimSpace(externalPaymentID) == "" {
		return fmt.Errorf("%w: payment id required", ErrValidation)
	}

	gwCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	info, err := s.Gateway.GetPayment(gwCtx, externalPaymentID)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: payment lookup: %v", ErrUpstream, err)
	}

	payments := repo.Payments{DB: s.DB}
	payment, err := payments.GetByMercadoPagoID(ctx, externalPaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment, err = s.paymentByExternalReference(ctx, info.ExternalReference)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
			// Expected for notifications about orders we never created.
			s.Log.Warn("payment not found for notification", "mercadoPagoID", externalPaymentID)
			return fmt.Errorf("%w: payment for mercadopago id %s", ErrNotFound, externalPaymentID)
		}
		return err
	}

	mapped := mapGatewayStatus(info.Status)
	if err := payments.UpdateReconciliation(ctx, payment.ID, externalPaymentID, mapped, info.PaymentTypeID, info.StatusDetail); err != nil {
		return err
	}

	var ev lifecycleEvent
	switch mapped {
	case models.PaymentStatusApproved:
		ev = eventGatewayApproved
	case models.PaymentStatusRejected, models.PaymentStatusCancelled:
		ev = eventGatewayCancelled
	default:
		// pending / refunded leave the order where it is
		return nil
	}

	order, err := (repo.Orders{DB: s.DB}).Get(ctx, payment.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, payment.OrderID)
		}
		return err
	}

	// Idempotent replay: the target state was already reached.
	if order.Status == transitionTable[ev].to {
		s.Log.Info("webhook replay ignored", "orderID", order.ID, "status", order.Status)
		return nil
	}

	if err := applyTransition(ctx, s.DB, order, ev, nil); err != nil {
		return err
	}

	eventType := "order_cancelled"
	if ev == eventGatewayApproved {
		eventType = "payment_approved"
	}
	publishOrderEvent(ctx, s.Producer, s.Log, eventType, order)

	s.Log.Info("payment webhook processed",
		"orderID", order.ID, "paymentStatus", mapped, "orderStatus", order.Status)
	return nil
}

func (s *CheckoutService) paymentByExternalReference(ctx context.Context, ref string) (*models.Payment, error) {
	orderID, convErr := strconv.ParseUint(ref, 10, 32)
	if convErr != nil || orderID == 0 {
		return nil, fmt.Errorf("%w: no usable external reference", ErrNotFound)
	}
	return (repo.Payments{DB: s.DB}).GetByOrderID(ctx, uint(orderID))
}
