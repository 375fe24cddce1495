package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/repo"
	"github.com/hvaldes/tienda_api/internal/transport"
	"github.com/hvaldes/tienda_api/internal/util"
)

// OrderService drives the manual (bank-transfer) lifecycle path:
// customer receipt upload, admin review, shipment, delivery.
type OrderService struct {
	DB       *gorm.DB
	Producer EventPublisher
	Log      *slog.Logger
}

func (s *OrderService) getOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := (repo.Orders{DB: s.DB}).Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// UploadPaymentReceipt records the stored receipt URL and moves the
// order into review. Allowed from pending_payment and from
// payment_rejected, so a customer can retry after a rejection.
func (s *OrderService) UploadPaymentReceipt(ctx context.Context, orderID uint, receiptURL string) (*models.Order, error) {
	if strings.TrimSpace(receiptURL) == "" {
		return nil, fmt.Errorf("%w: receipt url required", ErrValidation)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	extra := map[string]any{
		"payment_receipt_url": receiptURL,
		"payment_method":      "bank_transfer",
	}
	if err := applyTransition(ctx, s.DB, order, eventReceiptUploaded, extra); err != nil {
		return nil, err
	}
	order.PaymentReceiptURL = receiptURL
	order.PaymentMethod = "bank_transfer"

	publishOrderEvent(ctx, s.Producer, s.Log, "payment_receipt_uploaded", order)
	return order, nil
}

func (s *OrderService) ApprovePayment(ctx context.Context, orderID uint, notes string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := applyTransition(ctx, s.DB, order, eventAdminApprove, adminNotes(notes)); err != nil {
		return nil, err
	}

	publishOrderEvent(ctx, s.Producer, s.Log, "payment_approved", order)
	s.Log.Info("payment approved", "orderID", order.ID)
	return order, nil
}

func (s *OrderService) RejectPayment(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason required", ErrValidation)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := applyTransition(ctx, s.DB, order, eventAdminReject, adminNotes(reason)); err != nil {
		return nil, err
	}

	publishOrderEvent(ctx, s.Producer, s.Log, "payment_rejected", order)
	return order, nil
}

func (s *OrderService) MarkShipped(ctx context.Context, orderID uint, trackingNumber, provider, notes string) (*models.Order, error) {
	if strings.TrimSpace(trackingNumber) == "" {
		return nil, fmt.Errorf("%w: tracking number required", ErrValidation)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	extra := adminNotes(notes)
	extra["tracking_number"] = trackingNumber
	extra["shipping_provider"] = provider
	if err := applyTransition(ctx, s.DB, order, eventMarkShipped, extra); err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber
	order.ShippingProvider = provider

	publishOrderEvent(ctx, s.Producer, s.Log, "order_shipped", order)
	return order, nil
}

func (s *OrderService) MarkDelivered(ctx context.Context, orderID uint, notes string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := applyTransition(ctx, s.DB, order, eventMarkDelivered, adminNotes(notes)); err != nil {
		return nil, err
	}

	publishOrderEvent(ctx, s.Producer, s.Log, "order_delivered", order)
	return order, nil
}

// adminNotes overwrites the previous note when one is supplied; an empty
// note keeps whatever was there.
func adminNotes(notes string) map[string]any {
	extra := map[string]any{}
	if strings.TrimSpace(notes) != "" {
		extra["admin_notes"] = notes
	}
	return extra
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*transport.OrderResponse, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := transport.ToOrderResponse(order, nil)
	return &resp, nil
}

func (s *OrderService) GetReceiptURL(ctx context.Context, id uint) (string, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return "", err
	}
	if order.PaymentReceiptURL == "" {
		return "", fmt.Errorf("%w: no receipt for order %d", ErrNotFound, id)
	}
	return order.PaymentReceiptURL, nil
}

// CanUserAccessOrder reports whether the order belongs to the user.
// Guest orders (no owner) are readable by anyone holding the id.
func (s *OrderService) CanUserAccessOrder(ctx context.Context, orderID uint, userID *uint) (bool, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order.UserID == nil {
		return true, nil
	}
	return userID != nil && *order.UserID == *userID, nil
}

func (s *OrderService) ListOrders(ctx context.Context, page, size int) ([]transport.OrderSummary, int64, error) {
	offset, limit := util.Calculate(page, size)
	orders, total, err := (repo.Orders{DB: s.DB}).List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return summaries(orders), total, nil
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID uint) ([]transport.OrderSummary, error) {
	orders, err := (repo.Orders{DB: s.DB}).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(orders), nil
}

func (s *OrderService) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]transport.OrderSummary, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	orders, err := (repo.Orders{DB: s.DB}).ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return summaries(orders), nil
}

func summaries(orders []models.Order) []transport.OrderSummary {
	out := make([]transport.OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, transport.ToOrderSummary(o))
	}
	return out
}
