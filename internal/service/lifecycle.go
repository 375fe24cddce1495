package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/repo"
)

// lifecycleEvent names a cause for an order status change. Every mutation
// of Order.Status goes through applyTransition with one of these; nothing
// assigns the column directly.
type lifecycleEvent string

const (
	eventReceiptUploaded  lifecycleEvent = "receipt_uploaded"
	eventAdminApprove     lifecycleEvent = "admin_approve"
	eventAdminReject      lifecycleEvent = "admin_reject"
	eventMarkShipped      lifecycleEvent = "mark_shipped"
	eventMarkDelivered    lifecycleEvent = "mark_delivered"
	eventGatewayApproved  lifecycleEvent = "gateway_approved"
	eventGatewayCancelled lifecycleEvent = "gateway_cancelled"
)

type transitionRule struct {
	to   models.OrderStatus
	from []models.OrderStatus
}

// The full transition table. The manual (receipt/admin) path and the
// automated (gateway) path never share events, which keeps the two
// writers from reaching each other's states: once an admin has moved an
// order past payment_submitted, gateway events no longer apply, and vice
// versa.
var transitionTable = map[lifecycleEvent]transitionRule{
	eventReceiptUploaded: {
		to:   models.OrderStatusPaymentSubmitted,
		from: []models.OrderStatus{models.OrderStatusPendingPayment, models.OrderStatusPaymentRejected},
	},
	eventAdminApprove: {
		to:   models.OrderStatusPaymentApproved,
		from: []models.OrderStatus{models.OrderStatusPaymentSubmitted},
	},
	eventAdminReject: {
		to:   models.OrderStatusPaymentRejected,
		from: []models.OrderStatus{models.OrderStatusPaymentSubmitted},
	},
	eventMarkShipped: {
		to:   models.OrderStatusShipped,
		from: []models.OrderStatus{models.OrderStatusPaymentApproved},
	},
	eventMarkDelivered: {
		to:   models.OrderStatusDelivered,
		from: []models.OrderStatus{models.OrderStatusShipped},
	},
	eventGatewayApproved: {
		to:   models.OrderStatusPaymentApproved,
		from: []models.OrderStatus{models.OrderStatusPendingPayment, models.OrderStatusPaymentSubmitted},
	},
	eventGatewayCancelled: {
		to:   models.OrderStatusCancelled,
		from: []models.OrderStatus{models.OrderStatusPendingPayment, models.OrderStatusPaymentSubmitted},
	},
}

// milestoneColumn is the timestamp stamped together with the transition,
// if the event has one.
func milestoneColumn(ev lifecycleEvent) string {
	switch ev {
	case eventReceiptUploaded:
		return "payment_receipt_uploaded_at"
	case eventAdminApprove, eventGatewayApproved:
		return "payment_approved_at"
	case eventMarkShipped:
		return "shipped_at"
	case eventMarkDelivered:
		return "delivered_at"
	}
	return ""
}

func statusIn(s models.OrderStatus, set []models.OrderStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// applyTransition evaluates the guard against the caller's read of the
// order and applies the status change plus any extra column writes as a
// single compare-and-swap on the current status. When two writers race,
// exactly one update matches the WHERE clause; the loser gets
// ErrConflict and must re-read before retrying.
func applyTransition(ctx context.Context, db *gorm.DB, order *models.Order, ev lifecycleEvent, extra map[string]any) error {
	rule, ok := transitionTable[ev]
	if !ok {
		return fmt.Errorf("%w: unknown lifecycle event %q", ErrInvalidState, ev)
	}
	if !statusIn(order.Status, rule.from) {
		return fmt.Errorf("%w: cannot apply %s to order %d in status %q",
			ErrInvalidState, ev, order.ID, order.Status)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":     rule.to,
		"updated_at": now,
	}
	if col := milestoneColumn(ev); col != "" {
		updates[col] = now
	}
	for k, v := range extra {
		updates[k] = v
	}

	ok, err := (repo.Orders{DB: db}).UpdateIfStatus(ctx, order.ID, order.Status, updates)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order %d changed concurrently", ErrConflict, order.ID)
	}

	order.Status = rule.to
	order.UpdatedAt = now
	return nil
}
