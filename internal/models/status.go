package models

// OrderStatus is the closed set of lifecycle states. No other value is
// ever written to the orders table.
type OrderStatus string

const (
	OrderStatusPendingPayment   OrderStatus = "pending_payment"
	OrderStatusPaymentSubmitted OrderStatus = "payment_submitted"
	OrderStatusPaymentApproved  OrderStatus = "payment_approved"
	OrderStatusPaymentRejected  OrderStatus = "payment_rejected"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaymentSubmitted, OrderStatusPaymentApproved,
		OrderStatusPaymentRejected, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal states accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Description() string {
	switch s {
	case OrderStatusPendingPayment:
		return "Waiting for payment receipt"
	case OrderStatusPaymentSubmitted:
		return "Receipt under review"
	case OrderStatusPaymentApproved:
		return "Payment approved - preparing shipment"
	case OrderStatusPaymentRejected:
		return "Receipt rejected"
	case OrderStatusShipped:
		return "Shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return "Unknown status"
}

// PaymentStatus is the processor-facing status set, smaller than the
// order lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}
