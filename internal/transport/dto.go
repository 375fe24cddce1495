package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hvaldes/tienda_api/internal/models"
)

type CheckoutItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerAddress string         `json:"customer_address"`
	Items           []CheckoutItem `json:"items"`
}

type CheckoutResponse struct {
	OrderID     uint               `json:"order_id"`
	RedirectURL string             `json:"redirect_url,omitempty"`
	Total       decimal.Decimal    `json:"total"`
	Status      models.OrderStatus `json:"status"`
}

// WebhookNotification mirrors the gateway's notification body. Only
// Data.ID is acted on; everything else is a hint.
type WebhookNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type AdminAction struct {
	AdminNotes string `json:"admin_notes"`
}

type ShippingInfo struct {
	TrackingNumber   string `json:"tracking_number"`
	ShippingProvider string `json:"shipping_provider"`
	AdminNotes       string `json:"admin_notes"`
}

type OrderResponse struct {
	ID                uint               `json:"id"`
	CustomerName      string             `json:"customer_name"`
	CustomerEmail     string             `json:"customer_email"`
	CustomerPhone     string             `json:"customer_phone,omitempty"`
	CustomerAddress   string             `json:"customer_address,omitempty"`
	Total             decimal.Decimal    `json:"total"`
	Status            models.OrderStatus `json:"status"`
	StatusDescription string             `json:"status_description"`

	PaymentMethod     string `json:"payment_method,omitempty"`
	PaymentReceiptURL string `json:"payment_receipt_url,omitempty"`
	AdminNotes        string `json:"admin_notes,omitempty"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	ShippingProvider  string `json:"shipping_provider,omitempty"`

	PaymentReceiptUploadedAt *time.Time `json:"payment_receipt_uploaded_at,omitempty"`
	PaymentApprovedAt        *time.Time `json:"payment_approved_at,omitempty"`
	ShippedAt                *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt              *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  *uint              `json:"user_id,omitempty"`
	Items   []models.OrderItem `json:"items"`
	Payment *models.Payment    `json:"payment,omitempty"`
}

type OrderSummary struct {
	ID                uint               `json:"id"`
	CustomerName      string             `json:"customer_name"`
	CustomerEmail     string             `json:"customer_email"`
	Total             decimal.Decimal    `json:"total"`
	Status            models.OrderStatus `json:"status"`
	StatusDescription string             `json:"status_description"`
	CreatedAt         time.Time          `json:"created_at"`
	ItemsCount        int                `json:"items_count"`
}

func ToOrderResponse(order *models.Order, payment *models.Payment) OrderResponse {
	return OrderResponse{
		ID:                order.ID,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		CustomerPhone:     order.CustomerPhone,
		CustomerAddress:   order.CustomerAddress,
		Total:             order.Total,
		Status:            order.Status,
		StatusDescription: order.Status.Description(),

		PaymentMethod:     order.PaymentMethod,
		PaymentReceiptURL: order.PaymentReceiptURL,
		AdminNotes:        order.AdminNotes,
		TrackingNumber:    order.TrackingNumber,
		ShippingProvider:  order.ShippingProvider,

		PaymentReceiptUploadedAt: order.PaymentReceiptUploadedAt,
		PaymentApprovedAt:        order.PaymentApprovedAt,
		ShippedAt:                order.ShippedAt,
		DeliveredAt:              order.DeliveredAt,

		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,

		UserID:  order.UserID,
		Items:   order.Items,
		Payment: payment,
	}
}

func ToOrderSummary(order models.Order) OrderSummary {
	return OrderSummary{
		ID:                order.ID,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		Total:             order.Total,
		Status:            order.Status,
		StatusDescription: order.Status.Description(),
		CreatedAt:         order.CreatedAt,
		ItemsCount:        len(order.Items),
	}
}
