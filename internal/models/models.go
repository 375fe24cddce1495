package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name         string          `gorm:"size:200;not null"            json:"name"`
	Description  string          `gorm:"size:1000"                    json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"price"`
	Stock        int             `gorm:"not null;check:stock >= 0"    json:"stock"`
	Category     string          `gorm:"size:100"                     json:"category"`
	MainImageURL string          `gorm:"size:500"                     json:"main_image_url"`
	IsActive     bool            `gorm:"default:true"                 json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"unique;not null"          json:"username"`
	Role     string `gorm:"not null"                 json:"role"`
}

// Order is the single source of truth for the fulfillment lifecycle.
// Line items freeze the product name, price and image at purchase time,
// later catalog edits never change a past order.
type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	CustomerName    string          `gorm:"size:100;not null"            json:"customer_name"`
	CustomerEmail   string          `gorm:"size:100;not null"            json:"customer_email"`
	CustomerPhone   string          `gorm:"size:20"                      json:"customer_phone"`
	CustomerAddress string          `gorm:"size:500"                     json:"customer_address"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"total"`
	Status          OrderStatus     `gorm:"size:20;not null"             json:"status"`

	PaymentMethod     string `gorm:"size:50"   json:"payment_method,omitempty"`
	PaymentReceiptURL string `gorm:"size:500"  json:"payment_receipt_url,omitempty"`
	AdminNotes        string `gorm:"size:1000" json:"admin_notes,omitempty"`
	TrackingNumber    string `gorm:"size:100"  json:"tracking_number,omitempty"`
	ShippingProvider  string `gorm:"size:50"   json:"shipping_provider,omitempty"`

	PaymentReceiptUploadedAt *time.Time `json:"payment_receipt_uploaded_at,omitempty"`
	PaymentApprovedAt        *time.Time `json:"payment_approved_at,omitempty"`
	ShippedAt                *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt              *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID *uint       `gorm:"index"               json:"user_id,omitempty"`
	Items  []OrderItem `gorm:"foreignKey:OrderID"  json:"items,omitempty"`
}

type OrderItem struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID         uint            `gorm:"index;not null"               json:"order_id"`
	ProductID       uint            `gorm:"not null"                     json:"product_id"`
	Quantity        int             `gorm:"not null;check:quantity > 0"  json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"unit_price"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"subtotal"`
	ProductName     string          `gorm:"size:200;not null"            json:"product_name"`
	ProductImageURL string          `gorm:"size:500"                     json:"product_image_url"`
}

// Payment correlates an order with at most one external payment attempt.
// Amount is fixed at creation; only status and processor ids mutate.
type Payment struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID       uint            `gorm:"uniqueIndex;not null"         json:"order_id"`
	MercadoPagoID string          `gorm:"size:100;index"               json:"mercado_pago_id,omitempty"`
	PreferenceID  string          `gorm:"size:100"                     json:"preference_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"amount"`
	Status        PaymentStatus   `gorm:"size:20;not null"             json:"status"`
	PayerEmail    string          `gorm:"size:100"                     json:"payer_email,omitempty"`
	PaymentTypeID string          `gorm:"size:50"                      json:"payment_type_id,omitempty"`
	StatusDetail  string          `gorm:"size:100"                     json:"status_detail,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
