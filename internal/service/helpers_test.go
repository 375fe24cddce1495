package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/mercadopago"
	"github.com/hvaldes/tienda_api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.User{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
	))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int, active bool) models.Product {
	t.Helper()

	p := models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// seedOrder persists an order in the given status together with one
// line item and its pending payment record.
func seedOrder(t *testing.T, db *gorm.DB, status models.OrderStatus) *models.Order {
	t.Helper()

	order := models.Order{
		CustomerName:  "Maria Gomez",
		CustomerEmail: "maria@example.com",
		Total:         decimal.RequireFromString("20.00"),
		Status:        status,
		Items: []models.OrderItem{{
			ProductID:   1,
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("10.00"),
			Subtotal:    decimal.RequireFromString("20.00"),
			ProductName: "Mate cup",
		}},
	}
	require.NoError(t, db.Create(&order).Error)

	payment := models.Payment{
		OrderID:    order.ID,
		Amount:     order.Total,
		Status:     models.PaymentStatusPending,
		PayerEmail: order.CustomerEmail,
	}
	require.NoError(t, db.Create(&payment).Error)

	return &order
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) *models.Order {
	t.Helper()

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order, id).Error)
	return &order
}

type fakeGateway struct {
	pref     *mercadopago.PreferenceResponse
	prefErr  error
	lastPref mercadopago.Preference

	payment *mercadopago.PaymentInfo
	payErr  error
}

func (g *fakeGateway) CreatePreference(_ context.Context, pref mercadopago.Preference) (*mercadopago.PreferenceResponse, error) {
	g.lastPref = pref
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	if g.pref != nil {
		return g.pref, nil
	}
	return &mercadopago.PreferenceResponse{
		ID:        "pref-123",
		InitPoint: "https://mp.example.com/checkout/pref-123",
	}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, _ string) (*mercadopago.PaymentInfo, error) {
	if g.payErr != nil {
		return nil, g.payErr
	}
	return g.payment, nil
}

type capturedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event interface{}) error {
	if p.err != nil {
		return p.err
	}
	m, _ := event.(map[string]any)
	p.events = append(p.events, capturedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		if t, ok := e.Event["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}
