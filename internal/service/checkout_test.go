package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/transport"
)

func newCheckoutService(t *testing.T) (*CheckoutService, *fakeGateway, *fakePublisher) {
	t.Helper()

	gw := &fakeGateway{}
	pub := &fakePublisher{}
	svc := &CheckoutService{
		DB:        newTestDB(t),
		Gateway:   gw,
		Producer:  pub,
		NotifyURL: "https://shop.example.com/api/checkout/webhook",
		Log:       testLogger(),
	}
	return svc, gw, pub
}

func validRequest(productID uint, qty int) transport.CheckoutRequest {
	return transport.CheckoutRequest{
		CustomerName:  "Maria Gomez",
		CustomerEmail: "maria@example.com",
		Items:         []transport.CheckoutItem{{ProductID: productID, Quantity: qty}},
	}
}

func TestCreateCheckout_Success(t *testing.T) {
	svc, gw, pub := newCheckoutService(t)
	ctx := context.Background()

	product := seedProduct(t, svc.DB, "Mate cup", "10.00", 5, true)

	resp, err := svc.CreateCheckout(ctx, validRequest(product.ID, 2), nil)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, resp.Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, models.OrderStatusPendingPayment, resp.Status)
	assert.Equal(t, "https://mp.example.com/checkout/pref-123", resp.RedirectURL)

	order := reloadOrder(t, svc.DB, resp.OrderID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Mate cup", order.Items[0].ProductName)
	assert.True(t, order.Items[0].UnitPrice.Equal(product.Price))
	assert.True(t, order.Items[0].Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.Nil(t, order.UserID)

	var reloaded models.Product
	require.NoError(t, svc.DB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)

	var payment models.Payment
	require.NoError(t, svc.DB.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(order.Total))
	assert.Equal(t, "pref-123", payment.PreferenceID)

	assert.Equal(t, "maria@example.com", gw.lastPref.Payer.Email)
	assert.Equal(t, svc.NotifyURL, gw.lastPref.NotificationURL)
	require.Contains(t, pub.eventTypes(), "order_created")
}

func TestCreateCheckout_MultipleItems_SumsTotal(t *testing.T) {
	svc, _, _ := newCheckoutService(t)
	ctx := context.Background()

	cup := seedProduct(t, svc.DB, "Mate cup", "10.00", 5, true)
	straw := seedProduct(t, svc.DB, "Bombilla", "3.50", 10, true)

	req := validRequest(cup.ID, 2)
	req.Items = append(req.Items, transport.CheckoutItem{ProductID: straw.ID, Quantity: 3})

	resp, err := svc.CreateCheckout(ctx, req, nil)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("30.50")))

	order := reloadOrder(t, svc.DB, resp.OrderID)
	require.Len(t, order.Items, 2)
}

func TestCreateCheckout_Validation(t *testing.T) {
	svc, _, _ := newCheckoutService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.CheckoutRequest
	}{
		{name: "empty customer name", req: transport.CheckoutRequest{
			CustomerEmail: "a@b.com",
			Items:         []transport.CheckoutItem{{ProductID: 1, Quantity: 1}},
		}},
		{name: "empty customer email", req: transport.CheckoutRequest{
			CustomerName: "Maria",
			Items:        []transport.CheckoutItem{{ProductID: 1, Quantity: 1}},
		}},
		{name: "no items", req: transport.CheckoutRequest{
			CustomerName: "Maria", CustomerEmail: "a@b.com",
		}},
		{name: "zero quantity", req: transport.CheckoutRequest{
			CustomerName: "Maria", CustomerEmail: "a@b.com",
			Items: []transport.CheckoutItem{{ProductID: 1, Quantity: 0}},
		}},
		{name: "missing product id", req: transport.CheckoutRequest{
			CustomerName: "Maria", CustomerEmail: "a@b.com",
			Items: []transport.CheckoutItem{{Quantity: 1}},
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.CreateCheckout(ctx, tt.req, nil)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateCheckout_UnknownProduct(t *testing.T) {
	svc, _, _ := newCheckoutService(t)

	resp, err := svc.CreateCheckout(context.Background(), validRequest(999, 1), nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCheckout_InactiveProduct(t *testing.T) {
	svc, _, _ := newCheckoutService(t)

	product := seedProduct(t, svc.DB, "Retired cup", "10.00", 5, false)

	_, err := svc.CreateCheckout(context.Background(), validRequest(product.ID, 1), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateCheckout_InsufficientStock_LeavesNothingBehind(t *testing.T) {
	svc, _, pub := newCheckoutService(t)
	ctx := context.Background()

	product := seedProduct(t, svc.DB, "Mate cup", "10.00", 1, true)

	resp, err := svc.CreateCheckout(ctx, validRequest(product.ID, 2), nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, ErrValidation)

	var orderCount, paymentCount int64
	require.NoError(t, svc.DB.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, svc.DB.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, paymentCount)

	var reloaded models.Product
	require.NoError(t, svc.DB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)
	assert.Empty(t, pub.events)
}

func TestCreateCheckout_GatewayFailure_KeepsOrderPending(t *testing.T) {
	svc, gw, _ := newCheckoutService(t)
	ctx := context.Background()

	gw.prefErr = errors.New("mercadopago: status 500")
	product := seedProduct(t, svc.DB, "Mate cup", "10.00", 5, true)

	resp, err := svc.CreateCheckout(ctx, validRequest(product.ID, 2), nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUpstream)

	// The order survives the gateway failure; the customer can still
	// pay by bank transfer against it.
	var orders []models.Order
	require.NoError(t, svc.DB.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPendingPayment, orders[0].Status)

	var reloaded models.Product
	require.NoError(t, svc.DB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestCreateCheckout_NoGateway_SkipsRedirect(t *testing.T) {
	svc, _, _ := newCheckoutService(t)
	svc.Gateway = nil
	ctx := context.Background()

	product := seedProduct(t, svc.DB, "Mate cup", "10.00", 5, true)

	resp, err := svc.CreateCheckout(ctx, validRequest(product.ID, 1), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.RedirectURL)
	assert.Equal(t, models.OrderStatusPendingPayment, resp.Status)
}

func TestCreateCheckout_AttachesUser(t *testing.T) {
	svc, _, _ := newCheckoutService(t)
	ctx := context.Background()

	product := seedProduct(t, svc.DB, "Mate cup", "10.00", 5, true)
	userID := uint(42)

	resp, err := svc.CreateCheckout(ctx, validRequest(product.ID, 1), &userID)
	require.NoError(t, err)

	order := reloadOrder(t, svc.DB, resp.OrderID)
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
}

func TestGetOrderWithPayment(t *testing.T) {
	svc, _, _ := newCheckoutService(t)
	ctx := context.Background()

	order := seedOrder(t, svc.DB, models.OrderStatusPendingPayment)

	resp, err := svc.GetOrderWithPayment(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, order.ID, resp.Payment.OrderID)
	assert.Equal(t, "Waiting for payment receipt", resp.StatusDescription)

	_, err = svc.GetOrderWithPayment(ctx, 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
