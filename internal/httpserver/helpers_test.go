package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/files"
	"github.com/hvaldes/tienda_api/internal/mercadopago"
	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/service"
)

var testJWTSecret = []byte("test-jwt-secret")

type testEnv struct {
	DB       *gorm.DB
	E        *echo.Echo
	Checkout *CheckoutHTTP
	Order    *OrderHTTP
	Gateway  *stubGateway
}

type stubGateway struct {
	payment *mercadopago.PaymentInfo
	payErr  error
}

func (g *stubGateway) CreatePreference(_ context.Context, _ mercadopago.Preference) (*mercadopago.PreferenceResponse, error) {
	return &mercadopago.PreferenceResponse{
		ID:        "pref-123",
		InitPoint: "https://mp.example.com/checkout/pref-123",
	}, nil
}

func (g *stubGateway) GetPayment(_ context.Context, _ string) (*mercadopago.PaymentInfo, error) {
	if g.payErr != nil {
		return nil, g.payErr
	}
	return g.payment, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.User{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
	))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := &stubGateway{}

	checkoutSvc := &service.CheckoutService{
		DB:        db,
		Gateway:   gw,
		NotifyURL: "https://shop.example.com/api/checkout/webhook",
		Log:       logger,
	}
	orderSvc := &service.OrderService{DB: db, Log: logger}

	env := &testEnv{
		DB:       db,
		E:        echo.New(),
		Checkout: &CheckoutHTTP{Svc: checkoutSvc},
		Order: &OrderHTTP{
			Svc:   orderSvc,
			Files: files.NewStore(t.TempDir(), "/uploads"),
		},
		Gateway: gw,
	}
	return env
}

func (env *testEnv) doJSONRequest(t *testing.T, method, target string, payload any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func seedEnvProduct(t *testing.T, db *gorm.DB, price string, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:     "Mate cup",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedEnvOrder(t *testing.T, db *gorm.DB, status models.OrderStatus) *models.Order {
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
		OrderID: order.ID,
		Amount:  order.Total,
		Status:  models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&payment).Error)
	return &order
}

func signedCookie(t *testing.T, userID uint, role string) *http.Cookie {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testJWTSecret)
	require.NoError(t, err)

	return &http.Cookie{Name: "accessToken", Value: signed, Path: "/"}
}
