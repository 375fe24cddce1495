package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/mercadopago"
	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/repo"
	"github.com/hvaldes/tienda_api/internal/transport"
)

// Gateway is the slice of the payment processor the engine needs.
// mercadopago.Client satisfies it; tests substitute fakes.
type Gateway interface {
	CreatePreference(ctx context.Context, pref mercadopago.Preference) (*mercadopago.PreferenceResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error)
}

type CheckoutService struct {
	DB        *gorm.DB
	Gateway   Gateway
	Producer  EventPublisher
	NotifyURL string
	Log       *slog.Logger
}

// CreateCheckout validates and prices the cart, persists the order, its
// items, the payment record and the stock decrement in one transaction,
// then asks the gateway for a redirect target. A gateway failure leaves
// the order and payment in pending; nothing else is ever half-visible.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req transport.CheckoutRequest, userID *uint) (*transport.CheckoutResponse, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer_name required", ErrValidation)
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, fmt.Errorf("%w: customer_email required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	var (
		order   models.Order
		payment models.Payment
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := repo.Catalog{DB: tx}

		var total decimal.Decimal
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			product, err := catalog.GetProduct(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
			}
			if product.Stock < it.Quantity {
				return fmt.Errorf("%w for %s: available %d, requested %d",
					ErrInsufficientStock, product.Name, product.Stock, it.Quantity)
			}

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			total = total.Add(subtotal)
			items = append(items, models.OrderItem{
				ProductID:       product.ID,
				Quantity:        it.Quantity,
				UnitPrice:       product.Price,
				Subtotal:        subtotal,
				ProductName:     product.Name,
				ProductImageURL: product.MainImageURL,
			})
		}

		order = models.Order{
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			CustomerAddress: req.CustomerAddress,
			Total:           total,
			Status:          models.OrderStatusPendingPayment,
			UserID:          userID,
			Items:           items,
		}
		if err := (repo.Orders{DB: tx}).Create(ctx, &order); err != nil {
			return err
		}

		payment = models.Payment{
			OrderID:    order.ID,
			Amount:     total,
			Status:     models.PaymentStatusPending,
			PayerEmail: req.CustomerEmail,
		}
		if err := (repo.Payments{DB: tx}).Create(ctx, &payment); err != nil {
			return err
		}

		// Stock is reserved inside the same transaction so an order is
		// never persisted without its decrement. The conditional update
		// also closes the window between the validation read above and
		// a concurrent checkout of the same product.
		for _, it := range req.Items {
			ok, err := catalog.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w for product %d", ErrInsufficientStock, it.ProductID)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	publishOrderEvent(ctx, s.Producer, s.Log, "order_created", &order)

	resp := &transport.CheckoutResponse{
		OrderID: order.ID,
		Total:   order.Total,
		Status:  order.Status,
	}

	if s.Gateway == nil {
		return resp, nil
	}

	pref, err := s.createPreference(ctx, &order)
	if err != nil {
		s.Log.Error("preference creation failed; order kept pending",
			"orderID", order.ID, "error", err)
		return nil, fmt.Errorf("%w: payment gateway: %v", ErrUpstream, err)
	}
	if err := (repo.Payments{DB: s.DB}).SetPreferenceID(ctx, payment.ID, pref.ID); err != nil {
		return nil, err
	}

	s.Log.Info("checkout created", "orderID", order.ID, "preferenceID", pref.ID)
	resp.RedirectURL = pref.InitPoint
	return resp, nil
}

func (s *CheckoutService) createPreference(ctx context.Context, order *models.Order) (*mercadopago.PreferenceResponse, error) {
	items := make([]mercadopago.PreferenceItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, mercadopago.PreferenceItem{
			Title:       it.ProductName,
			Description: "Quantity: " + strconv.Itoa(it.Quantity),
			PictureURL:  it.ProductImageURL,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.InexactFloat64(),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.Gateway.CreatePreference(ctx, mercadopago.Preference{
		Items:             items,
		ExternalReference: strconv.FormatUint(uint64(order.ID), 10),
		NotificationURL:   s.NotifyURL,
		Payer:             &mercadopago.Payer{Email: order.CustomerEmail},
	})
}

// GetOrderWithPayment joins an order with its payment record for the
// checkout status views.
func (s *CheckoutService) GetOrderWithPayment(ctx context.Context, orderID uint) (*transport.OrderResponse, error) {
	order, err := (repo.Orders{DB: s.DB}).Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	payment, err := (repo.Payments{DB: s.DB}).GetByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	resp := transport.ToOrderResponse(order, payment)
	return &resp, nil
}
