package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/models"
)

type Payments struct {
	DB *gorm.DB
}

func (r Payments) Create(ctx context.Context, payment *models.Payment) error {
	return r.DB.WithContext(ctx).Create(payment).Error
}

func (r Payments) GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r Payments) GetByMercadoPagoID(ctx context.Context, mpID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("mercado_pago_id = ?", mpID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateReconciliation writes the processor-owned fields. Amount is
// deliberately not part of the update set.
func (r Payments) UpdateReconciliation(ctx context.Context, id uint, mpID string, status models.PaymentStatus, typeID, statusDetail string) error {
	return r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"mercado_pago_id": mpID,
			"status":          status,
			"payment_type_id": typeID,
			"status_detail":   statusDetail,
		}).Error
}

func (r Payments) SetPreferenceID(ctx context.Context, id uint, preferenceID string) error {
	return r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("preference_id", preferenceID).Error
}
