package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/hvaldes/tienda_api/internal/models"
)

type Catalog struct {
	DB *gorm.DB
}

func (r Catalog) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// DecrementStock takes qty units off the product in a single conditional
// UPDATE, so concurrent checkouts of the same product cannot oversell.
// Returns false when the remaining stock does not cover qty.
func (r Catalog) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RestoreStock is the compensating action for DecrementStock.
func (r Catalog) RestoreStock(ctx context.Context, id uint, qty int) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
