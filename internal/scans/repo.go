package scans

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *Repository) InsertConsumption(consumption *models.ScanConsumption) error {
	return r.db.Create(consumption).Error
}

func (r *Repository) ConsumptionExists(orderID uuid.UUID, barcode string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ScanConsumption{}).
		Where("order_id = ? AND barcode = ?", orderID, barcode).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountConsumptions(orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScanConsumption{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountConsumptionsForProduct(orderID, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScanConsumption{}).
		Joins("JOIN stock_boxes ON stock_boxes.id = scan_consumptions.box_id").
		Where("scan_consumptions.order_id = ?", orderID).
		Where("stock_boxes.contents_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *Repository) ListConsumedBarcodes(orderID uuid.UUID) ([]string, error) {
	var barcodes []string
	err := r.db.Model(&models.ScanConsumption{}).
		Where("order_id = ?", orderID).
		Order("consumed_at ASC").
		Pluck("barcode", &barcodes).Error
	return barcodes, err
}

func (r *Repository) ExpectedScans(orderID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.Model(&models.OrderLine{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("order_id = ?", orderID).
		Scan(&total).Error
	return total, err
}
