package stockledger

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
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

func (r *Repository) InsertBox(box *models.StockBox) error {
	return r.db.Create(box).Error
}

func (r *Repository) FindBoxByID(id uuid.UUID) (*models.StockBox, error) {
	var box models.StockBox
	err := r.db.Where("id = ?", id).First(&box).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &box, nil
}

func (r *Repository) FindBoxByBarcode(barcode string) (*models.StockBox, error) {
	var box models.StockBox
	err := r.db.Where("barcode = ?", barcode).First(&box).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &box, nil
}

func (r *Repository) BatchExists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.ImportBatch{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// SumAvailable aggregates sellable quantity over in_stock boxes for one
// contents reference.
func (r *Repository) SumAvailable(contentsType enums.ContentsType, contentsID uuid.UUID) (AvailabilitySummary, error) {
	summary := AvailabilitySummary{
		ContentsType: contentsType,
		ContentsID:   contentsID,
	}
	row := struct {
		Total int64
		Boxes int64
	}{}
	err := r.db.Model(&models.StockBox{}).
		Select("COALESCE(SUM(quantity_in_box), 0) AS total, COUNT(*) AS boxes").
		Where("contents_type = ? AND contents_id = ? AND status = ?",
			contentsType, contentsID, enums.StockBoxStatusInStock).
		Scan(&row).Error
	if err != nil {
		return summary, err
	}
	summary.Available = row.Total
	summary.BoxCount = row.Boxes
	return summary, nil
}

// MarkSold flips a box from in_stock to sold and records the consuming order
// in one conditional update. Returns the number of rows changed; zero means
// the box was missing or not sellable, which the caller disambiguates.
func (r *Repository) MarkSold(barcode string, orderID uuid.UUID) (int64, error) {
	result := r.db.Model(&models.StockBox{}).
		Where("barcode = ? AND status = ?", barcode, enums.StockBoxStatusInStock).
		Updates(map[string]any{
			"status":        enums.StockBoxStatusSold,
			"sold_order_id": orderID,
		})
	return result.RowsAffected, result.Error
}

func (r *Repository) UpdateBox(id uuid.UUID, updates map[string]any) error {
	return r.db.Model(&models.StockBox{}).
		Where("id = ?", id).
		Updates(updates).Error
}
