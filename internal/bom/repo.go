package bom

import (
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

func (r *Repository) ProductExists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ComponentExists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Component{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListLines(productID uuid.UUID) ([]models.BOMLine, error) {
	var lines []models.BOMLine
	err := r.db.Preload("Component").
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *Repository) InsertLine(line *models.BOMLine) error {
	return r.db.Create(line).Error
}

func (r *Repository) DeleteLine(productID, componentID uuid.UUID) (int64, error) {
	result := r.db.
		Where("product_id = ? AND component_id = ?", productID, componentID).
		Delete(&models.BOMLine{})
	return result.RowsAffected, result.Error
}
