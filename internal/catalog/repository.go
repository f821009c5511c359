package catalog

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

func (r *Repository) InsertProduct(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *Repository) InsertComponent(component *models.Component) error {
	return r.db.Create(component).Error
}

func (r *Repository) FindProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("BOMLines.Component").Where("id = ?", id).First(&product).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindComponent(id uuid.UUID) (*models.Component, error) {
	var component models.Component
	err := r.db.Where("id = ?", id).First(&component).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &component, nil
}

func (r *Repository) ListProducts(limit int) ([]models.Product, error) {
	query := r.db.Order("sku ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var products []models.Product
	err := query.Find(&products).Error
	return products, err
}

func (r *Repository) ListComponents(limit int) ([]models.Component, error) {
	query := r.db.Order("sku ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var components []models.Component
	err := query.Find(&components).Error
	return components, err
}
