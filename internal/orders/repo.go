package orders

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
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

func (r *Repository) FindOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Where("id = ?", id).First(&order).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrders(statuses []enums.OrderStatus, limit int) ([]models.Order, error) {
	query := r.db.Preload("Lines").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if len(statuses) > 0 {
		if r.db.Dialector.Name() == "postgres" {
			values := make([]string, len(statuses))
			for i, s := range statuses {
				values[i] = s.String()
			}
			query = query.Where("status = ANY(?)", pq.Array(values))
		} else {
			// sqlite has no ANY()
			query = query.Where("status IN ?", statuses)
		}
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// MoveStatus flips an order from one status to another in a single
// conditional update. Zero rows affected means the order moved underneath
// the caller.
func (r *Repository) MoveStatus(id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
