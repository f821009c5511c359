package models

import (
	"time"

	"github.com/google/uuid"
)

// Component is a purchasable raw part referenced by BOM lines and stock boxes.
// Treated as immutable once referenced.
type Component struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Category  *string   `gorm:"column:category" json:"category,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
