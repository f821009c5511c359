package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable finished good assembled from components per its BOM.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	BOMLines  []BOMLine `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"bom_lines,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
