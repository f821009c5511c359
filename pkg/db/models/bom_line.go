package models

import (
	"time"

	"github.com/google/uuid"
)

// BOMLine is one (component, required quantity) pair of a product's bill of
// materials. A component may appear at most once per product.
type BOMLine struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_bom_lines_product_component" json:"product_id"`
	ComponentID      uuid.UUID  `gorm:"column:component_id;type:uuid;not null;uniqueIndex:ux_bom_lines_product_component" json:"component_id"`
	RequiredQuantity int        `gorm:"column:required_quantity;not null" json:"required_quantity"`
	Component        *Component `gorm:"foreignKey:ComponentID" json:"component,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
