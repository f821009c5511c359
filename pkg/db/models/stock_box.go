package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/pkg/enums"
)

// StockBox is a unit of physical inventory. Boxes are never deleted; the
// status column carries the full lifecycle so the table stays an append-only
// audit trail of what was received and what happened to it.
type StockBox struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ContentsType  enums.ContentsType   `gorm:"column:contents_type;type:text;not null" json:"contents_type"`
	ContentsID    uuid.UUID            `gorm:"column:contents_id;type:uuid;not null;index:ix_stock_boxes_contents" json:"contents_id"`
	QuantityInBox int                  `gorm:"column:quantity_in_box;not null" json:"quantity_in_box"`
	BatchID       uuid.UUID            `gorm:"column:batch_id;type:uuid;not null" json:"batch_id"`
	LocationID    *uuid.UUID           `gorm:"column:location_id;type:uuid" json:"location_id,omitempty"`
	ShelfCode     *string              `gorm:"column:shelf_code" json:"shelf_code,omitempty"`
	Status        enums.StockBoxStatus `gorm:"column:status;type:text;not null;default:'in_stock'" json:"status"`
	Barcode       string               `gorm:"column:barcode;not null;uniqueIndex:ux_stock_boxes_barcode" json:"barcode"`
	SoldOrderID   *uuid.UUID           `gorm:"column:sold_order_id;type:uuid" json:"sold_order_id,omitempty"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
