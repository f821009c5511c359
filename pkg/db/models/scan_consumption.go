package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanConsumption is the durable idempotency record for accepted scans. The
// unique (order_id, barcode) pair guarantees a barcode is credited to an order
// at most once, across processes and sessions.
type ScanConsumption struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_scan_consumptions_order_barcode" json:"order_id"`
	Barcode    string    `gorm:"column:barcode;not null;uniqueIndex:ux_scan_consumptions_order_barcode" json:"barcode"`
	BoxID      uuid.UUID `gorm:"column:box_id;type:uuid;not null" json:"box_id"`
	ConsumedAt time.Time `gorm:"column:consumed_at;autoCreateTime" json:"consumed_at"`
}
