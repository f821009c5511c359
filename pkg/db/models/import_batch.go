package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportBatch is the receiving lot a stock box originated from. Owned by the
// external receiving workflow; referenced here for stock entry validation.
type ImportBatch struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Reference  string     `gorm:"column:reference;not null" json:"reference"`
	ReceivedAt *time.Time `gorm:"column:received_at" json:"received_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
