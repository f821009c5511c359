package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/pkg/enums"
)

// Order is created by the external sales workflow. This engine only advances
// its status and reads its lines; it never creates or deletes orders.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	DispatchAddress *string           `gorm:"column:dispatch_address" json:"dispatch_address,omitempty"`
	DeliveryDate    *time.Time        `gorm:"column:delivery_date" json:"delivery_date,omitempty"`
	Notes           *string           `gorm:"column:notes" json:"notes,omitempty"`
	Lines           []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderLine is one (product, quantity) pair of an order.
type OrderLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
