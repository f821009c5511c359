package orders

import (
	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/pkg/enums"
)

// AdvanceInput names the status the caller wants the order moved to.
type AdvanceInput struct {
	Status string `json:"status" validate:"required"`
}

type orderStatusMovedPayload struct {
	OrderID uuid.UUID         `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}
