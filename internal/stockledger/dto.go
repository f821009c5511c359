package stockledger

import (
	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/pkg/enums"
)

// CreateStockEntryInput describes a receipt of BoxesCount identical boxes.
// Each box gets a freshly issued barcode; Barcode overrides the issued one
// and is only valid for a single-box receipt.
type CreateStockEntryInput struct {
	ContentsType  enums.ContentsType `json:"contents_type" validate:"required"`
	ContentsID    uuid.UUID          `json:"contents_id" validate:"required"`
	QuantityInBox int                `json:"quantity_in_box" validate:"required,gte=1"`
	BoxesCount    int                `json:"boxes_count" validate:"required,gte=1"`
	BatchID       uuid.UUID          `json:"batch_id" validate:"required"`
	LocationID    *uuid.UUID         `json:"location_id,omitempty"`
	ShelfCode     *string            `json:"shelf_code,omitempty"`
	Barcode       string             `json:"barcode,omitempty"`
}

// UpdateStockInput carries the mutable fields of a stock box. Nil fields are
// left untouched. Status may not be set to sold here; sales go through
// SellByBarcode so the order linkage is recorded.
type UpdateStockInput struct {
	Status     *enums.StockBoxStatus `json:"status,omitempty"`
	LocationID *uuid.UUID            `json:"location_id,omitempty"`
	ShelfCode  *string               `json:"shelf_code,omitempty"`
	BatchID    *uuid.UUID            `json:"batch_id,omitempty"`
}

// AvailabilitySummary reports sellable quantity for one contents reference.
type AvailabilitySummary struct {
	ContentsType enums.ContentsType `json:"contents_type"`
	ContentsID   uuid.UUID          `json:"contents_id"`
	Available    int64              `json:"available"`
	BoxCount     int64              `json:"box_count"`
}

type stockReceivedPayload struct {
	BoxID         uuid.UUID          `json:"box_id"`
	Barcode       string             `json:"barcode"`
	ContentsType  enums.ContentsType `json:"contents_type"`
	ContentsID    uuid.UUID          `json:"contents_id"`
	QuantityInBox int                `json:"quantity_in_box"`
	BatchID       uuid.UUID          `json:"batch_id"`
}
