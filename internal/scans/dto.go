package scans

import (
	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/pkg/enums"
)

// CompletionStatus compares accepted scans against what the order requires.
type CompletionStatus struct {
	Expected int64 `json:"expected"`
	Consumed int64 `json:"consumed"`
	Complete bool  `json:"complete"`
}

// SessionInfo is returned when a packing session is opened or its progress
// polled.
type SessionInfo struct {
	OrderID          uuid.UUID        `json:"order_id"`
	Status           CompletionStatus `json:"status"`
	ConsumedBarcodes []string         `json:"consumed_barcodes"`
}

// ScanResult is the outcome of one barcode submission. Rejections are
// results, not errors: the pipeline answered the question, the answer was no.
type ScanResult struct {
	Accepted     bool                    `json:"accepted"`
	RejectReason *enums.ScanRejectReason `json:"reject_reason,omitempty"`
	Barcode      string                  `json:"barcode"`
	BoxID        *uuid.UUID              `json:"box_id,omitempty"`
	Status       CompletionStatus        `json:"status"`
}

type boxSoldPayload struct {
	BoxID   uuid.UUID `json:"box_id"`
	Barcode string    `json:"barcode"`
	OrderID uuid.UUID `json:"order_id"`
}
