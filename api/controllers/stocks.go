package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/api/responses"
	"github.com/stockflowhq/stockflow-backend/api/validators"
	"github.com/stockflowhq/stockflow-backend/internal/catalog"
	scansvc "github.com/stockflowhq/stockflow-backend/internal/scans"
	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
)

type createStockEntryRequest struct {
	ContentsType  string  `json:"contents_type" validate:"required"`
	ContentsID    string  `json:"contents_id" validate:"required,uuid"`
	QuantityInBox int     `json:"quantity_in_box" validate:"required,min=1"`
	BoxesCount    int     `json:"boxes_count" validate:"required,min=1"`
	BatchID       string  `json:"batch_id" validate:"required,uuid"`
	LocationID    *string `json:"location_id,omitempty" validate:"omitempty,uuid"`
	ShelfCode     *string `json:"shelf_code,omitempty"`
	Barcode       string  `json:"barcode,omitempty"`
}

func (p createStockEntryRequest) toInput() (stockledger.CreateStockEntryInput, error) {
	contentsType, err := enums.ParseContentsType(p.ContentsType)
	if err != nil {
		return stockledger.CreateStockEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contents_type")
	}
	contentsID, err := uuid.Parse(p.ContentsID)
	if err != nil {
		return stockledger.CreateStockEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contents_id")
	}
	batchID, err := uuid.Parse(p.BatchID)
	if err != nil {
		return stockledger.CreateStockEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch_id")
	}
	input := stockledger.CreateStockEntryInput{
		ContentsType:  contentsType,
		ContentsID:    contentsID,
		QuantityInBox: p.QuantityInBox,
		BoxesCount:    p.BoxesCount,
		BatchID:       batchID,
		ShelfCode:     p.ShelfCode,
		Barcode:       p.Barcode,
	}
	if p.LocationID != nil {
		locationID, err := uuid.Parse(*p.LocationID)
		if err != nil {
			return stockledger.CreateStockEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location_id")
		}
		input.LocationID = &locationID
	}
	return input, nil
}

// CreateStockEntry handles box receipt into the ledger.
func CreateStockEntry(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createStockEntryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		boxes, err := svc.CreateStockEntry(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, boxes)
	}
}

// GetStockBox returns one box by id.
func GetStockBox(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boxID, err := uuid.Parse(chi.URLParam(r, "boxID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid box id"))
			return
		}

		box, err := svc.GetBox(r.Context(), boxID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, box)
	}
}

type updateStockRequest struct {
	Status     *string `json:"status,omitempty"`
	LocationID *string `json:"location_id,omitempty" validate:"omitempty,uuid"`
	ShelfCode  *string `json:"shelf_code,omitempty"`
	BatchID    *string `json:"batch_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateStockBox mutates a box's status or placement.
func UpdateStockBox(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boxID, err := uuid.Parse(chi.URLParam(r, "boxID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid box id"))
			return
		}

		var payload updateStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stockledger.UpdateStockInput{ShelfCode: payload.ShelfCode}
		if payload.Status != nil {
			status, err := enums.ParseStockBoxStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if payload.LocationID != nil {
			locationID, err := uuid.Parse(*payload.LocationID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location_id"))
				return
			}
			input.LocationID = &locationID
		}
		if payload.BatchID != nil {
			batchID, err := uuid.Parse(*payload.BatchID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch_id"))
				return
			}
			input.BatchID = &batchID
		}

		box, err := svc.UpdateStock(r.Context(), boxID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, box)
	}
}

// GetStockOverview returns the warehouse-wide availability and buildable view.
func GetStockOverview(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context(), parseLimit(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}

type sellStockRequest struct {
	Barcode string `json:"barcode" validate:"required"`
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// SellStock submits a single barcode scan against an order, for scanner
// clients addressing the ledger directly instead of an order session.
func SellStock(svc scansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sellStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}

		result, err := svc.SubmitScan(r.Context(), orderID, payload.Barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetAvailability reports sellable quantity for a contents reference.
func GetAvailability(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentsType, err := enums.ParseContentsType(r.URL.Query().Get("contents_type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contents_type"))
			return
		}

		contentsID, err := uuid.Parse(r.URL.Query().Get("contents_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contents_id"))
			return
		}

		summary, err := svc.GetAvailableQuantity(r.Context(), contentsType, contentsID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
