package stockledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
)

const barcodePrefix = "SB-"

// Service is the stock ledger surface. The ledger is append-only: boxes are
// created on receipt and mutated only through status changes, never deleted.
type Service interface {
	CreateStockEntry(ctx context.Context, input CreateStockEntryInput) ([]models.StockBox, error)
	GetAvailableQuantity(ctx context.Context, contentsType enums.ContentsType, contentsID uuid.UUID) (AvailabilitySummary, error)
	SellByBarcode(ctx context.Context, tx *gorm.DB, barcode string, orderID uuid.UUID) (*models.StockBox, error)
	UpdateStock(ctx context.Context, boxID uuid.UUID, input UpdateStockInput) (*models.StockBox, error)
	GetBox(ctx context.Context, boxID uuid.UUID) (*models.StockBox, error)
}

type service struct {
	client *db.Client
	repo   *Repository
	outbox *outbox.Service
	logg   *logger.Logger
}

func NewService(client *db.Client, repo *Repository, outboxSvc *outbox.Service, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{client: client, repo: repo, outbox: outboxSvc, logg: logg}, nil
}

func (s *service) CreateStockEntry(ctx context.Context, input CreateStockEntryInput) ([]models.StockBox, error) {
	if !input.ContentsType.IsValid() {
		return nil, errors.New(errors.CodeValidation, "contents_type must be product or component")
	}
	if input.QuantityInBox < 1 {
		return nil, errors.New(errors.CodeValidation, "quantity_in_box must be at least 1")
	}
	if input.BoxesCount < 1 {
		return nil, errors.New(errors.CodeValidation, "boxes_count must be at least 1")
	}
	if input.ContentsID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "contents_id is required")
	}
	if input.BatchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "batch_id is required")
	}
	if input.Barcode != "" && input.BoxesCount > 1 {
		return nil, errors.New(errors.CodeValidation, "barcode may only be supplied for a single box")
	}

	exists, err := s.repo.BatchExists(input.BatchID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking import batch")
	}
	if !exists {
		return nil, errors.New(errors.CodeValidation, "batch_id does not reference an import batch")
	}

	boxes := make([]models.StockBox, 0, input.BoxesCount)
	for i := 0; i < input.BoxesCount; i++ {
		barcode := strings.TrimSpace(input.Barcode)
		if barcode == "" {
			barcode = issueBarcode()
		}
		boxes = append(boxes, models.StockBox{
			ID:            uuid.New(),
			ContentsType:  input.ContentsType,
			ContentsID:    input.ContentsID,
			QuantityInBox: input.QuantityInBox,
			BatchID:       input.BatchID,
			LocationID:    input.LocationID,
			ShelfCode:     input.ShelfCode,
			Status:        enums.StockBoxStatusInStock,
			Barcode:       barcode,
		})
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range boxes {
			if err := repo.InsertBox(&boxes[i]); err != nil {
				if db.IsUniqueViolation(err, "ux_stock_boxes_barcode") {
					return errors.New(errors.CodeConflict, "barcode already registered")
				}
				return errors.Wrap(errors.CodeInternal, err, "inserting stock box")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockReceived,
				AggregateType: enums.AggregateStockBox,
				AggregateID:   boxes[i].ID,
				Version:       1,
				Data: stockReceivedPayload{
					BoxID:         boxes[i].ID,
					Barcode:       boxes[i].Barcode,
					ContentsType:  boxes[i].ContentsType,
					ContentsID:    boxes[i].ContentsID,
					QuantityInBox: boxes[i].QuantityInBox,
					BatchID:       boxes[i].BatchID,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(ctx, "boxes_count", len(boxes))
	s.logg.Info(logCtx, "stock entry created")
	return boxes, nil
}

func (s *service) GetAvailableQuantity(ctx context.Context, contentsType enums.ContentsType, contentsID uuid.UUID) (AvailabilitySummary, error) {
	if !contentsType.IsValid() {
		return AvailabilitySummary{}, errors.New(errors.CodeValidation, "contents_type must be product or component")
	}
	if contentsID == uuid.Nil {
		return AvailabilitySummary{}, errors.New(errors.CodeValidation, "contents_id is required")
	}
	summary, err := s.repo.SumAvailable(contentsType, contentsID)
	if err != nil {
		return AvailabilitySummary{}, errors.Wrap(errors.CodeInternal, err, "summing availability")
	}
	return summary, nil
}

// SellByBarcode flips exactly one in_stock box to sold inside the caller's
// transaction. The conditional update is the only serialization point: two
// concurrent sales of the same barcode race on the row and the loser sees
// zero rows affected.
func (s *service) SellByBarcode(ctx context.Context, tx *gorm.DB, barcode string, orderID uuid.UUID) (*models.StockBox, error) {
	if tx == nil {
		return nil, errors.New(errors.CodeInternal, "transaction is required")
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.New(errors.CodeValidation, "barcode is required")
	}
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order_id is required")
	}

	repo := s.repo.WithTx(tx)
	affected, err := repo.MarkSold(barcode, orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "marking box sold")
	}
	if affected == 0 {
		box, err := repo.FindBoxByBarcode(barcode)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "looking up box")
		}
		if box == nil {
			return nil, errors.New(errors.CodeNotFound, "no box with that barcode")
		}
		return nil, errors.New(errors.CodeConflict,
			fmt.Sprintf("box is %s, not sellable", box.Status)).
			WithDetails(map[string]any{"status": box.Status.String()})
	}

	box, err := repo.FindBoxByBarcode(barcode)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "reloading sold box")
	}
	if box == nil {
		return nil, errors.New(errors.CodeInternal, "sold box vanished")
	}
	return box, nil
}

func (s *service) UpdateStock(ctx context.Context, boxID uuid.UUID, input UpdateStockInput) (*models.StockBox, error) {
	if boxID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "box id is required")
	}
	if input.Status == nil && input.LocationID == nil && input.ShelfCode == nil && input.BatchID == nil {
		return nil, errors.New(errors.CodeValidation, "no fields to update")
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, errors.New(errors.CodeValidation, "invalid status")
		}
		if *input.Status == enums.StockBoxStatusSold {
			return nil, errors.New(errors.CodeValidation, "boxes are sold through the scan pipeline")
		}
	}

	if input.BatchID != nil {
		exists, err := s.repo.BatchExists(*input.BatchID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "checking import batch")
		}
		if !exists {
			return nil, errors.New(errors.CodeValidation, "batch_id does not reference an import batch")
		}
	}

	var updated *models.StockBox
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		box, err := repo.FindBoxByID(boxID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading box")
		}
		if box == nil {
			return errors.New(errors.CodeValidation, "unknown box id")
		}
		if box.Status == enums.StockBoxStatusSold {
			return errors.New(errors.CodeConflict, "sold boxes are immutable")
		}

		updates := map[string]any{}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.LocationID != nil {
			updates["location_id"] = *input.LocationID
		}
		if input.ShelfCode != nil {
			updates["shelf_code"] = *input.ShelfCode
		}
		if input.BatchID != nil {
			updates["batch_id"] = *input.BatchID
		}
		if err := repo.UpdateBox(boxID, updates); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating box")
		}
		updated, err = repo.FindBoxByID(boxID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reloading box")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) GetBox(ctx context.Context, boxID uuid.UUID) (*models.StockBox, error) {
	if boxID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "box id is required")
	}
	box, err := s.repo.FindBoxByID(boxID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading box")
	}
	if box == nil {
		return nil, errors.New(errors.CodeNotFound, "box not found")
	}
	return box, nil
}

func issueBarcode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return barcodePrefix + strings.ToUpper(raw[:16])
}
