package scans

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/metrics"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
	"github.com/stockflowhq/stockflow-backend/pkg/redis"
)

// errScanRejected aborts the scan transaction so a rejection leaves no trace
// in the ledger while the captured result still reaches the caller.
var errScanRejected = stdErrors.New("scan rejected")

// Service is the scan reconciliation pipeline. Accepted scans atomically sell
// the box and record the consumption; the unique (order, barcode) row makes
// resubmission a no-op.
type Service interface {
	OpenSession(ctx context.Context, orderID uuid.UUID) (*SessionInfo, error)
	SubmitScan(ctx context.Context, orderID uuid.UUID, barcode string) (*ScanResult, error)
	IsComplete(ctx context.Context, orderID uuid.UUID) (CompletionStatus, error)
	IsCompleteTx(tx *gorm.DB, orderID uuid.UUID) (CompletionStatus, error)
	Progress(ctx context.Context, orderID uuid.UUID) (*SessionInfo, error)
}

type service struct {
	client  *db.Client
	repo    *Repository
	ledger  stockledger.Service
	cache   *redis.Client
	outbox  *outbox.Service
	metrics *metrics.ScanMetrics
	logg    *logger.Logger
}

func NewService(
	client *db.Client,
	repo *Repository,
	ledger stockledger.Service,
	cache *redis.Client,
	outboxSvc *outbox.Service,
	scanMetrics *metrics.ScanMetrics,
	logg *logger.Logger,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger service is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		client:  client,
		repo:    repo,
		ledger:  ledger,
		cache:   cache,
		outbox:  outboxSvc,
		metrics: scanMetrics,
		logg:    logg,
	}, nil
}

func (s *service) OpenSession(ctx context.Context, orderID uuid.UUID) (*SessionInfo, error) {
	order, err := s.loadProcessingOrder(orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Lines) == 0 {
		return nil, errors.New(errors.CodeValidation, "order has no line items to scan")
	}

	barcodes, err := s.repo.ListConsumedBarcodes(order.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing consumed barcodes")
	}
	if err := s.cache.SeedConsumedBarcodes(ctx, order.ID.String(), barcodes); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "seeding scan cache failed")
	}

	status, err := s.completion(s.repo, order.ID)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "packing session opened")

	return &SessionInfo{
		OrderID:          order.ID,
		Status:           status,
		ConsumedBarcodes: barcodes,
	}, nil
}

func (s *service) SubmitScan(ctx context.Context, orderID uuid.UUID, barcode string) (*ScanResult, error) {
	start := time.Now()

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.New(errors.CodeValidation, "barcode is required")
	}

	order, err := s.loadProcessingOrder(orderID)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithBarcode(logCtx, barcode)

	// Advisory fast path. A hit here saves the round trip to postgres; a
	// miss proves nothing and the unique constraint still decides.
	if hit, err := s.cache.IsBarcodeConsumed(ctx, order.ID.String(), barcode); err == nil && hit {
		return s.reject(ctx, logCtx, order.ID, barcode, enums.ScanRejectDuplicate, start)
	}

	lineQuantities := make(map[uuid.UUID]int64, len(order.Lines))
	for _, line := range order.Lines {
		lineQuantities[line.ProductID] += int64(line.Quantity)
	}

	var (
		result           *ScanResult
		acceptedContents enums.ContentsType
	)
	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		box, err := s.ledger.SellByBarcode(ctx, tx, barcode, order.ID)
		if err != nil {
			switch {
			case errors.HasCode(err, errors.CodeNotFound):
				result = rejection(barcode, enums.ScanRejectNotFound)
				return errScanRejected
			case errors.HasCode(err, errors.CodeConflict):
				exists, checkErr := repo.ConsumptionExists(order.ID, barcode)
				if checkErr != nil {
					return errors.Wrap(errors.CodeInternal, checkErr, "checking prior consumption")
				}
				if exists {
					result = rejection(barcode, enums.ScanRejectDuplicate)
				} else {
					result = rejection(barcode, enums.ScanRejectInvalidState)
				}
				return errScanRejected
			default:
				return err
			}
		}

		if box.ContentsType != enums.ContentsTypeProduct {
			result = rejection(barcode, enums.ScanRejectInvalidState)
			return errScanRejected
		}
		required, ok := lineQuantities[box.ContentsID]
		if !ok {
			result = rejection(barcode, enums.ScanRejectInvalidState)
			return errScanRejected
		}

		// Consumption is capped at the ordered quantity per product.
		taken, err := repo.CountConsumptionsForProduct(order.ID, box.ContentsID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "counting product consumptions")
		}
		if taken >= required {
			result = rejection(barcode, enums.ScanRejectInvalidState)
			return errScanRejected
		}

		consumption := &models.ScanConsumption{
			ID:      uuid.New(),
			OrderID: order.ID,
			Barcode: barcode,
			BoxID:   box.ID,
		}
		if err := repo.InsertConsumption(consumption); err != nil {
			if db.IsUniqueViolation(err, "ux_scan_consumptions_order_barcode") {
				result = rejection(barcode, enums.ScanRejectDuplicate)
				return errScanRejected
			}
			return errors.Wrap(errors.CodeInternal, err, "recording consumption")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBoxSold,
			AggregateType: enums.AggregateStockBox,
			AggregateID:   box.ID,
			Version:       1,
			Data: boxSoldPayload{
				BoxID:   box.ID,
				Barcode: barcode,
				OrderID: order.ID,
			},
		}); err != nil {
			return err
		}

		result = &ScanResult{
			Accepted: true,
			Barcode:  barcode,
			BoxID:    &box.ID,
		}
		acceptedContents = box.ContentsType
		return nil
	})

	if txErr != nil {
		if stdErrors.Is(txErr, errScanRejected) {
			return s.finishRejection(ctx, logCtx, order.ID, result, start)
		}
		return nil, txErr
	}

	if err := s.cache.MarkBarcodeConsumed(ctx, order.ID.String(), barcode); err != nil {
		s.logg.Warn(logCtx, "marking scan cache failed")
	}

	status, err := s.completion(s.repo, order.ID)
	if err != nil {
		return nil, err
	}
	result.Status = status

	s.metrics.IncAccepted(acceptedContents.String())
	s.metrics.ObserveScanDuration("accepted", time.Since(start))
	s.logg.Info(logCtx, "scan accepted")
	return result, nil
}

func (s *service) IsComplete(ctx context.Context, orderID uuid.UUID) (CompletionStatus, error) {
	if orderID == uuid.Nil {
		return CompletionStatus{}, errors.New(errors.CodeValidation, "order id is required")
	}
	return s.completion(s.repo, orderID)
}

// IsCompleteTx re-evaluates completeness inside the caller's transaction.
// Used by the order state machine so the shipped transition sees the same
// rows it commits against.
func (s *service) IsCompleteTx(tx *gorm.DB, orderID uuid.UUID) (CompletionStatus, error) {
	if tx == nil {
		return CompletionStatus{}, errors.New(errors.CodeInternal, "transaction is required")
	}
	return s.completion(s.repo.WithTx(tx), orderID)
}

func (s *service) Progress(ctx context.Context, orderID uuid.UUID) (*SessionInfo, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	barcodes, err := s.repo.ListConsumedBarcodes(order.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing consumed barcodes")
	}
	status, err := s.completion(s.repo, order.ID)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		OrderID:          order.ID,
		Status:           status,
		ConsumedBarcodes: barcodes,
	}, nil
}

func (s *service) completion(repo *Repository, orderID uuid.UUID) (CompletionStatus, error) {
	expected, err := repo.ExpectedScans(orderID)
	if err != nil {
		return CompletionStatus{}, errors.Wrap(errors.CodeInternal, err, "summing expected scans")
	}
	consumed, err := repo.CountConsumptions(orderID)
	if err != nil {
		return CompletionStatus{}, errors.Wrap(errors.CodeInternal, err, "counting consumptions")
	}
	return CompletionStatus{
		Expected: expected,
		Consumed: consumed,
		Complete: consumed == expected,
	}, nil
}

func (s *service) loadOrder(orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) loadProcessingOrder(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusProcessing {
		return nil, errors.New(errors.CodeConflict,
			fmt.Sprintf("order is %s, scanning requires processing", order.Status)).
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	return order, nil
}

func (s *service) reject(ctx context.Context, logCtx context.Context, orderID uuid.UUID, barcode string, reason enums.ScanRejectReason, start time.Time) (*ScanResult, error) {
	return s.finishRejection(ctx, logCtx, orderID, rejection(barcode, reason), start)
}

func (s *service) finishRejection(ctx context.Context, logCtx context.Context, orderID uuid.UUID, result *ScanResult, start time.Time) (*ScanResult, error) {
	status, err := s.completion(s.repo, orderID)
	if err != nil {
		return nil, err
	}
	result.Status = status

	if result.RejectReason != nil {
		s.metrics.IncRejected(result.RejectReason.String())
	}
	s.metrics.ObserveScanDuration("rejected", time.Since(start))
	s.logg.Warn(logCtx, "scan rejected")
	return result, nil
}

func rejection(barcode string, reason enums.ScanRejectReason) *ScanResult {
	r := reason
	return &ScanResult{
		Accepted:     false,
		RejectReason: &r,
		Barcode:      barcode,
	}
}
