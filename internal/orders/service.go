package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/internal/scans"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/metrics"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
)

// allowedTransitions covers the fulfillment stages only. pending, unpaid and
// canceled belong to the upstream sales workflow; orders in those states are
// not subject to this machine and any move on them is rejected.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {},
}

// CompletionChecker is the slice of the scan pipeline the state machine
// needs: re-verify scan completeness inside its own transaction.
type CompletionChecker interface {
	IsCompleteTx(tx *gorm.DB, orderID uuid.UUID) (scans.CompletionStatus, error)
}

type Service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, statuses []enums.OrderStatus, limit int) ([]models.Order, error)
	Advance(ctx context.Context, orderID uuid.UUID, requested enums.OrderStatus) (*models.Order, error)
}

type service struct {
	client  *db.Client
	repo    *Repository
	scans   CompletionChecker
	outbox  *outbox.Service
	metrics *metrics.ScanMetrics
	logg    *logger.Logger
}

func NewService(
	client *db.Client,
	repo *Repository,
	checker CompletionChecker,
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
	if checker == nil {
		return nil, fmt.Errorf("completion checker is required")
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
		scans:   checker,
		outbox:  outboxSvc,
		metrics: scanMetrics,
		logg:    logg,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, statuses []enums.OrderStatus, limit int) ([]models.Order, error) {
	for _, status := range statuses {
		if !status.IsValid() {
			return nil, errors.New(errors.CodeValidation,
				fmt.Sprintf("unknown status %q", status))
		}
	}
	orders, err := s.repo.ListOrders(statuses, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing orders")
	}
	return orders, nil
}

// Advance moves an order one step along its lifecycle. The whole move runs
// in one transaction: the shipped gate re-reads scan completeness there, so
// a scan row deleted between the caller's check and this call still blocks
// the transition.
func (s *service) Advance(ctx context.Context, orderID uuid.UUID, requested enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}
	if !requested.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown status %q", requested))
	}

	var updated *models.Order
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(orderID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading order")
		}
		if order == nil {
			return errors.New(errors.CodeNotFound, "order not found")
		}

		if !transitionAllowed(order.Status, requested) {
			return errors.New(errors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, requested)).
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   requested.String(),
				})
		}

		if requested == enums.OrderStatusShipped {
			status, err := s.scans.IsCompleteTx(tx, order.ID)
			if err != nil {
				return err
			}
			if !status.Complete {
				return errors.New(errors.CodeStateConflict,
					"scan set incomplete, order cannot ship").
					WithDetails(map[string]any{
						"expected": status.Expected,
						"consumed": status.Consumed,
					})
			}
		}

		affected, err := repo.MoveStatus(order.ID, order.Status, requested)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "moving order status")
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "order changed concurrently, retry")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusMoved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: orderStatusMovedPayload{
				OrderID: order.ID,
				From:    order.Status,
				To:      requested,
			},
		}); err != nil {
			return err
		}

		updated, err = repo.FindOrder(order.ID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if requested == enums.OrderStatusShipped {
		s.metrics.IncShipped()
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithField(logCtx, "status", requested.String())
	s.logg.Info(logCtx, "order advanced")
	return updated, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
