package stockledger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	dsn := fmt.Sprintf("file:stockledger_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.ImportBatch{},
		&models.StockBox{},
		&models.OutboxEvent{},
	))

	client := db.NewWithConn(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	svc, err := NewService(client, NewRepository(conn), outboxSvc, logg)
	require.NoError(t, err)
	return svc, client
}

func seedBatch(t *testing.T, client *db.Client) uuid.UUID {
	t.Helper()
	batch := models.ImportBatch{Reference: "PO-1001"}
	require.NoError(t, client.DB().Create(&batch).Error)
	return batch.ID
}

func TestCreateStockEntryIssuesBarcode(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)

	boxes, err := svc.CreateStockEntry(context.Background(), CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    uuid.New(),
		QuantityInBox: 12,
		BoxesCount:    3,
		BatchID:       batchID,
	})
	require.NoError(t, err)
	require.Len(t, boxes, 3)

	seen := map[string]bool{}
	for _, box := range boxes {
		require.True(t, strings.HasPrefix(box.Barcode, "SB-"))
		require.Equal(t, enums.StockBoxStatusInStock, box.Status)
		require.False(t, seen[box.Barcode])
		seen[box.Barcode] = true
	}

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 3)
	require.Equal(t, enums.EventStockReceived, events[0].EventType)
	require.Equal(t, boxes[0].ID, events[0].AggregateID)
}

func TestCreateStockEntryUnknownBatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateStockEntry(context.Background(), CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    uuid.New(),
		QuantityInBox: 1,
		BoxesCount:    1,
		BatchID:       uuid.New(),
	})
	require.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestCreateStockEntryRejectsZeroBoxes(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)

	_, err := svc.CreateStockEntry(context.Background(), CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    uuid.New(),
		QuantityInBox: 1,
		BatchID:       batchID,
	})
	require.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestCreateStockEntryDuplicateBarcode(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)

	input := CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    uuid.New(),
		QuantityInBox: 4,
		BoxesCount:    1,
		BatchID:       batchID,
		Barcode:       "SB-FIXED",
	}
	_, err := svc.CreateStockEntry(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CreateStockEntry(context.Background(), input)
	require.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestGetAvailableQuantitySumsOnlyInStock(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)
	componentID := uuid.New()

	ctx := context.Background()
	for _, qty := range []int{10, 5} {
		_, err := svc.CreateStockEntry(ctx, CreateStockEntryInput{
			ContentsType:  enums.ContentsTypeComponent,
			ContentsID:    componentID,
			QuantityInBox: qty,
			BoxesCount:    1,
			BatchID:       batchID,
		})
		require.NoError(t, err)
	}

	damaged := models.StockBox{
		ID:            uuid.New(),
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    componentID,
		QuantityInBox: 99,
		BatchID:       batchID,
		Status:        enums.StockBoxStatusDamaged,
		Barcode:       "SB-DAMAGED",
	}
	require.NoError(t, client.DB().Create(&damaged).Error)

	summary, err := svc.GetAvailableQuantity(ctx, enums.ContentsTypeComponent, componentID)
	require.NoError(t, err)
	require.Equal(t, int64(15), summary.Available)
	require.Equal(t, int64(2), summary.BoxCount)
}

func TestSellByBarcode(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)
	ctx := context.Background()

	boxes, err := svc.CreateStockEntry(ctx, CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    uuid.New(),
		QuantityInBox: 1,
		BoxesCount:    1,
		BatchID:       batchID,
	})
	require.NoError(t, err)
	box := boxes[0]

	orderID := uuid.New()
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		sold, err := svc.SellByBarcode(ctx, tx, box.Barcode, orderID)
		if err != nil {
			return err
		}
		require.Equal(t, enums.StockBoxStatusSold, sold.Status)
		require.NotNil(t, sold.SoldOrderID)
		require.Equal(t, orderID, *sold.SoldOrderID)
		return nil
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.SellByBarcode(ctx, tx, box.Barcode, uuid.New())
		return err
	})
	require.True(t, errors.HasCode(err, errors.CodeConflict))

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.SellByBarcode(ctx, tx, "SB-MISSING", orderID)
		return err
	})
	require.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestUpdateStock(t *testing.T) {
	svc, client := newTestService(t)
	batchID := seedBatch(t, client)
	ctx := context.Background()

	boxes, err := svc.CreateStockEntry(ctx, CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    uuid.New(),
		QuantityInBox: 3,
		BoxesCount:    1,
		BatchID:       batchID,
	})
	require.NoError(t, err)
	box := boxes[0]

	shelf := "A-12"
	updated, err := svc.UpdateStock(ctx, box.ID, UpdateStockInput{ShelfCode: &shelf})
	require.NoError(t, err)
	require.NotNil(t, updated.ShelfCode)
	require.Equal(t, "A-12", *updated.ShelfCode)

	_, err = svc.UpdateStock(ctx, uuid.New(), UpdateStockInput{ShelfCode: &shelf})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	sold := enums.StockBoxStatusSold
	_, err = svc.UpdateStock(ctx, box.ID, UpdateStockInput{Status: &sold})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.SellByBarcode(ctx, tx, box.Barcode, uuid.New())
		return err
	})
	require.NoError(t, err)

	damaged := enums.StockBoxStatusDamaged
	_, err = svc.UpdateStock(ctx, box.ID, UpdateStockInput{Status: &damaged})
	require.True(t, errors.HasCode(err, errors.CodeConflict))
}
