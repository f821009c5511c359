package bom

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
)

type fixture struct {
	svc    Service
	ledger stockledger.Service
	client *db.Client
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:bom_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Component{},
		&models.BOMLine{},
		&models.ImportBatch{},
		&models.StockBox{},
		&models.OutboxEvent{},
	))

	client := db.NewWithConn(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	ledger, err := stockledger.NewService(client, stockledger.NewRepository(conn), outboxSvc, logg)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), ledger, logg)
	require.NoError(t, err)

	return fixture{svc: svc, ledger: ledger, client: client}
}

func (f fixture) seedProduct(t *testing.T, sku string) uuid.UUID {
	t.Helper()
	product := models.Product{SKU: sku, Name: sku}
	require.NoError(t, f.client.DB().Create(&product).Error)
	return product.ID
}

func (f fixture) seedComponent(t *testing.T, sku string) uuid.UUID {
	t.Helper()
	component := models.Component{SKU: sku, Name: sku}
	require.NoError(t, f.client.DB().Create(&component).Error)
	return component.ID
}

func (f fixture) seedStock(t *testing.T, componentID uuid.UUID, quantities ...int) {
	t.Helper()
	batch := models.ImportBatch{Reference: "PO-BOM"}
	require.NoError(t, f.client.DB().Create(&batch).Error)
	for _, qty := range quantities {
		_, err := f.ledger.CreateStockEntry(context.Background(), stockledger.CreateStockEntryInput{
			ContentsType:  enums.ContentsTypeComponent,
			ContentsID:    componentID,
			QuantityInBox: qty,
			BoxesCount:    1,
			BatchID:       batch.ID,
		})
		require.NoError(t, err)
	}
}

func TestComputeBuildableChair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chair := f.seedProduct(t, "CHAIR-01")
	leg := f.seedComponent(t, "LEG-01")
	seat := f.seedComponent(t, "SEAT-01")

	_, err := f.svc.AddBOMLine(ctx, chair, AddBOMLineInput{ComponentID: leg, RequiredQuantity: 4})
	require.NoError(t, err)
	_, err = f.svc.AddBOMLine(ctx, chair, AddBOMLineInput{ComponentID: seat, RequiredQuantity: 1})
	require.NoError(t, err)

	f.seedStock(t, leg, 6, 5)
	f.seedStock(t, seat, 2)

	buildable, breakdown, err := f.svc.ComputeBuildable(ctx, chair)
	require.NoError(t, err)
	require.False(t, buildable.Unlimited)
	require.Equal(t, int64(2), buildable.Quantity)
	require.Len(t, breakdown, 2)
	for _, entry := range breakdown {
		if entry.ComponentID == leg {
			require.Equal(t, int64(11), entry.Available)
			require.Equal(t, int64(2), *entry.Buildable)
		}
	}
}

func TestComputeBuildableEmptyBOMIsUnlimited(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, "EMPTY-01")

	buildable, breakdown, err := f.svc.ComputeBuildable(context.Background(), product)
	require.NoError(t, err)
	require.True(t, buildable.Unlimited)
	require.Empty(t, breakdown)
}

func TestComputeBuildableSkipsZeroRequiredLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "KIT-01")
	part := f.seedComponent(t, "PART-01")
	manual := f.seedComponent(t, "MANUAL-01")

	_, err := f.svc.AddBOMLine(ctx, product, AddBOMLineInput{ComponentID: part, RequiredQuantity: 2})
	require.NoError(t, err)

	legacy := models.BOMLine{ProductID: product, ComponentID: manual, RequiredQuantity: 0}
	require.NoError(t, f.client.DB().Create(&legacy).Error)

	f.seedStock(t, part, 10)

	buildable, breakdown, err := f.svc.ComputeBuildable(ctx, product)
	require.NoError(t, err)
	require.False(t, buildable.Unlimited)
	require.Equal(t, int64(5), buildable.Quantity)
	require.Len(t, breakdown, 2)
	for _, entry := range breakdown {
		if entry.ComponentID == manual {
			require.Nil(t, entry.Buildable)
		}
	}
}

func TestAddBOMLineRejectsZeroQuantity(t *testing.T) {
	f := newFixture(t)

	product := f.seedProduct(t, "ZQ-01")
	component := f.seedComponent(t, "ZQ-COMP")

	_, err := f.svc.AddBOMLine(context.Background(), product, AddBOMLineInput{
		ComponentID:      component,
		RequiredQuantity: 0,
	})
	require.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestAddBOMLineDuplicateComponent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "DUP-01")
	component := f.seedComponent(t, "COMP-01")

	_, err := f.svc.AddBOMLine(ctx, product, AddBOMLineInput{ComponentID: component, RequiredQuantity: 1})
	require.NoError(t, err)

	_, err = f.svc.AddBOMLine(ctx, product, AddBOMLineInput{ComponentID: component, RequiredQuantity: 3})
	require.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestRemoveBOMLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "RM-01")
	component := f.seedComponent(t, "COMP-02")

	_, err := f.svc.AddBOMLine(ctx, product, AddBOMLineInput{ComponentID: component, RequiredQuantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveBOMLine(ctx, product, component))

	err = f.svc.RemoveBOMLine(ctx, product, component)
	require.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestComputeBuildableUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.ComputeBuildable(context.Background(), uuid.New())
	require.True(t, errors.HasCode(err, errors.CodeNotFound))
}
