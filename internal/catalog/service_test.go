package catalog

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/internal/bom"
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
	bom    bom.Service
	ledger stockledger.Service
	client *db.Client
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
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

	bomSvc, err := bom.NewService(bom.NewRepository(conn), ledger, logg)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), ledger, bomSvc, logg)
	require.NoError(t, err)

	return fixture{svc: svc, bom: bomSvc, ledger: ledger, client: client}
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, CreateProductInput{SKU: "CHAIR-01", Name: "Chair"})
	require.NoError(t, err)

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{SKU: "CHAIR-01", Name: "Other"})
	require.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestSummarizeCombinesStockAndBuildable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.CreateProduct(ctx, CreateProductInput{SKU: "TABLE-01", Name: "Table"})
	require.NoError(t, err)
	component, err := f.svc.CreateComponent(ctx, CreateComponentInput{SKU: "TOP-01", Name: "Tabletop"})
	require.NoError(t, err)

	_, err = f.bom.AddBOMLine(ctx, product.ID, bom.AddBOMLineInput{
		ComponentID:      component.ID,
		RequiredQuantity: 1,
	})
	require.NoError(t, err)

	batch := models.ImportBatch{Reference: "PO-CAT"}
	require.NoError(t, f.client.DB().Create(&batch).Error)

	_, err = f.ledger.CreateStockEntry(ctx, stockledger.CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    product.ID,
		QuantityInBox: 3,
		BoxesCount:    1,
		BatchID:       batch.ID,
	})
	require.NoError(t, err)
	_, err = f.ledger.CreateStockEntry(ctx, stockledger.CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    component.ID,
		QuantityInBox: 7,
		BoxesCount:    1,
		BatchID:       batch.ID,
	})
	require.NoError(t, err)

	summary, err := f.svc.Summarize(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), summary.InStock)
	require.False(t, summary.Buildable.Unlimited)
	require.Equal(t, int64(7), summary.Buildable.Quantity)
	require.Len(t, summary.Breakdown, 1)
}

func TestOverviewWalksCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.CreateProduct(ctx, CreateProductInput{SKU: "BENCH-01", Name: "Bench"})
	require.NoError(t, err)
	component, err := f.svc.CreateComponent(ctx, CreateComponentInput{SKU: "PLANK-01", Name: "Plank"})
	require.NoError(t, err)

	_, err = f.bom.AddBOMLine(ctx, product.ID, bom.AddBOMLineInput{
		ComponentID:      component.ID,
		RequiredQuantity: 2,
	})
	require.NoError(t, err)

	batch := models.ImportBatch{Reference: "PO-OVW"}
	require.NoError(t, f.client.DB().Create(&batch).Error)
	_, err = f.ledger.CreateStockEntry(ctx, stockledger.CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeComponent,
		ContentsID:    component.ID,
		QuantityInBox: 6,
		BoxesCount:    1,
		BatchID:       batch.ID,
	})
	require.NoError(t, err)

	overview, err := f.svc.Overview(ctx, 0)
	require.NoError(t, err)
	require.Len(t, overview.Products, 1)
	require.Len(t, overview.Components, 1)
	require.Equal(t, int64(3), overview.Products[0].Buildable.Quantity)
	require.Equal(t, int64(6), overview.Components[0].Available)
}

func TestSummarizeUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Summarize(context.Background(), uuid.New())
	require.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestGetProductPreloadsBOM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.CreateProduct(ctx, CreateProductInput{SKU: "DESK-01", Name: "Desk"})
	require.NoError(t, err)
	component, err := f.svc.CreateComponent(ctx, CreateComponentInput{SKU: "LEG-02", Name: "Desk Leg"})
	require.NoError(t, err)

	_, err = f.bom.AddBOMLine(ctx, product.ID, bom.AddBOMLineInput{
		ComponentID:      component.ID,
		RequiredQuantity: 4,
	})
	require.NoError(t, err)

	loaded, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.BOMLines, 1)
	require.NotNil(t, loaded.BOMLines[0].Component)
	require.Equal(t, "LEG-02", loaded.BOMLines[0].Component.SKU)
}
