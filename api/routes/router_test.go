package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockflowhq/stockflow-backend/internal/bom"
	"github.com/stockflowhq/stockflow-backend/internal/catalog"
	"github.com/stockflowhq/stockflow-backend/internal/orders"
	"github.com/stockflowhq/stockflow-backend/internal/scans"
	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/config"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/metrics"
	"github.com/stockflowhq/stockflow-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type harness struct {
	handler http.Handler
	client  *db.Client
	ledger  stockledger.Service
}

func newHarness(t *testing.T) harness {
	t.Helper()

	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.Component{},
		&models.BOMLine{},
		&models.ImportBatch{},
		&models.StockBox{},
		&models.Order{},
		&models.OrderLine{},
		&models.ScanConsumption{},
		&models.OutboxEvent{},
	))

	client := db.NewWithConn(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	registry := prometheus.NewRegistry()
	scanMetrics := metrics.NewScanMetrics(registry)

	ledger, err := stockledger.NewService(client, stockledger.NewRepository(conn), outboxSvc, logg)
	require.NoError(t, err)

	bomSvc, err := bom.NewService(bom.NewRepository(conn), ledger, logg)
	require.NoError(t, err)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), ledger, bomSvc, logg)
	require.NoError(t, err)

	scanSvc, err := scans.NewService(client, scans.NewRepository(conn), ledger, nil, outboxSvc, scanMetrics, logg)
	require.NoError(t, err)

	orderSvc, err := orders.NewService(client, orders.NewRepository(conn), scanSvc, outboxSvc, scanMetrics, logg)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev

	handler := NewRouter(cfg, logg, stubPinger{}, nil, registry, ledger, bomSvc, catalogSvc, orderSvc, scanSvc)
	return harness{handler: handler, client: client, ledger: ledger}
}

func (h harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFulfillmentFlow(t *testing.T) {
	h := newHarness(t)

	var product models.Product
	rec := h.do(t, http.MethodPost, "/api/v1/products/", map[string]string{
		"sku":  "CHAIR-01",
		"name": "Chair",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeData(t, rec, &product)

	var component models.Component
	rec = h.do(t, http.MethodPost, "/api/v1/components/", map[string]string{
		"sku":  "LEG-01",
		"name": "Chair Leg",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeData(t, rec, &component)

	rec = h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/products/%s/bom/", product.ID), map[string]any{
		"component_id":      component.ID.String(),
		"required_quantity": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	batch := models.ImportBatch{Reference: "PO-HTTP"}
	require.NoError(t, h.client.DB().Create(&batch).Error)

	rec = h.do(t, http.MethodPost, "/api/v1/stocks/", map[string]any{
		"contents_type":   "component",
		"contents_id":     component.ID.String(),
		"quantity_in_box": 9,
		"boxes_count":     1,
		"batch_id":        batch.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created []models.StockBox
	decodeData(t, rec, &created)
	require.Len(t, created, 1)

	var buildableResp struct {
		Buildable bom.Buildable `json:"buildable"`
	}
	rec = h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/buildable", product.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &buildableResp)
	require.Equal(t, int64(2), buildableResp.Buildable.Quantity)

	var overview catalog.StockOverview
	rec = h.do(t, http.MethodGet, "/api/v1/stocks/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &overview)
	require.Len(t, overview.Products, 1)
	require.Len(t, overview.Components, 1)
	require.Equal(t, int64(9), overview.Components[0].Available)

	order := models.Order{
		OrderNumber: "ORD-HTTP-1",
		CustomerID:  uuid.New(),
		Status:      enums.OrderStatusProcessing,
	}
	require.NoError(t, h.client.DB().Create(&order).Error)
	line := models.OrderLine{OrderID: order.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, h.client.DB().Create(&line).Error)

	boxes, err := h.ledger.CreateStockEntry(context.Background(), stockledger.CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    product.ID,
		QuantityInBox: 1,
		BoxesCount:    1,
		BatchID:       batch.ID,
	})
	require.NoError(t, err)

	rec = h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/scan-sessions", order.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result scans.ScanResult
	rec = h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/scans", order.ID), map[string]string{
		"barcode": boxes[0].Barcode,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	require.True(t, result.Accepted)
	require.True(t, result.Status.Complete)

	var advanced models.Order
	rec = h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/advance", order.ID), map[string]string{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &advanced)
	require.Equal(t, enums.OrderStatusShipped, advanced.Status)
}

func TestErrorEnvelopeShapes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s/", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/products/", map[string]string{"sku": "ONLY-SKU"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid/", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceIncompleteOrderConflicts(t *testing.T) {
	h := newHarness(t)

	order := models.Order{
		OrderNumber: "ORD-HTTP-2",
		CustomerID:  uuid.New(),
		Status:      enums.OrderStatusProcessing,
	}
	require.NoError(t, h.client.DB().Create(&order).Error)
	line := models.OrderLine{OrderID: order.ID, ProductID: uuid.New(), Quantity: 2}
	require.NoError(t, h.client.DB().Create(&line).Error)

	rec := h.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/advance", order.ID), map[string]string{
		"status": "shipped",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "STATE_CONFLICT", envelope.Error.Code)
}

func TestSellStockEndpoint(t *testing.T) {
	h := newHarness(t)

	order := models.Order{
		OrderNumber: "ORD-HTTP-3",
		CustomerID:  uuid.New(),
		Status:      enums.OrderStatusProcessing,
	}
	require.NoError(t, h.client.DB().Create(&order).Error)
	productID := uuid.New()
	line := models.OrderLine{OrderID: order.ID, ProductID: productID, Quantity: 1}
	require.NoError(t, h.client.DB().Create(&line).Error)

	batch := models.ImportBatch{Reference: "PO-SELL"}
	require.NoError(t, h.client.DB().Create(&batch).Error)
	boxes, err := h.ledger.CreateStockEntry(context.Background(), stockledger.CreateStockEntryInput{
		ContentsType:  enums.ContentsTypeProduct,
		ContentsID:    productID,
		QuantityInBox: 1,
		BoxesCount:    1,
		BatchID:       batch.ID,
	})
	require.NoError(t, err)

	var result scans.ScanResult
	rec := h.do(t, http.MethodPost, "/api/v1/stocks/sell", map[string]string{
		"barcode":  boxes[0].Barcode,
		"order_id": order.ID.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	require.True(t, result.Accepted)

	rec = h.do(t, http.MethodPost, "/api/v1/stocks/sell", map[string]string{
		"barcode":  boxes[0].Barcode,
		"order_id": order.ID.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	require.False(t, result.Accepted)
	require.Equal(t, enums.ScanRejectDuplicate, *result.RejectReason)
}
