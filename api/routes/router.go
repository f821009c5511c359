package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockflowhq/stockflow-backend/api/controllers"
	"github.com/stockflowhq/stockflow-backend/api/middleware"
	bomsvc "github.com/stockflowhq/stockflow-backend/internal/bom"
	"github.com/stockflowhq/stockflow-backend/internal/catalog"
	ordersvc "github.com/stockflowhq/stockflow-backend/internal/orders"
	scansvc "github.com/stockflowhq/stockflow-backend/internal/scans"
	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/config"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
	"github.com/stockflowhq/stockflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	ledgerService stockledger.Service,
	bomService bomsvc.Service,
	catalogService catalog.Service,
	ordersService ordersvc.Service,
	scansService scansvc.Service,
) http.Handler {
	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stocks", func(r chi.Router) {
			r.Post("/", controllers.CreateStockEntry(ledgerService, logg))
			r.Get("/", controllers.GetStockOverview(catalogService, logg))
			r.Post("/sell", controllers.SellStock(scansService, logg))
			r.Get("/availability", controllers.GetAvailability(ledgerService, logg))
			r.Get("/{boxID}", controllers.GetStockBox(ledgerService, logg))
			r.Patch("/{boxID}", controllers.UpdateStockBox(ledgerService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(catalogService, logg))
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(catalogService, logg))
				r.Get("/summary", controllers.GetProductSummary(catalogService, logg))
				r.Get("/buildable", controllers.GetBuildable(bomService, logg))
				r.Route("/bom", func(r chi.Router) {
					r.Get("/", controllers.ListBOM(bomService, logg))
					r.Post("/", controllers.AddBOMLine(bomService, logg))
					r.Delete("/{componentID}", controllers.RemoveBOMLine(bomService, logg))
				})
			})
		})

		r.Route("/components", func(r chi.Router) {
			r.Post("/", controllers.CreateComponent(catalogService, logg))
			r.Get("/", controllers.ListComponents(catalogService, logg))
			r.Get("/{componentID}", controllers.GetComponent(catalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersService, logg))
				r.Post("/advance", controllers.AdvanceOrder(ordersService, logg))
				r.Post("/scan-sessions", controllers.OpenScanSession(scansService, logg))
				r.Post("/scans", controllers.SubmitScan(scansService, logg))
				r.Get("/scan-status", controllers.GetScanStatus(scansService, logg))
			})
		})
	})

	return r
}
