package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelierjamel/traiteur-backend/api/controllers"
	"github.com/atelierjamel/traiteur-backend/api/middleware"
	authsvc "github.com/atelierjamel/traiteur-backend/internal/auth"
	"github.com/atelierjamel/traiteur-backend/internal/catalog"
	exportsvc "github.com/atelierjamel/traiteur-backend/internal/export"
	mediasvc "github.com/atelierjamel/traiteur-backend/internal/media"
	ordersvc "github.com/atelierjamel/traiteur-backend/internal/orders"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
	"github.com/atelierjamel/traiteur-backend/pkg/redis"
	"github.com/atelierjamel/traiteur-backend/pkg/storage/gcs"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client
	GCS   gcs.Pinger

	Auth    authsvc.Service
	Catalog catalog.Service
	Orders  ordersvc.Service
	Media   mediasvc.Service
	Export  exportsvc.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyChecks(deps)))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/search", controllers.SearchProducts(deps.Catalog, logg))
			r.Post("/import", controllers.ImportProducts(deps.Catalog, cfg.Media, logg))
			r.Get("/export", controllers.ExportProducts(deps.Export, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Catalog, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.Catalog, logg))
			r.Post("/{productId}/image", controllers.UploadProductImage(deps.Media, cfg.Media, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Patch("/{orderId}", controllers.UpdateOrder(deps.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(deps.Orders, logg))
			r.Get("/{orderId}/export", controllers.ExportOrder(deps.Export, logg))
			r.Post("/{orderId}/recompute", controllers.RecomputeOrderTotals(deps.Orders, logg))

			r.Route("/{orderId}/items", func(r chi.Router) {
				r.Post("/", controllers.AddOrderItem(deps.Orders, logg))
				r.Patch("/{itemId}", controllers.UpdateOrderItem(deps.Orders, logg))
				r.Delete("/{itemId}", controllers.DeleteOrderItem(deps.Orders, logg))
			})
		})
	})

	return r
}

func readyChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	if deps.GCS != nil {
		checks["gcs"] = deps.GCS
	}
	return checks
}
