package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bidhaus/bidhaus-backend/api/controllers"
	auctioncontrollers "github.com/bidhaus/bidhaus-backend/api/controllers/auctions"
	bidcontrollers "github.com/bidhaus/bidhaus-backend/api/controllers/bids"
	itemcontrollers "github.com/bidhaus/bidhaus-backend/api/controllers/items"
	"github.com/bidhaus/bidhaus-backend/api/middleware"
	"github.com/bidhaus/bidhaus-backend/internal/admission"
	"github.com/bidhaus/bidhaus-backend/internal/catalog"
	"github.com/bidhaus/bidhaus-backend/internal/ledger"
	"github.com/bidhaus/bidhaus-backend/internal/registry"
	"github.com/bidhaus/bidhaus-backend/pkg/config"
	"github.com/bidhaus/bidhaus-backend/pkg/db"
	"github.com/bidhaus/bidhaus-backend/pkg/enums"
	"github.com/bidhaus/bidhaus-backend/pkg/logger"
	pkgredis "github.com/bidhaus/bidhaus-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	promRegistry *prometheus.Registry,
	registryService registry.Service,
	ledgerService ledger.Service,
	admissionService admission.Service,
	catalogService catalog.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Public catalog reads need no token.
	r.Route("/api/v1/auctions", func(r chi.Router) {
		r.Get("/", auctioncontrollers.List(registryService, logg))
		r.Get("/lot/{lotCode}", auctioncontrollers.DetailByLot(registryService, logg))
		r.Get("/{itemId}", auctioncontrollers.Detail(registryService, logg))
		r.Get("/{itemId}/bids", auctioncontrollers.History(ledgerService, logg))
		r.Get("/{itemId}/bids/highest", auctioncontrollers.HighestBid(ledgerService, logg))
	})
	r.Get("/api/v1/categories", controllers.CategoryList(catalogService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/bids", func(r chi.Router) {
			r.Post("/", bidcontrollers.Submit(admissionService, logg))
			r.Get("/mine", bidcontrollers.Mine(ledgerService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleOrganizer.String(), enums.ActorRoleAdmin.String()))
			r.Post("/", itemcontrollers.Create(registryService, logg))
			r.Patch("/{itemId}", itemcontrollers.Update(registryService, logg))
			r.Post("/{itemId}/publish", itemcontrollers.Publish(registryService, logg))
			r.Post("/{itemId}/cancel", itemcontrollers.Cancel(registryService, logg))
			r.Delete("/{itemId}", itemcontrollers.Delete(registryService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin.String()))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/categories", func(r chi.Router) {
			r.Post("/", controllers.CategoryCreate(catalogService, logg))
		})
		r.Route("/v1/sellers", func(r chi.Router) {
			r.Post("/", controllers.SellerCreate(catalogService, logg))
			r.Get("/{sellerId}", controllers.SellerDetail(catalogService, logg))
		})
		r.Route("/v1/organizers", func(r chi.Router) {
			r.Post("/", controllers.OrganizerCreate(catalogService, logg))
			r.Get("/{organizerId}", controllers.OrganizerDetail(catalogService, logg))
		})
	})

	return r
}
