package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uneedslabs/uneeds-backend/api/controllers"
	requestcontrollers "github.com/uneedslabs/uneeds-backend/api/controllers/requests"
	"github.com/uneedslabs/uneeds-backend/api/middleware"
	"github.com/uneedslabs/uneeds-backend/internal/disputes"
	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/internal/requests"
	"github.com/uneedslabs/uneeds-backend/internal/users"
	"github.com/uneedslabs/uneeds-backend/internal/wallet"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *redis.Client
	UsersRepo   users.Repository
	RequestRepo requests.Repository
	Escrow      escrow.Service
	Wallet      wallet.Service
	Ledger      ledger.Service
	Disputes    disputes.Service
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.UsersRepo, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, cfg.Idempotency, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestcontrollers.Create(deps.Escrow, logg))
			r.Get("/", requestcontrollers.List(deps.Escrow, logg))
			r.Get("/{requestId}", requestcontrollers.Get(deps.Escrow, logg))
			r.Post("/{requestId}/accept", requestcontrollers.Accept(deps.Escrow, logg))
			r.Post("/{requestId}/pickup", requestcontrollers.MarkPickedUp(deps.Escrow, logg))
			r.Post("/{requestId}/deliver", requestcontrollers.MarkDelivered(deps.Escrow, logg))
			r.Post("/{requestId}/complete", requestcontrollers.Complete(deps.Escrow, logg))
			r.Post("/{requestId}/cancel", requestcontrollers.Cancel(deps.Escrow, logg))
			r.Post("/{requestId}/dispute", requestcontrollers.RaiseDispute(deps.Escrow, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(deps.Wallet, logg))
			r.Get("/transactions", controllers.WalletTransactions(deps.Wallet, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Get("/ping", controllers.AdminPing())
			r.Get("/stats", controllers.AdminStats(deps.RequestRepo, deps.Ledger, cfg.Escrow, logg))
			r.Post("/requests/{requestId}/resolve", requestcontrollers.ResolveDispute(deps.Escrow, logg))
			r.Post("/wallets/{userId}/adjust", controllers.AdjustWallet(deps.Wallet, logg))
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", controllers.ListAlerts(deps.Disputes, logg))
				r.Post("/clear", controllers.ClearAlerts(deps.Disputes, logg))
				r.Post("/{alertId}/dismiss", controllers.DismissAlert(deps.Disputes, logg))
			})
		})
	})

	return r
}
