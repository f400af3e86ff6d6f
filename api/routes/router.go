package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zepzep/zepzep-backend/api/controllers"
	loyaltycontrollers "github.com/zepzep/zepzep-backend/api/controllers/loyalty"
	ordercontrollers "github.com/zepzep/zepzep-backend/api/controllers/orders"
	"github.com/zepzep/zepzep-backend/api/middleware"
	"github.com/zepzep/zepzep-backend/internal/loyalty"
	"github.com/zepzep/zepzep-backend/internal/orders"
	"github.com/zepzep/zepzep-backend/internal/shops"
	"github.com/zepzep/zepzep-backend/internal/trustscore"
	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/config"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
	pkgredis "github.com/zepzep/zepzep-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Redis-backed fields may
// be nil when redis is not configured.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	RateLimiter pkgredis.RateLimiter
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Orders     orders.Service
	TrustScore trustscore.Service
	Loyalty    loyalty.Service
	Users      users.Service
	Shops      shops.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(deps)))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	orderPolicy := middleware.RateLimitPolicy{Name: "orders", Limit: cfg.HTTP.OrderRateLimit, Window: cfg.HTTP.OrderRateWindow}
	redeemPolicy := middleware.RateLimitPolicy{Name: "redeem", Limit: cfg.HTTP.RedeemRateLimit, Window: cfg.HTTP.RedeemRateWindow}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/shops", func(r chi.Router) {
			r.Get("/nearby", controllers.NearbyShops(deps.Shops, logg))
			r.Get("/{shopId}/inventory", controllers.ShopInventory(deps.Shops, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(
				middleware.RateLimit(orderPolicy, deps.RateLimiter, logg),
				middleware.Idempotency(deps.Idempotency, logg),
			).Post("/", ordercontrollers.Place(deps.Orders, logg))
			r.Get("/{orderId}/track", ordercontrollers.Track(deps.Orders, logg))
		})

		r.With(
			middleware.RateLimit(redeemPolicy, deps.RateLimiter, logg),
			middleware.Idempotency(deps.Idempotency, logg),
		).Post("/loyalty/redeem", loyaltycontrollers.Redeem(deps.Loyalty, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/trust-score", controllers.TrustScore(deps.TrustScore, logg))
			r.With(middleware.RequireAuth(logg)).Get("/", controllers.UsersMe(deps.Users, logg))
			r.With(middleware.RequireAuth(logg)).Get("/redemptions", loyaltycontrollers.History(deps.Loyalty, logg))
		})
	})

	return r
}

func readinessDeps(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
