package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoply-app/shoply-backend/api/controllers"
	"github.com/shoply-app/shoply-backend/api/middleware"
	"github.com/shoply-app/shoply-backend/internal/auth"
	"github.com/shoply-app/shoply-backend/internal/categories"
	"github.com/shoply-app/shoply-backend/internal/orders"
	"github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/internal/users"
	"github.com/shoply-app/shoply-backend/internal/wishlist"
	"github.com/shoply-app/shoply-backend/pkg/auth/session"
	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/logger"
	"github.com/shoply-app/shoply-backend/pkg/metrics"
)

// RateLimitStore is the counter backend for the auth throttles. The Redis
// client satisfies it.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Params bundles everything the router mounts.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Cache     controllers.Pinger
	RateLimit RateLimitStore
	Sessions  session.AccessSessionChecker
	Metrics   *metrics.HTTPMetrics

	AuthService       auth.Service
	UsersService      users.Service
	ProductsService   products.Service
	CategoriesService categories.Service
	OrdersService     orders.Service
	WishlistService   wishlist.Service

	// UploadDir is served read-only under /upload.
	UploadDir string
}

// NewRouter wires the public surface: /api/v1, health probes, prometheus
// metrics, and the static upload directory.
func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	maxUploadMB := cfg.Uploads.MaxUploadMB

	r := chi.NewRouter()

	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.CORS())
	if p.Metrics != nil {
		r.Use(middleware.Metrics(p.Metrics))
	}

	authn := middleware.Auth(cfg.JWT, p.Sessions, logg)
	staff := middleware.RequireStaff(logg)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login", cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit, cfg.AuthRateLimit.LoginEmailLimit)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register", cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit, cfg.AuthRateLimit.RegisterEmailLimit)

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(p.DB, p.Cache, logg))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if p.UploadDir != "" {
		fileServer := http.StripPrefix("/upload/", http.FileServer(http.Dir(p.UploadDir)))
		r.Get("/upload/*", fileServer.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimit, logg)).
				Post("/register", controllers.AuthRegister(p.AuthService, logg))
			r.Post("/verify", controllers.AuthVerifyOTP(p.AuthService, cfg.JWT, logg))
			r.Post("/resend-otp", controllers.AuthResendOTP(p.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimit, logg)).
				Post("/login", controllers.AuthLogin(p.AuthService, cfg.JWT, logg))
			r.Post("/forgot-password", controllers.AuthForgotPassword(p.AuthService, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthService, cfg.JWT, logg))
			r.With(authn).Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", controllers.ProfileGet(p.UsersService, logg))
			r.Patch("/username", controllers.ProfileChangeUsername(p.UsersService, logg))
			r.Patch("/birth-year", controllers.ProfileChangeBirthYear(p.UsersService, logg))
			r.Patch("/address", controllers.ProfileChangeAddress(p.UsersService, logg))
			r.Patch("/password", controllers.ProfileChangePassword(p.UsersService, logg))
			r.Patch("/email", controllers.ProfileChangeEmail(p.UsersService, cfg.JWT, logg))
			r.Put("/userpic", controllers.ProfileChangeUserpic(p.UsersService, maxUploadMB, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(p.ProductsService, logg))
			r.Get("/{id}", controllers.ProductsGet(p.ProductsService, logg))
			r.With(authn).Get("/{id}/save", controllers.WishlistToggle(p.WishlistService, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.ProductsCreate(p.ProductsService, maxUploadMB, logg))
				r.Patch("/{id}", controllers.ProductsUpdate(p.ProductsService, maxUploadMB, logg))
				r.Delete("/{id}", controllers.ProductsDelete(p.ProductsService, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoriesList(p.CategoriesService, logg))
			r.Get("/{id}", controllers.CategoriesGet(p.CategoriesService, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.CategoriesCreate(p.CategoriesService, maxUploadMB, logg))
				r.Patch("/{id}", controllers.CategoriesUpdate(p.CategoriesService, maxUploadMB, logg))
				r.Delete("/{id}", controllers.CategoriesDelete(p.CategoriesService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", controllers.OrdersPlace(p.OrdersService, logg))
			r.Get("/", controllers.OrdersListMine(p.OrdersService, logg))
			r.Post("/{id}/cancel", controllers.OrdersCancel(p.OrdersService, logg))
			r.Post("/{id}/delivered", controllers.OrdersMarkDelivered(p.OrdersService, logg))
			r.Patch("/{id}/address", controllers.OrdersAmendAddress(p.OrdersService, logg))
			r.Patch("/{id}/payment-method", controllers.OrdersAmendPaymentMethod(p.OrdersService, logg))
		})

		r.With(authn).Get("/saved-products", controllers.WishlistList(p.WishlistService, logg))
	})

	return r
}
