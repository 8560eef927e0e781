package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dulcemocka/ordering-backend/api/controllers"
	"github.com/dulcemocka/ordering-backend/api/middleware"
	"github.com/dulcemocka/ordering-backend/internal/accounts"
	"github.com/dulcemocka/ordering-backend/internal/auth"
	"github.com/dulcemocka/ordering-backend/internal/catalog"
	"github.com/dulcemocka/ordering-backend/internal/coupons"
	"github.com/dulcemocka/ordering-backend/internal/loyalty"
	"github.com/dulcemocka/ordering-backend/internal/notifications"
	"github.com/dulcemocka/ordering-backend/internal/orders"
	"github.com/dulcemocka/ordering-backend/pkg/auth/session"
	"github.com/dulcemocka/ordering-backend/pkg/config"
	"github.com/dulcemocka/ordering-backend/pkg/db"
	"github.com/dulcemocka/ordering-backend/pkg/logger"
	"github.com/dulcemocka/ordering-backend/pkg/metrics"
	pkgredis "github.com/dulcemocka/ordering-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessionChecker session.AccessSessionChecker,
	promRegistry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	catalogService catalog.Service,
	couponsService coupons.Service,
	ordersService orders.Service,
	loyaltyService loyalty.Service,
	notificationsService notifications.Service,
	accountsService accounts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessionChecker, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	// Public storefront. Catalog reads never require credentials; coupon
	// evaluation and checkout accept them when present.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(catalogService, logg))
		r.Get("/products/{slug}", controllers.GetProduct(catalogService, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/sectors", controllers.ListSectors(catalogService, logg))
		r.Get("/slides", controllers.ListSlides(catalogService, logg))
		r.Get("/order-statuses", controllers.ListOrderStatuses(ordersService, logg))
		r.Get("/orders/track/{number}", controllers.TrackOrder(ordersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionChecker, logg))
			r.Post("/coupons/evaluate", controllers.EvaluateCoupon(couponsService, logg))
			r.With(middleware.Idempotency(redisClient, logg)).Post("/checkout", controllers.Checkout(ordersService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.GetProfile(accountsService, logg))
				r.Patch("/", controllers.UpdateProfile(accountsService, logg))
				r.Put("/password", controllers.ChangePassword(authService, logg))
				r.Route("/addresses", func(r chi.Router) {
					r.Get("/", controllers.ListAddresses(accountsService, logg))
					r.Post("/", controllers.CreateAddress(accountsService, logg))
					r.Put("/{addressId}", controllers.UpdateAddress(accountsService, logg))
					r.Delete("/{addressId}", controllers.DeleteAddress(accountsService, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(ordersService, logg))
				r.Get("/{orderId}", controllers.GetMyOrder(ordersService, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Post("/{couponId}/claim", controllers.ClaimCoupon(couponsService, logg))
				r.Get("/claims", controllers.ListCouponClaims(couponsService, logg))
				r.Delete("/claims/{claimId}", controllers.RemoveCouponClaim(couponsService, logg))
			})

			r.Route("/loyalty", func(r chi.Router) {
				r.Get("/points", controllers.LoyaltyBalance(loyaltyService, logg))
				r.Post("/redemptions", controllers.RedeemProduct(loyaltyService, logg))
				r.Get("/redemptions", controllers.ListMyRedemptions(loyaltyService, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
				r.Delete("/{notificationId}", controllers.DeleteNotification(notificationsService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Get("/dashboard", controllers.AdminDashboard(accountsService, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(catalogService, logg))
				r.Post("/", controllers.AdminCreateProduct(catalogService, logg))
				r.Get("/{productId}", controllers.AdminGetProduct(catalogService, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(catalogService, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(catalogService, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminListCategories(catalogService, logg))
				r.Post("/", controllers.AdminCreateCategory(catalogService, logg))
				r.Patch("/{categoryId}", controllers.AdminUpdateCategory(catalogService, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(catalogService, logg))
			})
			r.Route("/ingredients", func(r chi.Router) {
				r.Get("/", controllers.AdminListIngredients(catalogService, logg))
				r.Post("/", controllers.AdminCreateIngredient(catalogService, logg))
				r.Patch("/{ingredientId}", controllers.AdminUpdateIngredient(catalogService, logg))
				r.Delete("/{ingredientId}", controllers.AdminDeleteIngredient(catalogService, logg))
			})
			r.Route("/sectors", func(r chi.Router) {
				r.Get("/", controllers.AdminListSectors(catalogService, logg))
				r.Post("/", controllers.AdminCreateSector(catalogService, logg))
				r.Patch("/{sectorId}", controllers.AdminUpdateSector(catalogService, logg))
				r.Delete("/{sectorId}", controllers.AdminDeleteSector(catalogService, logg))
			})
			r.Route("/slides", func(r chi.Router) {
				r.Get("/", controllers.AdminListSlides(catalogService, logg))
				r.Post("/", controllers.AdminCreateSlide(catalogService, logg))
				r.Patch("/{slideId}", controllers.AdminUpdateSlide(catalogService, logg))
				r.Delete("/{slideId}", controllers.AdminDeleteSlide(catalogService, logg))
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(couponsService, logg))
				r.Post("/", controllers.AdminCreateCoupon(couponsService, logg))
				r.Patch("/{couponId}", controllers.AdminUpdateCoupon(couponsService, logg))
				r.Delete("/{couponId}", controllers.AdminDeleteCoupon(couponsService, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(ordersService, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(ordersService, logg))
				r.Post("/{orderId}/status", controllers.AdminChangeOrderStatus(ordersService, logg))
				r.Post("/{orderId}/cancel", controllers.AdminCancelOrder(ordersService, logg))
			})
			r.Route("/redemptions", func(r chi.Router) {
				r.Get("/", controllers.AdminListRedemptions(loyaltyService, logg))
				r.Post("/{redemptionId}/deliver", controllers.AdminDeliverRedemption(loyaltyService, logg))
				r.Post("/{redemptionId}/cancel", controllers.AdminCancelRedemption(loyaltyService, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(accountsService, logg))
				r.Get("/{userId}", controllers.AdminGetUser(accountsService, logg))
				r.Post("/{userId}/active", controllers.AdminSetUserActive(accountsService, logg))
			})
		})
	})

	return r
}
