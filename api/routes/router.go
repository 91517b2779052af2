package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nathanrivera/shopstream-backend/api/controllers"
	"github.com/nathanrivera/shopstream-backend/api/middleware"
	"github.com/nathanrivera/shopstream-backend/internal/analytics"
	"github.com/nathanrivera/shopstream-backend/internal/cart"
	"github.com/nathanrivera/shopstream-backend/internal/catalog"
	"github.com/nathanrivera/shopstream-backend/internal/customers"
	"github.com/nathanrivera/shopstream-backend/internal/orders"
	"github.com/nathanrivera/shopstream-backend/internal/payments"
	"github.com/nathanrivera/shopstream-backend/pkg/config"
	"github.com/nathanrivera/shopstream-backend/pkg/db"
	"github.com/nathanrivera/shopstream-backend/pkg/enums"
	"github.com/nathanrivera/shopstream-backend/pkg/logger"
	"github.com/nathanrivera/shopstream-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	customersService customers.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	analyticsService analytics.Service,
) http.Handler {
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
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Liveness())
		r.Get("/ready", controllers.Readiness(dbP, redisClient, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Route("/customer", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).Post("/signup", controllers.CustomerSignup(customersService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.CustomerLogin(customersService, cfg.JWT, logg))
		})
		r.Route("/admin", func(r chi.Router) {
			// new signups land in the verification queue, so the route can
			// stay open in every environment
			r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).Post("/signup", controllers.AdminSignup(customersService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminLogin(customersService, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/validate", controllers.ValidateToken(logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleCustomer, logg))
				r.Get("/profile", controllers.GetProfile(customersService, logg))
				r.Put("/profile", controllers.UpdateProfile(customersService, logg))
				r.Post("/change-password", controllers.ChangePassword(customersService, logg))
			})
		})
	})

	r.Route("/api/admin/verification", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Get("/pending", controllers.PendingAdmins(customersService, logg))
		r.Get("/count", controllers.PendingAdminCount(customersService, logg))
		r.Post("/approve/{adminID}", controllers.ApproveAdmin(customersService, logg))
		r.Delete("/reject/{adminID}", controllers.RejectAdmin(customersService, logg))
		r.Get("/verified", controllers.VerifiedAdmins(customersService, logg))
		r.Get("/my-approvals", controllers.MyAdminApprovals(customersService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(catalogService, logg))
		r.Get("/search", controllers.SearchProducts(catalogService, logg))
		r.Get("/{productID}", controllers.GetProduct(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Post("/", controllers.CreateProduct(catalogService, logg))
			r.Put("/{productID}", controllers.UpdateProduct(catalogService, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(catalogService, logg))
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleCustomer, logg))
		r.Get("/", controllers.GetCart(cartService, logg))
		r.Post("/add", controllers.AddCartItem(cartService, logg))
		r.Put("/update", controllers.UpdateCartItem(cartService, logg))
		r.Delete("/remove/{productID}", controllers.RemoveCartItem(cartService, logg))
		r.Delete("/clear", controllers.ClearCart(cartService, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/", controllers.CreateOrder(ordersService, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Get("/track/{orderNumber}", controllers.TrackOrder(ordersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleCustomer, logg))
			r.Post("/checkout", controllers.Checkout(ordersService, logg))
			r.Get("/", controllers.ListMyOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.GetMyOrder(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/all", controllers.AdminListOrders(ordersService, logg))
			r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(ordersService, logg))
		})
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/create-order", controllers.CreatePaymentOrder(paymentsService, logg))
		r.Post("/verify", controllers.VerifyPayment(paymentsService, logg))
		r.Get("/settings", controllers.PaymentSettings(paymentsService, logg))
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/track-visit", controllers.TrackVisit(analyticsService, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/track-activity", controllers.TrackActivity(analyticsService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/dashboard", controllers.AnalyticsDashboard(analyticsService, logg))
			r.Get("/customers/{customerID}/activity", controllers.CustomerActivityList(analyticsService, logg))
		})
	})

	return r
}
