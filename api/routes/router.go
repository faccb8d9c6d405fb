package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velora-labs/velora-backend/api/controllers"
	"github.com/velora-labs/velora-backend/api/middleware"
	cartsvc "github.com/velora-labs/velora-backend/internal/cart"
	categorysvc "github.com/velora-labs/velora-backend/internal/categories"
	couponsvc "github.com/velora-labs/velora-backend/internal/coupons"
	ordersvc "github.com/velora-labs/velora-backend/internal/orders"
	paymentsvc "github.com/velora-labs/velora-backend/internal/payments"
	productsvc "github.com/velora-labs/velora-backend/internal/products"
	reviewsvc "github.com/velora-labs/velora-backend/internal/reviews"
	seosvc "github.com/velora-labs/velora-backend/internal/seo"
	shippingsvc "github.com/velora-labs/velora-backend/internal/shipping"
	slidersvc "github.com/velora-labs/velora-backend/internal/sliders"
	usersvc "github.com/velora-labs/velora-backend/internal/users"
	"github.com/velora-labs/velora-backend/pkg/auth/session"
	"github.com/velora-labs/velora-backend/pkg/config"
	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/enums"
	"github.com/velora-labs/velora-backend/pkg/logger"
	"github.com/velora-labs/velora-backend/pkg/metrics"
	"github.com/velora-labs/velora-backend/pkg/redis"
	"github.com/velora-labs/velora-backend/pkg/storage/local"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Session session.AccessSessionChecker
	Metrics *metrics.HTTPMetrics
	Uploads *local.Store

	Users      usersvc.Service
	Products   productsvc.Service
	Categories categorysvc.Service
	Cart       cartsvc.Service
	Coupons    couponsvc.Service
	Orders     ordersvc.Service
	Payments   paymentsvc.Service
	Reviews    reviewsvc.Service
	Addresses  shippingsvc.AddressService
	Fees       *shippingsvc.FeeService
	SEO        *seosvc.Service
	Sliders    *slidersvc.Service
}

// NewRouter wires the full route tree: health, public storefront reads,
// authenticated commerce flows and the admin dashboard surface.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.Frontend),
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

	requireAuth := middleware.Auth(cfg.JWT, d.Session, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Session, logg)
	idempotency := middleware.Idempotency(d.Redis, logg)
	requireAdmin := middleware.RequireRole(string(enums.UserRoleAdmin), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// Uploaded media is served straight off disk.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Uploads.Root()))))

	r.Route("/api", func(r chi.Router) {
		// Public storefront reads and account entry points.
		r.Group(func(r chi.Router) {
			r.Get("/ping", controllers.PublicPing())

			r.Get("/products", controllers.ProductList(d.Products, logg))
			r.Get("/products/{slug}", controllers.ProductBySlug(d.Products, logg))
			r.Get("/reviews/product/{productID}", controllers.ReviewListForProduct(d.Reviews, logg))
			r.Get("/categories", controllers.CategoryList(d.Categories, logg))
			r.Get("/categories/{slug}", controllers.CategoryBySlug(d.Categories, logg))
			r.Get("/seo", controllers.SEOLookup(d.SEO, logg))
			r.Get("/sliders", controllers.SliderList(d.Sliders, logg))

			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg), idempotency).
				Post("/users/register", controllers.AuthRegister(d.Users, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
				Post("/users/login", controllers.AuthLogin(d.Users, logg))
			r.Post("/users/password-reset", controllers.PasswordResetRequest(d.Users, logg))
			r.Post("/users/password-reset/confirm", controllers.PasswordResetConfirm(d.Users, logg))

			// Reviews accept guests; signed-in callers are recognized when a
			// token is present.
			r.With(optionalAuth, idempotency).Post("/reviews", controllers.ReviewCreate(d.Reviews, logg))
			r.With(optionalAuth).Post("/reviews/{reviewID}/media", controllers.ReviewUploadMedia(d.Reviews, d.Uploads, logg))

			// Signed gateway redirect; authenticated by the HMAC, not a token.
			r.Post("/payments/callback", controllers.PaymentCallback(d.Payments, logg))
		})

		// Authenticated commerce flows.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(idempotency)

			r.Get("/me/ping", controllers.PrivatePing())
			r.Get("/users/me", controllers.UserProfile(d.Users, logg))
			r.Patch("/users/me", controllers.UserUpdateProfile(d.Users, logg))
			r.Post("/users/logout", controllers.AuthLogout(d.Users, logg))

			r.Get("/cart", controllers.CartGet(d.Cart, logg))
			r.Post("/cart/add", controllers.CartAdd(d.Cart, logg))
			r.Patch("/cart/items/{lineID}", controllers.CartUpdateLine(d.Cart, logg))
			r.Delete("/cart/items/{lineID}", controllers.CartRemoveLine(d.Cart, logg))
			r.Delete("/cart", controllers.CartClear(d.Cart, logg))

			r.Post("/coupons/validate", controllers.CouponValidate(d.Coupons, d.Cart, logg))
			r.Post("/coupons/apply", controllers.CouponApply(d.Coupons, logg))

			r.Post("/orders", controllers.OrderCreate(d.Orders, logg))
			r.Get("/orders", controllers.OrderList(d.Orders, logg))
			r.Get("/orders/{orderID}", controllers.OrderGet(d.Orders, logg))
			r.Post("/orders/{orderID}/cancel", controllers.OrderCancel(d.Orders, logg))

			r.Post("/payments/process", controllers.PaymentProcess(d.Payments, logg))
			r.Post("/payments/{orderID}/gateway-order", controllers.PaymentGatewayOrder(d.Payments, logg))
			r.With(requireAdmin).Post("/payments/refund", controllers.AdminPaymentRefund(d.Payments, logg))

			r.Get("/addresses", controllers.AddressList(d.Addresses, logg))
			r.Post("/addresses", controllers.AddressCreate(d.Addresses, logg))
			r.Put("/addresses/{addressID}", controllers.AddressUpdate(d.Addresses, logg))
			r.Delete("/addresses/{addressID}", controllers.AddressDelete(d.Addresses, logg))
			r.Post("/addresses/{addressID}/default", controllers.AddressSetDefault(d.Addresses, logg))
		})

		// Dashboard surface.
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireAdmin)

			r.Get("/ping", controllers.AdminPing())

			r.Get("/products", controllers.ProductList(d.Products, logg))
			r.Post("/products", controllers.AdminProductCreate(d.Products, logg))
			r.Get("/products/{productID}", controllers.AdminProductGet(d.Products, logg))
			r.Patch("/products/{productID}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/products/{productID}", controllers.AdminProductDelete(d.Products, logg))
			r.Post("/products/{productID}/images", controllers.AdminProductUploadImage(d.Products, d.Uploads, logg))
			r.Delete("/products/{productID}/images/{imageID}", controllers.AdminProductRemoveImage(d.Products, logg))

			r.Post("/categories", controllers.AdminCategoryCreate(d.Categories, logg))
			r.Patch("/categories/{categoryID}", controllers.AdminCategoryUpdate(d.Categories, logg))
			r.Delete("/categories/{categoryID}", controllers.AdminCategoryDelete(d.Categories, logg))

			r.Get("/coupons", controllers.AdminCouponList(d.Coupons, logg))
			r.Post("/coupons", controllers.AdminCouponCreate(d.Coupons, logg))
			r.Get("/coupons/{couponID}", controllers.AdminCouponGet(d.Coupons, logg))
			r.Patch("/coupons/{couponID}", controllers.AdminCouponUpdate(d.Coupons, logg))
			r.Delete("/coupons/{couponID}", controllers.AdminCouponDelete(d.Coupons, logg))

			r.Get("/orders", controllers.AdminOrderList(d.Orders, logg))
			r.Patch("/orders/{orderID}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))

			r.Get("/reviews/pending", controllers.AdminReviewListPending(d.Reviews, logg))
			r.Patch("/reviews/{reviewID}/status", controllers.AdminReviewModerate(d.Reviews, logg))
			r.Patch("/reviews/{reviewID}/featured", controllers.AdminReviewSetFeatured(d.Reviews, logg))

			r.Get("/shipping-fees", controllers.AdminShippingFeeList(d.Fees, logg))
			r.Put("/shipping-fees", controllers.AdminShippingFeeUpsert(d.Fees, logg))

			r.Get("/seo", controllers.AdminSEOList(d.SEO, logg))
			r.Put("/seo", controllers.AdminSEOUpsert(d.SEO, logg))
			r.Delete("/seo/{entryID}", controllers.AdminSEODelete(d.SEO, logg))

			r.Get("/sliders", controllers.AdminSliderList(d.Sliders, logg))
			r.Post("/sliders", controllers.AdminSliderCreate(d.Sliders, logg))
			r.Patch("/sliders/{sliderID}", controllers.AdminSliderUpdate(d.Sliders, logg))
			r.Delete("/sliders/{sliderID}", controllers.AdminSliderDelete(d.Sliders, logg))
		})
	})

	return r
}
