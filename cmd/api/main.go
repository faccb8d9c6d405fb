package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/velora-labs/velora-backend/api/routes"
	"github.com/velora-labs/velora-backend/internal/cart"
	"github.com/velora-labs/velora-backend/internal/categories"
	"github.com/velora-labs/velora-backend/internal/coupons"
	"github.com/velora-labs/velora-backend/internal/orders"
	"github.com/velora-labs/velora-backend/internal/payments"
	"github.com/velora-labs/velora-backend/internal/products"
	"github.com/velora-labs/velora-backend/internal/reviews"
	"github.com/velora-labs/velora-backend/internal/seo"
	"github.com/velora-labs/velora-backend/internal/shipping"
	"github.com/velora-labs/velora-backend/internal/sliders"
	"github.com/velora-labs/velora-backend/internal/users"
	"github.com/velora-labs/velora-backend/pkg/auth/session"
	"github.com/velora-labs/velora-backend/pkg/config"
	"github.com/velora-labs/velora-backend/pkg/db"
	"github.com/velora-labs/velora-backend/pkg/logger"
	"github.com/velora-labs/velora-backend/pkg/mailer"
	"github.com/velora-labs/velora-backend/pkg/metrics"
	"github.com/velora-labs/velora-backend/pkg/migrate"
	"github.com/velora-labs/velora-backend/pkg/razorpay"
	"github.com/velora-labs/velora-backend/pkg/redis"
	"github.com/velora-labs/velora-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	mail, err := mailer.New(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	uploads, err := local.New(local.Options{
		Root:        cfg.Uploads.Root,
		MaxUploadMB: cfg.Uploads.MaxUploadMB,
		ImageWidth:  cfg.Uploads.ImageWidth,
		ImageHeight: cfg.Uploads.ImageHeight,
		JPEGQuality: cfg.Uploads.JPEGQuality,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to prepare upload store", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	userService, err := users.NewService(users.ServiceParams{
		Repo:        users.NewRepository(gormDB),
		Session:     sessionManager,
		ResetTokens: redisClient,
		Mail:        mail,
		JWTConfig:   cfg.JWT,
		Password:    cfg.Password,
		FrontendURL: cfg.Frontend.BaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	categoryRepo := categories.NewRepository(gormDB)
	categoryService, err := categories.NewService(categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(gormDB)
	productService, err := products.NewService(productRepo, categoryRepo, uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), dbClient, productService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(coupons.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	addressService, err := shipping.NewAddressService(shipping.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	feeService, err := shipping.NewFeeService(shipping.NewFeeRepository(gormDB), cfg.Shipping)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping fee service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Tx:        dbClient,
		Catalog:   productService,
		Addresses: addressService,
		Fees:      feeService,
		Coupons:   couponService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(gormDB),
		Orders:  orderRepo,
		Tx:      dbClient,
		Gateway: gateway,
		Config:  cfg.Razorpay,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gormDB), dbClient, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	seoService, err := seo.NewService(seo.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create seo service", err)
		os.Exit(1)
	}

	sliderService, err := sliders.NewService(sliders.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create slider service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Session: sessionManager,
		Metrics: metrics.NewHTTPMetrics(),
		Uploads: uploads,

		Users:      userService,
		Products:   productService,
		Categories: categoryService,
		Cart:       cartService,
		Coupons:    couponService,
		Orders:     orderService,
		Payments:   paymentService,
		Reviews:    reviewService,
		Addresses:  addressService,
		Fees:       feeService,
		SEO:        seoService,
		Sliders:    sliderService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
