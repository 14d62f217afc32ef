package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shoply-app/shoply-backend/api/routes"
	"github.com/shoply-app/shoply-backend/internal/auth"
	"github.com/shoply-app/shoply-backend/internal/categories"
	"github.com/shoply-app/shoply-backend/internal/orders"
	"github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/internal/users"
	"github.com/shoply-app/shoply-backend/internal/wishlist"
	"github.com/shoply-app/shoply-backend/pkg/auth/session"
	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/db"
	"github.com/shoply-app/shoply-backend/pkg/logger"
	"github.com/shoply-app/shoply-backend/pkg/mailer"
	"github.com/shoply-app/shoply-backend/pkg/metrics"
	"github.com/shoply-app/shoply-backend/pkg/migrate"
	"github.com/shoply-app/shoply-backend/pkg/redis"
	"github.com/shoply-app/shoply-backend/pkg/storage"
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

	if cfg.LogSink.Enabled {
		sink := logger.NewDBSink(dbClient.DB(), cfg.LogSink.BufferSize)
		defer sink.Close()
		logg = logger.New(logger.Options{
			ServiceName: "api",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Sink:        sink,
		})
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

	fileStore, err := storage.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxUploadMB)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare upload storage", err)
		os.Exit(1)
	}

	var mail mailer.Sender
	if cfg.SMTP.Enabled() {
		mail, err = mailer.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logg.Error(context.Background(), "failed to configure smtp", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "smtp not configured, logging outbound mail")
		mail = mailer.NewLogSender(logg)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	categoriesRepo := categories.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	wishlistRepo := wishlist.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Users:    usersRepo,
		Sessions: sessionManager,
		Mail:     mail,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		OTP:      cfg.OTP,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		Store:    usersRepo,
		Sessions: sessionManager,
		Mail:     mail,
		Files:    fileStore,
		Password: cfg.Password,
		OTP:      cfg.OTP,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.ServiceParams{
		Repo:       productsRepo,
		Categories: categoriesRepo,
		Files:      fileStore,
		MaxImages:  cfg.Uploads.MaxImages,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	categoriesService, err := categories.NewService(categories.ServiceParams{
		Repo:     categoriesRepo,
		Products: productsRepo,
		Files:    fileStore,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    ordersRepo,
		Catalog: productsRepo,
		Tx:      dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlistRepo,
		Products: productsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.Params{
		Config:            cfg,
		Logger:            logg,
		DB:                dbClient,
		Cache:             redisClient,
		RateLimit:         redisClient,
		Sessions:          sessionManager,
		Metrics:           httpMetrics,
		AuthService:       authService,
		UsersService:      usersService,
		ProductsService:   productsService,
		CategoriesService: categoriesService,
		OrdersService:     ordersService,
		WishlistService:   wishlistService,
		UploadDir:         fileStore.Dir(),
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
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
