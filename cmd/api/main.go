package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/cart"
	"github.com/pixelvault/gamestore/internal/catalog"
	"github.com/pixelvault/gamestore/internal/checkout"
	"github.com/pixelvault/gamestore/internal/config"
	"github.com/pixelvault/gamestore/internal/dashboard"
	"github.com/pixelvault/gamestore/internal/httpx"
	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/postgres"
	"github.com/pixelvault/gamestore/internal/redisx"
	"github.com/pixelvault/gamestore/internal/session"
	"github.com/pixelvault/gamestore/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	// Kafka producers, one per topic
	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	createdProd.Start(context.Background())
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024, log)
	statusProd.Start(context.Background())

	sessions := session.NewManager(rdb, cfg.SessionTTL)
	auth := &httpx.Auth{Sessions: sessions}

	userRepo := &users.Repo{DB: db, BcryptCost: cfg.BcryptCost}
	engine := checkout.NewEngine(checkout.NewPGStore(db, log), log)

	router := httpx.NewRouter(log)
	(&httpx.AuthHandler{Users: userRepo, Sessions: sessions, Log: log}).Register(router)
	(&httpx.GamesHandler{Catalog: &catalog.Repo{DB: db}, Log: log}).Register(router, auth)
	(&httpx.CartHandler{Cart: &cart.Repo{DB: db}, Log: log}).Register(router, auth)
	(&httpx.OrdersHandler{
		Engine:   engine,
		History:  &orders.Repo{DB: db},
		Producer: createdProd,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router, auth)
	(&httpx.DashboardHandler{Dashboard: &dashboard.Repo{DB: db}, Log: log}).Register(router, auth)
	(&httpx.AdminHandler{
		Games:    &catalog.AdminRepo{DB: db},
		Orders:   &orders.AdminRepo{DB: db},
		Users:    userRepo,
		Producer: statusProd,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router, auth)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	// flush buffered events before exiting
	createdProd.Close()
	statusProd.Close()
	createdProd.WaitClosed()
	statusProd.WaitClosed()
}
