package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/config"
	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/ordercache"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/redisx"
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

	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	svc := &ordercache.Service{
		Redis: rdb,
		Log:   log,
		Name:  cfg.WorkerGroup,
	}

	topics := []string{orders.TopicOrderCreated, orders.TopicOrderStatus}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topics, cfg.WorkerCount, log)

	go func() {
		log.Info("worker consuming",
			zap.String("group", cfg.WorkerGroup),
			zap.Strings("topics", topics),
			zap.Int("workers", cfg.WorkerCount),
		)
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down worker")
		cancel()
	case <-ctx.Done():
	}
}
