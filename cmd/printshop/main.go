package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/auth"
	"github.com/iurnickita/printshop/internal/config"
	"github.com/iurnickita/printshop/internal/handler"
	"github.com/iurnickita/printshop/internal/logger"
	"github.com/iurnickita/printshop/internal/metrics"
	"github.com/iurnickita/printshop/internal/report"
	"github.com/iurnickita/printshop/internal/service"
	"github.com/iurnickita/printshop/internal/service/messenger"
	"github.com/iurnickita/printshop/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.MustRegister(nil)

	// кэш отчётов необязателен
	cache := &report.Cache{TTL: cfg.Service.ReportTTL}
	if cfg.Service.RedisAddr != "" {
		cache.R = redis.NewClient(&redis.Options{Addr: cfg.Service.RedisAddr})
		defer cache.R.Close()
		if err := cache.R.Ping(ctx).Err(); err != nil {
			zaplog.Warn("report cache disabled", zap.String("redis", cfg.Service.RedisAddr), zap.Error(err))
			cache.R = nil
		}
	}

	auth := auth.NewAuth(cfg.Auth, store, zaplog)
	service, err := service.NewService(cfg.Service, store, messenger.NewMessenger(cfg.Service.MessengerAddr), cache, zaplog)
	if err != nil {
		return err
	}

	zaplog.Info("server started", zap.String("address", cfg.Handler.ServerAddr))
	err = handler.Serve(ctx, cfg.Handler, auth, service, zaplog)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
