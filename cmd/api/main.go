package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pepsfoods/checkout-backend/internal/config"
	"github.com/pepsfoods/checkout-backend/internal/db"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/server"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logg := logger.New(cfg.LogLevel)
	defer logg.Sync()

	conn, err := db.Connect(cfg)
	if err != nil {
		logg.Error("db connect error", "error", err)
		os.Exit(1)
	}
	if err := conn.AutoMigrate(
		&model.Profile{},
		&model.PointsEntry{},
		&model.Vendor{},
		&model.PickupLocation{},
		&model.Address{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
	); err != nil {
		logg.Error("auto migrate error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logg.Error("redis connect error", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, conn, rdb, logg)
	if err != nil {
		logg.Error("server init error", "error", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server", "addr", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		logg.Error("server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Error("shutdown error", "error", err)
		}
	}
}
