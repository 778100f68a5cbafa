package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/cache"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/notifier"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-commerce-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	log.SetFormatter(&log.JSONFormatter{})
	log.WithField("port", cfg.Server.Port).Info("Starting commerce-service")

	db, err := initDatabase(cfg)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}
	defer db.Close()

	cacheStore := cache.NewRedisStore(cfg.Redis)
	defer cacheStore.Close()
	versions := cache.NewVersionRegistry(cacheStore)

	m := metrics.New()

	productRepo := repository.NewPostgresProductRepository(db)
	orderRepo := repository.NewPostgresOrderRepository(db)

	eventPublisher := events.NewKafkaPublisher(cfg.Kafka)
	defer eventPublisher.Close()

	orderService := service.NewOrderService(orderRepo, productRepo, cacheStore, versions, eventPublisher, m, cfg)
	productService := service.NewProductService(productRepo, cacheStore, versions, m, cfg)

	h := handlers.New(orderService, productService)
	srv := server.New(h, cfg)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err.Error()).Fatal("Server failed to start")
		}
	}()

	shipmentClient := clients.NewHTTPShipmentClient(cfg.Webhook)
	retryCfg := notifier.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.Webhook.MaxAttempts
	retryCfg.InitialDelay = cfg.Webhook.InitialDelay
	orderNotifier := notifier.New(orderRepo, shipmentClient, retryCfg, m)

	eventConsumer := events.NewKafkaConsumer(cfg.Kafka, orderNotifier)
	go func() {
		if err := eventConsumer.Start(context.Background()); err != nil && err != context.Canceled {
			log.WithField("error", err.Error()).Error("Event consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eventConsumer.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("Database connected")

	return db, nil
}
