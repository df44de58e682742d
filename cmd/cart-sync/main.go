package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pankajkarki11/swoo-cart-sync/internal/clients"
	"github.com/pankajkarki11/swoo-cart-sync/internal/config"
	"github.com/pankajkarki11/swoo-cart-sync/internal/events"
	"github.com/pankajkarki11/swoo-cart-sync/internal/httpapi"
	"github.com/pankajkarki11/swoo-cart-sync/internal/logger"
	"github.com/pankajkarki11/swoo-cart-sync/internal/storage"
	"github.com/pankajkarki11/swoo-cart-sync/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	var kv storage.KV
	if cfg.DBPath != "" {
		sqliteKV, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal("open local store", zap.Error(err))
		}
		kv = sqliteKV
	} else {
		log.Warn("CART_DB_PATH is empty; cart will not survive restarts")
		kv = storage.NewMemory()
	}
	defer func() { _ = kv.Close() }()

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	cartAPI := clients.NewCartClient(clients.NewClient("cart-api", cfg.CartAPIURL, httpClient))
	productAPI := clients.NewProductClient(clients.NewClient("product-api", cfg.ProductAPIURL, httpClient))

	var pub store.Publisher
	if cfg.RabbitURL != "" {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatal("connect to rabbitmq", zap.Error(err))
		}
		defer conn.Close()

		rabbitPub, err := events.NewRabbitPublisher(conn, "cart-sync")
		if err != nil {
			log.Fatal("create event publisher", zap.Error(err))
		}
		defer func() { _ = rabbitPub.Close() }()
		pub = rabbitPub
	}

	st := store.New(store.Options{
		KV:            kv,
		Carts:         cartAPI,
		Products:      productAPI,
		Publisher:     pub,
		Logger:        log,
		SyncTimeout:   cfg.UpstreamTimeout,
		MinSyncWindow: cfg.SyncMinWindow,
	})
	defer st.Close()

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	snap, err := st.Load(loadCtx, cfg.UserID)
	cancelLoad()
	if err != nil {
		log.Warn("initial remote load degraded to local cart", zap.Error(err))
	}
	log.Info("cart loaded",
		zap.Int("lines", snap.Stats.UniqueProductCount),
		zap.Int("itemCount", snap.Stats.ItemCount),
		zap.String("userId", cfg.UserID))

	handler := httpapi.NewHandler(st, log)
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     httpapi.NewRouter(handler),
		ReadTimeout: 5 * time.Second,
		// No write timeout: /api/cart/events streams indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("cart-sync listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Fatal("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown", zap.Error(err))
	}
}
