package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/levelup_storefront/internal/apiclient"
	"github.com/Skotchmaster/levelup_storefront/internal/catalog"
	"github.com/Skotchmaster/levelup_storefront/internal/config"
	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/httpserver"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/mykafka"
	"github.com/Skotchmaster/levelup_storefront/internal/storage"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", "storefront")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	bus := events.New()
	api := apiclient.NewClient(cfg.APIURL, cfg.APITimeout)

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		producer.Forward(bus, logger, events.TopicSession, events.TopicCart, events.TopicCheckout)
		logger.Info("kafka_forwarding", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var searcher catalog.Searcher
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := catalog.NewESClient(esCtx, logger, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("es_disabled", "error", err)
		} else {
			s := catalog.NewESSearcher(es, cfg.ESIndex)
			if n, err := s.Sync(esCtx, api); err != nil {
				logger.Warn("es_sync_failed", "error", err)
			} else {
				logger.Info("es_synced", "products", n)
			}
			searcher = s
		}
		esCancel()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(httpserver.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
		ExposeHeaders:    []string{"X-CSRF-Token"},
	}))

	var csrf *httpserver.CSRFConfig
	if cfg.CSRFEnabled {
		c := httpserver.DefaultCSRFConfig()
		c.Secure = cfg.CookieSecure
		c.AllowedOrigins = cfg.CORSOrigins
		csrf = &c
	}

	httpserver.Register(e, &httpserver.Deps{
		Store:        &storage.GormRepo{DB: db},
		Remote:       api,
		Admin:        api,
		Catalog:      catalog.NewService(api, searcher),
		Bus:          bus,
		CookieSecure: cfg.CookieSecure,
		CSRF:         csrf,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	// No write timeout: /events holds its response open.
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("storefront stopped")
}
