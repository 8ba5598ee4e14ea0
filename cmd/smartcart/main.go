package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/analytics"
	"smartcart-backend/internal/api"
	"smartcart-backend/internal/cart"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/config"
	"smartcart-backend/internal/metrics"
	"smartcart-backend/internal/recommend"
	"smartcart-backend/internal/storage"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log := logrus.New()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		exitCode = 1
		return
	}
	if err := setupLogger(log, cfg.Log); err != nil {
		log.WithError(err).Error("invalid log settings")
		exitCode = 1
		return
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("smartcart stopped")
		exitCode = 1
	}
}

func setupLogger(log *logrus.Logger, cfg config.Log) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", cfg.Level)
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := storage.New(cfg.Storage.Driver)
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	err = driver.Connect(connectCtx, storage.Options{DSN: cfg.Storage.DSN, Database: cfg.Storage.Database})
	cancel()
	if err != nil {
		return errors.Wrapf(err, "connect %s", cfg.Storage.Driver)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := driver.Close(closeCtx); err != nil {
			log.WithError(err).Warn("storage close failed")
		}
	}()
	log.WithField("driver", cfg.Storage.Driver).Info("storage connected")

	storageTimeout, err := cfg.Storage.TimeoutDuration()
	if err != nil {
		return err
	}
	products, err := openCatalog(ctx, cfg.Storage, driver, storageTimeout)
	if err != nil {
		return err
	}

	aiTimeout, err := cfg.AI.TimeoutDuration()
	if err != nil {
		return err
	}
	latency := metrics.NewRecorder()
	ai := recommend.NewAIClient(recommend.AIConfig{
		URL:         cfg.AI.URL,
		APIKey:      cfg.AI.APIKey,
		Timeout:     aiTimeout,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	}, log, latency)
	if !ai.Configured() {
		log.Info("AI endpoint not configured, recommendations use rules only")
	}

	carts := cart.NewStore(products, driver.Carts(), log, cart.WithStorageTimeout(storageTimeout))
	server := api.NewServer(api.Deps{
		Catalog:     products,
		Carts:       carts,
		Analytics:   analytics.NewAggregator(carts, products, log),
		Recommend:   recommend.NewService(products, ai, cfg.Recommend.Threshold, log),
		Search:      ai,
		Latency:     latency,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("smartcart listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

// openCatalog serves the demo products from memory for the memory driver and
// reads them from the store otherwise, seeding first when asked to.
func openCatalog(ctx context.Context, cfg config.Storage, driver storage.Driver, timeout time.Duration) (catalog.Provider, error) {
	if cfg.Driver == "memory" {
		return catalog.NewStatic(catalog.DemoProducts()), nil
	}
	if cfg.SeedDemo {
		seedCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := catalog.Seed(seedCtx, driver.Products(), catalog.DemoProducts()); err != nil {
			return nil, errors.Wrap(err, "seed demo catalog")
		}
	}
	return catalog.NewStored(driver.Products(), timeout), nil
}
