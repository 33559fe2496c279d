package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kelvins/geocoder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/watch-bridge/internal/api/http"
	"github.com/i474232898/watch-bridge/internal/config"
	"github.com/i474232898/watch-bridge/internal/dispatcher"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/logger"
	"github.com/i474232898/watch-bridge/internal/scheduler"
	"github.com/i474232898/watch-bridge/internal/store"
	"github.com/i474232898/watch-bridge/internal/ticker"
	"github.com/i474232898/watch-bridge/internal/weather"
	"github.com/i474232898/watch-bridge/internal/weather/providers"
)

const positionCacheKey = "watch-bridge:position"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = lg.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker).
	weatherSvc := weather.NewService(lg.Named("weather"),
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL),
		providers.NewYahooProvider(httpClient, cfg.YahooPlacesAPIKey, cfg.YahooBaseURL),
	)
	tickerProvider := ticker.NewCoinMarketCapProvider(httpClient, cfg.TickerBaseURL)

	// Last known position: Redis when configured, otherwise in-process.
	var positions geo.Cache = geo.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		positions = geo.NewRedisCache(rdb, positionCacheKey, cfg.PositionMaxAge)
		lg.Info("position cache: redis", zap.String("addr", cfg.RedisAddr))
	}

	var fallback geo.Locator = geo.StaticLocator{
		Position: geo.Position{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude},
	}
	if cfg.UsesGeocoder() {
		fallback = geo.NewAddressLocator(cfg.GeocoderAPIKey, geocoder.Address{
			City:    cfg.GeocoderAddressCity,
			Country: cfg.GeocoderAddressCountry,
		})
	}
	locator := geo.NewCachingLocator(positions, fallback, lg.Named("geo"))

	// Pipelines run until shutdown, independent of the HTTP request that started them.
	baseCtx, cancelPipelines := context.WithCancel(context.Background())
	defer cancelPipelines()

	d := dispatcher.New(baseCtx, lg.Named("dispatcher"), weatherSvc, tickerProvider, locator, cfg.PositionOptions())
	outbox := store.NewOutbox(cfg.OutboxMaxHistory, cfg.OutboxMaxAge)

	// Scheduler that keeps a fresh reply queued for the configured watch.
	sched := scheduler.New(scheduler.Options{
		DeviceID: cfg.RefreshDeviceID,
		Interval: cfg.RefreshInterval,
		Defaults: cfg.Defaults(),
		Quiet:    cfg.QuietWindow(),
	}, d, outbox, lg.Named("scheduler"))
	if err := sched.Start(); err != nil {
		lg.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "watch-bridge",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "watch-bridge",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Dispatcher: d,
		Outbox:     outbox,
		Positions:  positions,
		Defaults:   cfg.Defaults(),
		Logger:     lg.Named("http"),
	})

	go func() {
		lg.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", zap.Error(err))
	}

	sched.Stop()
	cancelPipelines()
	d.Wait()
}
