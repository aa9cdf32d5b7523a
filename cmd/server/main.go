package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/resource-booking/internal/cache"
	"github.com/iliyamo/resource-booking/internal/config"
	"github.com/iliyamo/resource-booking/internal/database"
	"github.com/iliyamo/resource-booking/internal/handler"
	"github.com/iliyamo/resource-booking/internal/metrics"
	"github.com/iliyamo/resource-booking/internal/pricing"
	"github.com/iliyamo/resource-booking/internal/queue"
	"github.com/iliyamo/resource-booking/internal/repository"
	"github.com/iliyamo/resource-booking/internal/router"
	"github.com/iliyamo/resource-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // best-effort .env for local runs

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "resource-booking").Logger()

	cfg := config.Load()
	metrics.Register()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, booking cache disabled")
	}
	var bookingCache *cache.BookingCache
	if cfg.CacheEnabled {
		bookingCache = cache.New(rdb, cfg.CacheTTL, log)
	} else {
		bookingCache = cache.New(nil, cfg.CacheTTL, log)
	}

	publisher, err := queue.NewPublisher(cfg.AMQPURL, cfg.QueueName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("message broker connection failed")
	}
	defer publisher.Close()

	engine := service.NewBookingService(
		repository.NewBookingRepo(db),
		pricing.NewClient(cfg.ResourceServiceURL, cfg.PriceTimeout),
		publisher,
		bookingCache,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, handler.NewBookingHandler(engine), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
