package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/surgefare/config"
	"github.com/Domenick1991/surgefare/internal/bootstrap"
	"github.com/Domenick1991/surgefare/internal/cache"
	"github.com/Domenick1991/surgefare/internal/kafka"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/repository"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/Domenick1991/surgefare/internal/service/flights"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer store.Close()

	var flightCache cache.FlightCache = cache.NewNoOpCache()
	if !cfg.Redis.Disabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL())
		if err := redisCache.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("redis unavailable, flight search cache disabled")
			_ = redisCache.Close()
		} else {
			flightCache = redisCache
		}
	}
	defer flightCache.Close()

	producer := newEventProducer(ctx, cfg.Kafka.Brokers)
	defer producer.Close()

	flightService := flights.NewFlightService(store, flightCache)
	bookingService := booking.NewBookingService(store,
		booking.WithPolicy(cfg.Pricing.Policy()),
		booking.WithWallet(cfg.Booking.Wallet()),
		booking.WithMaxAttempts(cfg.Booking.MaxReferenceAttempts),
		booking.WithCache(flightCache),
		booking.WithProducer(producer, booking.Topics{
			Bookings:      cfg.Kafka.BookingTopic,
			Notifications: cfg.Kafka.NotificationsTopic,
			Pricing:       cfg.Kafka.PricingTopic,
		}),
	)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
	logrus.Info("server stopped")
}

type eventProducer interface {
	booking.Producer
	Close() error
}

const kafkaCheckTimeout = 5 * time.Second

// newEventProducer falls back to dropping events when no broker answers, the
// same way the search cache falls back when Redis is down.
func newEventProducer(ctx context.Context, brokers []string) eventProducer {
	if len(brokers) == 0 {
		return kafka.NopProducer{}
	}
	producer := kafka.NewProducer(brokers)

	checkCtx, cancel := context.WithTimeout(ctx, kafkaCheckTimeout)
	defer cancel()
	if err := producer.CheckConnection(checkCtx); err != nil {
		logrus.WithError(err).WithField("brokers", brokers).Warn("kafka unavailable, booking events disabled")
		_ = producer.Close()
		return kafka.NopProducer{}
	}
	return producer
}
