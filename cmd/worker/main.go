package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/surgefare/config"
	"github.com/Domenick1991/surgefare/internal/cache"
	"github.com/Domenick1991/surgefare/internal/email"
	"github.com/Domenick1991/surgefare/internal/kafka"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/repository"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
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

	opts := []booking.BookingServiceOption{
		booking.WithPolicy(cfg.Pricing.Policy()),
		booking.WithWallet(cfg.Booking.Wallet()),
	}
	if !cfg.Redis.Disabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL())
		defer redisCache.Close()
		opts = append(opts, booking.WithCache(redisCache))
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts, booking.WithProducer(producer, booking.Topics{Pricing: cfg.Kafka.PricingTopic}))

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()
		emailSender := email.NewSender()

		g.Go(func() error {
			logrus.WithField("topic", cfg.Kafka.NotificationsTopic).Info("consuming booking notifications")
			return consumer.Consume(gctx, kafka.BookingHandler(emailSender.Send))
		})
	} else {
		logrus.Warn("no kafka brokers configured, booking notifications disabled")
	}

	bookingService := booking.NewBookingService(store, opts...)

	g.Go(func() error {
		return sweepSurges(gctx, bookingService, cfg.Worker.SurgeSweepInterval())
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("worker stopped")
	}
	logrus.Info("worker stopped")
}

// sweepSurges resets surged flights whose cooldown has elapsed, so prices
// fall back even when nobody books them.
func sweepSurges(ctx context.Context, svc booking.BookingUseCase, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reset, err := svc.ResetExpiredSurges(ctx)
			if err != nil {
				logrus.WithError(err).Error("reset expired surges")
				continue
			}
			if len(reset) > 0 {
				logrus.WithField("count", len(reset)).Info("surge prices reset")
			}
		case <-ctx.Done():
			return nil
		}
	}
}
