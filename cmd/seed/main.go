package main

import (
	"context"
	"os"

	"github.com/Domenick1991/surgefare/config"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/repository"
	"github.com/Domenick1991/surgefare/internal/seed"
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

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer store.Close()

	n, err := seed.Run(ctx, store)
	if err != nil {
		logrus.WithError(err).Fatal("seeding failed")
	}
	logrus.WithField("flights", n).Info("database seeded")
}
