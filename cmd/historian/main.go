// cmd/historian/main.go

// The historian drains the room action queue from redis into postgres and
// marks idle rooms abandoned.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/jason-s-yu/stardeal/internal/config"
	"github.com/jason-s-yu/stardeal/internal/database"
	"github.com/jason-s-yu/stardeal/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logrus.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx, database.DB); err != nil {
		logrus.WithError(err).Fatal("schema setup failed")
	}

	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logrus.WithError(err).Fatal("redis unavailable")
	}
	defer cache.Rdb.Close()

	svc := historian.New(
		cache.NewActionLog(cache.Rdb, cfg.QueueName),
		historian.PostgresSink{DB: database.DB},
		historian.Options{
			BatchSize:     cfg.HistorianBatchSize,
			FlushInterval: cfg.HistorianFlush,
			Inactivity:    cfg.RoomInactivity,
			Log:           logrus.WithField("component", "historian"),
		},
	)
	svc.Run(ctx)
	logrus.Info("historian shutdown complete")
}
