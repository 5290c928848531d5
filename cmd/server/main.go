// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/stardeal/internal/auth"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/jason-s-yu/stardeal/internal/config"
	"github.com/jason-s-yu/stardeal/internal/handlers"
	"github.com/jason-s-yu/stardeal/internal/metrics"
	"github.com/jason-s-yu/stardeal/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stardeal-server",
	Short: "Serve stardeal rooms over HTTP and websockets",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
	rootCmd.Flags().String("rules", "", "YAML house rules file (overrides HOUSE_RULES_FILE)")
	rootCmd.Flags().Bool("no-redis", false, "Run without the action log and pending action snapshots")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if rules, _ := cmd.Flags().GetString("rules"); rules != "" {
		cfg.HouseRulesFile = rules
	}

	logger := logrus.New()
	logger.SetLevel(cfg.Level())

	sessions, err := newSessions(cfg)
	if err != nil {
		return err
	}

	rec := metrics.New(prometheus.DefaultRegisterer)
	srv := handlers.NewRoomServer(logger, sessions, rec)
	if cfg.HouseRulesFile != "" {
		rules, err := room.LoadHouseRules(cfg.HouseRulesFile)
		if err != nil {
			return err
		}
		srv.Rules = rules
		logger.WithField("file", cfg.HouseRulesFile).Info("loaded house rules")
	}

	if noRedis, _ := cmd.Flags().GetBool("no-redis"); !noRedis {
		if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return err
		}
		defer cache.Rdb.Close()
		srv.ActionLog = cache.NewActionLog(cache.Rdb, cfg.QueueName)
		srv.Snapshots = cache.NewSnapshotStore(cache.Rdb, cfg.SnapshotTTL)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", srv.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)

	case sig := <-shutdown:
		logger.WithField("signal", sig).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("graceful shutdown did not complete")
			return server.Close()
		}
		return nil
	}
}

// newSessions loads the signing keys when configured, else generates a pair
// that lives as long as the process.
func newSessions(cfg config.Config) (*auth.Sessions, error) {
	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		return auth.NewSessionsFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenExpire)
	}
	return auth.NewSessions(cfg.TokenExpire)
}
