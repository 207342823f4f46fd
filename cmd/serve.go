package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/hh-screener/internal/api"
	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve screening sessions over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-screener server", zap.String("version", buildVersion()))

	recorder := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)

	manager, cleanup, err := buildManager(ctx, config, logger, recorder)
	if err != nil {
		logger.Fatal("building the session manager", zap.Error(err))
	}
	defer cleanup()

	server := api.NewServer(manager, prometheus.DefaultGatherer, logger.Named("api"))
	if err := server.ListenAndServe(ctx, config.Listen); err != nil {
		logger.Error("serving", zap.Error(err))
		return
	}

	logger.Info("exiting", zap.Int("active_sessions", manager.Active()))
}
