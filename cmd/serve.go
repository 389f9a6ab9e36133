package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ranking"
	"github.com/spigell/ats-scorer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scorer over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	eng, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("preparing scorer", zap.Error(err))
	}

	var recorder server.Recorder
	store, err := openHistory(ctx, config, logger)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		recorder = store
	}

	srv := server.New(eng.scorer, ranking.NewRanker(eng.scorer, config.Rank.Workers, logger), recorder, logger)

	logger.Info("starting the ats-scorer", zap.String("version", version))
	if err := srv.Listen(ctx, config.Server.Listen); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}
