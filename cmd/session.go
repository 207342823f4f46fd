package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/metrics"
	"github.com/spigell/hh-screener/internal/screening"
	"github.com/spigell/hh-screener/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored screening sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a stored session as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showSession(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)

	sessionShowCmd.Flags().Bool("reveal", false, "print contact details without masking")
}

func showSession(cmd *cobra.Command, id string) {
	ctx := context.Background()

	logger, err := logger.NewTo(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st, cleanup, err := newStore(ctx, config.Store, logger, metrics.Nop{})
	if err != nil {
		logger.Fatal("opening the session store", zap.Error(err))
	}
	defer cleanup()

	rec, err := st.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		logger.Fatal("session not found", zap.String("session_id", id))
	}
	if err != nil {
		logger.Fatal("loading session", zap.String("session_id", id), zap.Error(err))
	}

	if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
		rec = screening.Sanitize(rec)
	}

	// do not bother error since a loaded record is always encodable
	pretty, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(pretty))
}
