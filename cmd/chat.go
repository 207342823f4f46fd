package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spigell/hh-screener/internal/logger"
	"github.com/spigell/hh-screener/internal/metrics"
	"github.com/spigell/hh-screener/internal/screening"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptRetry = "Retry saving"
	PromptSkip  = "Continue without saving"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a screening session in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "resume a stored session by id")
}

func chat(cmd *cobra.Command) {
	ctx := context.Background()

	// stdout belongs to the conversation.
	logger, err := logger.NewTo(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	manager, cleanup, err := buildManager(ctx, config, logger, metrics.Nop{})
	if err != nil {
		logger.Fatal("building the session manager", zap.Error(err))
	}
	defer cleanup()

	var res screening.TurnResult
	if id := cmd.Flag("session").Value.String(); id != "" {
		res, err = manager.Resume(ctx, id)
	} else {
		res, err = manager.Start(ctx)
	}
	if err != nil {
		logger.Fatal("starting a session", zap.Error(err))
	}

	id := res.SessionID
	logger.Info("session opened", zap.String("session_id", id))
	printTurn(res)

	input := promptui.Prompt{Label: "You"}

	for !res.Ended {
		text, err := input.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			logger.Info("exiting", zap.String("reason", "interrupted"), zap.String("session_id", id))
			if err := manager.Flush(ctx, id); err != nil {
				logger.Warn("saving session before exit", zap.Error(err))
			}
			return
		}
		if err != nil {
			logger.Fatal("reading input", zap.Error(err))
		}

		res, err = manager.Submit(ctx, id, text)
		if err != nil {
			logger.Fatal("handling a message", zap.Error(err))
		}
		printTurn(res)

		if res.Warning != "" {
			retrySave(ctx, manager, id, logger)
		}
	}

	logger.Info("session finished", zap.String("session_id", id))
}

func printTurn(res screening.TurnResult) {
	fmt.Printf("[%s | %d%%] %s\n", res.StageTag, res.Progress, res.Message)
}

// retrySave asks whether to retry a failed save until it succeeds or the
// candidate skips.
func retrySave(ctx context.Context, manager *screening.Manager, id string, logger *zap.Logger) {
	prompt := promptui.Select{
		Label: "Your progress was not saved",
		Items: []string{PromptRetry, PromptSkip},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil || action == PromptSkip {
			return
		}

		err = manager.Flush(ctx, id)
		if err == nil || errors.Is(err, screening.ErrSessionNotFound) {
			logger.Info("session saved", zap.String("session_id", id))
			return
		}
		logger.Warn("saving session", zap.Error(err))
	}
}
