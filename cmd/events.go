/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lidercheck/apiserver/internal/mq"
	"github.com/lidercheck/apiserver/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow line-stop events published by the server",
	Long: `Subscribes to the line-stop channel of the configured broker and logs
every event until interrupted. Requires MQ_BACKEND.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		subscriber := mq.NewLineStopChannel(broker, cfg.MQ.Channel)
		err = subscriber.SubscribeLineStops(ctx, func(_ context.Context, event types.LineStopEvent) error {
			logger.Info("line stop event",
				zap.String("kind", event.Kind),
				zap.String("id", event.ID),
				zap.String("line", event.Line),
				zap.String("status", string(event.Status)),
				zap.String("user_id", event.UserID),
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
