package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/lingua/internal/ai"
	"github.com/example/lingua/internal/bot"
	"github.com/example/lingua/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the reminder scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		deps := bot.Deps{
			Reviewer: a.review,
			Users:    a.users,
			Topics:   a.topics,
			Words:    a.words,
			Importer: a.importer,
		}
		if a.cfg.OpenAIAPIKey != "" {
			examples, err := ai.New(ai.Config{
				APIKey:  a.cfg.OpenAIAPIKey,
				BaseURL: a.cfg.OpenAIBaseURL,
				Model:   a.cfg.OpenAIModel,
			})
			if err != nil {
				return err
			}
			deps.Examples = examples
		}

		b, err := bot.New(a.cfg.TelegramToken, deps, bot.Options{
			AdminUserIDs:    a.cfg.AdminUserIDs,
			WordsPerSession: a.cfg.WordsPerSession,
		}, a.log.With("component", "bot"))
		if err != nil {
			return err
		}
		if err := b.Connect(); err != nil {
			return err
		}

		if a.cfg.SchedulerEnabled {
			s := scheduler.New(a.users, a.review, b, scheduler.Options{
				StartHour: a.cfg.NotificationStartHour,
				EndHour:   a.cfg.NotificationEndHour,
			}, a.log.With("component", "scheduler"))
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
		}

		a.log.Info("Bot started. Press Ctrl+C to stop.")
		if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.log.Info("Bot stopped successfully")
		return nil
	},
}
