package main

import (
	"strings"

	"github.com/spf13/cobra"

	"shop-assistant/internal/app"
	"shop-assistant/internal/domain"
	"shop-assistant/internal/usecase"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Run one conversation turn and print the replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			s, closeFn, err := opts.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			pipeline, err := app.Build(cmd.Context(), cfg, s, logger)
			if err != nil {
				return err
			}
			defer pipeline.Close() //nolint:errcheck

			out, err := pipeline.Turns.HandleTurn(cmd.Context(), usecase.TurnInput{
				UserID: userID,
				Text:   strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			for _, r := range out.Replies {
				printReply(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "local-user", "user id the turn is attributed to")
	return cmd
}

func printReply(cmd *cobra.Command, r domain.Reply) {
	cmd.Println(r.Text)
	for _, o := range r.Options {
		cmd.Printf("  [%s] -> %s\n", o.Label, o.Text)
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a user's logged turns, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			s, closeFn, err := opts.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			turns, err := s.ChatHistory(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			for _, t := range turns {
				cmd.Printf("%s\n> %s\n< %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"), t.Message, t.Reply)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum turns to print")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
