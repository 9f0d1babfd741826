package main

import (
	"context"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/pkg/adapters/console"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the demo bot in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		conversation, _ := cmd.Flags().GetString("conversation")
		printer := console.NewPrinter(cmd.OutOrStdout())

		// One update at a time keeps replies in input order.
		rt, err := buildDemo(sc, cmd, botflow.WithSender(printer), botflow.WithConcurrency(1))
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = rt.Close(ctx)
		}()

		if fresh, _ := cmd.Flags().GetBool("reset"); fresh {
			if err := rt.Reset(sc, conversation); err != nil {
				return err
			}
		}

		printer.Banner("botflow demo")
		source := console.NewSource(cmd.InOrStdin(),
			console.WithConversationID(conversation),
			console.WithPrompt(printer.Prompt),
			console.WithSourceLogger(rt.Logger),
		)
		return rt.Bot.Run(sc, source)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("conversation", console.DefaultConversationID, "Conversation id to chat as")
	chatCmd.Flags().Bool("reset", false, "Start from the base state")
}
