package main

import (
	"os"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/internal/cli"
	"github.com/aretw0/bartender/internal/presentation/tui"
	"github.com/aretw0/bartender/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	Long: `Starts an interactive conversation on standard input and output.
Type "exit" or "quit" to leave. With --json, every line read is one message
and every turn is answered with one JSON object.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		conversationID, _ := cmd.Flags().GetString("conversation")
		if conversationID == "" {
			conversationID = uuid.NewString()
		}
		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		asJSON, _ := cmd.Flags().GetBool("json")

		opts := []runner.Option{
			runner.WithLogger(stack.Logger),
			runner.WithConversation(conversationID, userID),
			runner.WithWelcome(name),
		}

		out := cmd.OutOrStdout()
		if asJSON {
			opts = append(opts, runner.WithInputHandler(runner.NewJSONHandler(cmd.InOrStdin(), out)))
		} else {
			var render runner.ContentRenderer
			if runner.IsTerminal(os.Stdout) {
				width, _, _ := term.GetSize(int(os.Stdout.Fd()))
				render = tui.NewRenderer(width)
				tui.PrintBanner(out, bartender.Version)
			}
			opts = append(opts, runner.WithInputHandler(runner.NewTextHandler(cmd.InOrStdin(), out,
				runner.WithTextHandlerRenderer(render),
			)))
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		stack.Logger.Debug("chat started", "conversation_id", conversationID, "user_id", userID)
		return runner.NewRunner(stack.Bot, opts...).Run(sc)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("conversation", "", "Conversation to resume (a new one by default)")
	chatCmd.Flags().String("user", defaultUser(), "User the facts are remembered for")
	chatCmd.Flags().String("name", "", "Greet this member before the first message")
	chatCmd.Flags().Bool("json", false, "Read and write JSON lines instead of text")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "console"
}
