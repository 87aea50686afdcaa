/*
Package runner implements the chat loop between a terminal (or any line-based
stream) and a bartender conversation.

The Runner reads one message at a time from an IOHandler, runs it through the
Bot and hands the replies back to the handler. TextHandler renders replies for
people, with numbered options and Markdown beer cards; JSONHandler speaks JSON
Lines for scripts and tests.

# Usage

	r := runner.NewRunner(bot,
		runner.WithConversation("conversation-1", "user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
