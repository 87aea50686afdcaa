package runner_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBot(t *testing.T, opts ...bartender.Option) *bartender.Bot {
	t.Helper()
	bot, err := bartender.New(append([]bartender.Option{bartender.WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return bot
}

func TestRunner_OrderConversation(t *testing.T) {
	bot := newBot(t)
	in := strings.NewReader("hi\nI want to order\nGuinness Draught\nWhiskey\nFries\nexit\nhi\n")
	var out bytes.Buffer

	r := runner.NewRunner(bot,
		runner.WithConversation("c1", "u1"),
		runner.WithInputHandler(runner.NewTextHandler(in, &out)),
	)
	require.NoError(t, r.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Howdy! How can I help you?")
	assert.Contains(t, got, "Your order of Guinness Draught and Whiskey with Fries is coming right up!")
	assert.Equal(t, 1, strings.Count(got, "Howdy!"), "input after exit is not processed")

	facts, err := bot.Facts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Guinness Draught", facts.LastOrderedBeerName)
}

func TestRunner_StopsWhenConversationEnds(t *testing.T) {
	bot := newBot(t)
	var out bytes.Buffer

	r := runner.NewRunner(bot,
		runner.WithConversation("c1", "u1"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("bye\nhi\n"), &out)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "Bye bye. See you soon!\n", out.String())

	s, err := bot.Inspect(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, s.Done())
	assert.Equal(t, 1, s.Turns)
}

func TestRunner_DoneConversation(t *testing.T) {
	bot := newBot(t)
	ctx := context.Background()
	_, err := bot.ProcessTurn(ctx, "c1", "u1", "bye")
	require.NoError(t, err)

	var out bytes.Buffer
	r := runner.NewRunner(bot,
		runner.WithConversation("c1", "u1"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("hi\n"), &out)),
	)
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, "[System] conversation is over\n", out.String())
}

func TestRunner_Welcome(t *testing.T) {
	bot := newBot(t, bartender.WithPhrasebook(domain.Phrasebook{Welcome: "Hey {name}!"}))
	var out bytes.Buffer

	r := runner.NewRunner(bot,
		runner.WithWelcome("Sam"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &out)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "Hey Sam!\n", out.String())
}

func TestRunner_Cancellation(t *testing.T) {
	bot := newBot(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r := runner.NewRunner(bot, runner.WithInputHandler(runner.NewTextHandler(pr, io.Discard)))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestRunner_JSON(t *testing.T) {
	bot := newBot(t)
	in := strings.NewReader(`"hi"` + "\n" + `{"text": "bye"}` + "\n")
	var out bytes.Buffer

	r := runner.NewRunner(bot, runner.WithInputHandler(runner.NewJSONHandler(in, &out)))
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t,
		`{"replies":[{"text":"Howdy! How can I help you?"}]}`+"\n"+
			`{"replies":[{"text":"Bye bye. See you soon!"}]}`+"\n",
		out.String())
}
