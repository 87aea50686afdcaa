/*
Package bartender is a durable, multi-turn dialog engine for a bar: it lets a user order a beer with a chaser and a side dish, or get a beer recommended by narrowing a catalog down step by step.

Each conversation is a stack of frames persisted between turns. The top frame waits for a message, a yes/no answer or a choice; the frames beneath it are suspended until the sub-dialog above them finishes. Because frames name their continuation instead of holding closures, a conversation resumes in any process that shares the store.

# Concept

The Bot owns the turn: it serializes messages of one conversation, loads the session and the user's facts, runs the engine and persists the outcome. Everything around it is a port with swappable adapters: session stores (memory, file, Redis, SQL), the beer catalog (embedded CSV data or a remote HTTP API), the intent classifier (keyword patterns or a remote NLU service), image search, and order publishing.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/bartender"
	)

	func main() {
		bot, err := bartender.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		for _, text := range []string{"hi", "I want to order", "Guinness Draught", "Whiskey", "Fries"} {
			replies, err := bot.ProcessTurn(ctx, "conversation-1", "user-1", text)
			if err != nil {
				log.Fatal(err)
			}
			for _, r := range replies {
				fmt.Println(r.Text)
			}
		}
	}
*/
package bartender
