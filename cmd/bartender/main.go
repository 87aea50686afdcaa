// Command bartender chats with, serves and administers the bartender bot.
package main

func main() {
	Execute()
}
