// Package cli assembles the bartender process from its configuration: the
// logger, the adapters behind every port, the metrics registry and the Bot.
// Commands under cmd/bartender share one Stack per invocation.
package cli
