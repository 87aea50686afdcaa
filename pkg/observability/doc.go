/*
Package observability turns the bot's lifecycle hooks into signals an operator can watch.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks;
LogHooks writes the same events to a structured logger. Both can be combined with
domain.ComposeHooks and handed to bartender.WithLifecycleHooks.
*/
package observability
