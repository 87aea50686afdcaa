/*
Package session serializes access to conversation sessions.

A bot replica may receive several messages for the same conversation at once
(double-clicks, webhook retries). The Manager guarantees that turns of one
conversation never interleave: a ref-counted local mutex per conversation ID,
optionally backed by a ports.DistributedLocker when several replicas share a store.
*/
package session
