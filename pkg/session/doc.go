/*
Package session serializes access to conversation states.

The progression engine assumes each state is exclusively owned by one call at
a time. Manager provides that guarantee per session ID with reference-counted
local mutexes, optionally backed by a distributed lock so several replicas can
share a Redis state store.
*/
package session
