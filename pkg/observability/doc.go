/*
Package observability turns driver lifecycle events into metrics and logs.

Both Metrics.Hooks and LogHooks return domain.LifecycleHooks that can be
merged and handed to the engine with cartwise.WithLifecycleHooks.
*/
package observability
