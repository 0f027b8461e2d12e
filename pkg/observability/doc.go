/*
Package observability provides tools for monitoring the Abacus engine.

Everything here plugs into domain.LifecycleHooks: Prometheus metrics for key
traffic, finalized calculations and error-sentinel outcomes, and structured
logging of the same events. Combine chains several hook sets into one.
*/
package observability
