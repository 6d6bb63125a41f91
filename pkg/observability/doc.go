/*
Package observability exports Prometheus collectors for the Taiga bridge:
outbound request counts and latency, retry and rate-limit counters, and
session lifecycle gauges. The collectors are optional everywhere they are
accepted; a nil *Metrics is a no-op.
*/
package observability
