/*
Package metrics exposes Prometheus instrumentation for the ingest
pipeline, the alignment engine and the HTTP API via promauto-registered
collectors on the default registry. cmd/server mounts them at /metrics.
*/
package metrics
