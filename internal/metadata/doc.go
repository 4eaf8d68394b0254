/*
Package metadata is the relational store of record: creators, videos,
fingerprints, and the per-archive live-ingest cursor. It wraps DuckDB
through database/sql the same way cartographus's internal/database
package does, narrowed to this domain's four tables and operations.

Every exported method returns an apperr-classified error: connection
loss and transaction conflicts are Transient (the archive-follower and
monitor supervisor retry them), everything else is passed through
unwrapped for the caller to classify.
*/
package metadata
