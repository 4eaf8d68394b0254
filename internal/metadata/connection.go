package metadata

import (
	"runtime"
	"strings"
	"time"
)

// configureConnectionPool sets pool parameters matching cartographus's
// internal/database: NumCPU open connections, a small idle pool, and
// bounded connection lifetimes so a long-running process doesn't hold
// stale DuckDB handles across file moves or disk issues.
func (s *Store) configureConnectionPool() {
	s.db.SetMaxOpenConns(runtime.NumCPU())
	s.db.SetMaxIdleConns(2)
	s.db.SetConnMaxLifetime(time.Hour)
	s.db.SetConnMaxIdleTime(5 * time.Minute)
}

// isConnectionError reports whether err indicates the DuckDB connection
// was lost rather than a query failing on its own terms.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "sql: database is closed")
}

// isTransactionConflict reports whether err is a DuckDB transaction
// conflict, which is safe to retry.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "cannot update a table that has been altered")
}

// isInternalError reports whether err is a DuckDB INTERNAL error, which
// this repo also treats as transient since it is typically the result
// of contention rather than a malformed query.
func isInternalError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "INTERNAL Error")
}

// isTransientDBError reports whether err should be retried by the
// caller (wrapped in apperr.Transient) rather than treated as a
// permanent failure.
func isTransientDBError(err error) bool {
	return isConnectionError(err) || isTransactionConflict(err) || isInternalError(err)
}
