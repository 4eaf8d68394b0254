/*
Package vectorstore is the append-only on-disk embedding matrix: a
dense N×D float32 file and a parallel length-N int64 id file, plus a
small header recording the last consistent row count.

Crash-consistency: Append writes new rows to both data files, fsyncs
them, then atomically rewrites the header (temp file + rename, the
same pattern cartographus and the rest of the pack use for any
file the process must not observe half-written). If the process dies
between the data writes and the header update, the data files are
longer than the header claims; Load detects this and truncates both
back to the header's row count, so "torn write" degrades to "the last
append never happened" rather than a read of corrupt data. This is
option (b) from spec.md §9: the relational store is never rewritten.
Load returns no error when it truncates, and no caller compares the
vector count with the fingerprint rows, so fingerprint rows whose
vectors were dropped stay in the metadata store with no vector.
*/
package vectorstore
