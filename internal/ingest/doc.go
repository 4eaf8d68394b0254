/*
Package ingest drives an audio Source to completion: pull a chunk,
embed it, persist fingerprints and vectors, repeat — a direct Go
translation of original_source/pipeline/ingest_session.py's
IngestSession.run loop.

Fingerprints for window k are fully persisted (StoreFingerprints then
AppendVectors) before the source's next_chunk is called again, so the
archive-follower can safely commit window k's cursor on the following
call: this ordering is spec.md §4.4's durability guarantee, and Run
preserves it by never calling Source.NextChunk until the previous
chunk's writes have returned.
*/
package ingest
