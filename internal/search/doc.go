/*
Package search implements the search service and its ingest gate
(spec.md §4.7): preprocess an uploaded clip to 16 kHz mono WAV, embed
it, load the vector index, match top-K neighbors, align, and resolve
the winning video's metadata.

Service.SearchFile is original_source/search/search_service.py's
SearchService.search_file translated directly, including its
try/finally-deleted temp WAV (here, a defer). Preprocessing mirrors
search/query_preprocessor.py's QueryPreprocessor: ffmpeg to 16 kHz
mono, a uuid-named file under a dedicated temp dir, deleted on every
exit path.

The gate — rejecting search while the monitor supervisor is not idle —
exists because internal/vectorstore's on-disk format is not
concurrent-append-safe (spec.md §5/§9): Service.SearchFile refuses to
run at all when CanSearch() is false, matching spec.md §4.7's
SearchBusy policy.
*/
package search
