/*
Package source implements the archive-follower: the hardest component
in the system (spec.md §4.3), producing an ordered stream of lag-safe
AudioChunks from a Twitch broadcast archive that grows over time,
resumable across process restarts.

ArchiveFollower is a direct Go translation of
original_source/sources/live_archive_vod_source.py's
LiveArchiveVODSource: the same INIT -> FOLLOWING -> FINISHED state
machine, the same commit-before-extract protocol that makes ingest
progress durable only after the caller has drained the previous chunk,
and the same single-retry media-URL extraction policy.
*/
package source
