/*
Package cache provides a thread-safe, TTL-aware LRU cache.

The archive-follower uses it to remember the most recently resolved
media URL for a VOD (avoiding a fresh yt-dlp resolution on every chunk)
without hand-rolling a single-slot cache with its own locking.

Get/Add/Remove are O(1): a doubly-linked list tracks recency, a map
gives O(1) lookup, and entries carry their own expiry so eviction needs
no background goroutine.
*/
package cache
