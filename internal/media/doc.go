/*
Package media extracts fixed-length 16 kHz mono WAV windows from a
live or archived Twitch VOD, by shelling out to yt-dlp (to resolve the
VOD's playable media URL) and ffmpeg (to cut and resample the window).

The resolved media URL is cached for a short TTL via internal/cache,
since yt-dlp resolution is comparatively expensive and the
archive-follower calls Resolve/Extract once per chunk. A singleflight
group collapses concurrent resolutions for the same VOD URL into one
yt-dlp invocation.
*/
package media
