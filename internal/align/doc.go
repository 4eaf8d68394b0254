/*
Package align implements the voting-based alignment engine: given the
top-K nearest-neighbor fingerprint ids for each second of a query clip,
decide which (video, offset) the clip most likely came from.

Engine.Align is a direct translation of
original_source/search/alignment_service.py's AlignmentService.align:
resolve neighbor ids to (video_id, db_timestamp) in one batch, vote on
(video_id, round(db_timestamp - query_timestamp)) buckets, accept the
highest-voted bucket if it clears both min_vote_count and
min_vote_ratio, per spec.md §4.5 and its scale-invariance property
(§8 invariant 5): a clip's acceptance does not depend on the absolute
timestamps involved, only on the consistency of the offset across
query seconds.
*/
package align
