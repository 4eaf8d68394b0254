/*
Package vectormatch finds, for each query embedding, the top-K most
cosine-similar vectors in the in-memory fingerprint matrix.

Matcher.Match is a direct translation of
original_source/search/vector_matcher.py's VectorMatcher.match: L2-
normalize both sides, take the dot product (cosine similarity once
normalized), and sort each query row's scores to take its top K. Building a
production ANN index is an explicit Non-goal (spec.md §1); this is
exact, brute-force cosine over a plain []float32 matrix, matching the
original's scale.
*/
package vectormatch
