/*
Package embed defines the audio embedder as a black box: Embed takes a
16 kHz mono WAV path and an absolute offset and returns one fixed-
dimension vector per second of audio, timestamped relative to offset.

Hosting or training the embedding model itself (original_source's
torch/transformers AST model in pipeline/embedder.py) is an explicit
Non-goal; this package only fixes the contract so the ingest session
and the search service can be built and tested against it.
*/
package embed
