// Command searchclip runs SearchService.SearchFile against a local
// clip and prints the result as JSON, the Go analogue of
// original_source/runners/run_search_clip.py.
//
// Usage:
//
//	searchclip -clip=/path/to/clip.mp4
//
// Exit codes match the Python runner: 0 when the clip is found, 1
// when it is not, 2 on any other error.
package main
