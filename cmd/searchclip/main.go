package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/manofshad/vodhunter-go/internal/align"
	"github.com/manofshad/vodhunter-go/internal/config"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/logging"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/search"
	"github.com/manofshad/vodhunter-go/internal/vectormatch"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

const embeddingDim = 512

// searchClipResult mirrors run_search_clip.py's asdict(result) JSON shape.
type searchClipResult struct {
	Found            bool    `json:"found"`
	Streamer         string  `json:"streamer,omitempty"`
	VideoID          int64   `json:"video_id,omitempty"`
	VideoURL         string  `json:"video_url,omitempty"`
	Title            string  `json:"title,omitempty"`
	TimestampSeconds int     `json:"timestamp_seconds,omitempty"`
	Score            float64 `json:"score,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	Error            string  `json:"error,omitempty"`
}

func main() {
	os.Exit(run())
}

func run() int {
	clipPath := flag.String("clip", "", "Path to query clip (video or audio) (required)")
	flag.Parse()

	logging.Init(logging.DefaultConfig())

	if *clipPath == "" {
		fmt.Fprintln(os.Stderr, "searchclip: -clip is required")
		flag.Usage()
		return 2
	}

	result, err := searchFile(*clipPath)
	if err != nil {
		printResult(searchClipResult{Found: false, Error: err.Error()})
		return 2
	}

	printResult(result)
	if result.Found {
		return 0
	}
	return 1
}

func searchFile(clipPath string) (searchClipResult, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return searchClipResult{}, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return searchClipResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	meta, err := metadata.Open(cfg.Data.MetadataDBPath)
	if err != nil {
		return searchClipResult{}, fmt.Errorf("open metadata store: %w", err)
	}
	defer meta.Close()

	vectors := vectorstore.New(cfg.Data.VectorFilePath, cfg.Data.IDFilePath)
	embedder := embed.NewFakeEmbedder(embeddingDim)

	preprocessor, err := search.NewPreprocessor(cfg.Data.TempSearchDir)
	if err != nil {
		return searchClipResult{}, fmt.Errorf("construct preprocessor: %w", err)
	}
	matcher := vectormatch.New(cfg.Align.TopK)
	aligner := align.New(meta, align.Config{
		MinVoteCount: cfg.Align.MinVoteCount,
		MinVoteRatio: cfg.Align.MinVoteRatio,
	})

	// No Gate: this one-shot CLI runs outside the monitor supervisor, so
	// there is nothing to be blocked by, unlike the HTTP API's SearchClip.
	service := search.New(preprocessor, embedder, vectors, matcher, aligner, meta, nil)

	result, err := service.SearchFile(context.Background(), clipPath)
	if err != nil {
		return searchClipResult{}, err
	}

	return searchClipResult{
		Found:            result.Found,
		Streamer:         result.Streamer,
		VideoID:          result.VideoID,
		VideoURL:         result.VideoURL,
		Title:            result.Title,
		TimestampSeconds: result.TimestampSeconds,
		Score:            result.Score,
		Reason:           result.Reason,
	}, nil
}

func printResult(result searchClipResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "searchclip: failed to marshal result: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
