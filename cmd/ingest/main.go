package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manofshad/vodhunter-go/internal/config"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/ingest"
	"github.com/manofshad/vodhunter-go/internal/logging"
	"github.com/manofshad/vodhunter-go/internal/media"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/source"
	"github.com/manofshad/vodhunter-go/internal/twitch"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

const embeddingDim = 512

func main() {
	streamer := flag.String("streamer", "", "Twitch login name to ingest (required)")
	flag.Parse()

	logging.Init(logging.DefaultConfig())

	if *streamer == "" {
		fmt.Fprintln(os.Stderr, "ingest: -streamer is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	meta, err := metadata.Open(cfg.Data.MetadataDBPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open metadata store")
	}
	defer func() {
		if err := meta.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing metadata store")
		}
	}()
	if err := meta.Init(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize metadata schema")
	}

	vectors := vectorstore.New(cfg.Data.VectorFilePath, cfg.Data.IDFilePath)

	helixClient, err := twitch.NewHelixClient(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, 0)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to construct twitch client")
	}
	twitchClient := twitch.NewCircuitBreakerClient(helixClient)

	extractor, err := media.NewExtractor(cfg.Data.TempLiveDir, cfg.Ingest.MediaURLCacheTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to construct media extractor")
	}

	embedder := embed.NewFakeEmbedder(embeddingDim)

	follower := source.New(*streamer, meta, twitchClient, extractor, source.Config{
		ChunkSeconds:   cfg.Ingest.ChunkSeconds,
		LagSeconds:     cfg.Ingest.LagSeconds,
		PollInterval:   time.Duration(cfg.Ingest.PollSeconds) * time.Second,
		FinalizeChecks: cfg.Ingest.FinalizeChecks,
		TempDir:        cfg.Data.TempLiveDir,
	})

	session := ingest.New(follower, embedder, meta, vectors, 0, logging.WithComponent("ingest"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Starting live ingest for twitch.tv/%s\n", *streamer)
	fmt.Println("Press Ctrl+C to stop.")

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("ingest session ended with error")
		os.Exit(1)
	}
	fmt.Println("Stopped.")
}
