package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manofshad/vodhunter-go/internal/align"
	"github.com/manofshad/vodhunter-go/internal/api"
	"github.com/manofshad/vodhunter-go/internal/config"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/logging"
	"github.com/manofshad/vodhunter-go/internal/media"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/monitor"
	"github.com/manofshad/vodhunter-go/internal/search"
	"github.com/manofshad/vodhunter-go/internal/supervisor"
	"github.com/manofshad/vodhunter-go/internal/twitch"
	"github.com/manofshad/vodhunter-go/internal/vectormatch"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

const embeddingDim = 512

func main() {
	logging.Init(logging.DefaultConfig())

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Info().
		Str("data_dir", cfg.Data.Dir).
		Int("server_port", cfg.Server.Port).
		Msg("starting vodhunter")

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

	// A real embedder proxies to the out-of-core AST model
	// (original_source/pipeline/embedder.py); hosting that model is an
	// explicit Non-goal, so the deterministic FakeEmbedder is the
	// production stand-in, per internal/embed's documented contract.
	embedder := embed.NewFakeEmbedder(embeddingDim)

	mon := monitor.New(twitchClient, embedder, extractor, meta, vectors, monitor.Config{
		ChunkSeconds:         cfg.Ingest.ChunkSeconds,
		LagSeconds:           cfg.Ingest.LagSeconds,
		FinalizeChecks:       cfg.Ingest.FinalizeChecks,
		FollowerPollInterval: time.Duration(cfg.Ingest.PollSeconds) * time.Second,
		MonitorPollInterval:  cfg.Ingest.MonitorPollInterval,
		MonitorRetryBackoff:  cfg.Ingest.MonitorRetryBackoff,
		TempDir:              cfg.Data.TempLiveDir,
	}, logging.WithComponent("monitor"))

	preprocessor, err := search.NewPreprocessor(cfg.Data.TempSearchDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to construct search preprocessor")
	}
	matcher := vectormatch.New(cfg.Align.TopK)
	aligner := align.New(meta, align.Config{
		MinVoteCount: cfg.Align.MinVoteCount,
		MinVoteRatio: cfg.Align.MinVoteRatio,
	})
	searchService := search.New(preprocessor, embedder, vectors, matcher, aligner, meta, mon)

	handler := api.NewHandler(mon, searchService, meta, cfg.Data.TempUploadDir)
	router := api.NewRouter(handler)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddIngestService(mon)
	tree.AddAPIService(newHTTPServerService(httpSrv, cfg.Server.WriteTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logging.Info().Str("addr", httpSrv.Addr).Msg("http server listening")
	if err := tree.Serve(ctx); err != nil {
		logging.Error().Err(err).Msg("supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("vodhunter shut down cleanly")
}
