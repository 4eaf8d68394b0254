package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/cache"
)

const sampleRateHz = 16000

// Extractor cuts 16 kHz mono WAV windows out of a Twitch VOD by
// shelling out to yt-dlp (media URL resolution) and ffmpeg
// (extraction), mirroring
// original_source/sources/live_archive_vod_source.py's
// _extract_chunk/_resolve_media_url.
type Extractor struct {
	tempDir string

	urlCache *cache.LRUCache
	sf       singleflight.Group
}

// NewExtractor returns an Extractor that writes chunks under tempDir
// and caches resolved media URLs for urlCacheTTL.
func NewExtractor(tempDir string, urlCacheTTL time.Duration) (*Extractor, error) {
	if tempDir == "" {
		return nil, apperr.FatalConfigf("media: temp dir is required")
	}
	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, apperr.Transientf("media: create temp dir: %w", err)
	}
	return &Extractor{
		tempDir:  tempDir,
		urlCache: cache.NewLRUCache(64, urlCacheTTL),
	}, nil
}

// resolveMediaURL returns the playable media URL for vodURL, caching
// the result and collapsing concurrent resolutions of the same VOD
// into a single yt-dlp invocation.
func (e *Extractor) resolveMediaURL(ctx context.Context, vodURL string) (string, error) {
	if cached, ok := e.urlCache.Get(vodURL); ok {
		return cached, nil
	}

	v, err, _ := e.sf.Do(vodURL, func() (any, error) {
		if cached, ok := e.urlCache.Get(vodURL); ok {
			return cached, nil
		}

		cmd := exec.CommandContext(ctx, "yt-dlp", "-g", vodURL)
		out, err := cmd.Output()
		if err != nil {
			return nil, apperr.Transientf("media: yt-dlp failed for %s: %w", vodURL, exitErr(err))
		}

		mediaURL := firstNonEmptyLine(string(out))
		if mediaURL == "" {
			return nil, apperr.Transientf("media: yt-dlp returned no media URL for %s", vodURL)
		}

		e.urlCache.Add(vodURL, mediaURL)
		return mediaURL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// invalidate forces the next resolveMediaURL call for vodURL to
// re-run yt-dlp, used after an ffmpeg extraction fails against a
// possibly-expired signed URL.
func (e *Extractor) invalidate(vodURL string) {
	e.urlCache.Remove(vodURL)
}

// ExtractChunk cuts [startSeconds, startSeconds+durationSeconds) out
// of vodURL into a 16 kHz mono WAV file under the extractor's temp
// dir, returning its path. On the first ffmpeg failure the cached
// media URL is invalidated and re-resolved once before giving up,
// matching the original's single-retry behavior.
func (e *Extractor) ExtractChunk(ctx context.Context, vodPlatformID, vodURL string, startSeconds, durationSeconds int) (string, error) {
	if durationSeconds <= 0 {
		return "", apperr.Inputf("media: duration_seconds must be positive")
	}
	if vodURL == "" {
		return "", apperr.Inputf("media: vod url is required")
	}

	outputPath := filepath.Join(e.tempDir, fmt.Sprintf("vod_%s_%08d_%04d.wav", vodPlatformID, startSeconds, durationSeconds))

	mediaURL, err := e.resolveMediaURL(ctx, vodURL)
	if err != nil {
		return "", err
	}

	if err := e.runFFmpeg(ctx, mediaURL, startSeconds, durationSeconds, outputPath); err != nil {
		e.invalidate(vodURL)
		mediaURL, err = e.resolveMediaURL(ctx, vodURL)
		if err != nil {
			return "", err
		}
		if err := e.runFFmpeg(ctx, mediaURL, startSeconds, durationSeconds, outputPath); err != nil {
			return "", apperr.Transientf("media: extract vod chunk: %w", err)
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "", apperr.Transientf("media: extracted chunk %s is missing or empty", outputPath)
	}
	return outputPath, nil
}

func (e *Extractor) runFFmpeg(ctx context.Context, mediaURL string, startSeconds, durationSeconds int, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%d", startSeconds),
		"-i", mediaURL,
		"-t", fmt.Sprintf("%d", durationSeconds),
		"-ar", fmt.Sprintf("%d", sampleRateHz),
		"-ac", "1",
		"-y",
		outputPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg failed"
		}
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if candidate := strings.TrimSpace(line); candidate != "" {
			return candidate
		}
	}
	return ""
}

// exitErr narrows an *exec.ExitError down to its stderr for a
// readable error message, falling back to err itself.
func exitErr(err error) error {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return fmt.Errorf("%s", strings.TrimSpace(string(ee.Stderr)))
	}
	return err
}
