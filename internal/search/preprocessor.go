package search

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

// FFmpegPreprocessor converts an uploaded clip to 16 kHz mono WAV
// under a dedicated temp dir via ffmpeg, mirroring
// original_source/search/query_preprocessor.py's QueryPreprocessor.
type FFmpegPreprocessor struct {
	tempDir string
}

// NewPreprocessor returns an FFmpegPreprocessor writing under tempDir,
// creating it if necessary.
func NewPreprocessor(tempDir string) (*FFmpegPreprocessor, error) {
	if tempDir == "" {
		return nil, apperr.FatalConfigf("search: temp dir is required")
	}
	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, apperr.Transientf("search: create temp dir: %w", err)
	}
	return &FFmpegPreprocessor{tempDir: tempDir}, nil
}

// Prepare converts clipPath to a uuid-named 16 kHz mono WAV under the
// preprocessor's temp dir and returns its path. The caller is
// responsible for calling Cleanup on the returned path.
func (p *FFmpegPreprocessor) Prepare(ctx context.Context, clipPath string) (string, error) {
	if _, err := os.Stat(clipPath); err != nil {
		return "", apperr.Inputf("search: query clip not found: %s", clipPath)
	}

	outputPath := filepath.Join(p.tempDir, fmt.Sprintf("query_%s.wav", uuid.NewString()))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", clipPath,
		"-ar", "16000",
		"-ac", "1",
		"-y", outputPath,
		"-loglevel", "error",
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg failed to preprocess query"
		}
		return "", apperr.Inputf("search: %s", msg)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", apperr.Inputf("search: ffmpeg produced no output for query clip")
	}
	return outputPath, nil
}

// Cleanup removes a prepared WAV file, ignoring a missing file.
func (p *FFmpegPreprocessor) Cleanup(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}
