package align

import (
	"context"
	"fmt"
	"math"

	"github.com/manofshad/vodhunter-go/internal/metadata"
)

// Config tunes the admission thresholds, per spec.md §4.5.
type Config struct {
	MinVoteCount int
	MinVoteRatio float64
}

// DefaultConfig matches original_source's AlignmentConfig defaults.
func DefaultConfig() Config {
	return Config{MinVoteCount: 3, MinVoteRatio: 0.08}
}

// Result is the alignment outcome, per spec.md §4.5's
// AlignmentResult{found, video_id?, timestamp_seconds?, score?,
// reason}.
type Result struct {
	Found            bool
	VideoID          int64
	TimestampSeconds int
	Score            float64
	Reason           string
}

// FingerprintResolver is the subset of metadata.Store the engine
// needs to turn neighbor ids into (video_id, timestamp) pairs.
type FingerprintResolver interface {
	GetFingerprintRows(ctx context.Context, ids []int64) ([]metadata.FingerprintRow, error)
}

// Engine votes on the (video, offset) a query clip most likely
// belongs to, per spec.md §4.5.
type Engine struct {
	resolver FingerprintResolver
	cfg      Config
}

// New returns an Engine using cfg's thresholds.
func New(resolver FingerprintResolver, cfg Config) *Engine {
	return &Engine{resolver: resolver, cfg: cfg}
}

type voteKey struct {
	videoID int64
	offset  int
}

// Align resolves neighborIDs (one row of K candidate fingerprint ids
// per query second) against queryTimestamps (the query second each
// row corresponds to) and returns the accepted (video, offset) or a
// rejection reason, per spec.md §4.5's voting algorithm.
func (e *Engine) Align(ctx context.Context, neighborIDs [][]int64, queryTimestamps []float64) (Result, error) {
	if len(neighborIDs) == 0 {
		return Result{Found: false, Reason: "No nearest neighbors found"}, nil
	}
	if len(queryTimestamps) == 0 {
		return Result{Found: false, Reason: "Query had no timestamps"}, nil
	}
	if len(neighborIDs) != len(queryTimestamps) {
		return Result{Found: false, Reason: "Neighbor/timestamp length mismatch"}, nil
	}

	seen := make(map[int64]struct{})
	var flatIDs []int64
	for _, row := range neighborIDs {
		for _, id := range row {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			flatIDs = append(flatIDs, id)
		}
	}

	rows, err := e.resolver.GetFingerprintRows(ctx, flatIDs)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{Found: false, Reason: "No fingerprint rows resolved"}, nil
	}

	idToRow := make(map[int64]metadata.FingerprintRow, len(rows))
	for _, r := range rows {
		idToRow[r.ID] = r
	}

	votes := make(map[voteKey]int)
	var order []voteKey

	for i, row := range neighborIDs {
		qTime := queryTimestamps[i]
		for _, fpID := range row {
			resolved, ok := idToRow[fpID]
			if !ok {
				continue
			}
			offset := int(math.Round(resolved.TimestampSeconds - qTime))
			key := voteKey{videoID: resolved.VideoID, offset: offset}
			if _, exists := votes[key]; !exists {
				order = append(order, key)
			}
			votes[key]++
		}
	}

	if len(votes) == 0 {
		return Result{Found: false, Reason: "No alignment candidates"}, nil
	}

	// First-seen wins ties, matching Counter.most_common's
	// insertion-order-stable behavior in the original.
	var best voteKey
	bestVotes := 0
	for _, key := range order {
		if votes[key] > bestVotes {
			bestVotes = votes[key]
			best = key
		}
	}

	voteRatio := float64(bestVotes) / float64(len(queryTimestamps))

	if bestVotes < e.cfg.MinVoteCount {
		return Result{
			Found:  false,
			Reason: fmt.Sprintf("Best candidate vote count %d is below min_vote_count %d", bestVotes, e.cfg.MinVoteCount),
		}, nil
	}
	if voteRatio < e.cfg.MinVoteRatio {
		return Result{
			Found:  false,
			Reason: fmt.Sprintf("Best candidate vote ratio %.3f is below min_vote_ratio %.3f", voteRatio, e.cfg.MinVoteRatio),
		}, nil
	}

	return Result{
		Found:            true,
		VideoID:          best.videoID,
		TimestampSeconds: best.offset,
		Score:            voteRatio,
		Reason:           fmt.Sprintf("Accepted with %d votes (%.3f ratio)", bestVotes, voteRatio),
	}, nil
}
