package vectormatch

import (
	"math"
	"sort"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

// Matcher finds the top-K cosine-nearest database vectors for each
// query vector, per spec.md §4.7.
type Matcher struct {
	TopK int
}

// New returns a Matcher returning up to topK neighbors per query row.
func New(topK int) *Matcher {
	if topK <= 0 {
		topK = 10
	}
	return &Matcher{TopK: topK}
}

// Match L2-normalizes both queryEmbeddings and dbVectors, then
// returns, for each query row, the TopK highest cosine-similarity
// scores and their corresponding dbIDs, sorted descending by score.
// Empty queryEmbeddings or dbVectors yield empty results, not an
// error, matching the original's early-return behavior.
func (m *Matcher) Match(queryEmbeddings [][]float32, dbVectors [][]float32, dbIDs []int64) ([][]float32, [][]int64, error) {
	if len(queryEmbeddings) == 0 || len(dbVectors) == 0 || len(dbIDs) == 0 {
		return nil, nil, nil
	}
	if len(dbVectors) != len(dbIDs) {
		return nil, nil, apperr.Inputf("vectormatch: vector and fingerprint id arrays are misaligned (%d vectors, %d ids)", len(dbVectors), len(dbIDs))
	}

	q := l2NormalizeRows(queryEmbeddings)
	d := l2NormalizeRows(dbVectors)

	k := m.TopK
	if k > len(d) {
		k = len(d)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	scores := make([][]float32, len(q))
	ids := make([][]int64, len(q))

	for i, qRow := range q {
		sims := make([]float32, len(d))
		for j, dRow := range d {
			sims[j] = dotProduct(qRow, dRow)
		}

		order := make([]int, len(sims))
		for j := range order {
			order[j] = j
		}
		sort.Slice(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

		rowScores := make([]float32, k)
		rowIDs := make([]int64, k)
		for rank := 0; rank < k; rank++ {
			idx := order[rank]
			rowScores[rank] = sims[idx]
			rowIDs[rank] = dbIDs[idx]
		}
		scores[i] = rowScores
		ids[i] = rowIDs
	}

	return scores, ids, nil
}

func l2NormalizeRows(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, row := range rows {
		var sumSq float64
		for _, v := range row {
			sumSq += float64(v) * float64(v)
		}
		norm := math.Sqrt(sumSq) + 1e-10

		normalized := make([]float32, len(row))
		for j, v := range row {
			normalized[j] = float32(float64(v) / norm)
		}
		out[i] = normalized
	}
	return out
}

func dotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
