package vectormatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_EmptyQueryOrDBYieldsEmptyResult(t *testing.T) {
	m := New(5)

	scores, ids, err := m.Match(nil, [][]float32{{1, 0}}, []int64{1})
	require.NoError(t, err)
	assert.Nil(t, scores)
	assert.Nil(t, ids)

	scores, ids, err = m.Match([][]float32{{1, 0}}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, scores)
	assert.Nil(t, ids)
}

func TestMatch_MisalignedVectorsAndIDsRejected(t *testing.T) {
	m := New(5)
	_, _, err := m.Match([][]float32{{1, 0}}, [][]float32{{1, 0}, {0, 1}}, []int64{1})
	assert.Error(t, err)
}

func TestMatch_RanksExactMatchFirst(t *testing.T) {
	m := New(2)
	query := [][]float32{{1, 0}}
	db := [][]float32{
		{0, 1},  // orthogonal, similarity 0
		{1, 0},  // identical, similarity 1
		{-1, 0}, // opposite, similarity -1
	}
	ids := []int64{10, 20, 30}

	scores, gotIDs, err := m.Match(query, db, ids)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Len(t, gotIDs, 1)
	require.Len(t, scores[0], 2)

	assert.Equal(t, int64(20), gotIDs[0][0])
	assert.InDelta(t, 1.0, scores[0][0], 1e-5)
}

func TestMatch_TopKClampedToDBSize(t *testing.T) {
	m := New(100)
	query := [][]float32{{1, 0}}
	db := [][]float32{{1, 0}, {0, 1}}
	ids := []int64{1, 2}

	scores, gotIDs, err := m.Match(query, db, ids)
	require.NoError(t, err)
	require.Len(t, scores[0], 2)
	require.Len(t, gotIDs[0], 2)
}

func TestL2NormalizeRows_UnitLength(t *testing.T) {
	out := l2NormalizeRows([][]float32{{3, 4}})
	assert.InDelta(t, 0.6, out[0][0], 1e-5)
	assert.InDelta(t, 0.8, out[0][1], 1e-5)
}
