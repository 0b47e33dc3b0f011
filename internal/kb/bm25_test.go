// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchinfoBlob encodes values the way FTS4 returns them.
func matchinfoBlob(values ...uint32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.NativeEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// oneTermRow builds a 'pcnalx' blob for one phrase over two columns
// (title, content) in a corpus of 10 rows.
func oneTermRow(titleHits, contentHits, contentLen uint32) []byte {
	return matchinfoBlob(
		1, 2, 10, // p, c, n
		3, 20, // a: average title and content length
		3, contentLen, // l: this row's title and content length
		titleHits, titleHits+2, 3, // x for title
		contentHits, contentHits+5, 4, // x for content
	)
}

func TestBM25(t *testing.T) {
	none, err := bm25(oneTermRow(0, 0, 20), columnWeights)
	require.NoError(t, err)
	assert.Zero(t, none)

	content, err := bm25(oneTermRow(0, 1, 20), columnWeights)
	require.NoError(t, err)
	assert.Greater(t, content, 0.0)

	t.Run("more hits score higher", func(t *testing.T) {
		more, err := bm25(oneTermRow(0, 3, 20), columnWeights)
		require.NoError(t, err)
		assert.Greater(t, more, content)
	})

	t.Run("title hits outweigh content hits", func(t *testing.T) {
		title, err := bm25(oneTermRow(1, 0, 20), columnWeights)
		require.NoError(t, err)
		assert.Greater(t, title, content)
	})

	t.Run("longer documents score lower", func(t *testing.T) {
		long, err := bm25(oneTermRow(0, 1, 200), columnWeights)
		require.NoError(t, err)
		assert.Less(t, long, content)
	})

	t.Run("zero weight ignores column", func(t *testing.T) {
		s, err := bm25(oneTermRow(0, 1, 20), []float64{1, 0})
		require.NoError(t, err)
		assert.Zero(t, s)
	})
}

func TestBM25RejectsMalformedBlob(t *testing.T) {
	_, err := bm25([]byte{1, 2, 3}, columnWeights)
	assert.Error(t, err)

	_, err = bm25(matchinfoBlob(1, 2, 10, 3, 20), columnWeights)
	assert.Error(t, err)
}
