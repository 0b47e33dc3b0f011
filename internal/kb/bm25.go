// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// columnWeights follows the documents_fts column order: title, content.
var columnWeights = []float64{2.0, 1.0}

// bm25 scores one row from an FTS4 matchinfo blob produced with the
// 'pcnalx' format string. The blob is a sequence of native-endian uint32:
//
//	p, c, n, a[c], l[c], x[3*p*c]
//
// where x holds, per phrase and column, the hits in this row, the hits in
// all rows, and the number of rows with at least one hit.
func bm25(info []byte, weights []float64) (float64, error) {
	if len(info)%4 != 0 || len(info) < 12 {
		return 0, fmt.Errorf("matchinfo blob of %d bytes", len(info))
	}
	v := make([]uint32, len(info)/4)
	for i := range v {
		v[i] = binary.NativeEndian.Uint32(info[i*4:])
	}

	p, c, n := int(v[0]), int(v[1]), float64(v[2])
	if want := 3 + 2*c + 3*p*c; len(v) != want {
		return 0, fmt.Errorf("matchinfo has %d values, want %d", len(v), want)
	}
	avgLen := v[3 : 3+c]
	docLen := v[3+c : 3+2*c]
	hits := v[3+2*c:]

	var score float64
	for phrase := 0; phrase < p; phrase++ {
		for col := 0; col < c; col++ {
			w := 1.0
			if col < len(weights) {
				w = weights[col]
			}
			if w == 0 {
				continue
			}

			x := 3 * (phrase*c + col)
			tf := float64(hits[x])
			df := float64(hits[x+2])
			if tf == 0 {
				continue
			}

			idf := math.Log(1 + (n-df+0.5)/(df+0.5))

			norm := 1.0
			if avg := float64(avgLen[col]); avg > 0 {
				norm = 1 - bm25B + bm25B*float64(docLen[col])/avg
			}
			score += w * idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
	}
	return score, nil
}
