package vector

import (
	"sort"

	"github.com/hyperjump/ruiji/pkg/utils"
)

// neighbor is a stored position and its squared L2 distance to a query.
type neighbor struct {
	pos      int
	distance float64
}

// nearest scans vectors exhaustively and returns the k closest positions. Equal
// distances keep insertion order.
func nearest(query []float32, vectors [][]float32, k int) []neighbor {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}
	hits := make([]neighbor, len(vectors))
	for i, v := range vectors {
		hits[i] = neighbor{pos: i, distance: utils.SquaredL2(query, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].distance < hits[b].distance })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// distanceScore maps a distance to (0, 1], with 1 for an exact match.
func distanceScore(d float64) float64 {
	return 1 / (1 + d)
}
