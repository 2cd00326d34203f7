package gallery

import (
	"math"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

// DefaultThreshold is the maximum (exclusive) distance accepted as a match
const DefaultThreshold = 0.6

// Match is the nearest gallery identity for a query embedding
type Match struct {
	Identity domain.Identity
	Distance float64
}

func (m Match) Confidence() float64 {
	return Confidence(m.Distance)
}

// Matcher does a linear nearest-neighbour scan over the gallery
type Matcher struct {
	gallery   *Gallery
	threshold float64
}

func NewMatcher(g *Gallery, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{gallery: g, threshold: threshold}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the closest identity when its distance is strictly below the
// threshold. On exact ties the entry earlier in gallery order wins.
func (m *Matcher) Match(query []float64) (Match, bool) {
	if len(query) == 0 {
		return Match{}, false
	}

	snap := m.gallery.current.Load()

	best := -1
	bestDist := math.Inf(1)
	for i := range snap.entries {
		emb := snap.entries[i].Embedding
		if len(emb) != len(query) {
			continue
		}
		if d := EuclideanDistance(query, emb); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if best < 0 || bestDist >= m.threshold {
		return Match{}, false
	}

	return Match{Identity: snap.entries[best], Distance: bestDist}, true
}
