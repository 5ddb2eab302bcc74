package faces

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Distance is the Euclidean distance between two descriptors
func Distance(a, b Descriptor) float64 {
	diff := make([]float64, DescriptorSize)
	floats.SubTo(diff, a[:], b[:])
	return floats.Norm(diff, 2)
}

// FindBestMatch compares the query against every reference descriptor in the
// gallery and returns the closest identity. The match is accepted when its
// distance is within threshold; rejected matches report UnknownLabel but keep
// the distance for diagnostics. When several references share the exact
// minimum distance the first in gallery order wins - which reference that is
// can vary between gallery loads.
func FindBestMatch(query Descriptor, gallery *Gallery, threshold float64) MatchResult {
	result := MatchResult{
		Label:    UnknownLabel,
		Distance: math.Inf(1),
	}
	for _, entry := range gallery.Entries() {
		d := Distance(query, entry.Descriptor)
		if d < result.Distance {
			result.Distance = d
			result.Label = entry.Label
		}
	}
	result.Accepted = result.Distance <= threshold
	if !result.Accepted {
		result.Label = UnknownLabel
	}
	return result
}
