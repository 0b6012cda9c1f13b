package search

import (
	"github.com/agnivade/levenshtein"

	"github.com/JonMunkholm/csvmaps/internal/csvdata"
)

// maxSuggestDistance bounds how far a header cell may be from the requested
// name and still be offered as a suggestion.
const maxSuggestDistance = 3

// SuggestColumn returns the header cell closest to name by edit distance, or
// "" if nothing is close enough. Ties go to the leftmost column.
func SuggestColumn(header csvdata.Row, name string) string {
	want := Normalize(name)
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, cell := range header {
		d := levenshtein.ComputeDistance(Normalize(cell), want)
		if d < bestDist {
			best, bestDist = cell, d
		}
	}
	return best
}
