package geo

import (
	"errors"
	"strings"

	"github.com/golang/geo/s2"
)

// ErrEmptyKeyword is returned by FilterByKeyword for a blank keyword.
var ErrEmptyKeyword = errors.New("area keyword is required")

// FilterByBox keeps features whose outer ring lies entirely inside box.
// Features without geometry are dropped. fc is not modified.
func FilterByBox(fc *FeatureCollection, box BoundingBox) (*FeatureCollection, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	rect := box.Rect()

	out := make([]Feature, 0)
	for _, f := range fc.Features {
		ring := f.Geometry.OuterRing()
		if len(ring) == 0 {
			continue
		}
		if ringInside(rect, ring) {
			out = append(out, f)
		}
	}
	return fc.withFeatures(out), nil
}

func ringInside(rect s2.Rect, ring [][]float64) bool {
	for _, pt := range ring {
		if len(pt) < 2 {
			return false
		}
		// GeoJSON positions are [lng, lat].
		if !rect.ContainsLatLng(s2.LatLngFromDegrees(pt[1], pt[0])) {
			return false
		}
	}
	return true
}

// FilterByKeyword keeps features with an area description value that
// contains keyword, ignoring case. Features without description data are
// dropped. fc is not modified.
func FilterByKeyword(fc *FeatureCollection, keyword string) (*FeatureCollection, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	needle := strings.ToLower(keyword)

	out := make([]Feature, 0)
	for _, f := range fc.Features {
		if describes(f.Properties.AreaDescriptionData, needle) {
			out = append(out, f)
		}
	}
	return fc.withFeatures(out), nil
}

func describes(data map[string]string, needle string) bool {
	for _, v := range data {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
