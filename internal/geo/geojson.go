// Package geo holds the redlining map data and the filters the maps
// endpoints apply to it.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one mapped area.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   *Geometry  `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Properties are the HOLC attributes of an area.
type Properties struct {
	Name                string            `json:"name,omitempty"`
	HolcGrade           string            `json:"holc_grade,omitempty"`
	HolcID              string            `json:"holc_id,omitempty"`
	AreaDescriptionData map[string]string `json:"area_description_data,omitempty"`
}

// Geometry is a MultiPolygon: polygons, rings, points, [lng, lat].
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates [][][][]float64 `json:"coordinates"`
}

// OuterRing returns the first ring of the first polygon, or nil.
func (g *Geometry) OuterRing() [][]float64 {
	if g == nil || len(g.Coordinates) == 0 || len(g.Coordinates[0]) == 0 {
		return nil
	}
	return g.Coordinates[0][0]
}

// LoadCollection decodes a feature collection from r.
func LoadCollection(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Features == nil {
		fc.Features = []Feature{}
	}
	return &fc, nil
}

// LoadFile reads a feature collection from path.
func LoadFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geojson: %w", err)
	}
	defer f.Close()
	return LoadCollection(f)
}

// withFeatures returns a collection of the same type holding features.
func (fc *FeatureCollection) withFeatures(features []Feature) *FeatureCollection {
	return &FeatureCollection{Type: fc.Type, Features: features}
}
