package geo

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ErrInvalidBoundingBox is wrapped by every BoundingBox validation failure.
var ErrInvalidBoundingBox = errors.New("invalid bounding box")

// BoundingBox is an inclusive latitude/longitude rectangle in degrees.
type BoundingBox struct {
	MinLat float64 `json:"lower_latitude"`
	MaxLat float64 `json:"upper_latitude"`
	MinLng float64 `json:"lower_longitude"`
	MaxLng float64 `json:"upper_longitude"`
}

// Validate checks coordinate ranges and ordering.
func (b BoundingBox) Validate() error {
	switch {
	case b.MinLat < -90 || b.MaxLat > 90:
		return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidBoundingBox)
	case b.MinLng < -180 || b.MaxLng > 180:
		return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidBoundingBox)
	case b.MinLat > b.MaxLat:
		return fmt.Errorf("%w: lower latitude %g exceeds upper latitude %g", ErrInvalidBoundingBox, b.MinLat, b.MaxLat)
	case b.MinLng > b.MaxLng:
		return fmt.Errorf("%w: lower longitude %g exceeds upper longitude %g", ErrInvalidBoundingBox, b.MinLng, b.MaxLng)
	}
	return nil
}

// Rect converts the box to an s2 rectangle. The box must be valid.
func (b BoundingBox) Rect() s2.Rect {
	return s2.Rect{
		Lat: r1.Interval{Lo: radians(b.MinLat), Hi: radians(b.MaxLat)},
		Lng: s1.IntervalFromEndpoints(radians(b.MinLng), radians(b.MaxLng)),
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return b.Rect().ContainsLatLng(s2.LatLngFromDegrees(lat, lng))
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}
