// Package polyline encodes coordinate sequences into the Google Polyline
// Algorithm Format and back, and derives bounding boxes for map framing.
// Encoding is lossy only to 1e-5 degree precision.
package polyline

import (
	"errors"
	"fmt"

	gpolyline "github.com/twpayne/go-polyline"

	"github.com/LukaGrunt/nabajk/pkg/geo"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// Encode produces the polyline string for a coordinate sequence. The empty
// sequence encodes to the empty string.
func Encode(points []geo.Point) string {
	if len(points) == 0 {
		return ""
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(gpolyline.EncodeCoords(coords))
}

// EncodeTrack encodes a recorded track's coordinates.
func EncodeTrack(points []ride.RecordedPoint) string {
	return Encode(ride.Coordinates(points))
}

// Decode reconstructs the coordinate sequence of a polyline string. The
// empty string decodes to an empty sequence.
func Decode(encoded string) ([]geo.Point, error) {
	if encoded == "" {
		return []geo.Point{}, nil
	}

	coords, rest, err := gpolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, errors.New("decode polyline: trailing garbage after coordinates")
	}

	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = geo.Point{Lat: c[0], Lng: c[1]}
		if !geo.Valid(points[i]) {
			return nil, fmt.Errorf("decode polyline: coordinate %d out of range", i)
		}
	}
	return points, nil
}

// BoundsOf returns the bounding box of a coordinate sequence; all-zero for
// an empty sequence.
func BoundsOf(points []geo.Point) geo.Bounds {
	return geo.BoundsOf(points)
}
