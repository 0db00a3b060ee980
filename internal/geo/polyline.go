// Package geo decodes encoded route polylines and projects them into GeoJSON
// geometry.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

var ErrTrailingData = errors.New("polyline: trailing data after coordinates")

// Decode returns the (lat, lng) pairs encoded in s at the standard 1e5 precision.
func Decode(s string) ([][2]float64, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, ErrTrailingData
	}

	out := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("decode polyline: unexpected dimension %d", len(c))
		}
		out = append(out, [2]float64{c[0], c[1]})
	}
	return out, nil
}

// Encode is the inverse of Decode.
func Encode(latlngs [][2]float64) string {
	coords := make([][]float64, len(latlngs))
	for i, ll := range latlngs {
		coords[i] = []float64{ll[0], ll[1]}
	}
	return string(polyline.EncodeCoords(coords))
}

// LineString decodes s and flips each pair to GeoJSON (lng, lat) order.
func LineString(s string) (orb.LineString, error) {
	latlngs, err := Decode(s)
	if err != nil {
		return nil, err
	}
	ls := make(orb.LineString, len(latlngs))
	for i, ll := range latlngs {
		ls[i] = orb.Point{ll[1], ll[0]}
	}
	return ls, nil
}
