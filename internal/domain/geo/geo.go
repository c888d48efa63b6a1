// Package geo holds the distance and bounding-box math used by nearby searches.
package geo

import (
	"errors"
	"math"
)

const EarthRadiusKm = 6371.0088

var ErrInvalidCoordinate = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")

type Point struct {
	Lat float64
	Lng float64
}

func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return ErrInvalidCoordinate
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// LngRange is an inclusive longitude interval with Min <= Max.
type LngRange struct {
	Min float64
	Max float64
}

// Box is a latitude band plus one or two longitude ranges. Two ranges means
// the box crosses the antimeridian.
type Box struct {
	MinLat    float64
	MaxLat    float64
	LngRanges []LngRange
}

func (b Box) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	for _, r := range b.LngRanges {
		if p.Lng >= r.Min && p.Lng <= r.Max {
			return true
		}
	}
	return false
}

// BoundingBox returns a box that contains every point within radiusKm of center.
func BoundingBox(center Point, radiusKm float64) Box {
	angular := radiusKm / EarthRadiusKm
	latDelta := toDeg(angular)

	minLat := center.Lat - latDelta
	maxLat := center.Lat + latDelta

	// Reaching a pole means every longitude is in range.
	if minLat <= -90 || maxLat >= 90 {
		return Box{
			MinLat:    math.Max(minLat, -90),
			MaxLat:    math.Min(maxLat, 90),
			LngRanges: []LngRange{{Min: -180, Max: 180}},
		}
	}

	lngDelta := toDeg(math.Asin(math.Min(1, math.Sin(angular)/math.Cos(toRad(center.Lat)))))
	return Box{
		MinLat:    minLat,
		MaxLat:    maxLat,
		LngRanges: splitLng(center.Lng-lngDelta, center.Lng+lngDelta),
	}
}

// ViewportBox builds a box from map viewport corners. minLng > maxLng means the
// viewport crosses the antimeridian.
func ViewportBox(minLat, minLng, maxLat, maxLng float64) (Box, error) {
	sw := Point{Lat: minLat, Lng: minLng}
	ne := Point{Lat: maxLat, Lng: maxLng}
	if err := sw.Validate(); err != nil {
		return Box{}, err
	}
	if err := ne.Validate(); err != nil {
		return Box{}, err
	}
	if minLat > maxLat {
		return Box{}, errors.New("minLat must not exceed maxLat")
	}
	box := Box{MinLat: minLat, MaxLat: maxLat}
	if minLng <= maxLng {
		box.LngRanges = []LngRange{{Min: minLng, Max: maxLng}}
	} else {
		box.LngRanges = []LngRange{{Min: minLng, Max: 180}, {Min: -180, Max: maxLng}}
	}
	return box, nil
}

func splitLng(minLng, maxLng float64) []LngRange {
	switch {
	case maxLng-minLng >= 360:
		return []LngRange{{Min: -180, Max: 180}}
	case minLng < -180:
		return []LngRange{{Min: minLng + 360, Max: 180}, {Min: -180, Max: maxLng}}
	case maxLng > 180:
		return []LngRange{{Min: minLng, Max: 180}, {Min: -180, Max: maxLng - 360}}
	default:
		return []LngRange{{Min: minLng, Max: maxLng}}
	}
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
