// Package geo provides the geospatial primitives used by the route pipeline:
// great-circle distance, ETA estimation, polyline decoding, and waypoint
// sampling along a decoded route.
package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/twpayne/go-polyline"

	"routecast/internal/types"
)

const (
	// earthRadiusMiles is the sphere radius used by the haversine formula.
	earthRadiusMiles = 3959

	// AverageSpeedMPH is the assumed driving speed for all ETA estimates.
	AverageSpeedMPH = 55

	// destinationSnapMiles suppresses a separate Destination waypoint when
	// the last sampled waypoint already sits within this distance of the
	// route end.
	destinationSnapMiles = 10
)

// Distance returns the great-circle distance in miles between two points.
func Distance(a, b types.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// ETAMinutes converts a distance to driving minutes at AverageSpeedMPH,
// truncated to a whole minute.
func ETAMinutes(distanceMiles float64) int {
	return int(distanceMiles / AverageSpeedMPH * 60)
}

// DecodePolyline decodes an encoded polyline (precision 1e5) into an ordered
// coordinate sequence. Malformed input yields an empty sequence rather than
// an error; callers treat missing geometry as a soft condition.
func DecodePolyline(encoded string) []types.Coordinate {
	if encoded == "" {
		return nil
	}
	pairs, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil
	}
	coords := make([]types.Coordinate, 0, len(pairs))
	for _, p := range pairs {
		coords = append(coords, types.Coordinate{Lat: p[0], Lon: p[1]})
	}
	return coords
}

// SampleWaypoints walks a coordinate sequence accumulating distance and
// emits a waypoint every intervalMiles. The first coordinate is always
// emitted as "Start" (distance 0) and the last as "Destination" unless the
// most recent waypoint is already within destinationSnapMiles of it.
func SampleWaypoints(coords []types.Coordinate, intervalMiles float64, departure time.Time) []types.Waypoint {
	if len(coords) == 0 {
		return nil
	}

	waypoints := []types.Waypoint{{
		Lat:               coords[0].Lat,
		Lon:               coords[0].Lon,
		Name:              "Start",
		DistanceFromStart: 0,
		ETAMinutes:        0,
		ArrivalTime:       departure,
	}}

	var total, lastEmitted float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])

		if total-lastEmitted >= intervalMiles {
			eta := ETAMinutes(total)
			waypoints = append(waypoints, types.Waypoint{
				Lat:               coords[i].Lat,
				Lon:               coords[i].Lon,
				Name:              fmt.Sprintf("Mile %d", int(total)),
				DistanceFromStart: roundTenth(total),
				ETAMinutes:        eta,
				ArrivalTime:       departure.Add(time.Duration(eta) * time.Minute),
			})
			lastEmitted = total
		}
	}

	end := coords[len(coords)-1]
	last := waypoints[len(waypoints)-1]
	if len(waypoints) == 1 || Distance(types.Coordinate{Lat: last.Lat, Lon: last.Lon}, end) > destinationSnapMiles {
		eta := ETAMinutes(total)
		waypoints = append(waypoints, types.Waypoint{
			Lat:               end.Lat,
			Lon:               end.Lon,
			Name:              "Destination",
			DistanceFromStart: roundTenth(total),
			ETAMinutes:        eta,
			ArrivalTime:       departure.Add(time.Duration(eta) * time.Minute),
		})
	}

	return waypoints
}

// SamplePoints picks up to max evenly spaced coordinates from a decoded
// route, for providers that should not be queried at every vertex.
func SamplePoints(coords []types.Coordinate, max int) []types.Coordinate {
	if max <= 0 || len(coords) <= max {
		return coords
	}
	step := float64(len(coords)) / float64(max)
	sampled := make([]types.Coordinate, 0, max)
	for i := 0; i < max; i++ {
		sampled = append(sampled, coords[int(float64(i)*step)])
	}
	return sampled
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
