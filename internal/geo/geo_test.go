package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"routecast/internal/types"
)

var (
	denver  = types.Coordinate{Lat: 39.7392, Lon: -104.9903}
	boulder = types.Coordinate{Lat: 40.015, Lon: -105.2705}
)

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(denver, boulder)
	d2 := Distance(boulder, denver)

	assert.InDelta(t, d1, d2, 1e-9)
	// Denver to Boulder is roughly 24 miles as the crow flies.
	assert.InDelta(t, 24.0, d1, 2.0)
}

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, Distance(denver, denver))
	assert.Equal(t, 0.0, Distance(types.Coordinate{}, types.Coordinate{}))
}

func TestETAMinutes(t *testing.T) {
	assert.Equal(t, 60, ETAMinutes(55))
	assert.Equal(t, 0, ETAMinutes(0))
	// Truncation, not rounding: 50 mi at 55 mph = 54.54 minutes.
	assert.Equal(t, 54, ETAMinutes(50))
}

func TestDecodePolyline(t *testing.T) {
	encoded := string(polyline.EncodeCoords([][]float64{
		{39.7392, -104.9903},
		{40.015, -105.2705},
	}))

	coords := DecodePolyline(encoded)
	require.Len(t, coords, 2)
	assert.InDelta(t, 39.7392, coords[0].Lat, 1e-4)
	assert.InDelta(t, -105.2705, coords[1].Lon, 1e-4)
}

func TestDecodePolylineMalformed(t *testing.T) {
	assert.Empty(t, DecodePolyline(""))
	assert.Empty(t, DecodePolyline("\x01"))
}

func TestSampleWaypointsStartAndDestination(t *testing.T) {
	departure := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	wps := SampleWaypoints([]types.Coordinate{denver, boulder}, 50, departure)

	require.Len(t, wps, 2)
	assert.Equal(t, "Start", wps[0].Name)
	assert.Equal(t, 0.0, wps[0].DistanceFromStart)
	assert.Equal(t, departure, wps[0].ArrivalTime)
	assert.Equal(t, "Destination", wps[1].Name)
	assert.Greater(t, wps[1].DistanceFromStart, 0.0)
}

func TestSampleWaypointsInterval(t *testing.T) {
	// A straight north run: each degree of latitude is ~69 miles. 45 steps of
	// 0.1 degrees leave the route end ~35 miles past the last 50-mile sample,
	// far enough that a separate Destination waypoint is emitted.
	coords := []types.Coordinate{}
	for i := 0; i <= 45; i++ {
		coords = append(coords, types.Coordinate{Lat: 35 + float64(i)*0.1, Lon: -100})
	}
	departure := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	wps := SampleWaypoints(coords, 50, departure)

	require.GreaterOrEqual(t, len(wps), 3)
	assert.Equal(t, "Start", wps[0].Name)
	assert.Equal(t, "Destination", wps[len(wps)-1].Name)
	// Interior waypoints land at or just past each 50-mile mark and carry
	// consistent ETAs.
	for _, wp := range wps[1 : len(wps)-1] {
		assert.GreaterOrEqual(t, wp.DistanceFromStart, 50.0)
		assert.InDelta(t, ETAMinutes(wp.DistanceFromStart), wp.ETAMinutes, 1)
		assert.Equal(t, departure.Add(time.Duration(wp.ETAMinutes)*time.Minute), wp.ArrivalTime)
	}
}

func TestSampleWaypointsSkipsDestinationWithinSnapDistance(t *testing.T) {
	// Route ends ~3.5 miles past the 50-mile sample: the final coordinate is
	// within the 10-mile snap so no separate Destination is emitted.
	coords := []types.Coordinate{}
	for i := 0; i <= 15; i++ {
		coords = append(coords, types.Coordinate{Lat: 35 + float64(i)*0.05, Lon: -100})
	}
	departure := time.Now()

	wps := SampleWaypoints(coords, 50, departure)

	last := wps[len(wps)-1]
	assert.NotEqual(t, "Destination", last.Name)
	end := coords[len(coords)-1]
	assert.LessOrEqual(t, Distance(types.Coordinate{Lat: last.Lat, Lon: last.Lon}, end), 10.0)
}

func TestSampleWaypointsEmptyInput(t *testing.T) {
	assert.Nil(t, SampleWaypoints(nil, 50, time.Now()))
}

func TestSamplePoints(t *testing.T) {
	coords := make([]types.Coordinate, 100)
	for i := range coords {
		coords[i] = types.Coordinate{Lat: float64(i), Lon: 0}
	}

	sampled := SamplePoints(coords, 10)
	assert.Len(t, sampled, 10)
	assert.Equal(t, 0.0, sampled[0].Lat)

	// Short inputs pass through untouched.
	assert.Len(t, SamplePoints(coords[:5], 10), 5)
}
