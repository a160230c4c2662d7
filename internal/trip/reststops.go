package trip

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"routecast/internal/types"
)

const (
	maxRestStops    = 5
	restStopSamples = 5

	restStopKeyword      = "rest stop gas station"
	restStopRadiusMeters = 16093 // ~10 miles

	// restStopWeatherWindowMiles bounds how far a waypoint may be from a
	// sampled point and still describe its arrival weather.
	restStopWeatherWindowMiles = 30
)

// FindRestStops samples evenly spaced points along the decoded route and
// queries the places provider near each, attaching nearest-waypoint weather
// and a canned recommendation. Provider failures at individual points are
// logged and skipped; the result is capped at five stops.
func FindRestStops(ctx context.Context, places types.PlacesSearchProvider, logger *slog.Logger,
	routeCoords []types.Coordinate, waypoints []types.WaypointWeather) []types.RestStop {

	if len(routeCoords) == 0 || places == nil {
		return nil
	}

	total := len(routeCoords)
	interval := total / restStopSamples
	if interval < 1 {
		interval = 1
	}

	lastDistance := 100.0
	if len(waypoints) > 0 && waypoints[len(waypoints)-1].Waypoint.DistanceFromStart > 0 {
		lastDistance = waypoints[len(waypoints)-1].Waypoint.DistanceFromStart
	}

	var stops []types.RestStop
	for i := interval; i < total-interval; i += interval {
		point := routeCoords[i]
		approxDistance := float64(i) / float64(total) * lastDistance
		approxETA := int(approxDistance / 55 * 60)

		results, err := places.Nearby(ctx, point, restStopKeyword, restStopRadiusMeters)
		if err != nil {
			logger.WarnContext(ctx, "rest stop lookup failed",
				"lat", point.Lat, "lon", point.Lon, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		place := results[0]

		name := place.Name
		if name == "" {
			name = "Rest Stop"
		}

		weatherDesc := "Unknown"
		var temp *int
		for _, wp := range waypoints {
			if wp.Weather == nil {
				continue
			}
			if math.Abs(wp.Waypoint.DistanceFromStart-approxDistance) < restStopWeatherWindowMiles {
				weatherDesc = wp.Weather.Conditions
				if weatherDesc == "" {
					weatherDesc = "Clear"
				}
				temp = wp.Weather.Temperature
				break
			}
		}

		recommendation := "Good rest stop option"
		lowerDesc := strings.ToLower(weatherDesc)
		switch {
		case temp != nil && *temp > 85:
			recommendation = "Cool down and hydrate here"
		case strings.Contains(lowerDesc, "rain"):
			recommendation = "Wait out the rain here"
		case strings.Contains(lowerDesc, "clear") || strings.Contains(lowerDesc, "sunny"):
			recommendation = "Good weather - stretch your legs!"
		}

		stops = append(stops, types.RestStop{
			Name:                 name,
			Type:                 "rest_area",
			Lat:                  place.Lat,
			Lon:                  place.Lon,
			DistanceMiles:        math.Round(approxDistance*10) / 10,
			ETAMinutes:           approxETA,
			WeatherAtArrival:     weatherDesc,
			TemperatureAtArrival: temp,
			Recommendation:       recommendation,
		})
		if len(stops) == maxRestStops {
			break
		}
	}

	return stops
}
