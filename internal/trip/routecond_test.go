package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"routecast/internal/types"
)

func TestAnalyzeRouteConditionsAllDry(t *testing.T) {
	result := AnalyzeRouteConditions([]types.WaypointWeather{
		waypointAt(0, snapshot(70, "Sunny", "5 mph")),
		waypointAt(50, snapshot(72, "Clear", "5 mph")),
	})

	assert.Equal(t, "✅ Good road conditions expected throughout your route", result.Summary)
	assert.Equal(t, types.RoadDry, result.WorstCondition)
	assert.False(t, result.RerouteRecommended)
	assert.Empty(t, result.RerouteReason)
}

func TestAnalyzeRouteConditionsTracksWorst(t *testing.T) {
	result := AnalyzeRouteConditions([]types.WaypointWeather{
		waypointAt(0, snapshot(60, "Light Rain", "5 mph")), // wet, severity 1
		waypointAt(50, snapshot(55, "Fog", "5 mph")),       // low visibility, severity 2
		waypointAt(100, snapshot(70, "Clear", "5 mph")),    // dry
	})

	assert.Equal(t, types.RoadLowVisibility, result.WorstCondition)
	assert.False(t, result.RerouteRecommended)
	assert.Contains(t, result.Summary, "1 segments with WET")
	assert.Contains(t, result.Summary, "1 segments with LOW VIS")
}

func TestAnalyzeRouteConditionsRerouteAtSeverityThree(t *testing.T) {
	result := AnalyzeRouteConditions([]types.WaypointWeather{
		waypointAt(0, snapshot(70, "Clear", "5 mph")),
		named("Point 1 - Limon", 62, snapshot(28, "Freezing Rain", "10 mph")),
		named("Point 2 - Burlington", 120, snapshot(27, "Freezing Drizzle", "10 mph")),
	})

	assert.True(t, result.RerouteRecommended)
	assert.Equal(t, types.RoadIcy, result.WorstCondition)
	// The first severity>=3 waypoint supplies the reason.
	assert.Contains(t, result.RerouteReason, "ICY ROADS conditions at Point 1 - Limon")
}

func TestAnalyzeRouteConditionsMissingWeatherIsUnknownNotHazard(t *testing.T) {
	result := AnalyzeRouteConditions([]types.WaypointWeather{
		waypointAt(0, nil),
		waypointAt(50, nil),
	})

	assert.False(t, result.RerouteRecommended)
	// Unknown is severity 0 but still counted as a non-dry segment.
	assert.Contains(t, result.Summary, "segments with UNKNOWN")
}
