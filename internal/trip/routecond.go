package trip

import (
	"fmt"
	"strings"

	"routecast/internal/conditions"
	"routecast/internal/types"
)

// rerouteSeverity is the road-condition severity at which a reroute is
// recommended.
const rerouteSeverity = 3

// RouteConditions is the route-wide aggregation of per-waypoint surface
// classifications.
type RouteConditions struct {
	Summary            string
	WorstCondition     types.RoadConditionTag
	RerouteRecommended bool
	RerouteReason      string
}

// AnalyzeRouteConditions classifies every waypoint, tracks the single worst
// severity, and flags a reroute the first time any waypoint reaches
// severity 3, capturing the triggering reason.
func AnalyzeRouteConditions(waypoints []types.WaypointWeather) RouteConditions {
	result := RouteConditions{WorstCondition: types.RoadDry}
	worstSeverity := 0

	var labelOrder []string
	labelCounts := map[string]int{}

	for _, wp := range waypoints {
		rc := conditions.Classify(wp.Weather, wp.Alerts)

		if rc.Severity > worstSeverity {
			worstSeverity = rc.Severity
			result.WorstCondition = rc.Condition
		}

		if rc.Severity >= rerouteSeverity {
			result.RerouteRecommended = true
			if result.RerouteReason == "" {
				location := wp.Waypoint.Name
				if location == "" {
					location = fmt.Sprintf("Mile %d", int(wp.Waypoint.DistanceFromStart))
				}
				result.RerouteReason = fmt.Sprintf("%s conditions at %s - %s", rc.Label, location, rc.Description)
			}
		}

		if rc.Condition != types.RoadDry {
			if _, ok := labelCounts[rc.Label]; !ok {
				labelOrder = append(labelOrder, rc.Label)
			}
			labelCounts[rc.Label]++
		}
	}

	if len(labelCounts) == 0 {
		result.Summary = "✅ Good road conditions expected throughout your route"
		return result
	}

	parts := make([]string, 0, len(labelOrder))
	for _, label := range labelOrder {
		parts = append(parts, fmt.Sprintf("%d segments with %s", labelCounts[label], label))
	}
	result.Summary = fmt.Sprintf("⚠️ Road hazards detected: %s", strings.Join(parts, ", "))
	return result
}
