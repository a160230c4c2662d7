package trip

import (
	"math"

	"routecast/internal/conditions"
	"routecast/internal/types"
)

const (
	maxTurnByTurnSteps = 50

	// stepWeatherWindowMiles is how close (by distance from start) a
	// waypoint must be to a maneuver to lend it weather context.
	stepWeatherWindowMiles = 30

	// minSignificantStepMiles filters out trivial continuations.
	minSignificantStepMiles = 0.1
)

// AnnotateTurnByTurn attaches the nearest waypoint's derived road condition
// and weather to each significant maneuver step. Steps shorter than a tenth
// of a mile that are plain continuations are dropped, and the list is
// capped at fifty.
func AnnotateTurnByTurn(steps []types.RouteStep, waypoints []types.WaypointWeather) []types.TurnByTurnStep {
	var annotated []types.TurnByTurnStep
	cumulative := 0.0

	for _, step := range steps {
		cumulative += step.DistanceMiles

		if step.DistanceMiles <= minSignificantStepMiles &&
			(step.Maneuver == "straight" || step.Maneuver == "new name") {
			continue
		}

		roadName := step.RoadName
		if roadName == "" {
			roadName = "Local road"
		}

		out := types.TurnByTurnStep{
			Instruction:     step.Instruction,
			DistanceMiles:   math.Round(step.DistanceMiles*10) / 10,
			DurationMinutes: step.DurationMinutes,
			RoadName:        roadName,
			Maneuver:        step.Maneuver,
		}

		for _, wp := range waypoints {
			if wp.Waypoint.DistanceFromStart == 0 {
				continue
			}
			if math.Abs(wp.Waypoint.DistanceFromStart-cumulative) >= stepWeatherWindowMiles {
				continue
			}
			if wp.Weather != nil {
				rc := conditions.Classify(wp.Weather, wp.Alerts)
				out.RoadCondition = &rc
				out.WeatherAtStep = wp.Weather.Conditions
				out.Temperature = wp.Weather.Temperature
			}
			out.HasAlert = len(wp.Alerts) > 0
			break
		}

		annotated = append(annotated, out)
		if len(annotated) == maxTurnByTurnSteps {
			break
		}
	}

	return annotated
}
