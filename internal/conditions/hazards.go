package conditions

import (
	"fmt"
	"sort"
	"strings"

	"routecast/internal/types"
)

const maxHazardAlerts = 10

// severityRank maps upstream alert severities onto hazard tiers. Unmapped
// severities (Minor, Unknown) deliberately land on "medium".
var severityRank = map[types.AlertSeverity]string{
	types.SeverityExtreme:  "extreme",
	types.SeveritySevere:   "high",
	types.SeverityModerate: "medium",
}

// GenerateHazards evaluates every waypoint independently and emits dated,
// positioned hazard events. Rules are not mutually exclusive; one waypoint
// can contribute several alerts. The result is sorted by distance from the
// start and truncated to the nearest ten.
func GenerateHazards(waypoints []types.WaypointWeather) []types.HazardAlert {
	var alerts []types.HazardAlert

	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}

		distance := wp.Waypoint.DistanceFromStart
		eta := wp.Waypoint.ETAMinutes
		if eta == 0 {
			eta = int(distance / 55 * 60)
		}

		wind := ParseWindSpeed(wp.Weather.WindSpeed)
		if wind > 25 {
			severity := "medium"
			switch {
			case wind > 40:
				severity = "extreme"
			case wind > 30:
				severity = "high"
			}
			countdown := "High winds at start"
			if eta > 0 {
				countdown = fmt.Sprintf("High winds in %d minutes", eta)
			}
			maxSpeed := 65 - wind + 25
			if maxSpeed < 35 {
				maxSpeed = 35
			}
			alerts = append(alerts, types.HazardAlert{
				Type:           "wind",
				Severity:       severity,
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        fmt.Sprintf("Strong winds of %d mph", wind),
				Recommendation: fmt.Sprintf("Reduce speed to %d mph", maxSpeed),
				CountdownText:  countdown,
			})
		}

		cond := strings.ToLower(wp.Weather.Conditions)
		if strings.Contains(cond, "heavy rain") || strings.Contains(cond, "storm") {
			alerts = append(alerts, types.HazardAlert{
				Type:           "rain",
				Severity:       "high",
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        "Heavy rain expected",
				Recommendation: "Reduce speed, increase following distance to 4 seconds",
				CountdownText:  fmt.Sprintf("Heavy rain in %d minutes at mile %d", eta, int(distance)),
			})
		} else if strings.Contains(cond, "rain") || strings.Contains(cond, "shower") {
			alerts = append(alerts, types.HazardAlert{
				Type:           "rain",
				Severity:       "medium",
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        "Rain expected",
				Recommendation: "Turn on headlights and wipers",
				CountdownText:  fmt.Sprintf("Rain in %d minutes", eta),
			})
		}

		if strings.Contains(cond, "snow") {
			alerts = append(alerts, types.HazardAlert{
				Type:           "snow",
				Severity:       "high",
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        "Snow conditions expected",
				Recommendation: "Reduce speed by 50%, use winter tires if available",
				CountdownText:  fmt.Sprintf("Snow conditions in %d minutes", eta),
			})
		}

		temp := wp.Weather.TemperatureOr(70)
		if temp <= 32 {
			alerts = append(alerts, types.HazardAlert{
				Type:           "ice",
				Severity:       "high",
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        fmt.Sprintf("Freezing temperature (%d°F) - ice risk", temp),
				Recommendation: "Watch for black ice on bridges and overpasses",
				CountdownText:  fmt.Sprintf("Ice risk zone in %d minutes", eta),
			})
		}

		if strings.Contains(cond, "fog") {
			alerts = append(alerts, types.HazardAlert{
				Type:           "visibility",
				Severity:       "high",
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        "Fog reducing visibility",
				Recommendation: "Use low beams, reduce speed to match visibility",
				CountdownText:  fmt.Sprintf("Fog in %d minutes", eta),
			})
		}

		for _, upstream := range wp.Alerts {
			severity, ok := severityRank[upstream.Severity]
			if !ok {
				severity = "medium"
			}
			alerts = append(alerts, types.HazardAlert{
				Type:           "alert",
				Severity:       severity,
				DistanceMiles:  distance,
				ETAMinutes:     eta,
				Message:        upstream.Event,
				Recommendation: truncate(upstream.Headline, 100),
				CountdownText:  fmt.Sprintf("%s in %d minutes", upstream.Event, eta),
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DistanceMiles < alerts[j].DistanceMiles
	})
	if len(alerts) > maxHazardAlerts {
		alerts = alerts[:maxHazardAlerts]
	}
	return alerts
}
