package conditions

import (
	"fmt"
	"strings"

	"routecast/internal/types"
)

// Thresholds for the surface classifier. Order of evaluation in Classify is
// a severity priority, not an arbitrary sequence.
const (
	freezingF       = 32
	refreezeBandF   = 36
	dangerousWindMP = 35
)

var icePrecipKeywords = []string{"rain", "drizzle", "freezing", "sleet", "ice"}

var wetKeywords = []string{"rain", "shower", "drizzle", "storm", "thunder"}

// Classify maps a weather snapshot plus active alerts to a discrete
// road-surface condition. First match wins; the rule order encodes which
// hazards dominate (flooding over ice, ice over snow, and so on).
func Classify(weather *types.WeatherSnapshot, alerts []types.WeatherAlert) types.RoadCondition {
	if weather == nil {
		return types.RoadCondition{
			Condition:      types.RoadUnknown,
			Severity:       0,
			Label:          "UNKNOWN",
			Icon:           "❓",
			Color:          "#6b7280",
			Description:    "Weather data unavailable",
			Recommendation: "Drive with normal caution",
		}
	}

	temp := weather.TemperatureOr(50)
	cond := strings.ToLower(weather.Conditions)
	wind := ParseWindSpeed(weather.WindSpeed)

	for _, alert := range alerts {
		if !alert.IsSevere() {
			continue
		}
		event := strings.ToLower(alert.Event)
		if strings.Contains(event, "flood") {
			return types.RoadCondition{
				Condition:      types.RoadFlooded,
				Severity:       4,
				Label:          "FLOODING",
				Icon:           "🌊",
				Color:          "#dc2626",
				Description:    fmt.Sprintf("Flash flood warning - %s", truncate(alert.Headline, 60)),
				Recommendation: "🚫 DO NOT DRIVE - Find alternate route immediately",
			}
		}
		if strings.Contains(event, "ice") || strings.Contains(event, "freezing") {
			return types.RoadCondition{
				Condition:      types.RoadIcy,
				Severity:       3,
				Label:          "ICY",
				Icon:           "🧊",
				Color:          "#ef4444",
				Description:    fmt.Sprintf("Ice storm - %s", truncate(alert.Headline, 60)),
				Recommendation: "⚠️ DANGEROUS - Avoid travel if possible",
			}
		}
	}

	if temp <= freezingF && containsAny(cond, icePrecipKeywords) {
		return types.RoadCondition{
			Condition:      types.RoadIcy,
			Severity:       3,
			Label:          "ICY ROADS",
			Icon:           "🧊",
			Color:          "#ef4444",
			Description:    fmt.Sprintf("Freezing precipitation at %d°F", temp),
			Recommendation: "⚠️ Black ice likely - Reduce speed to 25 mph on bridges",
		}
	}

	if strings.Contains(cond, "snow") || strings.Contains(cond, "blizzard") {
		severity := 2
		if strings.Contains(cond, "heavy") || strings.Contains(cond, "blizzard") {
			severity = 3
		}
		return types.RoadCondition{
			Condition:      types.RoadSnowCovered,
			Severity:       severity,
			Label:          "SNOW",
			Icon:           "❄️",
			Color:          "#93c5fd",
			Description:    fmt.Sprintf("Snow conditions at %d°F", temp),
			Recommendation: "🚗 Reduce speed 50%, increase following distance to 8 seconds",
		}
	}

	// Just above freezing: bridges and overpasses may have refrozen.
	if temp > freezingF && temp <= refreezeBandF {
		return types.RoadCondition{
			Condition:      types.RoadSlippery,
			Severity:       2,
			Label:          "SLIPPERY",
			Icon:           "⚠️",
			Color:          "#f59e0b",
			Description:    fmt.Sprintf("Near-freezing %d°F - bridges/overpasses may be icy", temp),
			Recommendation: "⚡ Watch for black ice on elevated surfaces",
		}
	}

	if strings.Contains(cond, "fog") || strings.Contains(cond, "mist") || strings.Contains(cond, "smoke") {
		return types.RoadCondition{
			Condition:      types.RoadLowVisibility,
			Severity:       2,
			Label:          "LOW VIS",
			Icon:           "🌫️",
			Color:          "#9ca3af",
			Description:    "Fog/reduced visibility",
			Recommendation: "💡 Low beams only, reduce speed to match visibility",
		}
	}

	if wind > dangerousWindMP {
		return types.RoadCondition{
			Condition:      types.RoadDangerousWind,
			Severity:       3,
			Label:          "HIGH WIND",
			Icon:           "💨",
			Color:          "#8b5cf6",
			Description:    fmt.Sprintf("Dangerous crosswinds at %d mph", wind),
			Recommendation: "🚛 HIGH-PROFILE VEHICLES: Consider stopping until winds subside",
		}
	}

	if containsAny(cond, wetKeywords) {
		severity := 1
		if strings.Contains(cond, "heavy") || strings.Contains(cond, "thunder") {
			severity = 2
		}
		return types.RoadCondition{
			Condition:      types.RoadWet,
			Severity:       severity,
			Label:          "WET",
			Icon:           "💧",
			Color:          "#3b82f6",
			Description:    fmt.Sprintf("Wet roads - %s", cond),
			Recommendation: "🌧️ Headlights on, increase following distance to 4 seconds",
		}
	}

	desc := cond
	if desc == "" {
		desc = "Clear"
	}
	return types.RoadCondition{
		Condition:      types.RoadDry,
		Severity:       0,
		Label:          "DRY",
		Icon:           "✓",
		Color:          "#22c55e",
		Description:    fmt.Sprintf("Good conditions - %d°F, %s", temp, desc),
		Recommendation: "✅ Normal driving conditions",
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
