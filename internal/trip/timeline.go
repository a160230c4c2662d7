package trip

import (
	"sort"

	"routecast/internal/types"
)

const (
	timelinePerWaypoint = 4
	maxTimelineEntries  = 12
)

// WeatherTimeline merges the first few hourly entries from every waypoint
// forecast into one chronological timeline, deduplicated by timestamp.
func WeatherTimeline(waypoints []types.WaypointWeather) []types.HourlyForecast {
	var timeline []types.HourlyForecast
	seen := map[string]bool{}

	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}
		entries := wp.Weather.HourlyForecast
		if len(entries) > timelinePerWaypoint {
			entries = entries[:timelinePerWaypoint]
		}
		for _, entry := range entries {
			if seen[entry.Time] {
				continue
			}
			seen[entry.Time] = true
			timeline = append(timeline, entry)
		}
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Time < timeline[j].Time
	})
	if len(timeline) > maxTimelineEntries {
		timeline = timeline[:maxTimelineEntries]
	}
	return timeline
}
